package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"jitsibot/internal/core/scanner"
	"jitsibot/internal/mastodon"
	"jitsibot/internal/store/hsm"
	"jitsibot/internal/utils"
)

func NewRequestHandler(scannerHandler scanner.ScannerHandler, stateHandler hsm.HsmHandler, rateHandler mastodon.RateHandler) *RequestHandler {
	return &RequestHandler{
		scannerHandler: scannerHandler,
		stateHandler:   stateHandler,
		rateHandler:    rateHandler,
	}
}

type RequestHandler struct {
	scannerHandler scanner.ScannerHandler
	stateHandler   hsm.HsmHandler
	rateHandler    mastodon.RateHandler
}

// GetStatus godoc
// @Summary Bot status
// @Description current scanner state and horn window
// @Tags status
// @Produce json
// @Success 200 {object} ApiResponse
// @Router /v1/status [get]
func (h *RequestHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	st := h.scannerHandler.Status()

	resp := StatusResponse{
		AccountId:     st.AccountId,
		LastNoteId:    st.LastNoteId,
		HornWindowSec: int(st.HornWindow.Seconds()),
		HornInFlight:  st.HornInFlight,
		Uptime:        utils.TimeToText(time.Since(st.StartedAt)),
	}
	if !st.LastHornTime.IsZero() {
		resp.LastHornTime = st.LastHornTime.Format(time.RFC3339)
	}
	if st.WindowRemaining > 0 {
		resp.WindowRemaining = utils.TimeToText(st.WindowRemaining)
	}

	// encode response
	h.responsdSuccess(w, http.StatusOK, "bot status", resp)
}

// GetRateLimit godoc
// @Summary Observed rate limit
// @Description remaining call budget and the observed reset period
// @Tags ratelimit
// @Produce json
// @Success 200 {object} ApiResponse
// @Router /v1/ratelimit [get]
func (h *RequestHandler) GetRateLimit(w http.ResponseWriter, r *http.Request) {
	resp := RateLimitResponse{
		Remaining:        h.rateHandler.RateRemaining(),
		ResetPeriodSec:   int(h.rateHandler.ObservedResetPeriod().Seconds()),
		TimeToReset:      utils.TimeToText(h.rateHandler.EstimatedTimeToReset()),
		EstimatedResetAt: h.rateHandler.EstimatedRateReset().Format(time.RFC3339),
	}

	// encode response
	h.responsdSuccess(w, http.StatusOK, "observed rate limit", resp)
}

// GetDeliveries godoc
// @Summary Recent horn deliveries
// @Description most recent horn fan-outs, newest last
// @Tags deliveries
// @Produce json
// @Success 200 {object} ApiResponse
// @Router /v1/deliveries [get]
func (h *RequestHandler) GetDeliveries(w http.ResponseWriter, r *http.Request) {
	deliveries, err := h.stateHandler.GetDeliveries()
	if err != nil {
		h.responsdFail(w, http.StatusInternalServerError, "store failed: "+err.Error(), nil)
		return
	}

	resp := make([]DeliveryResponse, 0, len(deliveries))
	for _, d := range deliveries {
		resp = append(resp, DeliveryResponse{
			DeliveryId: d.DeliveryId,
			Requestors: d.Requestors,
			Followers:  d.Followers,
			SoundedAt:  d.SoundedAt.Format(time.RFC3339),
		})
	}

	// encode response
	h.responsdSuccess(w, http.StatusOK, "recent deliveries", resp)
}

// SoundHorn godoc
// @Summary Sound the horn
// @Description start a horn fan-out to all followers
// @Tags horn
// @Produce json
// @Success 202 {object} ApiResponse
// @Failure 409 {object} ApiResponse
// @Router /v1/horn [post]
func (h *RequestHandler) SoundHorn(w http.ResponseWriter, r *http.Request) {
	// service: horn
	deliveryId, err := h.scannerHandler.TriggerHorn(r.Context())
	if err != nil {
		if errors.Is(err, scanner.ErrHornWindow) || errors.Is(err, scanner.ErrHornBusy) {
			h.responsdFail(w, http.StatusConflict, "horn refused: "+err.Error(), SoundHornResponse{DeliveryId: ""})
			return
		}
		h.responsdFail(w, http.StatusInternalServerError, "service failed: "+err.Error(), SoundHornResponse{DeliveryId: ""})
		return
	}

	// encode response
	h.responsdSuccess(w, http.StatusAccepted, "horn sounding", SoundHornResponse{DeliveryId: deliveryId})
}

func (h *RequestHandler) writeJson(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *RequestHandler) responsdSuccess(w http.ResponseWriter, statusCode int, message string, data any) {
	h.writeJson(w, statusCode, ApiResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

func (h *RequestHandler) responsdFail(w http.ResponseWriter, statusCode int, message string, data any) {
	h.writeJson(w, statusCode, ApiResponse{
		Status:  "fail",
		Message: message,
		Data:    data,
	})
}
