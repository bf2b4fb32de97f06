package hsm

import "fmt"

func NewHsmManager(hsmStore *HsmStore) *HsmManager {
	return &HsmManager{
		hsmStore: hsmStore,
	}
}

type HsmManager struct {
	hsmStore *HsmStore
}

func (m *HsmManager) GetState() (HornState, error) {
	var state HornState
	err := m.hsmStore.withRLock(func(st *HornState) error {
		state = *st
		return nil
	})
	return state, err
}

func (m *HsmManager) SetLastNoteId(noteId string) error {
	if noteId == "" {
		return fmt.Errorf("empty notification id")
	}
	return m.hsmStore.withLock(func(st *HornState) error {
		st.LastNoteId = noteId
		return nil
	})
}

func (m *HsmManager) SetApiResetPeriod(seconds int) error {
	if seconds <= 0 {
		return fmt.Errorf("reset period must be positive, got %d", seconds)
	}
	return m.hsmStore.withLock(func(st *HornState) error {
		st.ApiResetPeriod = seconds
		return nil
	})
}

func (m *HsmManager) RecordHorn(delivery DeliveryInfo) error {
	return m.hsmStore.withLock(func(st *HornState) error {
		st.LastHornTime = delivery.SoundedAt.Unix()
		st.Deliveries = append(st.Deliveries, delivery)
		if len(st.Deliveries) > maxDeliveries {
			st.Deliveries = st.Deliveries[len(st.Deliveries)-maxDeliveries:]
		}
		return nil
	})
}

func (m *HsmManager) GetDeliveries() ([]DeliveryInfo, error) {
	var deliveries []DeliveryInfo
	err := m.hsmStore.withRLock(func(st *HornState) error {
		deliveries = append(deliveries, st.Deliveries...)
		return nil
	})
	return deliveries, err
}
