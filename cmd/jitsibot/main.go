package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	httpapi "jitsibot/internal/api/http"
	"jitsibot/internal/api/http/logger"
	"jitsibot/internal/config"
	"jitsibot/internal/core/scanner"
	"jitsibot/internal/env"
	"jitsibot/internal/mastodon"
	"jitsibot/internal/store/hsm"
	"jitsibot/internal/utils"
)

func main() {
	configPath := flag.String("config", env.DefaultConfigPath, "path to the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	manager := config.NewManager(cfg)
	utils.SetDebug(cfg.LogLevel == "debug")

	// == bootstrap ==
	bootstrap := env.NewBootstrapManager(cfg.StorageDir)
	if err := bootstrap.SetupRuntime(); err != nil {
		log.Fatal(err)
	}

	// == state ==
	state := hsm.NewHsmManager(hsm.NewHsmStore(filepath.Join(cfg.StorageDir, env.StateFileName)))
	stored, err := state.GetState()
	if err != nil {
		log.Fatal(err)
	}

	// seed the rate observer with the reset period learned last run
	trunk := mastodon.NewClient(
		cfg.MastodonInstance,
		cfg.MastodonToken,
		time.Duration(stored.ApiResetPeriod)*time.Second,
	)
	tootScanner := scanner.NewTootScanner(manager, trunk, state)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// == rest api ==
	auditLogger, err := logger.NewFileLogger(env.AuditLogPath)
	if err != nil {
		log.Fatal(err)
	}
	defer auditLogger.Close()

	adminRouter := httpapi.NewApiRouter(tootScanner, state, trunk, auditLogger)
	adminSrv := &http.Server{
		Addr:    cfg.AdminAddr,
		Handler: adminRouter,
	}
	go func() {
		log.Printf("[*] admin server listening on %s", cfg.AdminAddr)
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = adminSrv.Shutdown(shutdownCtx)
	}()

	// == config reload ==
	go func() {
		if err := config.Watch(ctx, *configPath, manager); err != nil && ctx.Err() == nil {
			log.Printf("config: watcher stopped: %v", err)
		}
	}()

	// == streaming ==
	if cfg.Streaming {
		listener := mastodon.NewStreamListener(cfg.MastodonInstance, cfg.MastodonToken)
		go func() {
			if err := listener.Run(ctx); err != nil && ctx.Err() == nil {
				log.Printf("streaming: stopped: %v", err)
			}
		}()
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-listener.Notifications():
					tootScanner.Wake()
				}
			}
		}()
	}

	// == scanner ==
	log.Println("[*] Toot Scanning Start")
	if err := tootScanner.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal(err)
	}
}
