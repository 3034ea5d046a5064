package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TheGojiOG/mcadmin/internal/api"
	"github.com/TheGojiOG/mcadmin/internal/config"
	"github.com/TheGojiOG/mcadmin/internal/logging"
	"github.com/TheGojiOG/mcadmin/internal/policy"
	"github.com/TheGojiOG/mcadmin/internal/rcon"
	"github.com/TheGojiOG/mcadmin/internal/server"
	"github.com/TheGojiOG/mcadmin/internal/systemd"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if _, err := logging.Init(cfg.Logging); err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logging.Close()

	// The catalogue is validated once here and never reloaded.
	catalogue, err := policy.LoadFile(cfg.Policy.Path)
	if err != nil {
		log.Fatalf("Failed to load command policy: %v", err)
	}
	log.Printf("Loaded command policy: %d operator and %d admin patterns", len(catalogue.Operator()), len(catalogue.Admin()))

	console := rcon.NewClient(cfg.RCON.Address(), cfg.RCON.Password)
	dispatcher := server.NewDispatcher(policy.NewEngine(catalogue), console)

	units, err := systemd.NewUnitManager(cfg.Services)
	if err != nil {
		log.Fatalf("Failed to initialize %s service backend: %v", cfg.Services.Backend, err)
	}
	if closer, ok := units.(io.Closer); ok {
		defer closer.Close()
	}
	orchestrator := systemd.NewOrchestrator(units, systemd.Descriptors(cfg.Services))

	router := api.SetupRouter(cfg, dispatcher, orchestrator)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting gateway on %s (rcon %s, backend %s)", srv.Addr, console.Addr(), cfg.Services.Backend)

		var err error
		if cfg.Server.TLS.Enabled {
			err = srv.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down gateway...")

	// In-flight lifecycle actions are bounded at 10 seconds.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), systemd.ActionTimeout+5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Gateway forced to shutdown: %v", err)
	}

	log.Println("Gateway exited")
}
