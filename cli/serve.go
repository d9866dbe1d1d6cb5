package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aqua777/go-treebridge/server"
	"github.com/aqua777/krait"
)

func runServe(args []string) error {
	app, err := NewApp()
	if err != nil {
		return err
	}
	log := app.logger

	// Preload so the first request does not pay for the model.
	if lang := krait.GetString(KeyLanguage); lang != "" {
		if err := app.session.LoadLanguage(context.Background(), lang); err != nil {
			return err
		}
	}

	srv := server.NewServer(app.session, log,
		server.WithMaxUploadBytes(int64(krait.GetInt(KeyMaxUpload))))

	httpServer := &http.Server{
		Addr:         krait.GetString(KeyAddr),
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Warn("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Warn("starting treebridge", "addr", httpServer.Addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return app.Close()
}
