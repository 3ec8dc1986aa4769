package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"signal-directory/directory"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envFile, port, logLevel string
	cmd := &cobra.Command{
		Use:           "signal-directory",
		Short:         "Signaling directory for peer-to-peer rooms",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := MustLoadConfig(envFile)
			if cmd.Flags().Changed("port") {
				config.Port = port
			}
			if cmd.Flags().Changed("log-level") {
				config.LogLevel = logLevel
			}
			err := run(cmd.Context(), config)
			if err != nil {
				log.Error().Err(err).Msg("Server stopped")
			}
			return err
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", "", "load environment from this file instead of .env")
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	return cmd
}

func run(ctx context.Context, config *Config) error {
	SetupLogger(config.LogLevel)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	connections := NewConnections()
	dir := directory.New(connections, directory.Options{
		MaxMembers:    config.MaxInRoom,
		IdleThreshold: config.IdleThreshold,
		FullThreshold: config.FullThreshold,
	})
	go dir.RunCollector(ctx, config.GCPeriod)

	admission := NewAdmission(config.JwtSecret, config.AdmissionTTL)
	handler := HTTPHandler{
		Directory:     dir,
		Connections:   connections,
		Verifier:      NewHCaptcha(config.HCaptchaSecret, config.HCaptchaVerifyURL, &http.Client{Timeout: config.VerifyTimeout}),
		Admission:     admission,
		VerifyTimeout: config.VerifyTimeout,
	}
	server := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           NewHTTPServer(handler, config),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
		connections.CloseAll()
	}()

	LogStartedServer(config.Port)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
