package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/boviclouds/muzzle-id/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the identification web server",
	Long: `Start the Muzzle ID web server.
The server exposes enrollment, prediction, and gallery management endpoints
backed by the configured object store and model servers.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := newServices(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Gallery loaded from %s (%d cows enrolled)\n", svc.store.Location(), svc.registry.Size())

	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(svc.cfg, port, host, web.Services{
		Registry:  svc.registry,
		Store:     svc.store,
		Enroller:  svc.enroller,
		Detector:  svc.detector,
		Extractor: svc.extractor,
		Images:    svc.blobs,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
		}
	}()

	return server.Start()
}
