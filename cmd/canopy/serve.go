package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/canopyhq/canopy/internal/logging"
	canopyhttp "github.com/canopyhq/canopy/pkg/adapters/http"
	"github.com/canopyhq/canopy/pkg/adapters/file"
	"github.com/canopyhq/canopy/pkg/adapters/memory"
	"github.com/canopyhq/canopy/pkg/adapters/redis"
	"github.com/canopyhq/canopy/pkg/persistence/middleware"
	"github.com/canopyhq/canopy/pkg/ports"
	"github.com/canopyhq/canopy/pkg/runlock"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the flow API server",
	Long:  `Starts the HTTP server exposing the flow library, validation, and run endpoints as a JSON API.`,
	Run: func(cmd *cobra.Command, args []string) {
		addr, _ := cmd.Flags().GetString("addr")
		runnerName, _ := cmd.Flags().GetString("runner")

		logger := logging.New(slog.LevelInfo)

		store, locks, err := buildStore(cmd, logger)
		if err != nil {
			fmt.Printf("Error configuring store: %v\n", err)
			os.Exit(1)
		}

		r, err := runners.Get(runnerName)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		opts := []canopyhttp.Option{
			canopyhttp.WithLogger(logger),
			canopyhttp.WithMetrics(prometheus.NewRegistry()),
		}
		if locks != nil {
			opts = append(opts, canopyhttp.WithRunLocks(locks))
		}
		server := canopyhttp.NewServer(store, r, opts...)

		srv := &http.Server{
			Addr:    addr,
			Handler: server.Handler(),
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting Canopy Server on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Canopy Server stopped gracefully")
		}
	},
}

// buildStore assembles the persistence backend from the serve flags.
// With redis it also returns a run-lock manager backed by a distributed
// lock, so replicas sharing the store cannot run the same flow twice.
func buildStore(cmd *cobra.Command, logger *slog.Logger) (ports.FlowStore, *runlock.Manager, error) {
	backend, _ := cmd.Flags().GetString("store")
	flowsDir, _ := cmd.Flags().GetString("flows-dir")
	redisAddr, _ := cmd.Flags().GetString("redis-addr")
	encryptionKey, _ := cmd.Flags().GetString("encryption-key")

	var store ports.FlowStore
	var locks *runlock.Manager

	switch backend {
	case "memory":
		store = memory.NewStore()
	case "file":
		store = file.New(flowsDir)
	case "redis":
		client := goredis.NewClient(&goredis.Options{Addr: redisAddr})
		store = redis.NewFromClient(client)
		locks = runlock.NewManager(
			runlock.WithLocker(redis.NewLocker(client, "canopy:")),
			runlock.WithLogger(logger),
		)
	default:
		return nil, nil, fmt.Errorf("unknown store backend: %s (supported: memory, file, redis)", backend)
	}

	if encryptionKey != "" {
		key, err := hex.DecodeString(encryptionKey)
		if err != nil {
			return nil, nil, fmt.Errorf("encryption key must be hex encoded: %w", err)
		}
		if len(key) != 32 {
			return nil, nil, fmt.Errorf("encryption key must be 32 bytes (64 hex chars), got %d", len(key))
		}
		store = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey: key,
		})(store)
	}

	return store, locks, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().String("runner", "dry-run", "Execution backend for run requests")
	serveCmd.Flags().String("store", "memory", "Persistence backend: memory, file or redis")
	serveCmd.Flags().String("flows-dir", ".canopy/flows", "Directory for the file store")
	serveCmd.Flags().String("redis-addr", "localhost:6379", "Redis address for the redis store")
	serveCmd.Flags().String("encryption-key", "", "Hex encoded AES-256 key; enables at-rest flow encryption")
}
