package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/queryflow/internal/api"
	"github.com/ziadkadry99/queryflow/internal/db"
	"github.com/ziadkadry99/queryflow/internal/server"
	"github.com/ziadkadry99/queryflow/internal/session"
	"github.com/ziadkadry99/queryflow/internal/turnlog"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the query-resolution HTTP server",
	Long:  `Starts the queryflow server with the analyze REST endpoint and the websocket chat channel.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serverPort != 0 {
			cfg.Port = serverPort
		}

		dbPath := filepath.Join(cfg.DataDir, "queryflow.db")
		database, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		provider := buildProvider(cfg)
		engine := buildEngine(cfg, provider)
		sessions := session.NewStore(database, sessionTTL(cfg))
		turns := turnlog.NewStore(database)

		srv := server.New(server.Config{
			Port:     cfg.Port,
			DataDir:  cfg.DataDir,
			AllowAll: true,
		}, database, engine, sessions, turns, provider)

		api.RegisterRoutes(srv.Router(), api.Deps{
			Engine:   engine,
			Sessions: sessions,
			Turns:    turns,
		})

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "queryflow server v%s starting on port %d\n", Version, cfg.Port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "  Provider: %s (%s)\n", cfg.Provider, cfg.Model)

		return srv.Start()
	},
}

func init() {
	serverCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "listen port (overrides config)")
	rootCmd.AddCommand(serverCmd)
}
