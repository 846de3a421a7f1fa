package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/queryflow/internal/db"
	mcpserver "github.com/ziadkadry99/queryflow/internal/mcp"
	"github.com/ziadkadry99/queryflow/internal/session"
	"github.com/ziadkadry99/queryflow/internal/turnlog"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing query-resolution tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
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

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "queryflow MCP server started on stdio (db=%s)\n", dbPath)

		srv := mcpserver.NewServer(engine, sessions, turns)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
