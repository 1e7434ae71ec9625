package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ndhoang/contractwatch/internal/core/config"
	"github.com/ndhoang/contractwatch/internal/infra/storage/postgres"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recently verified contracts",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	rows, err := db.QueryContext(ctx, `
		SELECT chain_id, address, status, verified_at
		FROM verified_contracts
		ORDER BY verified_at DESC
		LIMIT 50
	`)
	if err != nil {
		slog.Error("Failed to query verified contracts", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = rows.Close()
	}()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "CHAIN\tADDRESS\tSTATUS\tVERIFIED")

	for rows.Next() {
		var chainID uint64
		var address, status string
		var verifiedAt time.Time
		if err := rows.Scan(&chainID, &address, &status, &verifiedAt); err != nil {
			continue
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", chainID, address, status, verifiedAt.Format(time.RFC3339))
	}
	_ = w.Flush()
}
