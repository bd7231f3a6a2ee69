package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/chriserin/xlfeat/internal/config"
	"github.com/chriserin/xlfeat/internal/db"
	"github.com/chriserin/xlfeat/internal/ui"
)

var (
	statusFlag string
	ledgerFlag string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "List recorded conversions, latest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := ledgerPathFor(ledgerFlag)
		if err != nil {
			return err
		}
		return RunReport(cmd.OutOrStdout(), path, statusFlag)
	},
}

func init() {
	reportCmd.Flags().StringVar(&statusFlag, "status", "", "Filter by status (ok or failed)")
	reportCmd.Flags().StringVar(&ledgerFlag, "ledger", "", "Ledger database (default from config)")
	rootCmd.AddCommand(reportCmd)
}

// ledgerPathFor returns flag when set, else the configured ledger path.
func ledgerPathFor(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return "", err
	}
	return cfg.LedgerPath, nil
}

func RunReport(w io.Writer, ledgerPath, status string) error {
	switch status {
	case "", db.StatusOK, db.StatusFailed:
	default:
		return fmt.Errorf("invalid status %q: use %s or %s", status, db.StatusOK, db.StatusFailed)
	}

	sqlDB, err := db.Open(ledgerPath)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer sqlDB.Close()

	conversions, err := db.Conversions(sqlDB, status)
	if err != nil {
		return err
	}

	pathWidth := 0
	ok, failed := 0, 0
	for _, c := range conversions {
		if len(c.FilePath) > pathWidth {
			pathWidth = len(c.FilePath)
		}
		if c.Status == db.StatusOK {
			ok++
		} else {
			failed++
		}
	}

	for _, c := range conversions {
		ui.ReportRow(w, c.ConvertedAt.Local().Format(time.DateTime), c.Mode, c.Status, c.FilePath, c.Message, pathWidth)
	}
	fmt.Fprintf(w, "Conversions: %d\n", len(conversions))
	if ok > 0 {
		fmt.Fprintf(w, "  %s: %d\n", db.StatusOK, ok)
	}
	if failed > 0 {
		fmt.Fprintf(w, "  %s: %d\n", db.StatusFailed, failed)
	}
	return nil
}
