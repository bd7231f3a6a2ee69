package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/chriserin/xlfeat/internal/db"
	"github.com/chriserin/xlfeat/internal/ui"
)

var showCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Show the latest conversion of a workbook and its scenarios",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := ledgerPathFor(ledgerFlag)
		if err != nil {
			return err
		}
		return RunShow(cmd.OutOrStdout(), path, args[0])
	},
}

func init() {
	showCmd.Flags().StringVar(&ledgerFlag, "ledger", "", "Ledger database (default from config)")
	rootCmd.AddCommand(showCmd)
}

func RunShow(w io.Writer, ledgerPath, file string) error {
	sqlDB, err := db.Open(ledgerPath)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer sqlDB.Close()

	c, err := db.LatestConversion(sqlDB, file)
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("no conversion recorded for %s", file)
	}
	if err != nil {
		return err
	}

	ui.ShowHeader(w, c.FilePath, c.Status, c.ConvertedAt.Local().Format(time.DateTime))
	if c.Status == db.StatusFailed {
		fmt.Fprintln(w, c.Message)
		return nil
	}
	if c.Externalized {
		fmt.Fprintln(w, "requests externalized")
	}

	scenarios, err := db.Scenarios(sqlDB, c.ID)
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	for _, s := range scenarios {
		ui.ScenarioLine(w, s.Line, s.Name)
	}
	return nil
}
