package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chriserin/xlfeat/internal/db"
)

var dbtestsCmd = &cobra.Command{
	Use:   "dbtests <file>",
	Short: "List the database tests recorded for a workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := ledgerPathFor(ledgerFlag)
		if err != nil {
			return err
		}
		return RunDBTests(cmd.OutOrStdout(), path, args[0])
	},
}

func init() {
	dbtestsCmd.Flags().StringVar(&ledgerFlag, "ledger", "", "Ledger database (default from config)")
	rootCmd.AddCommand(dbtestsCmd)
}

func RunDBTests(w io.Writer, ledgerPath, file string) error {
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

	tests, err := db.DatabaseTests(sqlDB, c.ID)
	if err != nil {
		return err
	}
	if len(tests) == 0 {
		fmt.Fprintf(w, "no database tests for %s\n", c.FilePath)
		return nil
	}
	for i, t := range tests {
		fmt.Fprintf(w, "%d. %s\n", i+1, t.Location)
		fmt.Fprintf(w, "  connection: %s\n", t.ConnectionString)
		fmt.Fprintf(w, "  query:      %s\n", t.Query)
		fmt.Fprintf(w, "  validation: %s\n", t.ResultJSON)
	}
	return nil
}
