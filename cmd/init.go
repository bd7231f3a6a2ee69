package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chriserin/xlfeat/internal/config"
	"github.com/chriserin/xlfeat/internal/db"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config and create the ledger in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunInit(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func RunInit(w io.Writer) error {
	// config file
	if _, err := os.Stat(config.FileName); err == nil {
		fmt.Fprintf(w, "%s already exists\n", config.FileName)
	} else {
		if err := config.WriteDefault(config.FileName); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s created\n", config.FileName)
	}

	cfg, err := config.Load(config.FileName)
	if err != nil {
		return err
	}

	// ledger
	_, err = os.Stat(cfg.LedgerPath)
	ledgerExists := err == nil
	sqlDB, err := db.Open(cfg.LedgerPath)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	sqlDB.Close()
	if ledgerExists {
		fmt.Fprintf(w, "%s already exists\n", cfg.LedgerPath)
	} else {
		fmt.Fprintf(w, "%s created\n", cfg.LedgerPath)
	}

	// gitignore
	msgs, err := ensureGitignore(cfg.LedgerPath)
	if err != nil {
		return fmt.Errorf("updating .gitignore: %w", err)
	}
	for _, msg := range msgs {
		fmt.Fprintln(w, msg)
	}

	return nil
}

func ensureGitignore(entry string) ([]string, error) {
	data, err := os.ReadFile(".gitignore")
	if os.IsNotExist(err) {
		if err := os.WriteFile(".gitignore", []byte(entry+"\n"), 0o644); err != nil {
			return nil, err
		}
		return []string{".gitignore created", entry + " added to .gitignore"}, nil
	}
	if err != nil {
		return nil, err
	}

	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == entry {
			return []string{entry + " already in .gitignore"}, nil
		}
	}

	content := string(data)
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += entry + "\n"

	if err := os.WriteFile(".gitignore", []byte(content), 0o644); err != nil {
		return nil, err
	}
	return []string{entry + " added to .gitignore"}, nil
}
