package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/chriserin/xlfeat/internal/workbook"
)

var normalizeFlag bool

var diffCmd = &cobra.Command{
	Use:   "diff <file1> <file2>",
	Short: "Compare two workbooks cell by cell",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunDiff(cmd.OutOrStdout(), args[0], args[1], normalizeFlag)
	},
}

func init() {
	diffCmd.Flags().BoolVar(&normalizeFlag, "normalize", false, "Read the second file's integers as cents and (n) as negative")
	rootCmd.AddCommand(diffCmd)
}

func RunDiff(w io.Writer, path1, path2 string, normalize bool) error {
	a, err := workbook.Load(path1)
	if err != nil {
		return err
	}
	b, err := workbook.Load(path2)
	if err != nil {
		return err
	}
	if normalize {
		b.Normalize()
	}
	workbook.Diff(w, a, b)
	return nil
}
