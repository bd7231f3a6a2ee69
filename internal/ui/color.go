package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
	headerStyle = lipgloss.NewStyle().Bold(true)
)

func statusLabel(status string) string {
	switch status {
	case "ok":
		return okStyle.Render("ok    ")
	case "failed":
		return failedStyle.Render("failed")
	}
	return faintStyle.Render(fmt.Sprintf("%-6s", status))
}

// OKLine reports a converted workbook.
func OKLine(w io.Writer, path string, scenarios int, externalized bool) {
	detail := fmt.Sprintf("%d scenarios", scenarios)
	if externalized {
		detail += ", requests externalized"
	}
	fmt.Fprintln(w, statusLabel("ok")+"  "+path+"  "+faintStyle.Render("("+detail+")"))
}

// FailedLine reports a workbook that produced no feature.
func FailedLine(w io.Writer, path string, reason string) {
	fmt.Fprintln(w, statusLabel("failed")+"  "+path+"  "+faintStyle.Render(firstLine(reason)))
}

func SummaryLine(w io.Writer, converted, failed int) {
	fmt.Fprintf(w, "converted %d files, %d failed\n", converted, failed)
}

// ReportRow prints one ledger conversion with padded columns.
func ReportRow(w io.Writer, when, mode, status, path, message string, pathWidth int) {
	line := fmt.Sprintf("%s  %-3s  %s  %-*s", faintStyle.Render(when), mode, statusLabel(status), pathWidth, path)
	if message != "" {
		line += "  " + faintStyle.Render(firstLine(message))
	}
	fmt.Fprintln(w, strings.TrimRight(line, " "))
}

func ShowHeader(w io.Writer, path, status, when string) {
	fmt.Fprintln(w, headerStyle.Render(path)+"  "+statusLabel(status)+"  "+faintStyle.Render(when))
}

func ScenarioLine(w io.Writer, line int, name string) {
	fmt.Fprintf(w, "  %s  %s\n", faintStyle.Render(fmt.Sprintf("%5d", line)), name)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
