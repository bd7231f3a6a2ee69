package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOKLine(t *testing.T) {
	var buf bytes.Buffer
	OKLine(&buf, "in/a.xlsx", 3, true)

	assert.Contains(t, buf.String(), "in/a.xlsx")
	assert.Contains(t, buf.String(), "(3 scenarios, requests externalized)")
}

func TestFailedLine_FirstLineOnly(t *testing.T) {
	var buf bytes.Buffer
	FailedLine(&buf, "in/a.xlsx", "sheet TestData row 3: bad\nmore detail")

	assert.Contains(t, buf.String(), "sheet TestData row 3: bad")
	assert.NotContains(t, buf.String(), "more detail")
}

func TestSummaryLine(t *testing.T) {
	var buf bytes.Buffer
	SummaryLine(&buf, 4, 1)

	assert.Equal(t, "converted 4 files, 1 failed\n", buf.String())
}
