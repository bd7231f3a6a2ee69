package workbook

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var (
	negativePattern = regexp.MustCompile(`^\s*\((\d+)\)\s*$`)
	integerPattern  = regexp.MustCompile(`^\s*(-?\d+)\s*$`)
)

// Normalize rewrites accounting-style cells of every sheet in place:
// "(123)" becomes "-123" and integer cells are read as cents ("-150" becomes "-1.5").
func (ss *SpreadSheet) Normalize() {
	for _, name := range ss.order {
		s := ss.sheets[name]
		for r := range s.cells {
			for c, cell := range s.cells[r] {
				if m := negativePattern.FindStringSubmatch(cell); m != nil {
					cell = "-" + m[1]
				}
				if m := integerPattern.FindStringSubmatch(cell); m != nil {
					cell = cents(m[1])
				}
				s.cells[r][c] = cell
			}
		}
	}
}

func cents(digits string) string {
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return digits
	}
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := fmt.Sprintf("%s%d.%02d", sign, n/100, n%100)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// Diff writes a cell-by-cell comparison of every sheet of a against the
// sheet of the same name in b. Equal cells print blank; differing cells
// print "a/b".
func Diff(w io.Writer, a, b *SpreadSheet) {
	for _, name := range a.SheetNames() {
		fmt.Fprintf(w, "Sheet: %s\n", name)
		s1, _ := a.Sheet(name)
		s2, err := b.Sheet(name)
		if err != nil {
			fmt.Fprintln(w, "Sheet not found in second file")
			continue
		}
		if s1.Rows != s2.Rows || s1.Columns != s2.Columns {
			fmt.Fprintf(w, "Expected dimensions differ. file1 (%d,%d) file2 (%d,%d)\n",
				s1.Rows, s1.Columns, s2.Rows, s2.Columns)
			continue
		}
		for r := 0; r < s1.Rows; r++ {
			var line strings.Builder
			fmt.Fprintf(&line, "row %d |", r+1)
			for c := 0; c < s1.Columns; c++ {
				v1, v2 := s1.Cell(r, c), s2.Cell(r, c)
				if v1 == v2 {
					line.WriteString(" |")
				} else {
					fmt.Fprintf(&line, " %s/%s |", v1, v2)
				}
			}
			fmt.Fprintln(w, line.String())
		}
	}
}
