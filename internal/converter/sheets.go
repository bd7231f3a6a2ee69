// Package converter turns workbook sheets into scenario sources.
package converter

import (
	"fmt"
	"strings"

	"github.com/chriserin/xlfeat/internal/model"
	"github.com/chriserin/xlfeat/internal/substitute"
	"github.com/chriserin/xlfeat/internal/workbook"
)

// Test data headers.
const (
	headerCondition    = "conditional/flag"
	headerEnvironment  = "environment"
	headerObjectName1  = "objectname1"
	headerRunType      = "runtype"
	headerTestAction   = "testingactionfunctionality"
	headerTestCaseName = "testcasename"
	headerTimeout      = "timeout"
)

// Repository headers.
const (
	headerBrowserTitle           = "browsertitle"
	headerBrowserURL             = "browserurl"
	headerClassName              = "classname"
	headerDescriptiveProgramming = "descriptiveprogramming"
	headerFrame                  = "frame"
	headerID                     = "id"
	headerInnerText              = "innertext"
	headerName                   = "name"
	headerObjectName             = "objectname"
	headerRecoveryScenario       = "recoveryscenario"
	headerTagName                = "tagname"
	headerType                   = "type"
	headerXPath                  = "xpath"
)

// Common sheet headers.
const (
	headerRequestSheet = "requestsheet"
	headerScenario     = "scenario"
	headerKind         = "kind"
	headerExpression   = "expression"
	headerValue        = "value"
)

// HeaderMap maps lower-cased recognized header names to column indexes.
type HeaderMap map[string]int

// NewHeaderMap scans row 0 of s. Headers outside recognized are ignored.
func NewHeaderMap(s *workbook.Sheet, recognized ...string) HeaderMap {
	known := make(map[string]bool, len(recognized))
	for _, name := range recognized {
		known[name] = true
	}
	h := HeaderMap{}
	for c := 0; c < s.Columns; c++ {
		header := strings.ToLower(s.Cell(0, c))
		if known[header] {
			h[header] = c
		}
	}
	return h
}

// Column returns the index of the named header.
func (h HeaderMap) Column(name string) (int, error) {
	c, ok := h[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingColumn, name)
	}
	return c, nil
}

func (h HeaderMap) require(names ...string) error {
	for _, name := range names {
		if _, err := h.Column(name); err != nil {
			return err
		}
	}
	return nil
}

// cell returns the value under header name, or "" when the header is absent.
func (h HeaderMap) cell(s *workbook.Sheet, row int, name string) string {
	c, ok := h[name]
	if !ok {
		return ""
	}
	return s.Cell(row, c)
}

// TestDataSheet is the control sheet listing one action per row.
type TestDataSheet struct {
	sheet       *workbook.Sheet
	headers     HeaderMap
	marker      string
	environment string
}

// NewTestDataSheet wraps s. Rows are runnable when their run type equals
// marker and their environment is empty or contains environment.
func NewTestDataSheet(s *workbook.Sheet, marker, environment string) (*TestDataSheet, error) {
	h := NewHeaderMap(s, headerRunType, headerEnvironment, headerObjectName1, headerTestAction,
		headerTestCaseName, headerTimeout, headerCondition)
	if err := h.require(headerRunType, headerTestAction, headerObjectName1); err != nil {
		return nil, fmt.Errorf("sheet %s: %w", s.Name, err)
	}
	return &TestDataSheet{
		sheet:       s,
		headers:     h,
		marker:      strings.ToLower(marker),
		environment: strings.ToLower(environment),
	}, nil
}

func (t *TestDataSheet) Name() string { return t.sheet.Name }
func (t *TestDataSheet) Rows() int    { return t.sheet.Rows }

// Action returns the lower-cased testing action of row.
func (t *TestDataSheet) Action(row int) string {
	return strings.ToLower(t.headers.cell(t.sheet, row, headerTestAction))
}

func (t *TestDataSheet) Runnable(row int) bool {
	if strings.ToLower(t.headers.cell(t.sheet, row, headerRunType)) != t.marker {
		return false
	}
	env := t.headers.cell(t.sheet, row, headerEnvironment)
	return env == "" || strings.Contains(strings.ToLower(env), t.environment)
}

// NameValuePairs returns the (object name, value) pairs of row, read two
// columns at a time from ObjectName1. Pairs with an empty side are dropped.
func (t *TestDataSheet) NameValuePairs(row int) []model.Pair {
	var pairs []model.Pair
	for c := t.headers[headerObjectName1]; c < t.sheet.Columns-1; c += 2 {
		name, value := t.sheet.Cell(row, c), t.sheet.Cell(row, c+1)
		if name != "" && value != "" {
			pairs = append(pairs, model.Pair{Expression: name, Value: value})
		}
	}
	return pairs
}

func (t *TestDataSheet) ObjectName1(row int) string {
	return t.sheet.Cell(row, t.headers[headerObjectName1])
}

func (t *TestDataSheet) ObjectValue1(row int) string {
	return t.sheet.Cell(row, t.headers[headerObjectName1]+1)
}

func (t *TestDataSheet) TestCaseName(row int) string {
	return t.headers.cell(t.sheet, row, headerTestCaseName)
}

// parameters indexes the row pairs by name. Later duplicates win.
func (t *TestDataSheet) parameters(row int) map[string]string {
	params := map[string]string{}
	for _, p := range t.NameValuePairs(row) {
		params[p.Expression] = p.Value
	}
	return params
}

// RepositorySheet is one sheet of the UI object repository workbook.
type RepositorySheet struct {
	sheet   *workbook.Sheet
	headers HeaderMap
}

func NewRepositorySheet(s *workbook.Sheet) (*RepositorySheet, error) {
	h := NewHeaderMap(s, headerBrowserTitle, headerBrowserURL, headerClassName, headerDescriptiveProgramming,
		headerFrame, headerID, headerInnerText, headerName, headerObjectName, headerRecoveryScenario,
		headerTagName, headerTimeout, headerType, headerXPath)
	if err := h.require(headerObjectName); err != nil {
		return nil, fmt.Errorf("sheet %s: %w", s.Name, err)
	}
	return &RepositorySheet{sheet: s, headers: h}, nil
}

func (r *RepositorySheet) Rows() int { return r.sheet.Rows }

// UIObject reads the object on row. It reports false when the row has no object name.
func (r *RepositorySheet) UIObject(row int) (model.UIObject, bool) {
	cell := func(name string) string { return r.headers.cell(r.sheet, row, name) }
	name := cell(headerObjectName)
	if name == "" {
		return model.UIObject{}, false
	}
	return model.UIObject{
		BrowserTitle:           cell(headerBrowserTitle),
		BrowserURL:             cell(headerBrowserURL),
		ClassName:              cell(headerClassName),
		DescriptiveProgramming: cell(headerDescriptiveProgramming),
		Frame:                  cell(headerFrame),
		ID:                     cell(headerID),
		InnerText:              cell(headerInnerText),
		Name:                   cell(headerName),
		ObjectName:             strings.ToLower(name),
		RecoveryScenario:       cell(headerRecoveryScenario),
		TagName:                cell(headerTagName),
		Timeout:                cell(headerTimeout),
		Type:                   cell(headerType),
		XPath:                  cell(headerXPath),
	}, true
}

// CommonSheet holds validations and variable captures shared by every
// scenario of a request sheet.
type CommonSheet struct {
	sheet   *workbook.Sheet
	headers HeaderMap
}

func NewCommonSheet(s *workbook.Sheet) (*CommonSheet, error) {
	h := NewHeaderMap(s, headerRequestSheet, headerScenario, headerKind, headerExpression, headerValue)
	if err := h.require(headerRequestSheet, headerKind, headerExpression); err != nil {
		return nil, fmt.Errorf("sheet %s: %w", s.Name, err)
	}
	return &CommonSheet{sheet: s, headers: h}, nil
}

// Data returns the validations and variable captures that apply to the
// scenario of requestSheet. An empty or "*" scenario cell applies to all.
func (c *CommonSheet) Data(requestSheet, scenario string) (outputs, variables []model.Pair) {
	for r := 1; r < c.sheet.Rows; r++ {
		cell := func(name string) string { return c.headers.cell(c.sheet, r, name) }
		if !strings.EqualFold(cell(headerRequestSheet), requestSheet) {
			continue
		}
		if sc := cell(headerScenario); sc != "" && sc != "*" && !strings.EqualFold(sc, scenario) {
			continue
		}
		expression := cell(headerExpression)
		if expression == "" {
			continue
		}
		pair := model.Pair{Expression: expression, Value: substitute.Value(cell(headerValue))}
		switch strings.ToLower(cell(headerKind)) {
		case "validate":
			outputs = append(outputs, pair)
		case "store":
			variables = append(variables, pair)
		}
	}
	return outputs, variables
}
