package converter

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/dlclark/regexp2"
	"go.uber.org/zap"

	"github.com/chriserin/xlfeat/internal/model"
	"github.com/chriserin/xlfeat/internal/substitute"
	"github.com/chriserin/xlfeat/internal/workbook"
)

// doNotInclude drops a template row for one scenario.
const doNotInclude = "DONOTINCLUDE"

var (
	emptyFieldPattern = regexp.MustCompile(`([^:]*):\s*,$`)
	lastNumberPattern = regexp2.MustCompile(`number(?!.*number)`, regexp2.None)
)

// request is the body (or url, for get requests) of one scenario column.
type request struct {
	input string // lower-cased scenario name
	body  string
}

type templateParser func(s *workbook.Sheet, log *zap.Logger) ([]request, error)

// inputValue returns the cell of a scenario column for a template row.
// Empty cells are empty values; it reports false for excluded rows.
func inputValue(s *workbook.Sheet, row, column int) (string, bool) {
	v := s.Cell(row, column)
	if v == doNotInclude {
		return "", false
	}
	return v, true
}

type jsonRow int

const (
	jsonOpening jsonRow = iota
	jsonClosing
	jsonField
)

func jsonRowType(template string) jsonRow {
	switch {
	case strings.ContainsAny(template, "{["):
		return jsonOpening
	case strings.ContainsAny(template, "}]"):
		return jsonClosing
	}
	return jsonField
}

// locateJSON returns the inclusive row bounds of the json template: the
// first opening bracket row and the last matching closing row.
func locateJSON(s *workbook.Sheet) (opening, closing int, ok bool) {
	opening, closing = -1, -1
	closer := ""
	for r := 0; r < s.Rows; r++ {
		cell := s.Cell(r, 0)
		if opening < 0 && (cell == "{" || cell == "[") {
			opening = r
			closer = map[string]string{"{": "}", "[": "]"}[cell]
		}
		if closer != "" && cell == closer {
			closing = r
		}
	}
	return opening, closing, opening >= 0 && closing >= 0
}

// substituteJSONField places value into a field template. A field written
// as `"key": ,` receives the value as is; otherwise the first type token
// found among rawstring, string, boolean and the last number is replaced.
func substituteJSONField(template, value string) string {
	if m := emptyFieldPattern.FindStringSubmatch(template); m != nil {
		return m[1] + ": " + value + ","
	}
	switch {
	case strings.Contains(template, "rawstring"):
		return strings.ReplaceAll(template, "rawstring", value)
	case strings.Contains(template, "string"):
		return strings.ReplaceAll(template, "string", strings.ReplaceAll(value, `"`, `\"`))
	case strings.Contains(template, "boolean"):
		return strings.ReplaceAll(template, "boolean", value)
	}
	out, err := lastNumberPattern.ReplaceFunc(template, func(regexp2.Match) string { return value }, -1, -1)
	if err != nil {
		return template
	}
	return out
}

func parseJSONRequests(s *workbook.Sheet, log *zap.Logger) ([]request, error) {
	opening, closing, ok := locateJSON(s)
	if !ok {
		return nil, fmt.Errorf("%w: json in sheet %s", ErrTemplateBounds, s.Name)
	}
	var (
		requests []request
		invalid  bool
	)
	for c := 1; c < s.Columns; c++ {
		name := s.Cell(0, c)
		if name == "" {
			log.Warn("missing scenario name in json request", zap.String("sheet", s.Name), zap.Int("column", c+1))
			continue
		}
		var (
			properties []string
			types      []jsonRow
		)
		for r := opening; r <= closing; r++ {
			template := s.Cell(r, 0)
			value, include := inputValue(s, r, c)
			if template == "" || !include {
				continue
			}
			kind := jsonRowType(template)
			types = append(types, kind)
			if kind != jsonField {
				properties = append(properties, template)
			} else {
				properties = append(properties, substituteJSONField(template, substitute.Value(value)))
			}
		}
		for i := 0; i < len(properties)-1; i++ {
			if types[i] != jsonOpening && types[i+1] == jsonClosing {
				properties[i] = strings.TrimRight(properties[i], ",")
			}
		}
		body := strings.Join(properties, "\n")
		if !json.Valid([]byte(body)) {
			log.Error("invalid json request",
				zap.String("sheet", s.Name), zap.Int("column", c+1), zap.String("body", body))
			invalid = true
			continue
		}
		requests = append(requests, request{input: strings.ToLower(name), body: body})
	}
	if invalid {
		return nil, fmt.Errorf("%w in sheet %s", ErrInvalidJSON, s.Name)
	}
	if len(requests) == 0 {
		return nil, fmt.Errorf("%w in sheet %s", ErrNoScenario, s.Name)
	}
	return requests, nil
}

// locateXML returns the first and last rows whose template starts with "<".
func locateXML(s *workbook.Sheet) (opening, closing int, ok bool) {
	opening, closing = -1, -1
	for r := 0; r < s.Rows; r++ {
		if !strings.HasPrefix(s.Cell(r, 0), "<") {
			continue
		}
		if opening < 0 {
			opening = r
		} else {
			closing = r
		}
	}
	return opening, closing, opening >= 0 && closing >= 0
}

var tagCleaner = strings.NewReplacer("{", "", "}", "")

func parseXMLRequests(s *workbook.Sheet, log *zap.Logger) ([]request, error) {
	opening, closing, ok := locateXML(s)
	if !ok {
		return nil, fmt.Errorf("%w: xml in sheet %s", ErrTemplateBounds, s.Name)
	}
	var requests []request
	for c := 2; c < s.Columns; c++ {
		name := s.Cell(0, c)
		if name == "" {
			log.Warn("missing scenario name in xml request", zap.String("sheet", s.Name), zap.Int("column", c+1))
			continue
		}
		var elements []string
		for r := opening; r <= closing; r++ {
			value, include := inputValue(s, r, c)
			if !include {
				continue
			}
			start, end := tagCleaner.Replace(s.Cell(r, 0)), tagCleaner.Replace(s.Cell(r, 1))
			switch {
			case start == "" && end == "":
			case end == "":
				elements = append(elements, start)
			default:
				elements = append(elements, start+substitute.Value(value)+end)
			}
		}
		requests = append(requests, request{input: strings.ToLower(name), body: strings.Join(elements, "\n")})
	}
	if len(requests) == 0 {
		return nil, fmt.Errorf("%w in sheet %s", ErrNoScenario, s.Name)
	}
	return requests, nil
}

func urlRow(s *workbook.Sheet) (int, bool) {
	for r := 1; r < s.Rows; r++ {
		if strings.EqualFold(s.Cell(r, 0), "url") {
			return r, true
		}
	}
	return 0, false
}

// parseGetRequests reads one url per scenario column. The request body of a
// get request is its url.
func parseGetRequests(s *workbook.Sheet, log *zap.Logger) ([]request, error) {
	row, ok := urlRow(s)
	if !ok {
		return nil, fmt.Errorf("%w: url row in sheet %s", ErrTemplateBounds, s.Name)
	}
	last := 0
	for last < s.Columns-1 && strings.EqualFold(s.Cell(row, last+1), "url") {
		last++
	}
	var (
		requests []request
		invalid  bool
	)
	for c := last + 1; c < s.Columns; c++ {
		name := s.Cell(0, c)
		if name == "" {
			log.Warn("missing scenario name in url request", zap.String("sheet", s.Name), zap.Int("column", c+1))
			continue
		}
		url := s.Cell(row, c)
		if url == "" {
			log.Error("missing url in url request", zap.String("sheet", s.Name), zap.Int("column", c+1))
			invalid = true
			continue
		}
		requests = append(requests, request{input: strings.ToLower(name), body: url})
	}
	if invalid {
		return nil, fmt.Errorf("%w: url in sheet %s", ErrMissingParameter, s.Name)
	}
	if len(requests) == 0 {
		return nil, fmt.Errorf("%w in sheet %s", ErrNoScenario, s.Name)
	}
	return requests, nil
}

// parseOutputs reads a validation or get sheet into lower-cased scenario
// name -> ordered (expression, value) pairs.
func parseOutputs(s *workbook.Sheet) map[string][]model.Pair {
	outputs := map[string][]model.Pair{}
	for c := 1; c < s.Columns; c++ {
		name := s.Cell(0, c)
		if name == "" {
			continue
		}
		var pairs []model.Pair
		for r := 1; r < s.Rows; r++ {
			expression, value := s.Cell(r, 0), s.Cell(r, c)
			if expression == "" || value == "" || value == doNotInclude {
				continue
			}
			pairs = append(pairs, model.Pair{Expression: expression, Value: substitute.Value(value)})
		}
		outputs[strings.ToLower(name)] = pairs
	}
	return outputs
}
