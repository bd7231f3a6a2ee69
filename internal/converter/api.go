package converter

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/chriserin/xlfeat/internal/model"
	"github.com/chriserin/xlfeat/internal/substitute"
	"github.com/chriserin/xlfeat/internal/workbook"
)

// APITest row parameters.
const (
	paramGetSheet            = "GetSheet"
	paramRequestHeader       = "RequestHeader"
	paramRequestHeaderString = "RequestHeaderString"
	paramRequestSheet        = "RequestSheet"
	paramURL                 = "URL"
	paramValidationSheet     = "ValidationSheet"

	paramDBConnectionString = "DBConnectionString"
	paramDBLocation         = "DBLocation"
	paramDBQuery            = "DBQuery"
	paramDBValidation       = "ValidationString"

	paramProjectName  = "ProjectName"
	paramTestCaseName = "TestCaseName"
)

const defaultWaitSeconds = 2

var (
	responseCodePattern  = regexp.MustCompile(`(?i)response\s*code`)
	headerPattern        = regexp.MustCompile(`.*:\s*(.*)`)
	whitespacePattern    = regexp.MustCompile(`\s`)
	requestHeaderSchema  = gojsonschema.NewStringLoader(`{
  "type": "array",
  "items": {
    "type": "object",
    "properties": {"Key": {"type": "string"}, "Value": {"type": ["string", "null"]}},
    "required": ["Key"]
  }
}`)
	requestHeaderKeys = []string{"accept", "authorization", "content-type", "returnoutputtype", "verb"}
)

// fileContext is the state shared by the parsers of one workbook.
type fileContext struct {
	book     *workbook.SpreadSheet
	data     *TestDataSheet
	common   *CommonSheet
	selector string
	log      *zap.Logger
}

type apiParser func(fc *fileContext, row int) (model.ScenarioSource, error)

var apiParsers = map[string]apiParser{
	actionCreateKeyword: parseCreateKeyword,
	actionDatabaseTest:  parseDatabaseTest,
	actionSharedStep:    parseSharedStep,
	actionWait:          parseWaitScenario,
	actionWebService:    parseAPITest,
}

func parseCreateKeyword(fc *fileContext, row int) (model.ScenarioSource, error) {
	keywords := substituteValues(fc.data.NameValuePairs(row))
	if len(keywords) == 0 {
		return nil, fmt.Errorf("%w in create keyword action", ErrNoData)
	}
	return model.CreateKeywordScenario{Keywords: keywords}, nil
}

func substituteValues(pairs []model.Pair) []model.Pair {
	out := make([]model.Pair, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, model.Pair{Expression: p.Expression, Value: substitute.Value(p.Value)})
	}
	return out
}

func parseDatabaseTest(fc *fileContext, row int) (model.ScenarioSource, error) {
	params := fc.data.parameters(row)
	for _, name := range []string{paramDBConnectionString, paramDBQuery, paramDBLocation, paramDBValidation} {
		if params[name] == "" {
			return nil, fmt.Errorf("%w: %s for database test", ErrMissingParameter, name)
		}
	}
	return model.DatabaseTest{
		ConnectionString: params[paramDBConnectionString],
		Location:         params[paramDBLocation],
		Query:            params[paramDBQuery],
		ResultJSON:       params[paramDBValidation],
	}, nil
}

func parseSharedStep(fc *fileContext, row int) (model.ScenarioSource, error) {
	pairs := fc.data.NameValuePairs(row)
	params := fc.data.parameters(row)
	project, testCase := params[paramProjectName], params[paramTestCaseName]
	if project == "" || testCase == "" {
		return nil, fmt.Errorf("%w: %s and %s for shared step", ErrMissingParameter, paramProjectName, paramTestCaseName)
	}
	return model.SharedStepTest{
		ProjectName:  strings.ToLower(project),
		TestCaseName: strings.ToLower(testCase),
		Keywords:     pairs,
		Row:          row,
	}, nil
}

func parseSeconds(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return defaultWaitSeconds
	}
	return n
}

func parseWaitScenario(fc *fileContext, row int) (model.ScenarioSource, error) {
	return model.WaitScenario{Seconds: parseSeconds(fc.data.ObjectValue1(row))}, nil
}

// requestType detects the template kind of a request sheet: a "url" row
// marks a get request, otherwise the top-left cell names the body format.
func requestType(s *workbook.Sheet) (model.RequestType, templateParser, error) {
	if _, ok := urlRow(s); ok {
		return model.RequestGet, parseGetRequests, nil
	}
	switch s.Cell(0, 0) {
	case "Json":
		return model.RequestJSON, parseJSONRequests, nil
	case "XMLTagNamesStart":
		return model.RequestXML, parseXMLRequests, nil
	}
	return "", nil, fmt.Errorf("%w %q in sheet %s", ErrUnknownRequestType, s.Cell(0, 0), s.Name)
}

func (fc *fileContext) sheet(params map[string]string, param string, required bool) (*workbook.Sheet, error) {
	name, ok := params[param]
	if !ok {
		if required {
			return nil, fmt.Errorf("%w: %s", ErrMissingParameter, param)
		}
		return nil, nil
	}
	s, err := fc.book.Sheet(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q", ErrMissingSheet, param, name)
	}
	return s, nil
}

func parseAPITest(fc *fileContext, row int) (model.ScenarioSource, error) {
	params := fc.data.parameters(row)
	requestSheet, err := fc.sheet(params, paramRequestSheet, true)
	if err != nil {
		return nil, err
	}
	validationSheet, err := fc.sheet(params, paramValidationSheet, false)
	if err != nil {
		return nil, err
	}
	getSheet, err := fc.sheet(params, paramGetSheet, false)
	if err != nil {
		return nil, err
	}

	kind, parse, err := requestType(requestSheet)
	if err != nil {
		return nil, err
	}
	inputs, err := parse(requestSheet, fc.log)
	if err != nil {
		return nil, err
	}

	outputs := map[string][]model.Pair{}
	if validationSheet != nil {
		outputs = parseOutputs(validationSheet)
	}
	variables := map[string][]model.Pair{}
	if getSheet != nil {
		variables = parseOutputs(getSheet)
	}
	if fc.common != nil {
		for _, in := range inputs {
			commonOutputs, commonVariables := fc.common.Data(params[paramRequestSheet], in.input)
			if len(commonOutputs) > 0 {
				outputs[in.input] = append(outputs[in.input], commonOutputs...)
			}
			if len(commonVariables) > 0 {
				variables[in.input] = append(variables[in.input], commonVariables...)
			}
		}
	}

	var urls []string
	if kind == model.RequestGet {
		for _, in := range inputs {
			urls = append(urls, in.body)
		}
	} else if urls, err = parseURLs(params, len(inputs)); err != nil {
		return nil, err
	}
	header, err := parseRequestHeader(params, fc.log.With(zap.Int("row", row+1)))
	if err != nil {
		return nil, err
	}

	prefix := fmt.Sprintf("%02d", row)
	scenarios := make([]model.APIScenario, 0, len(inputs))
	for i, in := range inputs {
		sc := model.APIScenario{
			Name:          whitespacePattern.ReplaceAllString(prefix+"_"+in.input, "_"),
			Input:         in.input,
			RequestHeader: header,
			RequestType:   kind,
			URL:           urls[0],
			Variables:     variables[in.input],
		}
		if len(urls) > 1 {
			sc.URL = urls[i]
		}
		if kind != model.RequestGet {
			sc.Request = in.body
		}
		if pairs, ok := outputs[in.input]; ok {
			for _, p := range pairs {
				if responseCodePattern.MatchString(p.Expression) {
					sc.ResponseCode = p.Value
				} else {
					sc.Outputs = append(sc.Outputs, p)
				}
			}
		} else {
			fc.log.Warn("no validation for scenario", zap.String("scenario", in.input), zap.Int("row", row+1))
		}
		scenarios = append(scenarios, sc)
	}
	if strings.EqualFold(fc.selector, "sapi") {
		for i := range scenarios {
			toSAPI(&scenarios[i])
		}
	}
	return model.APITest{Scenarios: scenarios}, nil
}

// toSAPI maps plain get/post headers to their SAPI forms and defaults urls
// without a host key to the SAPIAUTO host.
func toSAPI(sc *model.APIScenario) {
	switch strings.ToLower(sc.RequestHeader) {
	case "get":
		sc.RequestHeader = "SAPIGET"
	case "post":
		sc.RequestHeader = "SAPIPOST"
	}
	if !strings.Contains(sc.URL, "[") {
		sc.URL = "[SAPIAUTO]" + sc.URL
	}
}

func parseURLs(params map[string]string, scenarios int) ([]string, error) {
	param := strings.Trim(params[paramURL], "\n\r ")
	if param == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingParameter, paramURL)
	}
	var urls []string
	for _, u := range strings.Split(param, ",") {
		urls = append(urls, strings.TrimSpace(u))
	}
	if len(urls) != 1 && len(urls) != scenarios {
		return nil, fmt.Errorf("%w: expected %d but got %d", ErrURLCount, scenarios, len(urls))
	}
	return urls, nil
}

// parseRequestHeader returns the header descriptor. A "name: system" header
// is expanded with the fields of the RequestHeaderString key/value list.
func parseRequestHeader(params map[string]string, log *zap.Logger) (string, error) {
	header := params[paramRequestHeader]
	if header == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingParameter, paramRequestHeader)
	}
	m := headerPattern.FindStringSubmatch(header)
	if m == nil {
		return header, nil
	}
	fields, err := headerFields(params[paramRequestHeaderString])
	if err != nil {
		log.Warn("unable to parse request header string", zap.Error(err))
		fields = map[string]string{}
	}
	authorization, ok := fields["authorization"]
	if !ok {
		authorization = "null"
	}
	return fmt.Sprintf("(accept=%s,authorization=%s,content-type=%s,returnoutputtype=%s,sourcesystemidentifier=%s,verb=%s)",
		fields["accept"], authorization, fields["content-type"], fields["returnoutputtype"], m[1], fields["verb"]), nil
}

func headerFields(raw string) (map[string]string, error) {
	result, err := gojsonschema.Validate(requestHeaderSchema, gojsonschema.NewStringLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("validating %s: %w", paramRequestHeaderString, err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("%s validation failed: %v", paramRequestHeaderString, result.Errors())
	}
	var pairs []struct {
		Key   string
		Value *string
	}
	if err := json.Unmarshal([]byte(raw), &pairs); err != nil {
		return nil, fmt.Errorf("unmarshaling %s: %w", paramRequestHeaderString, err)
	}
	fields := map[string]string{}
	for _, p := range pairs {
		key := strings.ToLower(p.Key)
		for _, known := range requestHeaderKeys {
			if key == known {
				fields[key] = ""
				if p.Value != nil {
					fields[key] = *p.Value
				}
			}
		}
	}
	return fields, nil
}
