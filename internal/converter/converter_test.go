package converter

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/chriserin/xlfeat/internal/model"
	"github.com/chriserin/xlfeat/internal/workbook"
)

var testDataHeader = []string{"RunType", "Environment", "TestingActionFunctionality", "ObjectName1", "Value1", "ObjectName2", "Value2"}

func testData(rows ...[]string) *workbook.Sheet {
	return workbook.NewSheet("TestData", append([][]string{testDataHeader}, rows...))
}

func newTestDataSheet(t *testing.T, rows ...[]string) *TestDataSheet {
	t.Helper()
	td, err := NewTestDataSheet(testData(rows...), "g", "in1")
	require.NoError(t, err)
	return td
}

func newParser(t *testing.T) *Parser {
	return NewParser(Options{RunMarker: "g", Environment: "in1", TestDataSheet: "TestData", CommonSheet: "Common"}, zaptest.NewLogger(t))
}

func TestNewTestDataSheet_RequiresColumns(t *testing.T) {
	_, err := NewTestDataSheet(workbook.NewSheet("TestData", [][]string{{"RunType", "ObjectName1"}}), "g", "in1")

	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "testingactionfunctionality")
}

func TestTestDataSheet_Rows(t *testing.T) {
	td := newTestDataSheet(t,
		[]string{"G", "", "EnterData", "user", "bob", "pass", ""},
		[]string{"g", "QA2", "Wait"},
		[]string{"g", "IN1,QA2", "Wait", "", "5"},
		[]string{"x", "", "Wait"},
	)

	assert.Equal(t, "enterdata", td.Action(1))
	assert.True(t, td.Runnable(1))
	assert.False(t, td.Runnable(2), "environment does not match")
	assert.True(t, td.Runnable(3))
	assert.False(t, td.Runnable(4), "run type does not match")
	assert.Equal(t, []model.Pair{{Expression: "user", Value: "bob"}}, td.NameValuePairs(1))
	assert.Equal(t, "5", td.ObjectValue1(3))
	assert.Equal(t, "", td.TestCaseName(1))
}

func TestLocate(t *testing.T) {
	t.Run("create keyword then ui", func(t *testing.T) {
		td := newTestDataSheet(t,
			[]string{"g", "", "CreateKeyword", "k", "v"},
			[]string{"g", "", "EnterData", "user", "bob"},
			[]string{"g", "", "CloseAllBrowsers"},
		)

		assert.Equal(t, []RowRange{{1, 2}, {2, 4}}, Locate(td))
	})

	t.Run("isolated database test", func(t *testing.T) {
		td := newTestDataSheet(t,
			[]string{"n", "", "EnterData"},
			[]string{"g", "", "DatabaseTest"},
			[]string{"n", "", "EnterData"},
		)

		assert.Equal(t, []RowRange{{2, 3}}, Locate(td))
	})

	t.Run("consecutive keywords and single rows", func(t *testing.T) {
		td := newTestDataSheet(t,
			[]string{"g", "", "CreateKeyword", "a", "1"},
			[]string{"g", "", "CreateKeyword", "b", "2"},
			[]string{"g", "", "XMLWebServiceTest"},
			[]string{"g", "", "LaunchAUT", "", "u"},
			[]string{"g", "", "DatabaseTest"},
			[]string{"g", "", "Wait"},
		)

		assert.Equal(t, []RowRange{{1, 3}, {3, 4}, {4, 5}, {5, 6}, {6, 7}}, Locate(td))
	})
}

func TestParseJSONRequests(t *testing.T) {
	s := workbook.NewSheet("Req", [][]string{
		{"Json", "S_one", "two"},
		{"{"},
		{`"name": "string",`, `a"b`, "x"},
		{`"count": number,`, "5", "7"},
		{`"raw": ,`, `{"a":1}`, "null"},
		{`"flag": boolean`, "true", doNotInclude},
		{"}"},
	})

	requests, err := parseJSONRequests(s, zaptest.NewLogger(t))

	require.NoError(t, err)
	require.Len(t, requests, 2)
	assert.Equal(t, "s_one", requests[0].input)
	assert.Equal(t, "{\n\"name\": \"a\\\"b\",\n\"count\": 5,\n\"raw\": {\"a\":1},\n\"flag\": true\n}", requests[0].body)
	assert.Equal(t, "{\n\"name\": \"x\",\n\"count\": 7,\n\"raw\": null\n}", requests[1].body, "trailing comma is removed")
}

func TestParseJSONRequests_Invalid(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	s := workbook.NewSheet("Req", [][]string{
		{"Json", "one"},
		{"{"},
		{`"n": number`, "abc"},
		{"}"},
	})

	_, err := parseJSONRequests(s, zap.New(core))

	assert.ErrorIs(t, err, ErrInvalidJSON)
	assert.Equal(t, 1, logs.FilterMessage("invalid json request").Len())
}

func TestParseJSONRequests_NoBounds(t *testing.T) {
	_, err := parseJSONRequests(workbook.NewSheet("Req", [][]string{{"Json", "one"}, {`"a": string`}}), zaptest.NewLogger(t))

	assert.ErrorIs(t, err, ErrTemplateBounds)
}

func TestSubstituteJSONField_LastNumber(t *testing.T) {
	assert.Equal(t, `"number": 42,`, substituteJSONField(`"number": number,`, "42"))
}

func TestParseXMLRequests(t *testing.T) {
	s := workbook.NewSheet("Req", [][]string{
		{"XMLTagNamesStart", "", "case1"},
		{"<root>"},
		{"<{name}>", "</{name}>", "bob"},
		{"<skip>", "</skip>", doNotInclude},
		{"</root>"},
	})

	requests, err := parseXMLRequests(s, zaptest.NewLogger(t))

	require.NoError(t, err)
	assert.Equal(t, []request{{input: "case1", body: "<root>\n<name>bob</name>\n</root>"}}, requests)
}

func TestParseGetRequests(t *testing.T) {
	s := workbook.NewSheet("Req", [][]string{
		{"get", "", "First", "second"},
		{"url", "URL", "http://a", "http://b"},
	})

	requests, err := parseGetRequests(s, zaptest.NewLogger(t))

	require.NoError(t, err)
	assert.Equal(t, []request{{"first", "http://a"}, {"second", "http://b"}}, requests)

	kind, _, err := requestType(s)
	require.NoError(t, err)
	assert.Equal(t, model.RequestGet, kind)
}

func TestRequestType_Unknown(t *testing.T) {
	_, _, err := requestType(workbook.NewSheet("Req", [][]string{{"Yaml"}}))

	assert.ErrorIs(t, err, ErrUnknownRequestType)
}

func TestParseURLs(t *testing.T) {
	urls, err := parseURLs(map[string]string{paramURL: "\n a , b \n"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, urls)

	_, err = parseURLs(map[string]string{paramURL: "a,b,c"}, 2)
	assert.ErrorIs(t, err, ErrURLCount)

	_, err = parseURLs(map[string]string{}, 1)
	assert.ErrorIs(t, err, ErrMissingParameter)
}

func TestParseRequestHeader(t *testing.T) {
	header, err := parseRequestHeader(map[string]string{
		paramRequestHeader:       "Source: SYS1",
		paramRequestHeaderString: `[{"Key":"Accept","Value":"application/json"},{"Key":"Verb","Value":"POST"},{"Key":"Other","Value":"x"}]`,
	}, zaptest.NewLogger(t))

	require.NoError(t, err)
	assert.Equal(t, "(accept=application/json,authorization=null,content-type=,returnoutputtype=,sourcesystemidentifier=SYS1,verb=POST)", header)

	header, err = parseRequestHeader(map[string]string{paramRequestHeader: "json"}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "json", header)
}

func TestParseRequestHeader_BadHeaderString(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	header, err := parseRequestHeader(map[string]string{
		paramRequestHeader:       "Source: SYS1",
		paramRequestHeaderString: `{"Key": 1}`,
	}, zap.New(core))

	require.NoError(t, err)
	assert.Contains(t, header, "sourcesystemidentifier=SYS1")
	assert.Equal(t, 1, logs.FilterMessage("unable to parse request header string").Len())
}

func TestToSAPI(t *testing.T) {
	sc := model.APIScenario{RequestHeader: "GET", URL: "/api"}
	toSAPI(&sc)
	assert.Equal(t, "SAPIGET", sc.RequestHeader)
	assert.Equal(t, "[SAPIAUTO]/api", sc.URL)

	sc = model.APIScenario{RequestHeader: "custom", URL: "[HOST]/api"}
	toSAPI(&sc)
	assert.Equal(t, "custom", sc.RequestHeader)
	assert.Equal(t, "[HOST]/api", sc.URL)
}

func apiBook(rows ...[]string) *workbook.SpreadSheet {
	header := []string{"RunType", "Environment", "TestingActionFunctionality", "ObjectName1", "Value1",
		"ObjectName2", "Value2", "ObjectName3", "Value3", "ObjectName4", "Value4"}
	return workbook.NewSpreadSheet(
		workbook.NewSheet("TestData", append([][]string{header}, rows...)),
		workbook.NewSheet("Req", [][]string{
			{"Json", "S_login"},
			{"{"},
			{`"user": "string"`, "bob"},
			{"}"},
		}),
		workbook.NewSheet("Val", [][]string{
			{"Expression", "s_login"},
			{"Response Code", "200"},
			{"$.id", "7"},
		}),
		workbook.NewSheet("Common", [][]string{
			{"RequestSheet", "Scenario", "Kind", "Expression", "Value"},
			{"req", "*", "store", "$.token", "token"},
			{"other", "", "validate", "$.x", "1"},
		}),
	)
}

func TestParseAPI(t *testing.T) {
	book := apiBook(
		[]string{"g", "", "XMLWebServiceTest", "RequestSheet", "Req", "ValidationSheet", "Val", "URL", "http://svc", "RequestHeader", "json"},
		[]string{"g", "", "Wait", "Seconds", "abc"},
		[]string{"g", "", "DatabaseTest", "DBConnectionString", "c", "DBQuery", "q", "DBLocation", "l", "ValidationString", "v"},
	)

	sources, err := newParser(t).ParseAPI(book, zaptest.NewLogger(t))

	require.NoError(t, err)
	require.Len(t, sources, 3)
	assert.Equal(t, model.APITest{Scenarios: []model.APIScenario{{
		Name:          "01_s_login",
		Input:         "s_login",
		Request:       "{\n\"user\": \"bob\"\n}",
		RequestHeader: "json",
		RequestType:   model.RequestJSON,
		ResponseCode:  "200",
		URL:           "http://svc",
		Outputs:       []model.Pair{{Expression: "$.id", Value: "7"}},
		Variables:     []model.Pair{{Expression: "$.token", Value: "token"}},
	}}}, sources[0])
	assert.Equal(t, model.WaitScenario{Seconds: 2}, sources[1])
	assert.Equal(t, model.DatabaseTest{ConnectionString: "c", Location: "l", Query: "q", ResultJSON: "v"}, sources[2])
}

func TestParseAPI_AllOrNothing(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	book := apiBook(
		[]string{"g", "", "Wait"},
		[]string{"g", "", "DatabaseTest", "DBConnectionString", "c"},
		[]string{"g", "", "XMLWebServiceTest", "RequestSheet", "Missing"},
		[]string{"g", "", "Dance"},
	)

	sources, err := newParser(t).ParseAPI(book, zap.New(core))

	assert.Nil(t, sources)
	assert.ErrorIs(t, err, ErrMissingParameter)
	assert.ErrorIs(t, err, ErrMissingSheet)
	assert.ErrorIs(t, err, ErrUnknownAction)
	var rowErr *RowError
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, 3, rowErr.Row)
	assert.Equal(t, 3, logs.FilterMessage("unable to parse scenario").Len())
}

func TestParseAPI_SharedStepAndKeyword(t *testing.T) {
	book := apiBook(
		[]string{"g", "", "SharedStep", "ProjectName", "Proj", "TestCaseName", "Case", "extra", "1"},
		[]string{"g", "", "CreateKeyword", "{id}", `~string("42")`},
		[]string{"g", "", "CreateKeyword"},
	)

	sources, err := newParser(t).ParseAPI(book, zaptest.NewLogger(t))

	assert.ErrorIs(t, err, ErrNoData)
	assert.Nil(t, sources)

	book = apiBook(
		[]string{"g", "", "SharedStep", "ProjectName", "Proj", "TestCaseName", "Case", "extra", "1"},
		[]string{"g", "", "CreateKeyword", "{id}", `~string("42")`},
	)
	sources, err = newParser(t).ParseAPI(book, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, model.SharedStepTest{
		ProjectName:  "proj",
		TestCaseName: "case",
		Keywords: []model.Pair{
			{Expression: "ProjectName", Value: "Proj"},
			{Expression: "TestCaseName", Value: "Case"},
			{Expression: "extra", Value: "1"},
		},
		Row: 1,
	}, sources[0])
	assert.Equal(t, model.CreateKeywordScenario{Keywords: []model.Pair{{Expression: "{id}", Value: "42"}}}, sources[1])
}

func TestParseAPI_MissingTestData(t *testing.T) {
	_, err := newParser(t).ParseAPI(workbook.NewSpreadSheet(workbook.NewSheet("Other", nil)), zaptest.NewLogger(t))

	assert.ErrorIs(t, err, ErrMissingSheet)
}

var uiObjects = model.UIObjects{
	"user":  {ObjectName: "user", XPath: "//input"},
	"login": {ObjectName: "login", XPath: "//button"},
}

func TestParseUI(t *testing.T) {
	book := workbook.NewSpreadSheet(testData(
		[]string{"g", "", "CreateKeyword", "k", "v"},
		[]string{"g", "", "LaunchAUT", "", "[http://app]"},
		[]string{"g", "", "EnterData", "User", "bob"},
		[]string{"g", "QA2", "EnterData", "ghost", "skipped"},
		[]string{"g", "", "ValidateData", "user", "~defaultdata(bob)"},
		[]string{"g", "", "ObjectNotExists", "Login", "TRUE"},
		[]string{"g", "", "WaitForObject", "login", ""},
		[]string{"g", "", "CloseAllBrowsers"},
	))

	sources, err := newParser(t).ParseUI(book, uiObjects, zaptest.NewLogger(t))

	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, model.CreateKeywordScenario{Keywords: []model.Pair{{Expression: "k", Value: "v"}}}, sources[0])
	assert.Equal(t, model.UITest{Actions: []model.Action{
		model.LaunchAUTAction{URL: "http://app"},
		model.DataEntryAction{ObjectName: "user", Value: "bob", Row: 3},
		model.ValidationAction{ObjectName: "user", Value: "bob", Row: 5},
		model.ObjectTestAction{ObjectName: "login", State: model.StateExistence, Value: "false", Row: 6},
		model.WaitAction{Seconds: 60, ObjectName: "login", State: model.StateExistence},
		model.CloseAllBrowsersAction{},
	}}, sources[1])
}

func TestParseUI_MissingObjectFailsFile(t *testing.T) {
	book := workbook.NewSpreadSheet(testData(
		[]string{"g", "", "EnterData", "ghost", "bob"},
		[]string{"g", "", "CloseAllBrowsers"},
		[]string{"g", "", "TakeScreenshot"},
	))

	sources, err := newParser(t).ParseUI(book, uiObjects, zaptest.NewLogger(t))

	assert.Nil(t, sources)
	assert.ErrorIs(t, err, ErrMissingObject)
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 2, rowErr.Row)
}

func TestValidationValue(t *testing.T) {
	assert.Equal(t, "x", validationValue("~DefaultData(x)"))
	assert.Equal(t, "~or(a||b)", validationValue("~a||b"))
	assert.Equal(t, "a||b", validationValue("a||b"))
}

func TestUIObjectsFrom(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	book := workbook.NewSpreadSheet(
		workbook.NewSheet("Page", [][]string{
			{"ObjectName", "XPath", "TagName", "Unknown"},
			{"Login", "//button", "button", "ignored"},
			{"", "//orphan"},
			{"user", "//input"},
		}),
		workbook.NewSheet("Notes", [][]string{{"anything"}}),
	)

	objects := UIObjectsFrom(book, zap.New(core))

	assert.Len(t, objects, 2)
	assert.Equal(t, model.UIObject{ObjectName: "login", XPath: "//button", TagName: "button"}, objects["login"])
	assert.Equal(t, 1, logs.FilterMessage("missing object name").Len())
	assert.Equal(t, 1, logs.FilterMessage("skipping repository sheet").Len())
}

func TestCommonSheet_Data(t *testing.T) {
	common, err := NewCommonSheet(workbook.NewSheet("Common", [][]string{
		{"RequestSheet", "Scenario", "Kind", "Expression", "Value"},
		{"Req", "", "validate", "$.a", "1"},
		{"req", "one", "validate", "$.b", "2"},
		{"req", "two", "validate", "$.c", "3"},
		{"req", "*", "store", "$.d", "d"},
	}))
	require.NoError(t, err)

	outputs, variables := common.Data("REQ", "one")

	assert.Equal(t, []model.Pair{{Expression: "$.a", Value: "1"}, {Expression: "$.b", Value: "2"}}, outputs)
	assert.Equal(t, []model.Pair{{Expression: "$.d", Value: "d"}}, variables)
}

func TestParseUIFile(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "TestData"))
	rows := [][]any{
		{"RunType", "Environment", "TestingActionFunctionality", "ObjectName1", "Value1"},
		{"g", nil, "TakeScreenshot"},
		{"g", nil, "Wait", nil, 3},
	}
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("TestData", cell, &row))
	}
	path := filepath.Join(t.TempDir(), "ui.xlsx")
	require.NoError(t, f.SaveAs(path))

	sources, err := newParser(t).ParseUIFile(path, uiObjects)

	require.NoError(t, err)
	assert.Equal(t, []model.ScenarioSource{model.UITest{Actions: []model.Action{
		model.TakeScreenShotAction{},
		model.WaitAction{Seconds: 3},
	}}}, sources)
}
