// Package model holds the parsed test entities and renders them as Gherkin.
//
// ScenarioSource and Action are closed sets: each variant implements an
// unexported marker method, and rendering switches over the variants.
package model

import "fmt"

// Pair is an ordered (expression, value) entry from a validation or get sheet.
type Pair struct {
	Expression string
	Value      string
}

// UIObject is one row of the UI object repository.
type UIObject struct {
	BrowserTitle           string
	BrowserURL             string
	ClassName              string
	DescriptiveProgramming string
	Frame                  string
	ID                     string
	InnerText              string
	Name                   string
	ObjectName             string // lower-cased, key of UIObjects
	RecoveryScenario       string
	TagName                string
	Timeout                string
	Type                   string
	XPath                  string
}

// Reference renders the object locator used in step text.
func (o UIObject) Reference() string {
	return fmt.Sprintf(`("%s","%s","%s","%s","%s")`, o.XPath, o.TagName, o.ClassName, o.ID, o.InnerText)
}

// UIObjects is the read-only object repository keyed by lower-cased object name.
type UIObjects map[string]UIObject

// Lookup returns the object registered under name.
func (m UIObjects) Lookup(name string) (UIObject, bool) {
	o, ok := m[name]
	return o, ok
}

// RenderOptions controls scenario rendering.
type RenderOptions struct {
	// BigRequest moves request, validation and variable bodies to the request file.
	BigRequest bool
	// Debug prefixes UI steps with their source row and object name.
	Debug bool
	// Objects resolves object names referenced by UI actions.
	Objects UIObjects
}

// ScenarioSource is a parsed unit producing zero or more Gherkin scenarios.
type ScenarioSource interface {
	scenarioSource()
}

// APITest is a web service test row expanded into one scenario per request column.
type APITest struct {
	Scenarios []APIScenario
}

// CreateKeywordScenario declares runner variables.
type CreateKeywordScenario struct {
	Keywords []Pair
}

// DatabaseTest is executed by the runner from stored data; it renders nothing.
type DatabaseTest struct {
	ConnectionString string
	Location         string
	Query            string
	ResultJSON       string
}

// SharedStepTest references a step shared from another test project.
type SharedStepTest struct {
	ProjectName  string
	TestCaseName string
	Keywords     []Pair
	Row          int // 0-based
}

// UITest is a sequence of UI actions rendered as one scenario.
type UITest struct {
	Actions []Action
}

// WaitScenario pauses the runner.
type WaitScenario struct {
	Seconds int
}

func (APITest) scenarioSource()               {}
func (CreateKeywordScenario) scenarioSource() {}
func (DatabaseTest) scenarioSource()          {}
func (SharedStepTest) scenarioSource()        {}
func (UITest) scenarioSource()                {}
func (WaitScenario) scenarioSource()          {}

// Size is the weight of the test used to decide request externalization.
func (t APITest) Size() int {
	total := 0
	for _, s := range t.Scenarios {
		total += s.Size()
	}
	return total
}

// RequestData returns the keyed request file lines for every scenario.
func (t APITest) RequestData() []string {
	var lines []string
	for _, s := range t.Scenarios {
		lines = append(lines, s.RequestData()...)
	}
	return lines
}
