package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnknownObject is returned when an action refers to an object missing
// from the repository.
var ErrUnknownObject = errors.New("unknown ui object")

var xpathSubstitution = regexp.MustCompile(`^(.*)\|\|(.*)$`)

// Render returns the Gherkin blocks produced by src.
func Render(src ScenarioSource, opts RenderOptions) ([]string, error) {
	switch s := src.(type) {
	case APITest:
		blocks := make([]string, 0, len(s.Scenarios))
		for _, sc := range s.Scenarios {
			blocks = append(blocks, sc.Scenario(opts.BigRequest))
		}
		return blocks, nil
	case CreateKeywordScenario:
		lines := []string{"Scenario: CreateKeywordScenario"}
		prefix := "When"
		for _, kw := range s.Keywords {
			variable := "{" + strings.NewReplacer("{", "", "}", "").Replace(kw.Expression) + "}"
			lines = append(lines, fmt.Sprintf(`%s I create a keyword with value "%s" in variable "%s"`, prefix, escapeNewlines(kw.Value), variable))
			prefix = "And"
		}
		return []string{strings.Join(lines, "\n")}, nil
	case DatabaseTest:
		return nil, nil
	case SharedStepTest:
		pairs := make([]string, 0, len(s.Keywords))
		for _, kw := range s.Keywords {
			pairs = append(pairs, kw.Expression+" = "+kw.Value)
		}
		return []string{fmt.Sprintf("# SharedStep on row %d: %s", s.Row+1, strings.Join(pairs, ", "))}, nil
	case UITest:
		block, err := renderUITest(s, opts)
		if err != nil {
			return nil, err
		}
		return []string{block}, nil
	case WaitScenario:
		return []string{fmt.Sprintf("Scenario: WaitScenario\n\nWhen I wait for %d seconds", s.Seconds)}, nil
	}
	return nil, fmt.Errorf("unsupported scenario source %T", src)
}

// UI step labels. The first step is Given; afterwards a change between
// performing and asserting starts a new When or Then group.
const (
	stateStart = iota
	stateActed
	stateValidated
)

func renderUITest(t UITest, opts RenderOptions) (string, error) {
	lines := []string{"Scenario: UI Test", ""}
	state := stateStart
	for _, a := range t.Actions {
		text, err := RenderAction(a, opts)
		if err != nil {
			return "", err
		}
		assertion := isAssertion(a)
		_, closing := a.(CloseAllBrowsersAction)
		thenClass := assertion || closing

		var prefix string
		switch state {
		case stateStart:
			prefix = "Given "
		case stateActed:
			if thenClass {
				prefix = "\nThen "
			} else {
				prefix = "And "
			}
		case stateValidated:
			if thenClass {
				prefix = "And "
			} else {
				prefix = "\nWhen "
			}
		}
		lines = append(lines, prefix+text)

		if closing && state != stateStart {
			continue
		}
		if assertion {
			state = stateValidated
		} else {
			state = stateActed
		}
	}
	return strings.Join(lines, "\n"), nil
}

// RenderAction returns the step text of a, without its Given/When/Then label.
func RenderAction(a Action, opts RenderOptions) (string, error) {
	debug := func(row int, object string) string {
		if !opts.Debug {
			return ""
		}
		if object == "" {
			return fmt.Sprintf("(%d) ", row+1)
		}
		return fmt.Sprintf("(%d,%s) ", row+1, object)
	}

	switch a := a.(type) {
	case ActionAction:
		obj, err := lookup(opts.Objects, a.ObjectName)
		if err != nil {
			return "", err
		}
		obj, action := substituteXPath(obj, a.Action)
		return fmt.Sprintf(`%sI execute the action "%s" on object %s`, debug(a.Row, a.ObjectName), action, obj.Reference()), nil
	case CloseAllBrowsersAction:
		return "I close all browsers", nil
	case CreateKeywordAction:
		return fmt.Sprintf(`%sI create a keyword with value "%s" in variable "%s"`, debug(a.Row, ""), escapeNewlines(a.Value), a.Name), nil
	case DataEntryAction:
		obj, err := lookup(opts.Objects, a.ObjectName)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(`%sI enter "%s" in object %s`, debug(a.Row, a.ObjectName), escapeNewlines(a.Value), obj.Reference()), nil
	case GetObjectDataAction:
		obj, err := lookup(opts.Objects, a.ObjectName)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(`%sI get data from object %s in "%s"`, debug(a.Row, a.ObjectName), obj.Reference(), a.Value), nil
	case LaunchAUTAction:
		return fmt.Sprintf(`I launch the application at url "%s"`, a.URL), nil
	case ObjectTestAction:
		obj, err := lookup(opts.Objects, a.ObjectName)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(`%sI test that object %s %s is "%s"`, debug(a.Row, a.ObjectName), obj.Reference(), a.State, a.Value), nil
	case TakeScreenShotAction:
		return "I take a screenshot", nil
	case ValidationAction:
		obj, err := lookup(opts.Objects, a.ObjectName)
		if err != nil {
			return "", err
		}
		obj, value := substituteXPath(obj, a.Value)
		return fmt.Sprintf(`%sI validate that object %s has value "%s"`, debug(a.Row, a.ObjectName), obj.Reference(), escapeNewlines(value)), nil
	case WaitAction:
		if a.ObjectName == "" {
			return fmt.Sprintf("I wait for %d seconds", a.Seconds), nil
		}
		obj, err := lookup(opts.Objects, a.ObjectName)
		if err != nil {
			return "", err
		}
		prefix := ""
		if opts.Debug {
			prefix = "(" + a.ObjectName + ") "
		}
		return fmt.Sprintf("%sI wait for object %s state %s for %d seconds", prefix, obj.Reference(), a.State, a.Seconds), nil
	}
	return "", fmt.Errorf("unsupported action %T", a)
}

func lookup(objects UIObjects, name string) (UIObject, error) {
	obj, ok := objects.Lookup(name)
	if !ok {
		return UIObject{}, fmt.Errorf("%w: %q", ErrUnknownObject, name)
	}
	return obj, nil
}

// substituteXPath splits "a||b" values for objects whose xpath has a {}
// slot: a fills the slot and b remains as the value.
func substituteXPath(obj UIObject, value string) (UIObject, string) {
	m := xpathSubstitution.FindStringSubmatch(value)
	if m == nil || !strings.Contains(obj.XPath, "{}") {
		return obj, value
	}
	obj.XPath = strings.ReplaceAll(obj.XPath, "{}", m[1])
	return obj, m[2]
}

func escapeNewlines(s string) string {
	return strings.NewReplacer("\r\n", `\r\n`, "\n", `\n`).Replace(s)
}
