package converter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/chriserin/xlfeat/internal/model"
	"github.com/chriserin/xlfeat/internal/substitute"
)

const waitForObjectSeconds = 60

var (
	defaultDataPattern = regexp.MustCompile(`(?i)^~defaultdata\((.*)\)$`)
	launchURLPattern   = regexp.MustCompile(`^\[(.*)\]$`)
)

type uiContext struct {
	*fileContext
	objects model.UIObjects
}

type actionParser func(uc *uiContext, row int) ([]model.Action, error)

var actionParsers = map[string]actionParser{
	actionAction:           parseActionAction,
	actionCloseAll:         single(model.CloseAllBrowsersAction{}),
	actionCreateKeyword:    parseCreateKeywordActions,
	actionDataEntry:        parseDataEntry,
	actionDataEntryCustom:  parseDataEntry,
	actionGetObjectData:    parseGetObjectData,
	actionLaunchAUT:        parseLaunchAUT,
	actionObjectEnabled:    objectFlags(model.StateEnabled),
	actionObjectNotEnabled: objectFlags(model.StateEnabled),
	actionObjectExists:     objectFlags(model.StateExistence),
	actionObjectNotExists:  objectFlags(model.StateExistence),
	actionObjectHidden:     objectFlags(model.StateHidden),
	actionObjectNotHidden:  objectFlags(model.StateHidden),
	actionTakeScreenshot:   single(model.TakeScreenShotAction{}),
	actionValidation:       parseValidation,
	actionWait:             parseWaitAction,
	actionWaitForObject:    parseWaitForObject,
}

func single(a model.Action) actionParser {
	return func(*uiContext, int) ([]model.Action, error) {
		return []model.Action{a}, nil
	}
}

// normalizeBoolean lower-cases "true" and "false" in any casing.
func normalizeBoolean(v string) string {
	if lower := strings.ToLower(v); lower == "true" || lower == "false" {
		return lower
	}
	return v
}

// objectPairs returns the row pairs with lower-cased object names. Every
// object must exist in the repository.
func (uc *uiContext) objectPairs(row int) ([]model.Pair, error) {
	var (
		pairs   []model.Pair
		missing []string
	)
	for _, p := range uc.data.NameValuePairs(row) {
		name := strings.ToLower(p.Expression)
		if _, ok := uc.objects.Lookup(name); !ok {
			missing = append(missing, name)
			continue
		}
		pairs = append(pairs, model.Pair{Expression: name, Value: normalizeBoolean(p.Value)})
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingObject, strings.Join(missing, ", "))
	}
	return pairs, nil
}

func parseActionAction(uc *uiContext, row int) ([]model.Action, error) {
	pairs, err := uc.objectPairs(row)
	if err != nil {
		return nil, err
	}
	actions := make([]model.Action, 0, len(pairs))
	for _, p := range pairs {
		actions = append(actions, model.ActionAction{Action: p.Value, ObjectName: p.Expression, Row: row})
	}
	return actions, nil
}

func parseCreateKeywordActions(uc *uiContext, row int) ([]model.Action, error) {
	var actions []model.Action
	for _, p := range uc.data.NameValuePairs(row) {
		actions = append(actions, model.CreateKeywordAction{Name: p.Expression, Value: substitute.Value(p.Value), Row: row})
	}
	return actions, nil
}

func parseDataEntry(uc *uiContext, row int) ([]model.Action, error) {
	pairs, err := uc.objectPairs(row)
	if err != nil {
		return nil, err
	}
	actions := make([]model.Action, 0, len(pairs))
	for _, p := range pairs {
		actions = append(actions, model.DataEntryAction{ObjectName: p.Expression, Value: substitute.Value(p.Value), Row: row})
	}
	return actions, nil
}

func parseGetObjectData(uc *uiContext, row int) ([]model.Action, error) {
	pairs, err := uc.objectPairs(row)
	if err != nil {
		return nil, err
	}
	actions := make([]model.Action, 0, len(pairs))
	for _, p := range pairs {
		actions = append(actions, model.GetObjectDataAction{ObjectName: p.Expression, Value: p.Value, Row: row})
	}
	return actions, nil
}

func parseLaunchAUT(uc *uiContext, row int) ([]model.Action, error) {
	url := uc.data.ObjectValue1(row)
	if url == "" {
		return nil, fmt.Errorf("%w: url for launch action", ErrMissingParameter)
	}
	if m := launchURLPattern.FindStringSubmatch(url); m != nil {
		url = m[1]
	}
	return []model.Action{model.LaunchAUTAction{URL: url}}, nil
}

// objectFlags builds state assertions. An empty or "true" value expects
// the state; actions containing "not" invert the expectation.
func objectFlags(state string) actionParser {
	return func(uc *uiContext, row int) ([]model.Action, error) {
		negated := strings.Contains(uc.data.Action(row), "not")
		pairs, err := uc.objectPairs(row)
		if err != nil {
			return nil, err
		}
		actions := make([]model.Action, 0, len(pairs))
		for _, p := range pairs {
			flag := p.Value == "" || p.Value == "true"
			if negated {
				flag = !flag
			}
			actions = append(actions, model.ObjectTestAction{
				ObjectName: p.Expression,
				State:      state,
				Value:      fmt.Sprint(flag),
				Row:        row,
			})
		}
		return actions, nil
	}
}

// validationValue unwraps ~defaultdata(x) and turns ~a||b into ~or(a||b).
func validationValue(v string) string {
	if m := defaultDataPattern.FindStringSubmatch(v); m != nil {
		return m[1]
	}
	if strings.HasPrefix(v, "~") && strings.Contains(v, "||") {
		return "~or(" + v[1:] + ")"
	}
	return v
}

func parseValidation(uc *uiContext, row int) ([]model.Action, error) {
	pairs, err := uc.objectPairs(row)
	if err != nil {
		return nil, err
	}
	actions := make([]model.Action, 0, len(pairs))
	for _, p := range pairs {
		actions = append(actions, model.ValidationAction{
			ObjectName: p.Expression,
			Value:      validationValue(substitute.Value(p.Value)),
			Row:        row,
		})
	}
	return actions, nil
}

func parseWaitAction(uc *uiContext, row int) ([]model.Action, error) {
	return []model.Action{model.WaitAction{Seconds: parseSeconds(uc.data.ObjectValue1(row))}}, nil
}

func parseWaitForObject(uc *uiContext, row int) ([]model.Action, error) {
	name := strings.ToLower(uc.data.ObjectName1(row))
	if name == "" {
		return nil, fmt.Errorf("%w: object name for wait for object action", ErrMissingParameter)
	}
	if _, ok := uc.objects.Lookup(name); !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingObject, name)
	}
	state := uc.data.ObjectValue1(row)
	if state == "" {
		state = model.StateExistence
	}
	return []model.Action{model.WaitAction{Seconds: waitForObjectSeconds, ObjectName: name, State: state}}, nil
}

// parseUITest parses the runnable rows of r into one UI test.
func parseUITest(uc *uiContext, r RowRange) (model.ScenarioSource, error) {
	var actions []model.Action
	for row := r.Start; row < r.End; row++ {
		action := uc.data.Action(row)
		if action == "" || !uc.data.Runnable(row) {
			continue
		}
		parse, ok := actionParsers[action]
		if !ok {
			return nil, &RowError{Sheet: uc.data.Name(), Row: row + 1, Err: fmt.Errorf("%w %q", ErrUnknownAction, action)}
		}
		parsed, err := parse(uc, row)
		if err != nil {
			return nil, &RowError{Sheet: uc.data.Name(), Row: row + 1, Err: err}
		}
		actions = append(actions, parsed...)
	}
	return model.UITest{Actions: actions}, nil
}

// parseKeywordScenario combines the keywords of every runnable row of r.
func parseKeywordScenario(uc *uiContext, r RowRange) (model.ScenarioSource, error) {
	var keywords []model.Pair
	for row := r.Start; row < r.End; row++ {
		if uc.data.Runnable(row) {
			keywords = append(keywords, uc.data.NameValuePairs(row)...)
		}
	}
	if len(keywords) == 0 {
		return nil, &RowError{
			Sheet: uc.data.Name(),
			Row:   r.Start + 1,
			Err:   fmt.Errorf("%w in create keyword actions on rows %d to %d", ErrNoData, r.Start+1, r.End),
		}
	}
	return model.CreateKeywordScenario{Keywords: substituteValues(keywords)}, nil
}
