package model

// Action is one UI interaction step. Actions refer to objects by lower-cased
// name; the object itself is resolved at render time.
type Action interface {
	action()
}

// ActionAction executes a named action on an object.
type ActionAction struct {
	Action     string
	ObjectName string
	Row        int // 0-based
}

type CloseAllBrowsersAction struct{}

// CreateKeywordAction stores a value in a runner variable.
type CreateKeywordAction struct {
	Name  string
	Value string
	Row   int
}

// DataEntryAction types a value into an object.
type DataEntryAction struct {
	ObjectName string
	Value      string
	Row        int
}

// GetObjectDataAction reads the object's data into a variable.
type GetObjectDataAction struct {
	ObjectName string
	Value      string
	Row        int
}

type LaunchAUTAction struct {
	URL string
}

// ObjectTestAction asserts a state (existence, enabled state, hidden state) of an object.
type ObjectTestAction struct {
	ObjectName string
	State      string
	Value      string
	Row        int
}

type TakeScreenShotAction struct{}

// ValidationAction asserts the value of an object.
type ValidationAction struct {
	ObjectName string
	Value      string
	Row        int
}

// WaitAction waits a number of seconds, for an object state when ObjectName is set.
type WaitAction struct {
	Seconds    int
	ObjectName string
	State      string
}

func (ActionAction) action()           {}
func (CloseAllBrowsersAction) action() {}
func (CreateKeywordAction) action()    {}
func (DataEntryAction) action()        {}
func (GetObjectDataAction) action()    {}
func (LaunchAUTAction) action()        {}
func (ObjectTestAction) action()       {}
func (TakeScreenShotAction) action()   {}
func (ValidationAction) action()       {}
func (WaitAction) action()             {}

const (
	StateEnabled   = "enabled state"
	StateExistence = "existence"
	StateHidden    = "hidden state"
)

func isAssertion(a Action) bool {
	switch a.(type) {
	case ObjectTestAction, ValidationAction:
		return true
	}
	return false
}
