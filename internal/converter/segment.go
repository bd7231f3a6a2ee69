package converter

// Testing actions.
const (
	actionAction           = "action"
	actionCloseAll         = "closeallbrowsers"
	actionCreateKeyword    = "createkeyword"
	actionDatabaseTest     = "databasetest"
	actionDataEntry        = "enterdata"
	actionDataEntryCustom  = "enterdatacustom"
	actionGetObjectData    = "getobjectdata"
	actionLaunchAUT        = "launchaut"
	actionObjectEnabled    = "objectenabled"
	actionObjectExists     = "objectexists"
	actionObjectHidden     = "objecthidden"
	actionObjectNotEnabled = "objectnotenabled"
	actionObjectNotExists  = "objectnotexists"
	actionObjectNotHidden  = "objectnothidden"
	actionSharedStep       = "sharedstep"
	actionTakeScreenshot   = "takescreenshot"
	actionValidation       = "validatedata"
	actionWait             = "wait"
	actionWaitForObject    = "waitforobject"
	actionWebService       = "xmlwebservicetest"
)

// RowRange is the half-open range of test data rows forming one scenario.
type RowRange struct {
	Start int
	End   int
}

type segmentState int

const (
	stateStart segmentState = iota
	stateCreateKeyword
	stateUI
)

func singleRow(action string) bool {
	return action == actionDatabaseTest || action == actionWebService
}

// Locate partitions the runnable rows of t into scenarios.
//
// Database and web service rows are scenarios of their own. Consecutive
// create keyword rows outside a UI scenario form one scenario. Any other
// action opens a UI scenario that lasts until a close all browsers row,
// a single-row action, or the end of the sheet.
func Locate(t *TestDataSheet) []RowRange {
	var ranges []RowRange
	state, start := stateStart, 0
	for r := 1; r < t.Rows(); r++ {
		action := t.Action(r)
		if action == "" || !t.Runnable(r) {
			continue
		}
		switch state {
		case stateStart:
			switch {
			case singleRow(action):
				ranges = append(ranges, RowRange{r, r + 1})
			case action == actionCreateKeyword:
				start, state = r, stateCreateKeyword
			default:
				start, state = r, stateUI
			}
		case stateCreateKeyword:
			switch {
			case singleRow(action):
				ranges = append(ranges, RowRange{start, r}, RowRange{r, r + 1})
				state = stateStart
			case action != actionCreateKeyword:
				ranges = append(ranges, RowRange{start, r})
				start, state = r, stateUI
			}
		case stateUI:
			switch {
			case singleRow(action):
				ranges = append(ranges, RowRange{start, r}, RowRange{r, r + 1})
				state = stateStart
			case action == actionCloseAll:
				ranges = append(ranges, RowRange{start, r + 1})
				state = stateStart
			}
		}
	}
	if state != stateStart {
		ranges = append(ranges, RowRange{start, t.Rows()})
	}
	return ranges
}
