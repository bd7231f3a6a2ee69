package converter

import (
	"errors"
	"fmt"
)

var (
	ErrMissingSheet       = errors.New("missing sheet")
	ErrMissingColumn      = errors.New("missing required column")
	ErrMissingObject      = errors.New("ui object not found")
	ErrInvalidJSON        = errors.New("invalid json request")
	ErrURLCount           = errors.New("wrong number of urls")
	ErrMissingParameter   = errors.New("missing parameter")
	ErrUnknownAction      = errors.New("unrecognized testing action")
	ErrUnknownRequestType = errors.New("unknown request type")
	ErrNoScenario         = errors.New("no scenario found")
	ErrTemplateBounds     = errors.New("unable to delimit request template")
	ErrNoData             = errors.New("no data specified")
)

// RowError locates a parse failure in a sheet. Row is 1-based.
type RowError struct {
	Sheet string
	Row   int
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("sheet %s row %d: %v", e.Sheet, e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
