package converter

import (
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/chriserin/xlfeat/internal/model"
	"github.com/chriserin/xlfeat/internal/workbook"
)

// Options selects the rows and sheets a Parser reads.
type Options struct {
	RunMarker     string
	Environment   string
	TestDataSheet string
	CommonSheet   string
	Selector      string
}

// Parser converts test workbooks into scenario sources.
type Parser struct {
	opts Options
	log  *zap.Logger
}

func NewParser(opts Options, log *zap.Logger) *Parser {
	return &Parser{opts: opts, log: log}
}

// ParseAPIFile loads the workbook at path and parses it in API mode.
func (p *Parser) ParseAPIFile(path string) ([]model.ScenarioSource, error) {
	book, err := workbook.Load(path)
	if err != nil {
		return nil, err
	}
	return p.ParseAPI(book, p.log.With(zap.String("file", filepath.Base(path))))
}

// ParseUIFile loads the workbook at path and parses it in UI mode.
func (p *Parser) ParseUIFile(path string, objects model.UIObjects) ([]model.ScenarioSource, error) {
	book, err := workbook.Load(path)
	if err != nil {
		return nil, err
	}
	return p.ParseUI(book, objects, p.log.With(zap.String("file", filepath.Base(path))))
}

// ParseAPI parses every runnable row of the test data sheet on its own.
// All rows are parsed; if any fails the combined error is returned and
// no sources.
func (p *Parser) ParseAPI(book *workbook.SpreadSheet, log *zap.Logger) ([]model.ScenarioSource, error) {
	fc, err := p.newContext(book, log)
	if err != nil {
		return nil, err
	}
	var (
		sources []model.ScenarioSource
		errs    error
	)
	for row := 1; row < fc.data.Rows(); row++ {
		if fc.data.Action(row) == "" || !fc.data.Runnable(row) {
			continue
		}
		src, err := parseAPIRow(fc, row)
		if err != nil {
			fc.report(err)
			errs = multierr.Append(errs, err)
			continue
		}
		sources = append(sources, src)
	}
	if errs != nil {
		return nil, errs
	}
	return sources, nil
}

// ParseUI segments the test data sheet into scenarios and parses each one.
func (p *Parser) ParseUI(book *workbook.SpreadSheet, objects model.UIObjects, log *zap.Logger) ([]model.ScenarioSource, error) {
	fc, err := p.newContext(book, log)
	if err != nil {
		return nil, err
	}
	uc := &uiContext{fileContext: fc, objects: objects}
	ranges := Locate(fc.data)
	log.Debug("located scenarios", zap.Any("ranges", ranges))

	var (
		sources []model.ScenarioSource
		errs    error
	)
	for _, r := range ranges {
		src, err := parseScenario(uc, r)
		if err != nil {
			fc.report(err)
			errs = multierr.Append(errs, err)
			continue
		}
		sources = append(sources, src)
	}
	if errs != nil {
		return nil, errs
	}
	return sources, nil
}

func (p *Parser) newContext(book *workbook.SpreadSheet, log *zap.Logger) (*fileContext, error) {
	s, err := book.Sheet(p.opts.TestDataSheet)
	if err != nil {
		log.Error("test data sheet not found", zap.String("sheet", p.opts.TestDataSheet))
		return nil, fmt.Errorf("%w: %s", ErrMissingSheet, p.opts.TestDataSheet)
	}
	data, err := NewTestDataSheet(s, p.opts.RunMarker, p.opts.Environment)
	if err != nil {
		log.Error("invalid test data sheet", zap.Error(err))
		return nil, err
	}
	fc := &fileContext{book: book, data: data, selector: p.opts.Selector, log: log}
	if p.opts.CommonSheet == "" {
		return fc, nil
	}
	if cs, err := book.Sheet(p.opts.CommonSheet); err == nil {
		common, err := NewCommonSheet(cs)
		if err != nil {
			log.Warn("ignoring common sheet", zap.Error(err))
		} else {
			fc.common = common
		}
	}
	return fc, nil
}

func (fc *fileContext) report(err error) {
	fields := []zap.Field{zap.Error(err)}
	var rowErr *RowError
	if errors.As(err, &rowErr) {
		fields = append(fields, zap.String("sheet", rowErr.Sheet), zap.Int("row", rowErr.Row))
	}
	fc.log.Error("unable to parse scenario", fields...)
}

func parseAPIRow(fc *fileContext, row int) (model.ScenarioSource, error) {
	action := fc.data.Action(row)
	parse, ok := apiParsers[action]
	if !ok {
		return nil, &RowError{Sheet: fc.data.Name(), Row: row + 1, Err: fmt.Errorf("%w %q", ErrUnknownAction, action)}
	}
	src, err := parse(fc, row)
	if err != nil {
		return nil, &RowError{Sheet: fc.data.Name(), Row: row + 1, Err: err}
	}
	return src, nil
}

func parseScenario(uc *uiContext, r RowRange) (model.ScenarioSource, error) {
	switch uc.data.Action(r.Start) {
	case actionDatabaseTest, actionWebService:
		return parseAPIRow(uc.fileContext, r.Start)
	case actionCreateKeyword:
		return parseKeywordScenario(uc, r)
	}
	return parseUITest(uc, r)
}

// LoadUIObjects reads the UI object repository workbook at path.
func LoadUIObjects(path string, log *zap.Logger) (model.UIObjects, error) {
	book, err := workbook.Load(path)
	if err != nil {
		return nil, err
	}
	return UIObjectsFrom(book, log.With(zap.String("file", filepath.Base(path)))), nil
}

// UIObjectsFrom collects the objects of every repository sheet of book.
// Sheets without an object name column and rows without a name are skipped.
func UIObjectsFrom(book *workbook.SpreadSheet, log *zap.Logger) model.UIObjects {
	objects := model.UIObjects{}
	for _, name := range book.SheetNames() {
		s, err := book.Sheet(name)
		if err != nil {
			continue
		}
		repo, err := NewRepositorySheet(s)
		if err != nil {
			log.Warn("skipping repository sheet", zap.String("sheet", name), zap.Error(err))
			continue
		}
		for r := 1; r < repo.Rows(); r++ {
			obj, ok := repo.UIObject(r)
			if !ok {
				log.Warn("missing object name", zap.String("sheet", name), zap.Int("row", r+1))
				continue
			}
			objects[obj.ObjectName] = obj
		}
	}
	return objects
}
