package cmd

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chriserin/xlfeat/internal/config"
	"github.com/chriserin/xlfeat/internal/converter"
	"github.com/chriserin/xlfeat/internal/db"
	"github.com/chriserin/xlfeat/internal/generator"
	"github.com/chriserin/xlfeat/internal/model"
	"github.com/chriserin/xlfeat/internal/parser"
	"github.com/chriserin/xlfeat/internal/ui"
)

var apiCmd = &cobra.Command{
	Use:   "api <input_dir> <output_dir> [selector]",
	Short: "Convert API test workbooks into features",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := settings(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer log.Sync()
		return RunAPI(cmd.OutOrStdout(), cfg, log, args[0], args[1], argAt(args, 2))
	},
}

var uiCmd = &cobra.Command{
	Use:   "ui <input_dir> <output_dir> <ui_objects_filename> [selector]",
	Short: "Convert UI test workbooks into features",
	Args:  cobra.RangeArgs(3, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := settings(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer log.Sync()
		return RunUI(cmd.OutOrStdout(), cfg, log, args[0], args[1], args[2], argAt(args, 3))
	},
}

func init() {
	rootCmd.AddCommand(apiCmd)
	rootCmd.AddCommand(uiCmd)
}

func argAt(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// RunAPI converts every workbook of inputDir in API mode.
func RunAPI(w io.Writer, cfg *config.Config, log *zap.Logger, inputDir, outputDir, selector string) error {
	b, err := newBatch(cfg, log, "api", inputDir, outputDir, selector)
	if err != nil {
		return err
	}
	defer b.close()

	p := converter.NewParser(parserOptions(cfg, selector), log)
	b.run(w, "", p.ParseAPIFile)
	return nil
}

// RunUI converts every workbook of inputDir in UI mode, resolving objects
// from the repository workbook objectsFile inside inputDir. Without a
// readable objects workbook nothing is converted.
func RunUI(w io.Writer, cfg *config.Config, log *zap.Logger, inputDir, outputDir, objectsFile, selector string) error {
	b, err := newBatch(cfg, log, "ui", inputDir, outputDir, selector)
	if err != nil {
		return err
	}
	defer b.close()

	objects, err := converter.LoadUIObjects(filepath.Join(inputDir, objectsFile), b.log)
	if err != nil {
		b.log.Error("loading UI objects", zap.String("file", objectsFile), zap.Error(err))
		ui.SummaryLine(w, 0, 0)
		return nil
	}
	b.gen.Objects = objects

	p := converter.NewParser(parserOptions(cfg, selector), log)
	b.run(w, filepath.Base(objectsFile), func(path string) ([]model.ScenarioSource, error) {
		return p.ParseUIFile(path, objects)
	})
	return nil
}

func parserOptions(cfg *config.Config, selector string) converter.Options {
	return converter.Options{
		RunMarker:     cfg.RunMarker,
		Environment:   cfg.Environment,
		TestDataSheet: cfg.TestDataSheet,
		CommonSheet:   cfg.CommonSheet,
		Selector:      selector,
	}
}

type batch struct {
	cfg        *config.Config
	log        *zap.Logger
	ledger     *sql.DB
	runID      string
	inputDir   string
	outputDir  string
	successDir string
	gen        generator.Generator
}

func newBatch(cfg *config.Config, log *zap.Logger, mode, inputDir, outputDir, selector string) (*batch, error) {
	if info, err := os.Stat(inputDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("input directory %s not found", inputDir)
	}

	successDir := cfg.SuccessDir
	if !filepath.IsAbs(successDir) {
		successDir = filepath.Join(inputDir, successDir)
	}
	for _, dir := range []string{outputDir, successDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	log = log.With(zap.String("mode", mode))
	sqlDB, runID, err := startRun(cfg.LedgerPath, mode, selector)
	if err != nil {
		log.Warn("ledger unavailable, conversions will not be recorded", zap.Error(err))
	} else {
		log = log.With(zap.String("run", runID))
	}

	return &batch{
		cfg:        cfg,
		log:        log,
		ledger:     sqlDB,
		runID:      runID,
		inputDir:   inputDir,
		outputDir:  outputDir,
		successDir: successDir,
		gen: generator.Generator{
			Threshold: cfg.RequestThreshold,
			Debug:     cfg.DebugAnnotations,
		},
	}, nil
}

// startRun opens the ledger and records the batch run in it.
func startRun(path, mode, selector string) (*sql.DB, string, error) {
	sqlDB, err := db.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening ledger: %w", err)
	}
	runID, err := db.StartRun(sqlDB, mode, selector)
	if err != nil {
		sqlDB.Close()
		return nil, "", err
	}
	return sqlDB, runID, nil
}

func (b *batch) close() {
	if b.ledger != nil {
		b.ledger.Close()
	}
}

// run converts the workbooks of the input directory in name order. A
// failing workbook is reported and left in place.
func (b *batch) run(w io.Writer, skip string, parse func(path string) ([]model.ScenarioSource, error)) {
	paths, err := filepath.Glob(filepath.Join(b.inputDir, "*.xlsx"))
	if err != nil {
		b.log.Error("scanning input directory", zap.Error(err))
		return
	}
	sort.Strings(paths)

	converted, failed := 0, 0
	for _, path := range paths {
		if filepath.Base(path) == skip {
			continue
		}
		log := b.log.With(zap.String("file", path))
		log.Info("parsing file")

		conv := db.Conversion{RunID: b.runID, FilePath: path, Status: db.StatusOK}
		res, sources, err := b.convert(path, parse)
		if err != nil {
			failed++
			log.Error("conversion failed", zap.Error(err))
			ui.FailedLine(w, path, err.Error())
			conv.Status = db.StatusFailed
			conv.Message = err.Error()
			b.record(log, conv, nil, nil)
			continue
		}

		converted++
		conv.Scenarios = res.Scenarios
		conv.Externalized = res.Externalized()
		ui.OKLine(w, path, res.Scenarios, res.Externalized())
		b.record(log, conv, scenarioIndex(path, res), databaseTests(sources))
	}

	ui.SummaryLine(w, converted, failed)
}

func (b *batch) convert(path string, parse func(string) ([]model.ScenarioSource, error)) (generator.Result, []model.ScenarioSource, error) {
	sources, err := parse(path)
	if err != nil {
		return generator.Result{}, nil, err
	}

	name := featureName(path)
	res, err := b.gen.Generate(name, sources)
	if err != nil {
		return generator.Result{}, nil, err
	}
	if b.cfg.VerifyGherkin {
		if err := generator.Verify(res.Feature); err != nil {
			return generator.Result{}, nil, err
		}
	}
	if err := generator.Write(b.outputDir, name, res); err != nil {
		return generator.Result{}, nil, err
	}
	if err := moveFile(path, filepath.Join(b.successDir, filepath.Base(path))); err != nil {
		return generator.Result{}, nil, err
	}
	return res, sources, nil
}

func (b *batch) record(log *zap.Logger, c db.Conversion, scenarios []db.ScenarioEntry, tests []model.DatabaseTest) {
	if b.ledger == nil {
		return
	}
	if _, err := db.RecordConversion(b.ledger, c, scenarios, tests); err != nil {
		log.Warn("unable to record conversion", zap.Error(err))
	}
}

func featureName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func scenarioIndex(path string, res generator.Result) []db.ScenarioEntry {
	pf := parser.Index(featureName(path)+".feature", []byte(res.Feature))
	entries := make([]db.ScenarioEntry, 0, len(pf.Scenarios))
	for _, s := range pf.Scenarios {
		entries = append(entries, db.ScenarioEntry{Name: s.Name, Line: s.Line})
	}
	return entries
}

func databaseTests(sources []model.ScenarioSource) []model.DatabaseTest {
	var tests []model.DatabaseTest
	for _, src := range sources {
		if t, ok := src.(model.DatabaseTest); ok {
			tests = append(tests, t)
		}
	}
	return tests
}

// moveFile renames source to target, replacing any existing target.
func moveFile(source, target string) error {
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("replacing %s: %w", target, err)
	}
	if err := os.Rename(source, target); err != nil {
		return fmt.Errorf("moving %s: %w", source, err)
	}
	return nil
}
