// Package generator assembles scenario sources into feature and request files.
package generator

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	gherkin "github.com/cucumber/gherkin/go/v26"
	messages "github.com/cucumber/messages/go/v21"

	"github.com/chriserin/xlfeat/internal/model"
)

// DefaultThreshold is the combined request size above which request
// bodies move to the request file.
const DefaultThreshold = 20480

const scenarioHeader = "Scenario: "

// Generator renders features. The zero value inlines every request.
type Generator struct {
	Threshold int
	Debug     bool
	Objects   model.UIObjects
}

// Result is a generated feature. Requests is nil unless request bodies
// were externalized.
type Result struct {
	Feature   string
	Requests  *string
	Scenarios int
}

// Externalized reports whether a request file accompanies the feature.
func (r Result) Externalized() bool {
	return r.Requests != nil
}

// Generate renders sources as the feature called name. Scenario headers are
// numbered in order as 0001_, 0002_ and so on.
func (g Generator) Generate(name string, sources []model.ScenarioSource) (Result, error) {
	size := 0
	for _, src := range sources {
		if t, ok := src.(model.APITest); ok {
			size += t.Size()
		}
	}
	big := g.Threshold > 0 && size > g.Threshold
	opts := model.RenderOptions{BigRequest: big, Debug: g.Debug, Objects: g.Objects}

	sections := []string{"Feature: " + name}
	var requests []string
	number := 0
	for _, src := range sources {
		blocks, err := model.Render(src, opts)
		if err != nil {
			return Result{}, fmt.Errorf("rendering %s: %w", name, err)
		}
		for _, block := range blocks {
			if strings.Contains(block, scenarioHeader) {
				number++
				block = strings.Replace(block, scenarioHeader, fmt.Sprintf("%s%04d_", scenarioHeader, number), 1)
			}
			sections = append(sections, block)
		}
		if t, ok := src.(model.APITest); ok && big {
			requests = append(requests, t.RequestData()...)
		}
	}

	res := Result{Feature: strings.Join(sections, "\n\n"), Scenarios: number}
	if big {
		joined := strings.Join(requests, "\n")
		res.Requests = &joined
	}
	return res, nil
}

// Verify parses text as a Gherkin document.
func Verify(text string) error {
	if _, err := gherkin.ParseGherkinDocument(strings.NewReader(text), (&messages.Incrementing{}).NewId); err != nil {
		return fmt.Errorf("invalid gherkin: %w", err)
	}
	return nil
}

// Write stores res as <dir>/<name>.feature. The request file <name>.req is
// written when requests were externalized and removed otherwise.
func Write(dir, name string, res Result) error {
	if err := os.WriteFile(filepath.Join(dir, name+".feature"), []byte(res.Feature+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing feature: %w", err)
	}
	reqPath := filepath.Join(dir, name+".req")
	if res.Requests == nil {
		if err := os.Remove(reqPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing request file: %w", err)
		}
		return nil
	}
	if err := os.WriteFile(reqPath, []byte(*res.Requests+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing request file: %w", err)
	}
	return nil
}
