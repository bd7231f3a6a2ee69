package parser

import (
	"regexp"
	"strconv"
	"strings"
)

var numberPrefix = regexp.MustCompile(`^(\d{4})_`)

// ParsedFile is the scenario index of one generated feature.
type ParsedFile struct {
	Name      string
	Scenarios []ParsedScenario
	Notes     []string
	Errors    []ParseError
}

// ParsedScenario is one indexed scenario.
type ParsedScenario struct {
	Number  int    // from the 0001_ prefix, 0 when absent
	Name    string // full header text after "Scenario: "
	Tags    []string
	Steps   int
	Content string // raw text from the Scenario: line to the end of the scenario
	Line    int
}

// Transform converts a Document into a ParsedFile.
func Transform(doc *Document, filename string, content []byte, errors []ParseError) *ParsedFile {
	pf := &ParsedFile{Errors: errors}
	if doc.Feature == nil {
		pf.Name = filenameWithoutExt(filename)
		return pf
	}
	pf.Name = doc.Feature.Name
	for _, c := range doc.Feature.Comments {
		pf.Notes = append(pf.Notes, c.Text)
	}

	lines := strings.Split(string(content), "\n")
	for n, sd := range doc.Feature.Scenarios {
		ps := ParsedScenario{
			Name:  sd.Name,
			Steps: sd.Steps,
			Line:  sd.Line,
		}
		if m := numberPrefix.FindStringSubmatch(sd.Name); m != nil {
			ps.Number, _ = strconv.Atoi(m[1])
		}
		for _, tag := range sd.Tags {
			ps.Tags = append(ps.Tags, tag.Name)
		}

		start := sd.Line - 1
		end := len(lines)
		if n+1 < len(doc.Feature.Scenarios) {
			end = doc.Feature.Scenarios[n+1].Line - 1
		}
		// Exclude the next scenario's tags and comments along with blank lines.
		for end > start+1 {
			t := strings.TrimSpace(lines[end-1])
			if t == "" || strings.HasPrefix(t, "@") || strings.HasPrefix(t, "#") {
				end--
				continue
			}
			break
		}
		if start < len(lines) {
			ps.Content = strings.Join(lines[start:end], "\n")
		}

		pf.Scenarios = append(pf.Scenarios, ps)
	}
	return pf
}

// Index parses and transforms a generated feature in one step.
func Index(filename string, content []byte) *ParsedFile {
	doc, errors := Parse(filename, content)
	return Transform(doc, filename, content, errors)
}
