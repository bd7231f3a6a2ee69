package parser

import (
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`@[^@\s]+`)

var stepKeywords = []string{"Given ", "When ", "Then ", "And ", "But ", "* "}

// Parse scans a generated feature file and returns its outline and any
// structural errors. Doc string bodies are opaque.
func Parse(filename string, content []byte) (*Document, []ParseError) {
	lines := strings.Split(string(content), "\n")
	var errors []ParseError

	feature := &Feature{}
	doc := &Document{Feature: feature}

	i := 0
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || isTagLine(trimmed) {
			i++
			continue
		}
		break
	}

	if i < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[i]), "Feature:") {
		feature.Name = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[i]), "Feature:"))
		i++

		var descLines []string
		for i < len(lines) {
			trimmed := strings.TrimSpace(lines[i])
			if trimmed == "" || isKeyword(trimmed) || isTagLine(trimmed) || isStep(trimmed) || strings.HasPrefix(trimmed, "#") {
				break
			}
			descLines = append(descLines, trimmed)
			i++
		}
		feature.Description = strings.Join(descLines, "\n")
	} else {
		feature.Name = filenameWithoutExt(filename)
		if i < len(lines) {
			errors = append(errors, ParseError{Line: i + 1, Message: "missing Feature: line"})
		}
	}

	var pendingTags []Tag
	var current *ScenarioDefinition
	flush := func() {
		if current != nil {
			feature.Scenarios = append(feature.Scenarios, *current)
			current = nil
		}
	}

	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])

		switch {
		case isDocStringDelimiter(trimmed):
			if current == nil {
				errors = append(errors, ParseError{Line: i + 1, Message: "doc string outside a scenario"})
			}
			i = skipDocString(lines, i)
			continue
		case trimmed == "":
		case strings.HasPrefix(trimmed, "#"):
			feature.Comments = append(feature.Comments, Comment{
				Line: i + 1,
				Text: strings.TrimSpace(strings.TrimPrefix(trimmed, "#")),
			})
		case isTagLine(trimmed):
			flush()
			pendingTags = append(pendingTags, parseTags(trimmed)...)
		case strings.HasPrefix(trimmed, "Scenario:"):
			flush()
			current = &ScenarioDefinition{
				Tags: pendingTags,
				Name: strings.TrimSpace(strings.TrimPrefix(trimmed, "Scenario:")),
				Line: i + 1,
			}
			pendingTags = nil
		case isKeyword(trimmed):
			flush()
			errors = append(errors, ParseError{Line: i + 1, Message: unsupported(trimmed)})
		case isStep(trimmed):
			if current == nil {
				errors = append(errors, ParseError{Line: i + 1, Message: "step outside a scenario"})
			} else {
				current.Steps++
			}
		}
		i++
	}
	flush()

	return doc, errors
}

func parseTags(line string) []Tag {
	matches := tagPattern.FindAllString(line, -1)
	var tags []Tag
	for _, m := range matches {
		tags = append(tags, Tag{Name: m})
	}
	return tags
}

func isTagLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, "@")
}

func isKeyword(trimmed string) bool {
	return strings.HasPrefix(trimmed, "Feature:") ||
		strings.HasPrefix(trimmed, "Background:") ||
		strings.HasPrefix(trimmed, "Scenario:") ||
		strings.HasPrefix(trimmed, "Scenario Outline:") ||
		strings.HasPrefix(trimmed, "Rule:") ||
		strings.HasPrefix(trimmed, "Examples:")
}

func unsupported(trimmed string) string {
	keyword, _, _ := strings.Cut(trimmed, ":")
	return keyword + " is not supported"
}

func isStep(trimmed string) bool {
	for _, k := range stepKeywords {
		if strings.HasPrefix(trimmed, k) {
			return true
		}
	}
	return false
}

func isDocStringDelimiter(trimmed string) bool {
	return strings.HasPrefix(trimmed, `"""`) || strings.HasPrefix(trimmed, "```")
}

// skipDocString advances past a doc string block. i points at the opening delimiter.
// Returns the index of the line after the closing delimiter.
func skipDocString(lines []string, i int) int {
	delimiter := `"""`
	if strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
		delimiter = "```"
	}
	i++
	for i < len(lines) {
		if strings.TrimSpace(lines[i]) == delimiter {
			return i + 1
		}
		i++
	}
	return i
}

func filenameWithoutExt(filename string) string {
	name := filename
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[:idx]
	}
	return name
}
