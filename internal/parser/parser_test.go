package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const generated = `Feature: orders

@SmokeTest
Scenario: 0001_01_s_a
Given I am a XMLWebservice client
And the following json request body
"""
{
 "Scenario: fake"
}
"""
When I send a JSON request

# SharedStep on row 3: p = 1

Scenario: 0002_WaitScenario

When I wait for 2 seconds
`

func TestParse_GeneratedFeature(t *testing.T) {
	doc, errors := Parse("orders.feature", []byte(generated))
	require.Empty(t, errors)

	assert.Equal(t, "orders", doc.Feature.Name)
	require.Len(t, doc.Feature.Scenarios, 2)

	first := doc.Feature.Scenarios[0]
	assert.Equal(t, "0001_01_s_a", first.Name)
	assert.Equal(t, 4, first.Line)
	assert.Equal(t, 3, first.Steps)
	require.Len(t, first.Tags, 1)
	assert.Equal(t, "@SmokeTest", first.Tags[0].Name)

	second := doc.Feature.Scenarios[1]
	assert.Equal(t, "0002_WaitScenario", second.Name)
	assert.Equal(t, 16, second.Line)
	assert.Empty(t, second.Tags)

	require.Len(t, doc.Feature.Comments, 1)
	assert.Equal(t, Comment{Line: 14, Text: "SharedStep on row 3: p = 1"}, doc.Feature.Comments[0])
}

func TestParse_DocStringContentIsOpaque(t *testing.T) {
	content := []byte("Feature: t\nScenario: real\nGiven a body\n```\nScenario: Not real\n@tag\n```\nThen it works\n")
	doc, errors := Parse("t.feature", content)
	require.Empty(t, errors)
	require.Len(t, doc.Feature.Scenarios, 1)
	assert.Equal(t, "real", doc.Feature.Scenarios[0].Name)
	assert.Equal(t, 2, doc.Feature.Scenarios[0].Steps)
}

func TestParse_MultipleTags(t *testing.T) {
	doc, errors := Parse("t.feature", []byte("Feature: t\n@SmokeTest @RegressionTest\nScenario: a\nGiven b\n"))
	require.Empty(t, errors)
	require.Len(t, doc.Feature.Scenarios, 1)
	tags := doc.Feature.Scenarios[0].Tags
	require.Len(t, tags, 2)
	assert.Equal(t, "@SmokeTest", tags[0].Name)
	assert.Equal(t, "@RegressionTest", tags[1].Name)
}

func TestParse_BackgroundError(t *testing.T) {
	_, errors := Parse("t.feature", []byte("Feature: t\nBackground:\n"))
	require.Len(t, errors, 1)
	assert.Equal(t, "Background is not supported", errors[0].Message)
	assert.Equal(t, 2, errors[0].Line)
}

func TestParse_StepOutsideScenario(t *testing.T) {
	_, errors := Parse("t.feature", []byte("Feature: t\nGiven a\n"))
	require.Len(t, errors, 1)
	assert.Equal(t, "step outside a scenario", errors[0].Message)
}

func TestParse_NoFeatureLine(t *testing.T) {
	doc, errors := Parse("out/login.feature", []byte("Scenario: a\nGiven b\n"))
	require.Len(t, errors, 1)
	assert.Equal(t, "missing Feature: line", errors[0].Message)
	assert.Equal(t, "login", doc.Feature.Name)
	require.Len(t, doc.Feature.Scenarios, 1)
}

func TestParse_EmptyFile(t *testing.T) {
	doc, errors := Parse("empty.feature", nil)
	require.Empty(t, errors)
	assert.Equal(t, "empty", doc.Feature.Name)
	assert.Empty(t, doc.Feature.Scenarios)
}
