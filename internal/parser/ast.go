package parser

// Document is the outline of a generated feature file.
type Document struct {
	Feature *Feature
}

type Feature struct {
	Name        string
	Description string
	Scenarios   []ScenarioDefinition
	Comments    []Comment
}

type ScenarioDefinition struct {
	Tags  []Tag
	Name  string
	Line  int // 1-based line number of Scenario: line
	Steps int
}

type Tag struct {
	Name string // e.g. "@SmokeTest"
}

// Comment is a "# ..." line, such as a shared step note.
type Comment struct {
	Line int
	Text string
}

type ParseError struct {
	Line    int
	Message string
}
