package model

import (
	"fmt"
	"regexp"
	"strings"
)

// RequestType is the body format of an API request.
type RequestType string

const (
	RequestJSON RequestType = "json"
	RequestXML  RequestType = "xml"
	RequestGet  RequestType = "get"
)

var responseBodyPattern = regexp.MustCompile(`(?i)response\s*body`)

// APIScenario is one request/validation case of an APITest.
type APIScenario struct {
	Name          string
	Input         string // scenario column name in the request sheet
	Request       string
	RequestHeader string
	RequestType   RequestType
	ResponseCode  string // empty when not validated
	URL           string
	Outputs       []Pair
	Variables     []Pair
}

func isResponseBody(expression string) bool {
	return responseBodyPattern.MatchString(expression)
}

func (s APIScenario) annotation() string {
	lower := strings.ToLower(s.Input)
	switch {
	case strings.HasPrefix(lower, "s_"):
		return "@SmokeTest\n"
	case strings.HasPrefix(lower, "r_"):
		return "@RegressionTest\n"
	}
	return ""
}

// Scenario renders the scenario text. With bigRequest, bodies are referenced
// by the scenario name instead of being inlined.
func (s APIScenario) Scenario(bigRequest bool) string {
	var requestLine string
	if s.RequestType == RequestGet {
		requestLine = fmt.Sprintf(`When I send a GET request to URL "%s" with request header "%s"`, s.URL, s.RequestHeader)
	} else {
		requestLine = fmt.Sprintf(`When I send a request to URL "%s" with request header "%s" and the following %s `,
			s.URL, s.RequestHeader, s.RequestType)
		if bigRequest {
			requestLine += fmt.Sprintf(`request "%s"`, s.Name)
		} else {
			requestLine += "body\n\"\"\"\n" + s.Request + "\n\"\"\""
		}
	}
	lines := []string{
		s.annotation() + "Scenario: " + s.Name,
		"Given I am a XMLWebservice client",
		requestLine,
	}

	prefix := "Then"
	if s.ResponseCode != "" {
		lines = append(lines, "Then I validate that the Response Code should be "+s.ResponseCode)
		prefix = "And"
	}

	if len(s.Variables) > 0 {
		if bigRequest {
			lines = append(lines, fmt.Sprintf("%s I store the %s expressions in %s", prefix, s.RequestType, s.Name))
			prefix = "And"
		} else {
			for _, v := range s.Variables {
				lines = append(lines, fmt.Sprintf(`%s I store the value of the %s path expression "%s" in variable "%s"`,
					prefix, s.RequestType, v.Expression, v.Value))
				prefix = "And"
			}
		}
	}

	if len(s.Outputs) > 0 {
		if bigRequest {
			validations := false
			for _, o := range s.Outputs {
				if isResponseBody(o.Expression) {
					lines = append(lines, responseBodyLine(prefix, o.Value))
				} else {
					validations = true
				}
			}
			if validations {
				lines = append(lines, fmt.Sprintf("%s I validate the %s expressions in %s", prefix, s.RequestType, s.Name))
			}
		} else {
			for _, o := range s.Outputs {
				if isResponseBody(o.Expression) {
					lines = append(lines, responseBodyLine(prefix, o.Value))
				} else {
					value := RemoveDuplicates(o.Value)
					line := fmt.Sprintf(`%s I validate that the %s path expression "%s" should be`, prefix, s.RequestType, o.Expression)
					if s.RequestType == RequestJSON {
						line += ` "` + value + `"`
					} else {
						line += "\n\"\"\"\n" + value + "\n\"\"\""
					}
					lines = append(lines, line)
				}
				prefix = "And"
			}
		}
	}
	return strings.Join(lines, "\n")
}

func responseBodyLine(prefix, value string) string {
	return prefix + " I validate that the Response Body should be\n\"\"\"\n" + value + "\n\"\"\""
}

// RequestData returns the request file lines for this scenario:
// ##KEY:<name> for the body, ##KEY:##STORE:<name> for captured variables and
// ##KEY:##VALIDATE:<name> for path validations.
func (s APIScenario) RequestData() []string {
	var data []string
	if s.RequestType != RequestGet {
		data = append(data, "##KEY:"+s.Name, s.Request)
	}
	if len(s.Variables) > 0 {
		data = append(data, "##KEY:##STORE:"+s.Name)
		for _, v := range s.Variables {
			data = append(data, "Path:"+v.Expression, v.Value)
		}
	}
	var validations []string
	for _, o := range s.Outputs {
		if !isResponseBody(o.Expression) {
			validations = append(validations, "Path:"+o.Expression, RemoveDuplicates(o.Value))
		}
	}
	if len(validations) > 0 {
		data = append(data, "##KEY:##VALIDATE:"+s.Name)
		data = append(data, validations...)
	}
	return data
}

// Size is twice the character length of the externalizable text.
func (s APIScenario) Size() int {
	n := 0
	if s.RequestType != RequestGet {
		n += len([]rune(s.Request))
	}
	for _, v := range s.Variables {
		n += len([]rune(v.Expression)) + len([]rune(v.Value))
	}
	for _, o := range s.Outputs {
		if !isResponseBody(o.Expression) {
			n += len([]rune(o.Expression)) + len([]rune(o.Value))
		}
	}
	return 2 * n
}

// RemoveDuplicates collapses a value made of one substring repeated evenly
// to that substring. Values of 10 characters or less are never collapsed.
func RemoveDuplicates(s string) string {
	r := []rune(s)
	n := len(r)
	if n <= 10 {
		return s
	}
	for rep := n; rep > 1; rep-- {
		if n%rep != 0 {
			continue
		}
		sub := string(r[:n/rep])
		if strings.Repeat(sub, rep) == s {
			return sub
		}
	}
	return s
}
