// Package substitute rewrites vendor expression macros found in spreadsheet
// values into the placeholder syntax understood by the test runner.
package substitute

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// EmailAddress replaces the ~email marker.
const EmailAddress = "autotest@example.com"

var (
	guidPattern = regexp.MustCompile(
		`(?i)~csharp\(\s*(?:System\.)?Guid\.NewGuid\(\)(?:\.ToString\(\s*(?:"[^"]*")?\s*\))?\s*\)`)
	datePattern = regexp.MustCompile(
		`(?i)~csharp\(\s*(?:System\.)?DateTime\.(?:Now|Today|UtcNow)((?:\.Add(?:Years|Months|Days)\(\s*[+-]?\d+\s*\))*)\.ToString\(\s*"([^"]*)"\s*\)\s*\)`)
	dateOffsetPattern = regexp.MustCompile(`(?i)\.Add(Years|Months|Days)\(\s*([+-]?\d+)\s*\)`)
	phonePattern      = regexp.MustCompile(
		`(?i)~csharp\(\s*"201275"\s*\+\s*new\s+Random\(\s*\)\.Next\(\s*1000\s*,\s*9999\s*\)(?:\.ToString\(\s*\))?\s*\)`)
	substring1Pattern = regexp.MustCompile(`(?i)~csharp\(\s*"(\{[^{}]*\})"\.substring\(\s*(\d+)\s*\)\)`)
	substring2Pattern = regexp.MustCompile(`(?i)~csharp\(\s*"(\{[^{}]*\})"\.substring\(\s*(\d+)\s*,\s*(\d+)\s*\)\)`)
	stringPattern     = regexp.MustCompile(`(?i)^~string\("(.*)"\)$`)
	titlePattern      = regexp.MustCompile(
		`(?i)~csharp\(\s*(?:System\.Globalization\.)?CultureInfo\.CurrentCulture\.TextInfo\.ToTitleCase\(\s*"(\{[^{}]*\})"(?:\.ToLower\(\))?\s*\)\s*\)`)
)

type rule func(value string) (string, bool)

// rules are tried in order; the first one that matches wins.
var rules = []rule{
	concat,
	replacing(guidPattern, "~guid"),
	date,
	replacing(phonePattern, "201275~random{1000}"),
	replacing(substring1Pattern, "~substring(${1},${2})"),
	replacing(substring2Pattern, "~substring(${1},${2},${3})"),
	literal,
	replacing(titlePattern, "~titlecase(${1})"),
	email,
}

// Value applies the first matching substitution rule to value.
// Values no rule recognizes are returned unchanged.
func Value(value string) string {
	for _, r := range rules {
		if out, ok := r(value); ok {
			return out
		}
	}
	return value
}

// concat marks values built from a current-timestamp formula so the runner
// evaluates them instead of templating them.
func concat(value string) (string, bool) {
	if strings.Contains(strings.ToLower(value), "text(now()") {
		return "~concat[[" + value + "]]", true
	}
	return "", false
}

func replacing(re *regexp.Regexp, template string) rule {
	return func(value string) (string, bool) {
		if !re.MatchString(value) {
			return "", false
		}
		return re.ReplaceAllString(value, template), true
	}
}

func date(value string) (string, bool) {
	if !datePattern.MatchString(value) {
		return "", false
	}
	return datePattern.ReplaceAllStringFunc(value, func(expr string) string {
		m := datePattern.FindStringSubmatch(expr)
		var years, months, days int
		for _, offset := range dateOffsetPattern.FindAllStringSubmatch(m[1], -1) {
			n, _ := strconv.Atoi(offset[2])
			switch strings.ToLower(offset[1]) {
			case "years":
				years += n
			case "months":
				months += n
			case "days":
				days += n
			}
		}
		return fmt.Sprintf("~date{%+d,%+d,%+d}{%s}", years, months, days, m[2])
	}), true
}

func literal(value string) (string, bool) {
	m := stringPattern.FindStringSubmatch(value)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func email(value string) (string, bool) {
	if strings.EqualFold(strings.TrimSpace(value), "~email") {
		return EmailAddress, true
	}
	return "", false
}
