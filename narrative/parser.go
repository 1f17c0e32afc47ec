package narrative

import (
	"strings"
	"unicode"
)

type section int

const (
	sectionNone section = iota
	sectionPros
	sectionCons
)

var bulletPrefixes = []string{"-", "*", "•", "–", "+"}

// ParseProsCons extracts the bullet points under the PROS and CONS headers.
// Headers are matched case-insensitively with markdown emphasis and heading
// marks ignored. Only bulleted or numbered lines count as points. A missing
// section yields an empty slice; the function never fails.
func ParseProsCons(text string) (pros, cons []string) {
	pros, cons = []string{}, []string{}
	current := sectionNone

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if s, rest, ok := header(line); ok {
			current = s
			// "PROS: - fast growth" keeps its inline point
			if item, ok := bullet(rest); ok {
				pros, cons = appendTo(current, pros, cons, item)
			}
			continue
		}

		if current == sectionNone {
			continue
		}
		if item, ok := bullet(line); ok {
			pros, cons = appendTo(current, pros, cons, item)
		}
	}

	return pros, cons
}

func appendTo(s section, pros, cons []string, item string) ([]string, []string) {
	switch s {
	case sectionPros:
		pros = append(pros, item)
	case sectionCons:
		cons = append(cons, item)
	}
	return pros, cons
}

// header recognizes "PROS:", "**Cons**", "## Pros:" and similar lines.
func header(line string) (section, string, bool) {
	stripped := strings.TrimLeft(line, "#*_ ")
	upper := strings.ToUpper(stripped)

	var s section
	switch {
	case strings.HasPrefix(upper, "PROS"):
		s = sectionPros
	case strings.HasPrefix(upper, "CONS"):
		s = sectionCons
	default:
		return sectionNone, "", false
	}

	rest := strings.TrimLeft(stripped[len("PROS"):], "*_ ")
	switch {
	case rest == "":
		return s, "", true
	case strings.HasPrefix(rest, ":"):
		return s, strings.TrimSpace(strings.TrimLeft(rest[1:], "*_ ")), true
	default:
		// "Consider..." or "Prospects" are prose, not headers
		return sectionNone, "", false
	}
}

// bullet returns the text of a bulleted or numbered line.
func bullet(line string) (string, bool) {
	if strings.HasPrefix(line, "**") || isRule(line) {
		return "", false
	}
	for _, p := range bulletPrefixes {
		if strings.HasPrefix(line, p) {
			return cleanItem(line[len(p):])
		}
	}

	// 1. or 1)
	i := 0
	for i < len(line) && unicode.IsDigit(rune(line[i])) {
		i++
	}
	if i > 0 && i+1 < len(line) && (line[i] == '.' || line[i] == ')') && line[i+1] == ' ' {
		return cleanItem(line[i+1:])
	}
	return "", false
}

// isRule reports whether line is a markdown horizontal rule such as "---" or "* * *".
func isRule(line string) bool {
	compact := strings.ReplaceAll(line, " ", "")
	if len(compact) < 3 {
		return false
	}
	return strings.Count(compact, string(compact[0])) == len(compact) && strings.ContainsRune("-*_", rune(compact[0]))
}

func cleanItem(s string) (string, bool) {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "*_"))
	if s == "" {
		return "", false
	}
	return s, true
}
