package meeting

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// ThursdayStyle selects which single letter a source uses for Thursday.
type ThursdayStyle int

const (
	// ThursdayAuto accepts both R and H. No source mixes the two.
	ThursdayAuto ThursdayStyle = iota
	ThursdayR
	ThursdayH
)

// ParseThursdayStyle maps a config value ("auto", "R", "H") to a style.
func ParseThursdayStyle(s string) (ThursdayStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ThursdayAuto, nil
	case "r":
		return ThursdayR, nil
	case "h":
		return ThursdayH, nil
	}
	return ThursdayAuto, fmt.Errorf("meeting: unknown thursday style %q", s)
}

// DayCodeLexer turns compact day codes ("MWF", "TuTh") into weekdays.
type DayCodeLexer struct {
	Thursday ThursdayStyle
}

var defaultLexer = DayCodeLexer{Thursday: ThursdayAuto}

// ParseDayCodes lexes code with the default lexer.
func ParseDayCodes(code string) ([]Weekday, error) {
	return defaultLexer.Parse(code)
}

// two-letter codes win over single letters so "TH" is Thursday, not T+H.
// Under ThursdayH only a lowercase h keeps "Th" together; see twoLetter.
var twoLetterCodes = map[string]Weekday{
	"tu": Tuesday,
	"th": Thursday,
	"sa": Saturday,
	"su": Sunday,
}

// Parse returns the distinct weekdays named by code, Monday first.
//
// Accepted shapes are concatenated letter codes ("MWF", "TTH", "MTuWThF") and
// separated day names ("Monday, Wednesday", "Tue/Thu"). Unknown letters fail
// the whole code with a *ParseError.
func (l DayCodeLexer) Parse(code string) ([]Weekday, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, &ParseError{Field: "days", Input: code, Err: ErrUnknownDayCode}
	}

	seen := make(map[Weekday]bool, 7)
	for _, token := range strings.FieldsFunc(trimmed, isDaySeparator) {
		if wd, ok := lookupDayName(token); ok {
			seen[wd] = true
			continue
		}
		if err := l.lexCompact(token, seen); err != nil {
			return nil, &ParseError{Field: "days", Input: code, Err: err}
		}
	}

	days := make([]Weekday, 0, len(seen))
	for wd := range seen {
		days = append(days, wd)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days, nil
}

func (l DayCodeLexer) lexCompact(token string, seen map[Weekday]bool) error {
	runes := []rune(token)
	for i := 0; i < len(runes); {
		if i+1 < len(runes) {
			if wd, ok := l.twoLetter(runes[i], runes[i+1]); ok {
				seen[wd] = true
				i += 2
				continue
			}
		}
		wd, err := l.single(runes[i])
		if err != nil {
			return err
		}
		seen[wd] = true
		i++
	}
	return nil
}

func (l DayCodeLexer) twoLetter(a, b rune) (Weekday, bool) {
	wd, ok := twoLetterCodes[strings.ToLower(string([]rune{a, b}))]
	if !ok {
		return 0, false
	}
	// In H sources an uppercase H is Thursday on its own, so "TH" is T+H.
	if wd == Thursday && l.Thursday == ThursdayH && b == 'H' {
		return 0, false
	}
	return wd, true
}

func (l DayCodeLexer) single(r rune) (Weekday, error) {
	switch unicode.ToUpper(r) {
	case 'M':
		return Monday, nil
	case 'T':
		return Tuesday, nil
	case 'W':
		return Wednesday, nil
	case 'R':
		if l.Thursday == ThursdayH {
			break
		}
		return Thursday, nil
	case 'H':
		if l.Thursday == ThursdayR {
			break
		}
		return Thursday, nil
	case 'F':
		return Friday, nil
	case 'S':
		return Saturday, nil
	case 'U':
		return Sunday, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDayCode, r)
}

func isDaySeparator(r rune) bool {
	return unicode.IsSpace(r) || r == ',' || r == '/' || r == '&' || r == ';' || r == '|'
}
