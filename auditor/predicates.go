package auditor

import (
	"DrinkNotes/common"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Predicate is a pure check over the serverNotes text
type Predicate struct {
	Name  string
	Check func(notes string) bool
}

type PredicateSet []Predicate

type Result struct {
	Name   string
	Passed bool
}

type Evaluation struct {
	Length  int
	Results []Result
	OK      bool
}

// NoteLength counts code points, so an emoji is one character
func NoteLength(notes string) int {
	return utf8.RuneCountInString(notes)
}

func HasMarker(markers []string) Predicate {
	return Predicate{Name: "emoji", Check: func(notes string) bool {
		for _, m := range markers {
			if len(m) > 0 && strings.Contains(notes, m) {
				return true
			}
		}
		return false
	}}
}

// HasWebsite only checks both parentheses exist somewhere, not that they enclose a domain
func HasWebsite() Predicate {
	return Predicate{Name: "website", Check: func(notes string) bool {
		return strings.Contains(notes, "(") && strings.Contains(notes, ")")
	}}
}

func HasSections(labels []string) Predicate {
	return Predicate{Name: "sections", Check: func(notes string) bool {
		for _, l := range labels {
			if !strings.Contains(notes, l) {
				return false
			}
		}
		return true
	}}
}

func LongerThan(n int) Predicate {
	return Predicate{Name: "length", Check: func(notes string) bool {
		return NoteLength(notes) > n
	}}
}

func NotShorterThan(n int) Predicate {
	return Predicate{Name: "length", Check: func(notes string) bool {
		return NoteLength(notes) >= n
	}}
}

func NoEscapedNewlines() Predicate {
	return Predicate{Name: "unescaped", Check: func(notes string) bool {
		return !strings.Contains(notes, common.ESCAPED_NEWLINE)
	}}
}

// Evaluate runs every predicate (no short-circuit) so that the report shows all results
func (ps PredicateSet) Evaluate(notes string) Evaluation {
	ev := Evaluation{Length: NoteLength(notes), Results: make([]Result, 0, len(ps)), OK: true}
	for _, p := range ps {
		passed := p.Check(notes)
		ev.Results = append(ev.Results, Result{Name: p.Name, Passed: passed})
		if !passed {
			ev.OK = false
		}
	}
	return ev
}

func (ev Evaluation) Status() string {
	if ev.OK {
		return "OK"
	}
	return "MISSING"
}

// ReportLine eg. `OK Barolo: 345 chars, emoji: true, website: true, sections: true, length: true`
func (ev Evaluation) ReportLine(name string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %s: %d chars", ev.Status(), name, ev.Length))
	for _, r := range ev.Results {
		sb.WriteString(fmt.Sprintf(", %s: %t", r.Name, r.Passed))
	}
	return sb.String()
}
