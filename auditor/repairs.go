package auditor

import (
	"DrinkNotes/common"
	"DrinkNotes/helpers"
	"DrinkNotes/records"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Action is one idempotent repair. Apply returns true only when the record was changed.
type Action interface {
	Name() string
	Apply(rec *records.Record) (bool, error)
}

// UnescapeNewlines replaces the literal two characters `\n` with a real newline
func UnescapeNewlines(notes string) (string, bool) {
	if !strings.Contains(notes, common.ESCAPED_NEWLINE) {
		return notes, false
	}
	return strings.ReplaceAll(notes, common.ESCAPED_NEWLINE, "\n"), true
}

// MarkerAboutRegexp matches `<marker> ABOUT:` for any of the markers. Returns nil if no markers.
func MarkerAboutRegexp(markers []string) *regexp.Regexp {
	quoted := make([]string, 0, len(markers))
	for _, m := range markers {
		if len(m) > 0 {
			quoted = append(quoted, regexp.QuoteMeta(m))
		}
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile("(" + strings.Join(quoted, "|") + ") " + regexp.QuoteMeta(common.ABOUT_LABEL))
}

// InsertWebsite puts " (website)" right after the first `<marker> ABOUT:` unless "(website)" is already in the notes
func InsertWebsite(notes string, website string, rx *regexp.Regexp) (string, bool) {
	if rx == nil || len(website) == 0 {
		return notes, false
	}
	token := "(" + website + ")"
	if strings.Contains(notes, token) {
		return notes, false
	}
	loc := rx.FindStringIndex(notes)
	if loc == nil {
		return notes, false
	}
	return notes[:loc[1]] + " " + token + notes[loc[1]:], true
}

type unescapeAction struct{}

func NewUnescapeAction() Action {
	return &unescapeAction{}
}

func (a *unescapeAction) Name() string {
	return "unescape"
}

func (a *unescapeAction) Apply(rec *records.Record) (bool, error) {
	notes, ok := rec.GetString(common.NOTES_KEY)
	if !ok {
		return false, nil
	}
	fixed, changed := UnescapeNewlines(notes)
	if !changed {
		return false, nil
	}
	return true, rec.SetNotes(fixed)
}

type websiteAction struct {
	websites map[string]string
	rx       *regexp.Regexp
}

// NewWebsiteAction takes the exact wine name -> website domain table and the markers which can start the ABOUT section
func NewWebsiteAction(websites map[string]string, markers []string) Action {
	a := &websiteAction{websites: websites, rx: MarkerAboutRegexp(markers)}
	if a.rx == nil {
		helpers.Log("WARN", "No marker emoji for the website action, so nothing will be inserted.")
	}
	return a
}

func (a *websiteAction) Name() string {
	return "website"
}

func (a *websiteAction) Apply(rec *records.Record) (bool, error) {
	website, ok := a.websites[rec.Name()]
	if !ok {
		return false, nil
	}
	notes := rec.Notes()
	fixed, changed := InsertWebsite(notes, website, a.rx)
	if !changed {
		if !strings.Contains(notes, "("+website+")") {
			helpers.Log("WARN", fmt.Sprintf("%s has no '<marker> %s' to insert (%s) after", rec.Name(), common.ABOUT_LABEL, website))
		}
		return false, nil
	}
	return true, rec.SetNotes(fixed)
}

// WebsiteNames is for logging / listing the configured table in a stable order
func WebsiteNames(websites map[string]string) []string {
	names := make([]string, 0, len(websites))
	for n := range websites {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
