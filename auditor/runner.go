package auditor

import (
	"DrinkNotes/doc_clients"
	"DrinkNotes/helpers"
	"DrinkNotes/records"
	"fmt"
	"io"
	"path/filepath"

	"github.com/pkg/errors"
)

// Auditor evaluates and repairs the drinks lists one file at a time.
type Auditor struct {
	Client doc_clients.Client
	Out    io.Writer
	// Report what would be fixed, but do not write
	DryRun bool
	// Only print the records which failed any predicate
	OnlyMissing bool
}

type Change struct {
	Name   string
	Action string
}

type FileResult struct {
	Path     string
	Total    int
	OK       int
	Modified bool
	Written  bool
	Changes  []Change
	Err      error
}

type BatchResult struct {
	Files []FileResult
}

type Totals struct {
	Files    int
	Records  int
	OK       int
	Modified int
	Failed   int
}

func New(client doc_clients.Client, out io.Writer) *Auditor {
	return &Auditor{Client: client, Out: out}
}

func (a *Auditor) println(line string) {
	_, _ = fmt.Fprintln(a.Out, line)
}

// Run is the single validate-then-repair pass. With an empty set nothing is reported per record,
// with no actions nothing is written. Errors stay in the FileResult and the next file is processed.
func (a *Auditor) Run(paths []string, set PredicateSet, actions []Action) BatchResult {
	batch := BatchResult{Files: make([]FileResult, 0, len(paths))}
	for _, path := range paths {
		fr := a.runFile(path, set, actions)
		if fr.Err != nil {
			filename := filepath.Base(path)
			if errors.Is(fr.Err, records.ErrNotList) {
				a.println(fmt.Sprintf("Skipping %s - not a list (%s)", filename, fr.Err.Error()))
			} else {
				a.println(fmt.Sprintf("Error with %s: %s", filename, fr.Err.Error()))
			}
			helpers.Log("DEBUG", fmt.Sprintf("%s: %+v", path, fr.Err))
		}
		batch.Files = append(batch.Files, fr)
	}
	return batch
}

func (a *Auditor) runFile(path string, set PredicateSet, actions []Action) FileResult {
	fr := FileResult{Path: path}
	data, err := a.Client.ReadPath(path)
	if err != nil {
		fr.Err = err
		return fr
	}
	recs, err := records.Decode(data)
	if err != nil {
		fr.Err = errors.Wrap(err, path)
		return fr
	}
	fr.Total = len(recs)

	if len(set) > 0 {
		a.println(fmt.Sprintf("=== %s ===", filepath.Base(path)))
		a.println(fmt.Sprintf("Total wines: %d", len(recs)))
		for _, rec := range recs {
			ev := set.Evaluate(rec.Notes())
			if ev.OK {
				fr.OK++
				if a.OnlyMissing {
					continue
				}
			}
			a.println(ev.ReportLine(rec.Name()))
		}
	}

	for _, rec := range recs {
		for _, action := range actions {
			changed, err := action.Apply(rec)
			if err != nil {
				fr.Err = errors.Wrapf(err, "%s on %s", action.Name(), rec.Name())
				return fr
			}
			if changed {
				fr.Modified = true
				fr.Changes = append(fr.Changes, Change{Name: rec.Name(), Action: action.Name()})
				helpers.Log("DEBUG", fmt.Sprintf("%s: %s changed %s", filepath.Base(path), action.Name(), rec.Name()))
			}
		}
	}
	if !fr.Modified {
		return fr
	}

	for _, c := range fr.Changes {
		if c.Action == "website" {
			a.println(fmt.Sprintf("Added website to: %s", c.Name))
		}
	}
	if a.DryRun {
		a.println(fmt.Sprintf("Would fix: %s (%d changes)", filepath.Base(path), len(fr.Changes)))
		return fr
	}
	out, err := records.Encode(recs)
	if err != nil {
		fr.Err = errors.Wrap(err, path)
		return fr
	}
	if err = a.Client.WriteToPath(path, out); err != nil {
		fr.Err = err
		return fr
	}
	fr.Written = true
	if info, err := a.Client.GetFileInfo(path); err == nil {
		helpers.Log("DEBUG", fmt.Sprintf("Wrote %s (%d bytes, %s)", info.Path, info.Size, info.ModTime))
	}
	a.println(fmt.Sprintf("Fixed: %s", filepath.Base(path)))
	return fr
}

func (b BatchResult) Totals() Totals {
	t := Totals{Files: len(b.Files)}
	for _, f := range b.Files {
		if f.Err != nil {
			t.Failed++
			continue
		}
		t.Records += f.Total
		t.OK += f.OK
		if f.Modified {
			t.Modified++
		}
	}
	return t
}

func (b BatchResult) Failed() []FileResult {
	failed := make([]FileResult, 0)
	for _, f := range b.Files {
		if f.Err != nil {
			failed = append(failed, f)
		}
	}
	return failed
}

// PrintSummary writes the OK counts per file and combined
func (a *Auditor) PrintSummary(b BatchResult) {
	a.println("")
	a.println("=== SUMMARY ===")
	for _, f := range b.Files {
		if f.Err != nil {
			continue
		}
		a.println(fmt.Sprintf("%s: %d/%d complete", filepath.Base(f.Path), f.OK, f.Total))
	}
	t := b.Totals()
	a.println(fmt.Sprintf("Total: %d/%d complete", t.OK, t.Records))
	if t.Failed > 0 {
		a.println(fmt.Sprintf("Failed files: %d", t.Failed))
	}
}

func (a *Auditor) PrintRepairSummary(b BatchResult) {
	t := b.Totals()
	a.println("")
	if a.DryRun {
		a.println(fmt.Sprintf("Would fix %d files", t.Modified))
	} else {
		a.println(fmt.Sprintf("Fixed %d files", t.Modified))
	}
	if t.Failed > 0 {
		a.println(fmt.Sprintf("Failed files: %d", t.Failed))
	}
}
