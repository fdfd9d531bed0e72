// Package lib: functions which are not *heavily* (a bit is OK) related to the main (audit/repair) logic.
package lib

import (
	"DrinkNotes/common"
	"DrinkNotes/doc_clients"
	"DrinkNotes/helpers"
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// ExpandPatterns resolves each argument (a path or a glob) with the client, keeping the argument order and dropping duplicates.
// A glob which matches nothing is only warned about.
func ExpandPatterns(client doc_clients.Client, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = []string{common.DEFAULT_PATTERN}
	}
	seen := make(map[string]bool)
	paths := make([]string, 0)
	for _, p := range patterns {
		files, err := client.ListFiles(p)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			helpers.Log("WARN", fmt.Sprintf("No file matched with %s", p))
		}
		for _, f := range files {
			if seen[f] {
				continue
			}
			if !common.RxJsonFile.MatchString(f) {
				helpers.Log("WARN", fmt.Sprintf("%s does not look like a JSON file (still checking)", f))
			}
			seen[f] = true
			paths = append(paths, f)
		}
	}
	return paths, nil
}

// OpenSaveFile opens (append) the file to save the report output into
func OpenSaveFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	return f, nil
}
