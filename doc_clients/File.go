package doc_clients

import (
	"DrinkNotes/common"
	"DrinkNotes/helpers"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"
)

type FileClient struct{}

func (c *FileClient) ReadPath(path string) ([]byte, error) {
	if common.Debug {
		defer helpers.Elapsed(time.Now().UnixMilli(), "DEBUG Read "+path, 0)
	} else {
		defer helpers.Elapsed(time.Now().UnixMilli(), "WARN  slow file read for path:"+path, common.SlowMS)
	}
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return bytes, nil
}

// WriteToPath overwrites the file in place. No backup, no temp file + rename.
func (c *FileClient) WriteToPath(path string, contents []byte) error {
	if common.Debug {
		defer helpers.Elapsed(time.Now().UnixMilli(), "DEBUG Wrote "+path, 0)
	} else {
		defer helpers.Elapsed(time.Now().UnixMilli(), "WARN  slow file write for path:"+path, common.SlowMS)
	}
	mode := os.FileMode(0644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return errors.Wrapf(err, "opening %s for write", path)
	}
	defer f.Close()
	if _, err = f.Write(contents); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

// ListFiles returns the files matching the glob pattern, sorted.
// A pattern without glob meta characters is returned as-is so a missing file is reported by ReadPath.
func (c *FileClient) ListFiles(pattern string) ([]string, error) {
	if !common.RxGlobMeta.MatchString(pattern) {
		return []string{pattern}, nil
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "bad pattern %s", pattern)
	}
	files := make([]string, 0, len(matches))
	for _, m := range matches {
		fi, err := os.Stat(m)
		if err != nil || fi.IsDir() {
			helpers.Log("DEBUG", fmt.Sprintf("Skipping %s (not a regular file)", m))
			continue
		}
		files = append(files, m)
	}
	sort.Strings(files)
	helpers.Log("DEBUG", fmt.Sprintf("Pattern %s matched %d files", pattern, len(files)))
	return files, nil
}

func (c *FileClient) GetFileInfo(path string) (DocInfo, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return DocInfo{}, errors.Wrapf(err, "stat %s", path)
	}
	return DocInfo{Path: path, ModTime: fi.ModTime(), Size: fi.Size()}, nil
}
