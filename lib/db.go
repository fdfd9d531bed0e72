// Package lib: DB related functions which are not heavily related to the main (audit/repair) logic.
package lib

import (
	"DrinkNotes/common"
	"DrinkNotes/helpers"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id     TEXT PRIMARY KEY,
	command    TEXT NOT NULL,
	started_at INTEGER NOT NULL,
	files      INTEGER NOT NULL,
	records    INTEGER NOT NULL,
	ok         INTEGER NOT NULL,
	modified   INTEGER NOT NULL,
	failed     INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS failures (
	run_id  TEXT NOT NULL REFERENCES runs(run_id),
	path    TEXT NOT NULL,
	message TEXT NOT NULL
);`

type Run struct {
	RunId     string
	Command   string
	StartedAt time.Time
	Files     int
	Records   int
	OK        int
	Modified  int
	Failed    int
	Failures  map[string]string
}

func OpenDb(dbPath string) (*sql.DB, error) {
	if len(dbPath) == 0 {
		helpers.Log("DEBUG", "Empty DB path")
		return nil, nil
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", dbPath)
	}
	// One writer at a time is enough for this tool
	db.SetMaxOpenConns(1)
	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "creating tables in %s", dbPath)
	}
	return db, nil
}

func NewRunId() string {
	return uuid.NewString()
}

func SaveRun(db *sql.DB, run Run) error {
	if db == nil { // For unit tests and when no DB is given
		return nil
	}
	slowMsg := "WARN  Slow history insert for run:" + run.RunId
	if common.Debug {
		slowMsg = "DEBUG history insert for run:" + run.RunId
		defer helpers.Elapsed(time.Now().UnixMilli(), slowMsg, 0)
	} else {
		defer helpers.Elapsed(time.Now().UnixMilli(), slowMsg, common.SlowMS)
	}
	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	_, err = tx.Exec("INSERT INTO runs (run_id, command, started_at, files, records, ok, modified, failed) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		run.RunId, run.Command, run.StartedAt.Unix(), run.Files, run.Records, run.OK, run.Modified, run.Failed)
	if err != nil {
		_ = tx.Rollback()
		return errors.Wrap(err, "inserting run")
	}
	for path, msg := range run.Failures {
		if _, err = tx.Exec("INSERT INTO failures (run_id, path, message) VALUES (?, ?, ?)", run.RunId, path, msg); err != nil {
			_ = tx.Rollback()
			return errors.Wrap(err, "inserting failure")
		}
	}
	return errors.Wrap(tx.Commit(), "commit")
}

// ListRuns returns the latest runs first
func ListRuns(db *sql.DB, limit int) ([]Run, error) {
	if db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = common.HistoryLimit
	}
	rows, err := db.Query("SELECT run_id, command, started_at, files, records, ok, modified, failed FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying runs")
	}
	defer rows.Close()
	runs := make([]Run, 0)
	for rows.Next() {
		var r Run
		var startedAt int64
		if err = rows.Scan(&r.RunId, &r.Command, &startedAt, &r.Files, &r.Records, &r.OK, &r.Modified, &r.Failed); err != nil {
			return nil, errors.Wrap(err, "scanning run")
		}
		r.StartedAt = time.Unix(startedAt, 0)
		runs = append(runs, r)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "reading runs")
	}
	for i := range runs {
		if runs[i].Failed == 0 {
			continue
		}
		if runs[i].Failures, err = listFailures(db, runs[i].RunId); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func listFailures(db *sql.DB, runId string) (map[string]string, error) {
	rows, err := db.Query("SELECT path, message FROM failures WHERE run_id = ?", runId)
	if err != nil {
		return nil, errors.Wrap(err, "querying failures")
	}
	defer rows.Close()
	failures := make(map[string]string)
	for rows.Next() {
		var path, msg string
		if err = rows.Scan(&path, &msg); err != nil {
			return nil, errors.Wrap(err, "scanning failure")
		}
		failures[path] = msg
	}
	return failures, rows.Err()
}

func (r Run) String() string {
	return fmt.Sprintf("%s %s %-6s files:%d records:%d ok:%d modified:%d failed:%d",
		r.StartedAt.Format("2006-01-02 15:04:05"), r.RunId, r.Command, r.Files, r.Records, r.OK, r.Modified, r.Failed)
}
