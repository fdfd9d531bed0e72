package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"DrinkNotes/auditor"
	"DrinkNotes/records"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	closeGlobals()
	return out.String(), err
}

func writeDrinks(t *testing.T, dir string, name string, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

const reds = `[
  {
    "name": "\"Rosina\" Barbera D'Asti by Garetto",
    "serverNotes": "📖 ABOUT: Family estate in Asti.\\nSTYLE: juicy\\nPAIRS WITH: pizza",
    "glass": 12
  }
]`

func TestAudit_Glob_PrintsReportAndSummary(t *testing.T) {
	dir := t.TempDir()
	writeDrinks(t, dir, "drinks-italian-reds.json", reds)
	writeDrinks(t, dir, "drinks-whites.json", `[{"name": "Gavi"}]`)

	out, err := execute(t, "audit", "--profile", "btg", filepath.Join(dir, "drinks-*.json"))
	assert.NoError(t, err)
	assert.Contains(t, out, "=== drinks-italian-reds.json ===")
	assert.Contains(t, out, "MISSING \"Rosina\" Barbera D'Asti by Garetto:")
	assert.Contains(t, out, "MISSING Gavi: 0 chars, emoji: false, website: false, sections: false, length: false")
	assert.Contains(t, out, "Total: 0/2 complete")
}

func TestAudit_NotAList_ReturnsErrorButReportsOthers(t *testing.T) {
	dir := t.TempDir()
	bad := writeDrinks(t, dir, "drinks-bad.json", `{"wines": []}`)
	good := writeDrinks(t, dir, "drinks-good.json", reds)

	out, err := execute(t, "audit", bad, good)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files failed")
	assert.Contains(t, out, "Skipping drinks-bad.json - not a list")
	assert.Contains(t, out, "drinks-good.json: 0/1 complete")
}

func TestAudit_UnknownProfile_ReturnsError(t *testing.T) {
	_, err := execute(t, "audit", "--profile", "nope", filepath.Join(t.TempDir(), "x.json"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown profile: nope")
}

func TestIssues_OnlyListsMissing(t *testing.T) {
	dir := t.TempDir()
	fine := "🏆 ABOUT: " + strings.Repeat("x", 210)
	path := writeDrinks(t, dir, "drinks-italian-reds-bottles.json", `[{"name": "Fine", "serverNotes": "`+fine+`"}, {"name": "Escaped", "serverNotes": "🍇 ABOUT:\\nshort"}]`)

	out, err := execute(t, "issues", path)
	assert.NoError(t, err)
	assert.NotContains(t, out, "OK Fine")
	assert.Contains(t, out, "MISSING Escaped: 15 chars, unescaped: false, emoji: true, length: false")
	assert.Contains(t, out, "Total: 1/2 complete")
}

func TestRepair_Default_UnescapesAndRewrites(t *testing.T) {
	dir := t.TempDir()
	path := writeDrinks(t, dir, "drinks-italian-reds.json", reds)

	out, err := execute(t, "repair", path)
	assert.NoError(t, err)
	assert.Contains(t, out, "Fixed: drinks-italian-reds.json")
	assert.Contains(t, out, "Fixed 1 files")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	recs, err := records.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "📖 ABOUT: Family estate in Asti.\nSTYLE: juicy\nPAIRS WITH: pizza", recs[0].Notes())
	assert.Equal(t, []string{"name", "serverNotes", "glass"}, recs[0].Keys())

	out, err = execute(t, "repair", path)
	assert.NoError(t, err)
	assert.Contains(t, out, "Fixed 0 files")
}

func TestRepair_Website_InsertsOnce(t *testing.T) {
	dir := t.TempDir()
	path := writeDrinks(t, dir, "drinks-italian-reds.json", reds)

	out, err := execute(t, "repair", "--action", "unescape,website", path)
	assert.NoError(t, err)
	assert.Contains(t, out, "Added website to: \"Rosina\" Barbera D'Asti by Garetto")

	_, err = execute(t, "repair", "-a", "website", path)
	assert.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	recs, err := records.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "📖 ABOUT: (garettovini.it) Family estate in Asti.\nSTYLE: juicy\nPAIRS WITH: pizza", recs[0].Notes())
}

func TestRepair_CustomConfigWebsites(t *testing.T) {
	dir := t.TempDir()
	path := writeDrinks(t, dir, "drinks-sparkling.json", `[{"name": "Ferrari Brut", "serverNotes": "🥂 ABOUT: Trento bubbles"}]`)
	config := writeDrinks(t, dir, "profiles.yaml", "profiles:\n  sparkling:\n    markers: [\"🥂\"]\nwebsites:\n  Ferrari Brut: ferraritrento.com\n")

	_, err := execute(t, "repair", "-c", config, "-p", "sparkling", "-a", "website", path)
	assert.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "🥂 ABOUT: (ferraritrento.com) Trento bubbles")
}

func TestRepair_DryRunWithCheck_DoesNotWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeDrinks(t, dir, "drinks-italian-reds.json", reds)

	out, err := execute(t, "repair", "--dry-run", "--check", "-p", "issues", path)
	assert.NoError(t, err)
	assert.Contains(t, out, "MISSING \"Rosina\" Barbera D'Asti by Garetto")
	assert.Contains(t, out, "Would fix: drinks-italian-reds.json (1 changes)")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, reds, string(data))
}

func TestRepair_UnknownAction_ReturnsError(t *testing.T) {
	_, err := execute(t, "repair", "-a", "shout", filepath.Join(t.TempDir(), "x.json"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown action: shout")
}

func TestSave_AppendsReportToFile(t *testing.T) {
	dir := t.TempDir()
	path := writeDrinks(t, dir, "drinks-whites.json", `[{"name": "Gavi"}]`)
	report := filepath.Join(dir, "report.txt")

	out, err := execute(t, "-s", report, "audit", path)
	assert.NoError(t, err)
	assert.Empty(t, out)
	data, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Total: 0/1 complete")
}

func TestHistory_RecordsRuns(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "history.db")
	path := writeDrinks(t, dir, "drinks-italian-reds.json", reds)
	bad := writeDrinks(t, dir, "drinks-bad.json", `{}`)

	_, err := execute(t, "--db", db, "audit", path)
	require.NoError(t, err)
	_, err = execute(t, "--db", db, "repair", path, bad)
	require.Error(t, err)

	out, err := execute(t, "--db", db, "history", "-n", "5")
	assert.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, out, "audit  files:1 records:1 ok:0 modified:0 failed:0")
	assert.Contains(t, out, "repair files:2 records:1 ok:0 modified:1 failed:1")
	assert.Contains(t, out, bad+": ")
}

func TestHistory_NoDb_ReturnsError(t *testing.T) {
	_, err := execute(t, "history")
	assert.Error(t, err)
}

func TestBuildActions_Empty_ReturnsError(t *testing.T) {
	_, err := buildActions(nil, auditor.DefaultConfig(), auditor.Profile{})
	assert.Error(t, err)
}

func TestHistory_FailuresSortedByPath(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "history.db")
	badB := writeDrinks(t, dir, "drinks-b.json", `{}`)
	badA := writeDrinks(t, dir, "drinks-a.json", `"x"`)
	badC := writeDrinks(t, dir, "drinks-c.json", `{}`)

	_, err := execute(t, "--db", db, "audit", badC, badA, badB)
	require.Error(t, err)

	out, err := execute(t, "--db", db, "history")
	assert.NoError(t, err)
	a := strings.Index(out, badA+": ")
	b := strings.Index(out, badB+": ")
	c := strings.Index(out, badC+": ")
	require.True(t, a > 0 && b > 0 && c > 0, out)
	assert.True(t, a < b && b < c, out)
}
