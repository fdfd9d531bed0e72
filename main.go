package main

import (
	"DrinkNotes/auditor"
	"DrinkNotes/common"
	"DrinkNotes/doc_clients"
	"DrinkNotes/helpers"
	"DrinkNotes/lib"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var client doc_clients.Client

// Sub-command flags
var actionNames []string
var checkFirst bool
var historyLimit int

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "drinknotes",
		Short: "Validate and repair the serverNotes of the drinks lists (drinks-*.json)",
		Long: `Validate and repair the staff facing serverNotes text of the wine list JSON files.

Each command takes file paths or glob patterns (default: '` + common.DEFAULT_PATTERN + `').
A file which can not be parsed, or which is not a JSON list, is reported and skipped.

USAGE EXAMPLES:
    drinknotes audit --profile btg ./src/data/drinks-italian-reds.json
    drinknotes audit --profile bottles ./src/data/drinks-italian-reds-bottles.json
    drinknotes issues ./src/data/drinks-italian-reds-bottles.json
    drinknotes repair './src/data/drinks-*.json'
    drinknotes repair --action website ./src/data/drinks-italian-reds.json
    DRINKNOTES_DB=./history.db drinknotes history`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setGlobals()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			closeGlobals()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&common.Debug, "debug", "X", helpers.GetBoolEnv(common.ENV_DEBUG, false), "If true, verbose logging ("+common.ENV_DEBUG+")")
	flags.StringVarP(&common.ConfigFile, "config", "c", helpers.GetEnv(common.ENV_CONFIG, ""), "Profiles file (YAML or JSON) to add/replace the built-in profiles and websites ("+common.ENV_CONFIG+")")
	flags.StringVarP(&common.SaveToFile, "save", "s", helpers.GetEnv(common.ENV_SAVE, ""), "Append the report into the specified path instead of stdout ("+common.ENV_SAVE+")")
	flags.StringVar(&common.DbPath, "db", helpers.GetEnv(common.ENV_DB, ""), "SQLite file to record each run into ("+common.ENV_DB+")")

	rootCmd.AddCommand(newAuditCmd(), newIssuesCmd(), newRepairCmd(), newHistoryCmd())
	return rootCmd
}

func newAuditCmd() *cobra.Command {
	var profileName string
	cmd := &cobra.Command{
		Use:   "audit [PATH|GLOB]...",
		Short: "Report OK/MISSING per wine with the profile's checks, then the summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd, args, profileName, false)
		},
	}
	cmd.Flags().StringVarP(&profileName, "profile", "p", helpers.GetEnv(common.ENV_PROFILE, auditor.DEFAULT_PROFILE), "Profile (predicate set) name ("+common.ENV_PROFILE+")")
	return cmd
}

func newIssuesCmd() *cobra.Command {
	var profileName string
	cmd := &cobra.Command{
		Use:   "issues [PATH|GLOB]...",
		Short: "List only the wines with issues (escaped newlines, short notes, no marker emoji)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd, args, profileName, true)
		},
	}
	cmd.Flags().StringVarP(&profileName, "profile", "p", "issues", "Profile (predicate set) name")
	return cmd
}

func newRepairCmd() *cobra.Command {
	var profileName string
	cmd := &cobra.Command{
		Use:   "repair [PATH|GLOB]...",
		Short: "Fix the notes in place (unescape '\\n', insert missing websites) and rewrite only the changed files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepair(cmd, args, profileName)
		},
	}
	cmd.Flags().StringSliceVarP(&actionNames, "action", "a", []string{"unescape"}, "Repair actions: 'unescape' and/or 'website'")
	cmd.Flags().StringVarP(&profileName, "profile", "p", helpers.GetEnv(common.ENV_PROFILE, auditor.DEFAULT_PROFILE), "Profile whose markers are used by the website action ("+common.ENV_PROFILE+")")
	cmd.Flags().BoolVar(&checkFirst, "check", false, "Before repairing, list the wines which fail the profile's checks")
	cmd.Flags().BoolVar(&common.DryRun, "dry-run", false, "Only report what would be fixed")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the recorded runs (requires --db)",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
	cmd.Flags().IntVarP(&historyLimit, "limit", "n", helpers.GetEnvInt(common.ENV_HISTORY_LIMIT, common.HistoryLimit), "Number of runs to show")
	return cmd
}

// Populate the global variables which depend on the flags
func setGlobals() error {
	helpers.InitLogger(common.Debug)
	helpers.Log("DEBUG", fmt.Sprintf("Starting with %v", os.Args[1:]))
	if client == nil {
		client = doc_clients.GetClient("file")
	}
	if len(common.SaveToFile) > 0 {
		f, err := lib.OpenSaveFile(common.SaveToFile)
		if err != nil {
			return err
		}
		common.SaveToPointer = f
	}
	return nil
}

func closeGlobals() {
	if common.SaveToPointer != nil {
		_ = common.SaveToPointer.Close()
		common.SaveToPointer = nil
	}
	helpers.SyncLogger()
}

func reportWriter(cmd *cobra.Command) io.Writer {
	if common.SaveToPointer != nil {
		return common.SaveToPointer
	}
	return cmd.OutOrStdout()
}

func loadProfile(profileName string) (auditor.Config, auditor.Profile, error) {
	cfg, err := auditor.LoadConfig(common.ConfigFile)
	if err != nil {
		return auditor.Config{}, auditor.Profile{}, err
	}
	profile, err := cfg.Profile(profileName)
	if err != nil {
		return auditor.Config{}, auditor.Profile{}, err
	}
	helpers.Log("DEBUG", fmt.Sprintf("Profile %s = %+v", profileName, profile))
	return cfg, profile, nil
}

func runAudit(cmd *cobra.Command, args []string, profileName string, onlyMissing bool) error {
	started := time.Now()
	_, profile, err := loadProfile(profileName)
	if err != nil {
		return err
	}
	paths, err := lib.ExpandPatterns(client, args)
	if err != nil {
		return err
	}
	a := auditor.New(client, reportWriter(cmd))
	a.OnlyMissing = onlyMissing
	batch := a.Run(paths, profile.Predicates(), nil)
	a.PrintSummary(batch)
	recordRun(cmd.Name(), started, batch)
	return batchError(batch)
}

func runRepair(cmd *cobra.Command, args []string, profileName string) error {
	started := time.Now()
	cfg, profile, err := loadProfile(profileName)
	if err != nil {
		return err
	}
	actions, err := buildActions(actionNames, cfg, profile)
	if err != nil {
		return err
	}
	paths, err := lib.ExpandPatterns(client, args)
	if err != nil {
		return err
	}
	a := auditor.New(client, reportWriter(cmd))
	a.DryRun = common.DryRun
	var set auditor.PredicateSet
	if checkFirst {
		set = profile.Predicates()
		a.OnlyMissing = true
	}
	helpers.Log("DEBUG", fmt.Sprintf("Found %d drink files", len(paths)))
	batch := a.Run(paths, set, actions)
	a.PrintRepairSummary(batch)
	recordRun(cmd.Name(), started, batch)
	return batchError(batch)
}

func buildActions(names []string, cfg auditor.Config, profile auditor.Profile) ([]auditor.Action, error) {
	actions := make([]auditor.Action, 0, len(names))
	for _, name := range names {
		switch name {
		case "unescape":
			actions = append(actions, auditor.NewUnescapeAction())
		case "website":
			helpers.Log("DEBUG", fmt.Sprintf("Websites for %v", auditor.WebsiteNames(cfg.Websites)))
			actions = append(actions, auditor.NewWebsiteAction(cfg.Websites, profile.Markers))
		default:
			return nil, errors.Errorf("unknown action: %s (available: unescape, website)", name)
		}
	}
	if len(actions) == 0 {
		return nil, errors.New("no repair action is given")
	}
	return actions, nil
}

func batchError(batch auditor.BatchResult) error {
	failed := batch.Failed()
	if len(failed) == 0 {
		return nil
	}
	return errors.Errorf("%d of %d files failed", len(failed), len(batch.Files))
}

// recordRun saves the run into the history DB if --db is given. Failing to record does not fail the run.
func recordRun(command string, started time.Time, batch auditor.BatchResult) {
	if len(common.DbPath) == 0 {
		return
	}
	db, err := lib.OpenDb(common.DbPath)
	if err != nil {
		helpers.Log("WARN", fmt.Sprintf("Could not open history DB: %s", err))
		return
	}
	defer db.Close()
	t := batch.Totals()
	run := lib.Run{
		RunId:     lib.NewRunId(),
		Command:   command,
		StartedAt: started,
		Files:     t.Files,
		Records:   t.Records,
		OK:        t.OK,
		Modified:  t.Modified,
		Failed:    t.Failed,
		Failures:  make(map[string]string),
	}
	for _, f := range batch.Failed() {
		run.Failures[f.Path] = helpers.TruncateStr(f.Err.Error(), 1000)
	}
	if err = lib.SaveRun(db, run); err != nil {
		helpers.Log("WARN", fmt.Sprintf("Could not record run %s: %s", run.RunId, err))
		return
	}
	helpers.Log("DEBUG", "Recorded run "+run.RunId)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if len(common.DbPath) == 0 {
		return errors.New("history requires --db or " + common.ENV_DB)
	}
	db, err := lib.OpenDb(common.DbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	runs, err := lib.ListRuns(db, historyLimit)
	if err != nil {
		return err
	}
	w := reportWriter(cmd)
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(w, "No runs recorded")
		return nil
	}
	for _, r := range runs {
		_, _ = fmt.Fprintln(w, r.String())
		paths := make([]string, 0, len(r.Failures))
		for path := range r.Failures {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		for _, path := range paths {
			_, _ = fmt.Fprintf(w, "    %s: %s\n", path, r.Failures[path])
		}
	}
	return nil
}

func main() {
	err := newRootCmd().Execute()
	// PersistentPostRun is skipped when RunE returned an error
	closeGlobals()
	if err != nil {
		os.Exit(1)
	}
}
