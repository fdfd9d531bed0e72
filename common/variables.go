/*
To store common variables
*/

package common

import (
	"os"
	"regexp"
)

var Debug bool
var DryRun bool

const NOTES_KEY = "serverNotes"
const NAME_KEY = "name"
const ESCAPED_NEWLINE = `\n`
const ABOUT_LABEL = "ABOUT:"
const INDENT = "  "

// Default location of the drinks lists, relative to the menu guide checkout
const DEFAULT_PATTERN = "./src/data/drinks-*.json"

// Env variable names (flags fall back to these)
const ENV_DEBUG = "DRINKNOTES_DEBUG"
const ENV_CONFIG = "DRINKNOTES_CONFIG"
const ENV_SAVE = "DRINKNOTES_SAVE"
const ENV_DB = "DRINKNOTES_DB"
const ENV_PROFILE = "DRINKNOTES_PROFILE"
const ENV_HISTORY_LIMIT = "DRINKNOTES_HISTORY_LIMIT"

// Display / output related
var SaveToFile = ""
var SaveToPointer *os.File

// Profiles file (YAML or JSON). Empty means built-in profiles only
var ConfigFile = ""

// History database related
var DbPath = ""
var HistoryLimit = 20

var RxJsonFile = regexp.MustCompile(`(?i)\.json$`)
var RxGlobMeta = regexp.MustCompile(`[*?\[]`)

var SlowMS int64 = 1000
