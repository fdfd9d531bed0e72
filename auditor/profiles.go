package auditor

import (
	"os"
	"sort"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
)

// Profile describes one predicate set. Zero values switch the related check off.
type Profile struct {
	Markers        []string `json:"markers,omitempty"`
	Sections       []string `json:"sections,omitempty"`
	RequireWebsite bool     `json:"require_website,omitempty"`
	MinLength      int      `json:"min_length,omitempty"`
	// If true, MinLength itself is acceptable (">=" instead of ">")
	InclusiveLength bool `json:"inclusive_length,omitempty"`
	NoEscapes       bool `json:"no_escapes,omitempty"`
}

type Config struct {
	Profiles map[string]Profile `json:"profiles"`
	Websites map[string]string  `json:"websites"`
}

var btgMarkers = []string{"📖", "🌿", "👑", "🍇"}
var bottleMarkers = []string{"📖", "🌿", "👑", "🍇", "🏆"}
var sectionLabels = []string{"ABOUT:", "STYLE:", "PAIRS WITH:"}

const DEFAULT_PROFILE = "btg"

func DefaultConfig() Config {
	return Config{
		Profiles: map[string]Profile{
			"btg": {
				Markers:        btgMarkers,
				Sections:       sectionLabels,
				RequireWebsite: true,
				MinLength:      300,
			},
			"bottles": {
				Markers:        bottleMarkers,
				Sections:       sectionLabels,
				RequireWebsite: true,
				MinLength:      300,
			},
			"issues": {
				Markers:         bottleMarkers,
				MinLength:       200,
				InclusiveLength: true,
				NoEscapes:       true,
			},
		},
		Websites: map[string]string{
			`"Rosina" Barbera D'Asti by Garetto`: "garettovini.it",
			"San Felice Chianti Classico":        "agricolasanfelice.it",
			"Bussola Valpolicella Ripasso":       "bussola.eu",
			"Caparzo Brunello di Montalcino":     "caparzo.com",
		},
	}
}

// ParseConfig accepts YAML or JSON. Loaded profiles replace the built-in ones with the same name.
// A "websites" table, if given, replaces the built-in table entirely.
func ParseConfig(data []byte) (Config, error) {
	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return Config{}, errors.Wrap(err, "parsing profiles config")
	}
	cfg := DefaultConfig()
	for name, p := range loaded.Profiles {
		if err := p.Validate(); err != nil {
			return Config{}, errors.Wrapf(err, "profile %s", name)
		}
		cfg.Profiles[name] = p
	}
	if loaded.Websites != nil {
		cfg.Websites = loaded.Websites
	}
	return cfg, nil
}

func LoadConfig(path string) (Config, error) {
	if len(path) == 0 {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading config %s", path)
	}
	return ParseConfig(data)
}

func (p Profile) Validate() error {
	if p.MinLength < 0 {
		return errors.Errorf("min_length %d is negative", p.MinLength)
	}
	if len(p.Markers) == 0 && len(p.Sections) == 0 && !p.RequireWebsite && p.MinLength == 0 && !p.NoEscapes {
		return errors.New("no checks are enabled")
	}
	return nil
}

// Predicates builds the set in a fixed order: unescaped, emoji, website, sections, length
func (p Profile) Predicates() PredicateSet {
	ps := PredicateSet{}
	if p.NoEscapes {
		ps = append(ps, NoEscapedNewlines())
	}
	if len(p.Markers) > 0 {
		ps = append(ps, HasMarker(p.Markers))
	}
	if p.RequireWebsite {
		ps = append(ps, HasWebsite())
	}
	if len(p.Sections) > 0 {
		ps = append(ps, HasSections(p.Sections))
	}
	if p.MinLength > 0 {
		if p.InclusiveLength {
			ps = append(ps, NotShorterThan(p.MinLength))
		} else {
			ps = append(ps, LongerThan(p.MinLength))
		}
	}
	return ps
}

func (c Config) Profile(name string) (Profile, error) {
	if len(name) == 0 {
		name = DEFAULT_PROFILE
	}
	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, errors.Errorf("unknown profile: %s (available: %v)", name, c.ProfileNames())
	}
	return p, nil
}

func (c Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for n := range c.Profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
