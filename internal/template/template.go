// Package template provides the fixed activity networks used to seed a new
// project's schedule.
package template

import (
	_ "embed"
	"fmt"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed residential.yaml
var residentialYAML []byte

// Entry is one activity of a template network.
type Entry struct {
	Code         string   `yaml:"code"`
	Name         string   `yaml:"name"`
	DurationDays int      `yaml:"duration_days"`
	Predecessors []string `yaml:"predecessors"`
}

// SortOrder derives the display order from the numeric part of the code
// (A010 -> 10).
func (e Entry) SortOrder() int {
	if len(e.Code) < 2 {
		return 0
	}
	n, err := strconv.Atoi(e.Code[1:])
	if err != nil {
		return 0
	}
	return n
}

// Template is a named, ordered activity catalog.
type Template struct {
	Name       string  `yaml:"name"`
	Activities []Entry `yaml:"activities"`
}

var (
	residentialOnce sync.Once
	residential     *Template
	residentialErr  error
)

// Residential returns the 28-activity residential build template.
func Residential() (*Template, error) {
	residentialOnce.Do(func() {
		residential, residentialErr = Parse(residentialYAML)
	})
	return residential, residentialErr
}

// Parse decodes and validates a template document. Codes must be unique and
// every predecessor must refer to an activity listed earlier, which also
// guarantees the network is acyclic.
func Parse(data []byte) (*Template, error) {
	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	if len(t.Activities) == 0 {
		return nil, fmt.Errorf("template %q has no activities", t.Name)
	}

	seen := make(map[string]struct{}, len(t.Activities))
	for _, e := range t.Activities {
		if e.Code == "" || e.Name == "" {
			return nil, fmt.Errorf("template %q: activity code and name are required", t.Name)
		}
		if e.DurationDays < 0 {
			return nil, fmt.Errorf("template %q: %s has negative duration", t.Name, e.Code)
		}
		if _, dup := seen[e.Code]; dup {
			return nil, fmt.Errorf("template %q: duplicate code %s", t.Name, e.Code)
		}
		for _, p := range e.Predecessors {
			if _, ok := seen[p]; !ok {
				return nil, fmt.Errorf("template %q: %s depends on %s which is not listed before it", t.Name, e.Code, p)
			}
		}
		seen[e.Code] = struct{}{}
	}

	return &t, nil
}
