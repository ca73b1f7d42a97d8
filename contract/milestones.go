package contract

import (
	"fmt"
	"path"
	"strings"
)

// Milestone groups scenarios by how much of the stack they need.
type Milestone string

const (
	MilestoneUI          Milestone = "ui"
	MilestoneAPI         Milestone = "api"
	MilestoneAPIDB       Milestone = "apidb"
	MilestoneIntegration Milestone = "integration"
)

// AllMilestones in the order they are meant to be reached.
var AllMilestones = []Milestone{MilestoneUI, MilestoneAPI, MilestoneAPIDB, MilestoneIntegration}

// ParseMilestones accepts milestone ids, or "all".
func ParseMilestones(names []string) ([]Milestone, error) {
	if len(names) == 0 {
		return AllMilestones, nil
	}
	seen := make(map[Milestone]bool)
	var out []Milestone
	for _, raw := range names {
		for _, name := range strings.Split(raw, ",") {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" {
				continue
			}
			if name == "all" {
				return AllMilestones, nil
			}
			m := Milestone(name)
			if !m.valid() {
				return nil, fmt.Errorf("unknown milestone %q (want ui, api, apidb, integration or all)", name)
			}
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	if len(out) == 0 {
		return AllMilestones, nil
	}
	return out, nil
}

func (m Milestone) valid() bool {
	for _, known := range AllMilestones {
		if m == known {
			return true
		}
	}
	return false
}

// Scenarios returns every registered scenario.
func Scenarios() []Scenario {
	var all []Scenario
	all = append(all, uiScenarios()...)
	all = append(all, apiScenarios()...)
	all = append(all, dbScenarios()...)
	all = append(all, integrationScenarios()...)
	return all
}

// Select keeps the scenarios of the given milestones whose names match one of the
// glob patterns. No patterns means every name matches.
func Select(all []Scenario, milestones []Milestone, patterns []string) ([]Scenario, error) {
	for _, p := range patterns {
		if _, err := path.Match(p, ""); err != nil {
			return nil, fmt.Errorf("bad scenario pattern %q: %w", p, err)
		}
	}

	wanted := make(map[Milestone]bool, len(milestones))
	for _, m := range milestones {
		wanted[m] = true
	}

	var out []Scenario
	for _, sc := range all {
		if !wanted[sc.Milestone] || !matchesAny(sc.Name, patterns) {
			continue
		}
		out = append(out, sc)
	}
	return out, nil
}

func matchesAny(name string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if ok, _ := path.Match(p, name); ok {
			return true
		}
	}
	return false
}
