package contract

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

// Report is the outcome of a run.
type Report struct {
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Results  []Result      `json:"results"`
}

// Count returns how many results have status.
func (r *Report) Count(status Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// Passed is true when nothing failed.
func (r *Report) Passed() bool {
	return r.Count(StatusFailed) == 0
}

// MilestoneReached is true when every scenario of m ran and passed.
func (r *Report) MilestoneReached(m Milestone) bool {
	seen := false
	for _, res := range r.Results {
		if res.Milestone != m {
			continue
		}
		seen = true
		if res.Status != StatusPassed {
			return false
		}
	}
	return seen
}

type jsonResult struct {
	Result
	DurationMS int64 `json:"duration_ms"`
}

// WriteJSON writes the report as one JSON document.
func (r *Report) WriteJSON(w io.Writer) error {
	out := struct {
		Started    time.Time       `json:"started"`
		DurationMS int64           `json:"duration_ms"`
		Passed     int             `json:"passed"`
		Failed     int             `json:"failed"`
		Skipped    int             `json:"skipped"`
		Milestones map[string]bool `json:"milestones"`
		Results    []jsonResult    `json:"results"`
	}{
		Started:    r.Started.UTC(),
		DurationMS: r.Duration.Milliseconds(),
		Passed:     r.Count(StatusPassed),
		Failed:     r.Count(StatusFailed),
		Skipped:    r.Count(StatusSkipped),
		Milestones: make(map[string]bool),
	}
	for _, res := range r.Results {
		out.Results = append(out.Results, jsonResult{Result: res, DurationMS: res.Duration.Milliseconds()})
		out.Milestones[string(res.Milestone)] = r.MilestoneReached(res.Milestone)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
)

// ColorEnabled reports whether w is a terminal worth colouring.
func ColorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// WriteText writes one line per scenario and a summary.
func (r *Report) WriteText(w io.Writer, color bool) error {
	paint := func(c, s string) string {
		if !color {
			return s
		}
		return c + s + colorReset
	}

	for _, res := range r.Results {
		var label string
		switch res.Status {
		case StatusPassed:
			label = paint(colorGreen, "PASS")
		case StatusFailed:
			label = paint(colorRed, "FAIL")
		default:
			label = paint(colorYellow, "SKIP")
		}
		if _, err := fmt.Fprintf(w, "%s  %-40s %8s\n", label, res.Scenario, res.Duration.Round(time.Millisecond)); err != nil {
			return err
		}
		if res.Reason != "" {
			if _, err := fmt.Fprintf(w, "      %s\n", res.Reason); err != nil {
				return err
			}
		}
		if res.Cleanup != "" {
			if _, err := fmt.Fprintf(w, "      cleanup: %s\n", res.Cleanup); err != nil {
				return err
			}
		}
	}

	_, err := fmt.Fprintf(w, "\n%d passed, %d failed, %d skipped in %s\n",
		r.Count(StatusPassed), r.Count(StatusFailed), r.Count(StatusSkipped), r.Duration.Round(time.Millisecond))
	if err != nil {
		return err
	}
	for _, m := range AllMilestones {
		if !r.hasMilestone(m) {
			continue
		}
		state := paint(colorRed, "not reached")
		if r.MilestoneReached(m) {
			state = paint(colorGreen, "reached")
		}
		if _, err := fmt.Fprintf(w, "milestone %-12s %s\n", m, state); err != nil {
			return err
		}
	}
	return nil
}

func (r *Report) hasMilestone(m Milestone) bool {
	for _, res := range r.Results {
		if res.Milestone == m {
			return true
		}
	}
	return false
}
