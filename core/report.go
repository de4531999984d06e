package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Failure is one record that was ignored by a stage.
type Failure struct {
	Stage  string `json:"stage"`
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

type StageReport struct {
	Name      string        `json:"name"`
	Total     int           `json:"total"`
	Applied   int           `json:"applied"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Committed bool          `json:"committed"`
	Duration  time.Duration `json:"duration"`
	Failures  []Failure     `json:"failures,omitempty"`
}

// Record tallies one record result.
func (r *StageReport) Record(res Result) {
	switch res.Outcome {
	case Applied:
		r.Applied++
	case Skipped:
		r.Skipped++
	case Failed:
		r.Failed++
		reason := ""
		if res.Err != nil {
			reason = res.Err.Error()
		}
		r.Failures = append(r.Failures, Failure{Stage: r.Name, Key: res.Key, Reason: reason})
	}
}

// Summary renders the per stage line, e.g. "Factory: 10 synchronized, 0 skipped, 1 ignored."
func (r StageReport) Summary() string {
	return fmt.Sprintf("%s: %d synchronized, %d skipped, %d ignored.", r.Name, r.Applied, r.Skipped, r.Failed)
}

type RunReport struct {
	RunID      uuid.UUID     `json:"runId"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
	DryRun     bool          `json:"dryRun"`
	Stages     []StageReport `json:"stages"`
	Error      string        `json:"error,omitempty"`
}

// Stage returns the report of the named stage, or nil.
func (r *RunReport) Stage(name string) *StageReport {
	for i := range r.Stages {
		if r.Stages[i].Name == name {
			return &r.Stages[i]
		}
	}
	return nil
}

// Totals sums the counts of every stage.
func (r *RunReport) Totals() StageReport {
	total := StageReport{Name: "Total"}
	for _, s := range r.Stages {
		total.Total += s.Total
		total.Applied += s.Applied
		total.Skipped += s.Skipped
		total.Failed += s.Failed
	}
	return total
}

// Failures returns every ignored record across stages.
func (r *RunReport) Failures() []Failure {
	var out []Failure
	for _, s := range r.Stages {
		out = append(out, s.Failures...)
	}
	return out
}

func (r *RunReport) Succeeded() bool {
	return r.Error == ""
}
