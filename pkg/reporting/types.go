package reporting

import "time"

// RunReport is the end-of-run snapshot persisted as JSON and mirrored onto
// stderr and the Prometheus registry (spec.md 4.I).
type RunReport struct {
	RunID              string    `json:"run_id"`
	CommitID           string    `json:"commit_id,omitempty"` // best-effort
	StartTime          time.Time `json:"start_time"`
	EndTime            time.Time `json:"end_time"`
	WallClock          string    `json:"wall_clock"`
	CPUTime            string    `json:"cpu_time"`
	TerminationReason  string    `json:"termination_reason"`

	TotalInputsRun       int `json:"total_inputs_run"`
	FingerprintsExplored int `json:"fingerprints_explored"`
	GenerationsCompleted int `json:"generations_completed"`

	TotalBugs           int `json:"total_bugs"`
	UniqueBugprints     int `json:"unique_bugprints"`
	ExitDifferentials   int `json:"exit_differentials"`
	OutputDifferentials int `json:"output_differentials"`

	Bugs []BugSummary `json:"bugs"`
}

// BugSummary is one bucket's worth of information in the run report: a
// bugprint, its witness count, and up to K example reductions.
type BugSummary struct {
	Bugprint         string   `json:"bugprint"`
	Kind             string   `json:"kind"` // "exit" or "output"
	Count            int      `json:"count"`
	ExampleReductions []string `json:"example_reductions,omitempty"`
	// Classification records which catalogue tag each target classified to
	// for this bugprint, when BUG_INFO is enabled — the supplemented
	// debug ledger from original_source/bug_localization.py's
	// bugprint_classes.
	Classification []string `json:"classification,omitempty"`
}

// ReportSummary is the lightweight index entry ListReports returns.
type ReportSummary struct {
	RunID             string    `json:"run_id"`
	StartTime         time.Time `json:"start_time"`
	WallClock         string    `json:"wall_clock"`
	TerminationReason string    `json:"termination_reason"`
	TotalBugs         int       `json:"total_bugs"`
	Filepath          string    `json:"filepath"`
}
