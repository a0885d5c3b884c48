package reporting_test

import (
	"fmt"
	"os"
	"time"

	"github.com/jihwankim/diff-fuzz/pkg/reporting"
)

// Example demonstrates the reporting package's logger + storage usage.
func Example() {
	logger := reporting.NewLogger(reporting.LoggerConfig{
		Level:  reporting.LogLevelInfo,
		Format: reporting.LogFormatText,
		Output: os.Stdout,
	})

	logger.Info("fuzz run starting")

	storage, err := reporting.NewStorage("./run-reports", 10, logger)
	if err != nil {
		fmt.Printf("failed to create storage: %v\n", err)
		return
	}
	defer os.RemoveAll("./run-reports")

	report := &reporting.RunReport{
		RunID:                "run-12345",
		StartTime:            time.Now().Add(-5 * time.Minute),
		EndTime:              time.Now(),
		WallClock:            "5m0s",
		TerminationReason:    "No More Mutation Candidates",
		TotalInputsRun:       1000,
		FingerprintsExplored: 42,
		GenerationsCompleted: 7,
		TotalBugs:            2,
		UniqueBugprints:      1,
		ExitDifferentials:    2,
		Bugs: []reporting.BugSummary{
			{Bugprint: "abc123", Kind: "exit", Count: 2},
		},
	}

	path, err := storage.SaveReport(report)
	if err != nil {
		fmt.Printf("failed to save report: %v\n", err)
		return
	}
	fmt.Printf("report saved successfully\n")

	summaries, err := storage.ListReports()
	if err != nil {
		fmt.Printf("failed to list reports: %v\n", err)
		return
	}
	fmt.Printf("found %d report(s)\n", len(summaries))

	loaded, err := storage.LoadReport(path)
	if err != nil {
		fmt.Printf("failed to load report: %v\n", err)
		return
	}
	fmt.Printf("loaded report for run: %s\n", loaded.RunID)

	// Output will vary due to timestamps and logger output, so we don't include it.
}
