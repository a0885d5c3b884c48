package reporting

import (
	"fmt"
	"io"
	"strings"
)

// WriteSummary renders a RunReport to w in the stderr-summary shape required
// by spec.md 4.I: termination reason, counts, and per-bugprint examples.
func WriteSummary(w io.Writer, report *RunReport) {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Run %s\n", report.RunID)
	if report.CommitID != "" {
		fmt.Fprintf(&buf, "Commit:               %s\n", report.CommitID)
	}
	fmt.Fprintf(&buf, "Wall clock:           %s\n", report.WallClock)
	fmt.Fprintf(&buf, "CPU time:             %s\n", report.CPUTime)
	fmt.Fprintf(&buf, "Termination reason:   %s\n", report.TerminationReason)
	fmt.Fprintf(&buf, "Total inputs run:     %d\n", report.TotalInputsRun)
	fmt.Fprintf(&buf, "Fingerprints explored:%d\n", report.FingerprintsExplored)
	fmt.Fprintf(&buf, "Generations completed:%d\n", report.GenerationsCompleted)
	fmt.Fprintf(&buf, "\n")
	fmt.Fprintf(&buf, "Total bugs:           %d\n", report.TotalBugs)
	fmt.Fprintf(&buf, "Unique bugprints:     %d\n", report.UniqueBugprints)
	fmt.Fprintf(&buf, "  exit-differentials:   %d\n", report.ExitDifferentials)
	fmt.Fprintf(&buf, "  output-differentials: %d\n", report.OutputDifferentials)

	if len(report.Bugs) > 0 {
		fmt.Fprintf(&buf, "\nBugs by bugprint:\n")
		for _, b := range report.Bugs {
			fmt.Fprintf(&buf, "  [%s] %s  count=%d\n", b.Kind, b.Bugprint, b.Count)
			for _, ex := range b.ExampleReductions {
				fmt.Fprintf(&buf, "    reduction: %q\n", ex)
			}
		}
	}

	io.WriteString(w, buf.String())
}
