package persbench

import (
	"fmt"
	"os"
	"time"
)

// Outcome is a target's final state within one run.
type Outcome int

const (
	OutcomeSucceeded Outcome = iota
	OutcomeRecovered
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeRecovered:
		return "recovered"
	case OutcomeFatal:
		return "failed"
	default:
		return "unknown"
	}
}

// BuildRecord captures one target's timing and outcome. Records live only
// for the duration of a run and feed the end-of-run summary.
type BuildRecord struct {
	Target  string
	Start   time.Time
	End     time.Time
	Outcome Outcome
}

func (r BuildRecord) Elapsed() time.Duration {
	return r.End.Sub(r.Start)
}

// ResolvePlan returns the ordered target list for the run. The subset plan
// is the core catalog; the full plan appends the extended catalog after it.
// Relative order is fixed: later targets reuse prefixes produced earlier.
func ResolvePlan(subset bool) []string {
	plan := make([]string, 0, len(coreTargets)+len(extendedTargets))
	plan = append(plan, coreTargets...)
	if !subset {
		plan = append(plan, extendedTargets...)
	}
	return plan
}

// writeSubsetMarker records subset mode in a zero-byte sentinel that outside
// tooling reads to know the workspace holds a partial build. Full mode
// removes a stale marker.
func writeSubsetMarker(subset bool) error {
	if !subset {
		if err := os.Remove(MarkerFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove subset marker: %w", err)
		}
		return nil
	}
	f, err := os.OpenFile(MarkerFile, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write subset marker: %w", err)
	}
	return f.Close()
}

// syncSources makes every target's source tree present and clean. Runs once
// per run, before the build loop.
func syncSources(execCtx *Executor) error {
	update := execCtx.Command(rootDir, nil, "git", "submodule", "update", "--init", "--recursive")
	if err := execCtx.Run(update); err != nil {
		return &ToolError{Target: "sources", Tool: "git submodule update", Err: err}
	}
	restore := execCtx.Command(rootDir, nil, "git", "submodule", "foreach", "git", "checkout", "--", ".")
	if err := execCtx.Run(restore); err != nil {
		return &ToolError{Target: "sources", Tool: "git submodule foreach", Err: err}
	}
	return nil
}

// Run executes the build plan in order. Almost every failure aborts the run
// immediately; the one recoverable target logs its diagnostic and lets the
// loop continue. The returned records cover every target that was started.
func Run(execCtx *Executor, subset bool) ([]BuildRecord, error) {
	plan := ResolvePlan(subset)

	if err := writeSubsetMarker(subset); err != nil {
		return nil, err
	}
	if err := createDir(BuildDir); err != nil {
		return nil, err
	}
	if err := syncSources(execCtx); err != nil {
		return nil, err
	}

	var records []BuildRecord
	for _, target := range plan {
		colArrow.Print("-> ")
		colSuccess.Printf("Building %s...\n", target)

		rec := BuildRecord{Target: target, Start: time.Now()}
		err := BuildTarget(execCtx, target)
		rec.End = time.Now()

		if err != nil {
			if r := recipeFor(target); r.Recoverable {
				rec.Outcome = OutcomeRecovered
				records = append(records, rec)
				cPrintln(colWarn, r.RecoverHint)
				debugf("recovered failure for %s: %v\n", target, err)
				continue
			}
			rec.Outcome = OutcomeFatal
			records = append(records, rec)
			return records, err
		}

		rec.Outcome = OutcomeSucceeded
		records = append(records, rec)
		fmt.Printf("Built %s in %d seconds\n\n", target, int(rec.Elapsed().Seconds()))
	}

	printSummary(records)
	return records, nil
}

func printSummary(records []BuildRecord) {
	var total time.Duration
	colArrow.Print("-> ")
	colSuccess.Println("Build summary")
	for _, rec := range records {
		total += rec.Elapsed()
		switch rec.Outcome {
		case OutcomeSucceeded:
			fmt.Printf("  %-24s %4ds\n", rec.Target, int(rec.Elapsed().Seconds()))
		case OutcomeRecovered:
			cPrintf(colWarn, "  %-24s skipped (missing prerequisite)\n", rec.Target)
		case OutcomeFatal:
			cPrintf(colError, "  %-24s failed\n", rec.Target)
		}
	}
	fmt.Printf("  total %ds\n", int(total.Seconds()))
}
