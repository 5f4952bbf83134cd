package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/mirrorlab/reflcheck/internal/optics"
)

// Run executes a suite against a mirror, fail-fast.
//
// Checks run strictly in order. Each result is scaled and truncated toward
// zero, then compared against the check's golden integer. On the first
// mismatch the run stops: the failing check is recorded in the report and
// the remaining checks are never queried.
//
// A mismatch is a failed report, not an error. The error return is reserved
// for collaborator failures (a query that cannot be answered), which abort
// the run without a usable report.
func Run(ctx context.Context, mirror optics.Mirror, suite *Suite) (*Report, error) {
	return RunWithLogger(ctx, mirror, suite, nil)
}

// RunWithLogger is Run with diagnostic logging. A nil logger discards.
func RunWithLogger(ctx context.Context, mirror optics.Mirror, suite *Suite, logger *slog.Logger) (*Report, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	report := NewReport(suite.Name)

	for i, check := range suite.Checks {
		value, err := mirror.Reflectivity(ctx, check.Angle, check.Energy)
		if err != nil {
			return nil, fmt.Errorf("check %d (%s): query failed: %w", i, check.Label, err)
		}

		scaled := Truncate(value, suite.Scale)
		res := CheckResult{
			Label:    check.Label,
			Angle:    check.Angle,
			Energy:   check.Energy,
			Scaled:   scaled,
			Expected: check.Expected,
			Pass:     scaled == check.Expected,
		}
		report.Checks = append(report.Checks, res)

		logger.Info("check executed",
			"index", i,
			"label", check.Label,
			"angle", check.Angle,
			"energy", check.Energy,
			"scaled", scaled,
			"expected", check.Expected,
			"pass", res.Pass,
		)

		if !res.Pass {
			report.Fail(i, res, suite.Scale)
			break
		}
	}

	return report, nil
}

// Truncate applies the fixed-point scale and truncates toward zero. Matching
// the upstream pipeline this is truncation, not rounding: 0.97214999 at
// scale 10000 yields 9721.
func Truncate(value float64, scale int64) int64 {
	return int64(math.Trunc(value * float64(scale)))
}
