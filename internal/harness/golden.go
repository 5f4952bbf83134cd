package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/mirrorlab/reflcheck/internal/optics"
)

// RunWithGolden executes a suite and compares the canonical report against
// the golden file testdata/golden/{suite.Name}.golden.
//
// To regenerate golden files:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, mirror optics.Mirror, suite *Suite) error {
	t.Helper()

	report, err := Run(context.Background(), mirror, suite)
	if err != nil {
		return err
	}

	return AssertGolden(t, suite.Name, report)
}

// AssertGolden compares an already-computed report against the golden file
// named after the suite.
func AssertGolden(t *testing.T, name string, report *Report) error {
	t.Helper()

	data, err := CanonicalReport(report)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)

	return nil
}
