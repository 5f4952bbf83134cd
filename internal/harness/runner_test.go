package harness

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedMirror answers queries from a fixed map and records query order,
// so tests can prove fail-fast skips later checks.
type scriptedMirror struct {
	values  map[[2]float64]float64
	queries [][2]float64
	err     error
}

func (m *scriptedMirror) Describe() string { return "scripted mirror" }

func (m *scriptedMirror) Reflectivity(_ context.Context, angle, energy float64) (float64, error) {
	m.queries = append(m.queries, [2]float64{angle, energy})
	if m.err != nil {
		return 0, m.err
	}
	v, ok := m.values[[2]float64{angle, energy}]
	if !ok {
		return 0, fmt.Errorf("no sample at (%g, %g)", angle, energy)
	}
	return v, nil
}

func referenceSuite(t *testing.T) *Suite {
	t.Helper()
	suite, err := DefaultSuite()
	require.NoError(t, err)
	return suite
}

func referenceValues() map[[2]float64]float64 {
	return map[[2]float64]float64{
		{0.25, 1}: 0.97215,
		{0.5, 3}:  0.95635,
		{0.75, 5}: 0.00375,
		{1, 7}:    0.00025,
	}
}

func TestRun_AllPass(t *testing.T) {
	mirror := &scriptedMirror{values: referenceValues()}
	suite := referenceSuite(t)

	report, err := Run(context.Background(), mirror, suite)
	require.NoError(t, err)

	assert.True(t, report.Pass)
	assert.Nil(t, report.Failure)
	require.Len(t, report.Checks, 4)

	scaled := []int64{9721, 9563, 37, 2}
	for i, res := range report.Checks {
		assert.True(t, res.Pass, "check %d", i)
		assert.Equal(t, scaled[i], res.Scaled, "check %d", i)
	}
}

func TestRun_FailFastStopsAtFirstMismatch(t *testing.T) {
	values := referenceValues()
	values[[2]float64{0.5, 3}] = 0.5 // scaled 5000, golden 9563
	mirror := &scriptedMirror{values: values}
	suite := referenceSuite(t)

	report, err := Run(context.Background(), mirror, suite)
	require.NoError(t, err)

	assert.False(t, report.Pass)
	require.Len(t, report.Checks, 2, "checks after the mismatch must not run")
	require.Len(t, mirror.queries, 2, "collaborator must not be queried after the mismatch")

	require.NotNil(t, report.Failure)
	assert.Equal(t, 1, report.Failure.Index)
	assert.Equal(t, int64(5000), report.Failure.Scaled)
	assert.Equal(t, int64(9563), report.Failure.Expected)
	assert.Equal(t, "0.9563", report.Failure.ExpectedDecimal)
}

func TestRun_FirstCheckFails(t *testing.T) {
	values := referenceValues()
	values[[2]float64{0.25, 1}] = 0.1
	mirror := &scriptedMirror{values: values}
	suite := referenceSuite(t)

	report, err := Run(context.Background(), mirror, suite)
	require.NoError(t, err)

	assert.False(t, report.Pass)
	assert.Len(t, report.Checks, 1)
	assert.Len(t, mirror.queries, 1)
	assert.Equal(t, 0, report.Failure.Index)
	assert.Equal(t, "0.9721", report.Failure.ExpectedDecimal)
}

func TestRun_TruncationNotRounding(t *testing.T) {
	values := referenceValues()
	values[[2]float64{0.25, 1}] = 0.97214999 // would round to 9722
	mirror := &scriptedMirror{values: values}
	suite := referenceSuite(t)

	report, err := Run(context.Background(), mirror, suite)
	require.NoError(t, err)

	assert.True(t, report.Pass)
	assert.Equal(t, int64(9721), report.Checks[0].Scaled)
}

func TestRun_CollaboratorErrorAbortsWithoutReport(t *testing.T) {
	mirror := &scriptedMirror{err: fmt.Errorf("table unreadable")}
	suite := referenceSuite(t)

	report, err := Run(context.Background(), mirror, suite)
	require.Error(t, err)
	assert.Nil(t, report)
	assert.Contains(t, err.Error(), "query failed")
	assert.Contains(t, err.Error(), "table unreadable")
}

func TestRun_Deterministic(t *testing.T) {
	suite := referenceSuite(t)

	first, err := Run(context.Background(), &scriptedMirror{values: referenceValues()}, suite)
	require.NoError(t, err)
	second, err := Run(context.Background(), &scriptedMirror{values: referenceValues()}, suite)
	require.NoError(t, err)

	firstJSON, err := CanonicalReport(first)
	require.NoError(t, err)
	secondJSON, err := CanonicalReport(second)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		scale int64
		want  int64
	}{
		{"mid bin", 0.97215, 10000, 9721},
		{"just below golden boundary", 0.97214999, 10000, 9721},
		{"small value", 0.00025, 10000, 2},
		{"near unity", 0.9999999, 10000, 9999},
		{"zero", 0, 10000, 0},
		{"negative truncates toward zero", -0.55, 10000, -5500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.value, tt.scale))
		})
	}
}
