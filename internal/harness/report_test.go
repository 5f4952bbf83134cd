package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalReport_SortedKeys(t *testing.T) {
	report := NewReport("s")
	report.Checks = append(report.Checks, CheckResult{
		Label:    "Reflectivity",
		Angle:    0.25,
		Energy:   1,
		Scaled:   1,
		Expected: 1,
		Pass:     true,
	})

	data, err := CanonicalReport(report)
	require.NoError(t, err)

	want := `{"checks":[{"angle":"0.25","energy":"1","expected":1,"label":"Reflectivity","pass":true,"scaled":1}],"pass":true,"suite":"s"}`
	assert.Equal(t, want, string(data))
}

func TestCanonicalReport_FailureBlock(t *testing.T) {
	report := NewReport("s")
	res := CheckResult{Label: "Reflectivity", Angle: 0.5, Energy: 3, Scaled: 5000, Expected: 9563}
	report.Checks = append(report.Checks, res)
	report.Fail(1, res, 10000)

	data, err := CanonicalReport(report)
	require.NoError(t, err)

	assert.Contains(t, string(data),
		`"failure":{"expected":9563,"expected_decimal":"0.9563","index":1,"label":"Reflectivity","scaled":5000}`)
	assert.Contains(t, string(data), `"pass":false`)
}

func TestCanonicalReport_NFCNormalization(t *testing.T) {
	composed := NewReport("café")    // é as one code point
	decomposed := NewReport("café") // e + combining acute

	a, err := CanonicalReport(composed)
	require.NoError(t, err)
	b, err := CanonicalReport(decomposed)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestCanonicalReport_NoHTMLEscaping(t *testing.T) {
	report := NewReport("a<b&c>d")

	data, err := CanonicalReport(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"suite":"a<b&c>d"`)
}

func TestFormatExpected(t *testing.T) {
	tests := []struct {
		expected int64
		scale    int64
		want     string
	}{
		{9721, 10000, "0.9721"},
		{9563, 10000, "0.9563"},
		{37, 10000, "0.0037"},
		{2, 10000, "0.0002"},
		{50, 100, "0.5"},
		{10000, 10000, "1"},
		{0, 10000, "0"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatExpected(tt.expected, tt.scale))
	}
}

func TestReport_Fail(t *testing.T) {
	report := NewReport("s")
	require.True(t, report.Pass)

	res := CheckResult{Label: "Reflectivity", Scaled: 36, Expected: 37}
	report.Fail(2, res, 10000)

	assert.False(t, report.Pass)
	require.NotNil(t, report.Failure)
	assert.Equal(t, 2, report.Failure.Index)
	assert.Equal(t, "0.0037", report.Failure.ExpectedDecimal)
}
