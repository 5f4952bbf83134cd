package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// CheckResult records the outcome of one executed check.
type CheckResult struct {
	Label    string  `json:"label"`
	Angle    float64 `json:"angle"`
	Energy   float64 `json:"energy"`
	Scaled   int64   `json:"scaled"`
	Expected int64   `json:"expected"`
	Pass     bool    `json:"pass"`
}

// FailureDetail describes the first (and, under fail-fast, only) mismatch.
type FailureDetail struct {
	// Index is the position of the failing check within the suite.
	Index int `json:"index"`

	Label  string `json:"label"`
	Scaled int64  `json:"scaled"`

	// Expected is the golden integer; ExpectedDecimal is the same value
	// rendered at the suite scale, as in "Reflectivity should be 0.9721!".
	Expected        int64  `json:"expected"`
	ExpectedDecimal string `json:"expected_decimal"`
}

// Report is the structured outcome of a suite run. The runner builds it;
// only the CLI layer turns it into console output and an exit code.
type Report struct {
	Suite   string         `json:"suite"`
	Pass    bool           `json:"pass"`
	Checks  []CheckResult  `json:"checks"`
	Failure *FailureDetail `json:"failure,omitempty"`
}

// NewReport creates an empty passing report for a suite.
func NewReport(suite string) *Report {
	return &Report{
		Suite:  suite,
		Pass:   true,
		Checks: []CheckResult{},
	}
}

// Fail records the first mismatch and marks the report failed.
func (r *Report) Fail(index int, res CheckResult, scale int64) {
	r.Pass = false
	r.Failure = &FailureDetail{
		Index:           index,
		Label:           res.Label,
		Scaled:          res.Scaled,
		Expected:        res.Expected,
		ExpectedDecimal: FormatExpected(res.Expected, scale),
	}
}

// FormatExpected renders a golden integer at the given scale as the decimal
// the error message names: 9721 at scale 10000 becomes "0.9721".
func FormatExpected(expected, scale int64) string {
	return strconv.FormatFloat(float64(expected)/float64(scale), 'g', -1, 64)
}

// CanonicalReport serializes a report to canonical JSON: keys sorted,
// strings NFC-normalized, no HTML escaping, coordinates rendered as shortest
// decimal strings so no float formatting ambiguity reaches the golden file.
func CanonicalReport(r *Report) ([]byte, error) {
	return marshalCanonical(r.canonicalMap())
}

func (r *Report) canonicalMap() map[string]any {
	checks := make([]any, len(r.Checks))
	for i, c := range r.Checks {
		checks[i] = map[string]any{
			"label":    c.Label,
			"angle":    formatCoord(c.Angle),
			"energy":   formatCoord(c.Energy),
			"scaled":   c.Scaled,
			"expected": c.Expected,
			"pass":     c.Pass,
		}
	}
	m := map[string]any{
		"suite":  r.Suite,
		"pass":   r.Pass,
		"checks": checks,
	}
	if r.Failure != nil {
		m["failure"] = map[string]any{
			"index":            int64(r.Failure.Index),
			"label":            r.Failure.Label,
			"scaled":           r.Failure.Scaled,
			"expected":         r.Failure.Expected,
			"expected_decimal": r.Failure.ExpectedDecimal,
		}
	}
	return m
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// marshalCanonical produces deterministic JSON for report snapshots:
// object keys sorted, strings NFC-normalized, <, > and & unescaped.
// Floats never appear; coordinates are pre-rendered as strings.
func marshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case string:
		return marshalCanonicalString(val)
	case int64:
		return strconv.AppendInt(nil, val, 10), nil
	case int:
		return strconv.AppendInt(nil, int64(val), 10), nil
	case bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case []any:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := marshalCanonical(elem)
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := marshalCanonicalString(k)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := marshalCanonical(val[k])
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// marshalCanonicalString encodes a string with NFC normalization and without
// HTML escaping.
func marshalCanonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	// json.Encoder adds a trailing newline, remove it
	result := buf.Bytes()
	if len(result) > 0 && result[len(result)-1] == '\n' {
		result = result[:len(result)-1]
	}
	return result, nil
}
