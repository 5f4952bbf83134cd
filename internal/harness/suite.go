package harness

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultScale is the fixed-point scale applied when a suite omits one.
// Golden values are expressed in units of 1/DefaultScale.
const DefaultScale = 10000

// DefaultLabel is used for checks that do not name themselves.
const DefaultLabel = "Reflectivity"

//go:embed suites/mirrors-default.yaml
var defaultSuiteYAML []byte

// Suite is an ordered set of golden-value checks against one mirror section.
type Suite struct {
	// Name uniquely identifies this suite. Used for golden files and run logs.
	Name string `yaml:"name"`

	// Description explains what this suite guards against.
	Description string `yaml:"description"`

	// Section is the mirror section the suite targets. Optional; the CLI
	// falls back to "default" when neither suite nor flag names one.
	Section string `yaml:"section,omitempty"`

	// Scale is the fixed-point scale factor. Defaults to DefaultScale.
	Scale int64 `yaml:"scale,omitempty"`

	// Checks are executed in order, fail-fast.
	Checks []Check `yaml:"checks"`
}

// Check is a single golden-value query.
type Check struct {
	// Label prefixes the status line. Defaults to DefaultLabel.
	Label string `yaml:"label,omitempty"`

	// Angle is the grazing angle in degrees.
	Angle float64 `yaml:"angle"`

	// Energy is the photon energy in keV.
	Energy float64 `yaml:"energy"`

	// Expected is the pre-scaled golden integer: round-tripping the query
	// through truncation at the suite scale must reproduce it exactly.
	Expected int64 `yaml:"expected"`
}

// LoadSuite reads, validates, and parses a suite YAML file.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}
	return parseSuite(path, data)
}

// DefaultSuite returns the embedded reference suite: the four reflectivity
// checks the upstream pipeline pins.
func DefaultSuite() (*Suite, error) {
	return parseSuite("mirrors-default.yaml", defaultSuiteYAML)
}

func parseSuite(filename string, data []byte) (*Suite, error) {
	// Schema first: CUE catches structural problems with positions.
	if err := validateSuiteSchema(filename, data); err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}

	// Strict decoding catches unknown fields (typos like "check:" vs "checks:").
	var suite Suite
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&suite); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	suite.applyDefaults()

	if err := validateSuite(&suite); err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}

	return &suite, nil
}

func (s *Suite) applyDefaults() {
	if s.Scale == 0 {
		s.Scale = DefaultScale
	}
	for i := range s.Checks {
		if s.Checks[i].Label == "" {
			s.Checks[i].Label = DefaultLabel
		}
	}
}

// validateSuite checks required fields and value ranges. The CUE schema
// enforces the same constraints; this pass produces the messages callers see.
func validateSuite(s *Suite) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Scale <= 0 {
		return fmt.Errorf("scale must be positive")
	}
	if len(s.Checks) == 0 {
		return fmt.Errorf("checks list is required and must be non-empty")
	}
	for i, c := range s.Checks {
		if c.Angle < 0 || c.Angle > 90 {
			return fmt.Errorf("checks[%d]: angle %g out of range [0, 90]", i, c.Angle)
		}
		if c.Energy <= 0 {
			return fmt.Errorf("checks[%d]: energy must be positive", i)
		}
		if c.Expected < 0 {
			return fmt.Errorf("checks[%d]: expected must be non-negative", i)
		}
	}
	return nil
}
