package optics

import (
	"context"
	"fmt"
)

// Static is an in-memory Mirror backed by an exact-match sample map.
// It exists so the harness can run without a sample database, and so tests
// can swap the real table for a deterministic stub.
type Static struct {
	meta    Metadata
	samples map[sampleKey]float64
}

type sampleKey struct {
	angle  float64
	energy float64
}

// NewStatic creates an empty static mirror for the given metadata.
func NewStatic(meta Metadata) *Static {
	return &Static{
		meta:    meta,
		samples: make(map[sampleKey]float64),
	}
}

// Set records a reflectivity sample at an exact (angle, energy) coordinate.
func (s *Static) Set(angle, energy, value float64) {
	s.samples[sampleKey{angle, energy}] = value
}

// Describe implements Mirror.
func (s *Static) Describe() string {
	return describeMetadata(s.meta)
}

// Reflectivity implements Mirror. Unlike Table, Static does not interpolate:
// the queried coordinate must match a stored sample exactly.
func (s *Static) Reflectivity(_ context.Context, angle, energy float64) (float64, error) {
	v, ok := s.samples[sampleKey{angle, energy}]
	if !ok {
		return 0, fmt.Errorf("no sample at angle=%g energy=%g for section %q", angle, energy, s.meta.Section)
	}
	return v, nil
}

// ReferenceFixture returns the builtin mirror used when no sample database
// is given. Its samples sit mid-bin so truncation reproduces the reference
// pipeline values exactly.
func ReferenceFixture() *Static {
	s := NewStatic(Metadata{
		Section:          "default",
		MirrorType:       "Single layer",
		Layer:            "C",
		LayerThicknessNM: 30,
		SigmaNM:          0.1,
		Substrate:        "SiO2",
	})
	s.Set(0.25, 1, 0.97215)
	s.Set(0.5, 3, 0.95635)
	s.Set(0.75, 5, 0.00375)
	s.Set(1, 7, 0.00025)
	return s
}
