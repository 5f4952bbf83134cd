// Package optics provides access to precomputed mirror reflectivity data.
//
// The physics behind the numbers is out of scope here: reflectivity values
// are produced upstream (layer simulation tools) and consumed as data. This
// package only answers "what is the reflectivity of mirror section X at
// grazing angle A and photon energy E", either from a SQLite sample table
// (Table) or from an in-memory fixture (Static).
package optics

import (
	"context"
	"fmt"
	"strings"
)

// Query bounds. Angles are grazing angles in degrees, energies in keV.
// Queries outside these ranges are clamped, mirroring the behavior of the
// upstream toolkit that produced the sample tables.
const (
	MinAngle  = 0.0
	MaxAngle  = 90.0
	MinEnergy = 0.030
	MaxEnergy = 15.0
)

// Mirror is the narrow interface the acceptance harness queries.
// Implementations are read-only after construction.
type Mirror interface {
	// Describe returns a human-readable metadata dump for the mirror.
	Describe() string

	// Reflectivity returns the fraction of incident radiation (0 to 1)
	// reflected at the given grazing angle (degrees) and photon energy (keV).
	Reflectivity(ctx context.Context, angle, energy float64) (float64, error)
}

// Metadata describes the physical mirror a sample table was computed for.
type Metadata struct {
	Section          string
	MirrorType       string
	Layer            string
	LayerThicknessNM float64
	SigmaNM          float64
	Substrate        string
}

// describeMetadata renders the metadata dump shared by all Mirror
// implementations.
func describeMetadata(m Metadata) string {
	var b strings.Builder
	header := fmt.Sprintf("Mirror metadata (section: %s)", m.Section)
	b.WriteString(header + "\n")
	b.WriteString(strings.Repeat("-", len(header)) + "\n")
	fmt.Fprintf(&b, "Mirror type: %s\n", m.MirrorType)
	fmt.Fprintf(&b, "Layer material: %s\n", m.Layer)
	fmt.Fprintf(&b, "Layer thickness: %g nm\n", m.LayerThicknessNM)
	fmt.Fprintf(&b, "Layer roughness: %g nm\n", m.SigmaNM)
	fmt.Fprintf(&b, "Substrate material: %s\n", m.Substrate)
	return b.String()
}

// clampAngle restricts a grazing angle to the tabulated range.
func clampAngle(angle float64) float64 {
	if angle < MinAngle {
		return MinAngle
	}
	if angle > MaxAngle {
		return MaxAngle
	}
	return angle
}

// clampEnergy restricts a photon energy to the tabulated range.
// The upper bound is exclusive: energies at or above MaxEnergy are pulled
// just below it so the query always has an upper grid neighbor.
func clampEnergy(energy float64) float64 {
	if energy < MinEnergy {
		return MinEnergy
	}
	if energy >= MaxEnergy {
		return MaxEnergy - 0.0001
	}
	return energy
}
