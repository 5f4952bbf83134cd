package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirrorlab/reflcheck/internal/optics"
)

func TestDescribe_BuiltinFixture(t *testing.T) {
	stdout, _, err := execute(t, "describe")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Mirror metadata (section: default)")
	assert.Contains(t, stdout, "Substrate material: SiO2")
}

func TestDescribe_JSON(t *testing.T) {
	stdout, _, err := execute(t, "describe", "--format", "json")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, data["description"], "Mirror metadata")
}

func TestDescribe_SampleDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "samples.db")
	meta := optics.Metadata{
		Section: "xmm", MirrorType: "Thick single layer", Layer: "Au",
		LayerThicknessNM: 250, SigmaNM: 0.4, Substrate: "Ni",
	}
	require.NoError(t, optics.CreateTable(db, meta, nil))

	stdout, _, err := execute(t, "describe", "--db", db, "--section", "xmm")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Mirror metadata (section: xmm)")
	assert.Contains(t, stdout, "Layer material: Au")
	assert.Contains(t, stdout, "Layer thickness: 250 nm")
}

func TestDescribe_UnknownSection(t *testing.T) {
	db := filepath.Join(t.TempDir(), "samples.db")
	meta := optics.Metadata{Section: "xmm", MirrorType: "t", Layer: "l", Substrate: "s"}
	require.NoError(t, optics.CreateTable(db, meta, nil))

	_, _, err := execute(t, "describe", "--db", db, "--section", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
