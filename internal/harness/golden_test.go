package harness

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mirrorlab/reflcheck/internal/optics"
)

func TestDefaultSuite_Golden(t *testing.T) {
	suite, err := DefaultSuite()
	require.NoError(t, err)

	require.NoError(t, RunWithGolden(t, optics.ReferenceFixture(), suite))
}
