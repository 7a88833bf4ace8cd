package wasmrt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPagesForZeroIsUnlimited(t *testing.T) {
	require.EqualValues(t, 0, pagesFor(0))
	require.EqualValues(t, 0, pagesFor(-1))
}

func TestPagesForRoundsUp(t *testing.T) {
	require.EqualValues(t, 1, pagesFor(bytesPerPage))
	require.EqualValues(t, 2, pagesFor(bytesPerPage+1))
}

func TestPagesForMatchesKnownCeilings(t *testing.T) {
	const defaultMemoryBytes = 256 << 20
	require.EqualValues(t, 4096, pagesFor(defaultMemoryBytes))
}
