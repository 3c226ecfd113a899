package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeTitle(t *testing.T) {
	require.Equal(t, "portal2", NormalizeTitle("  Portal 2\n"))
	require.Equal(t, "", NormalizeTitle(" \t "))
}

func TestSimilarity(t *testing.T) {
	require.Equal(t, 1.0, Similarity("Portal 2", "portal2"))
	require.Equal(t, 0.0, Similarity("", "portal"))
	require.Greater(t, Similarity("hollow knight", "Hollow Knight: Silksong"), Similarity("hollow knight", "Stardew Valley"))
}

func TestBestMatch(t *testing.T) {
	titles := []string{"Portal", "Portal 2", "Portal Knights"}
	require.Equal(t, 1, BestMatch("portal 2", titles))
	require.Equal(t, 0, BestMatch("portal", titles))
	require.Equal(t, -1, BestMatch("portal", nil))
}
