package htmlutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripHTML(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
	}{
		{in: "", expected: ""},
		{in: "   ", expected: ""},
		{in: "plain text", expected: "plain text"},
		{in: "Hello<br>World", expected: "Hello\nWorld"},
		{in: "Hello<BR/>World<br />!", expected: "Hello\nWorld\n!"},
		{
			in:       "<p>Un jeu <b>génial</b>.</p><br/><br />Sortie &amp; fun  \n",
			expected: "Un jeu génial.\nSortie & fun",
		},
		{in: "<script>alert(1)</script>Visible", expected: "Visible"},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, StripHTML(test.in), test.in)
	}
}
