package mentions

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan_WholeWordsAndAliases(t *testing.T) {
	aria := Entry{ID: uuid.New(), Title: "Aria", Aliases: []string{"The Princess"}}
	keep := Entry{ID: uuid.New(), Title: "Dragon Keep", Aliases: []string{"Keep"}}
	ari := Entry{ID: uuid.New(), Title: "Ari"}

	s, err := NewScanner([]Entry{aria, keep, ari})
	require.NoError(t, err)

	got := s.Scan("<p>Aria met the Princess at Dragon Keep.</p><p>Then ARIA left for Arial.</p>")
	require.Len(t, got, 2)

	assert.Equal(t, aria.ID, got[0].EntryID)
	assert.Equal(t, 3, got[0].Count)
	assert.Equal(t, 0, got[0].FirstOffset)

	assert.Equal(t, keep.ID, got[1].EntryID)
	assert.Equal(t, "Dragon Keep", got[1].Title)
	assert.Equal(t, 1, got[1].Count, "'Keep' inside 'Dragon Keep' is not counted twice")
	assert.Equal(t, 25, got[1].FirstOffset)
}

func TestScan_NoEntries(t *testing.T) {
	s, err := NewScanner(nil)
	require.NoError(t, err)
	assert.Empty(t, s.Scan("anything at all"))
}

func TestScan_PunctuationNormalized(t *testing.T) {
	e := Entry{ID: uuid.New(), Title: "Old  Mill"}
	s, err := NewScanner([]Entry{e})
	require.NoError(t, err)

	got := s.Scan("They ran to the old\nmill, then past the old-mill sign.")
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Count)
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "Tom & Jerry", StripHTML("<b>Tom</b> &amp; <i>Jerry</i>"))
	assert.Equal(t, "Line one\nLine two", StripHTML("<p>Line one</p><p>Line two</p>"))
	assert.Equal(t, "plain text", StripHTML("plain text"))
}
