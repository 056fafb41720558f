package worklog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkerRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		sourceID string
		comment  string
	}{
		{name: "plain", sourceID: "10042", comment: "debug"},
		{name: "empty comment", sourceID: "10042", comment: ""},
		{name: "leading space", sourceID: "7", comment: " indented"},
		{name: "only space", sourceID: "7", comment: " "},
		{name: "comment resembling marker", sourceID: "1", comment: "TIMEMACHINE_WID 2: copied"},
		{name: "multiline", sourceID: "55", comment: "line one\nline two"},
		{name: "id with colon and space", sourceID: "SRC-1: a b", comment: "x"},
		{name: "id with escape chars", sourceID: "100%+", comment: "y"},
		{name: "unicode", sourceID: "ü-1", comment: "zażółć"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			encoded := EncodeMarker(tc.sourceID, tc.comment)
			id, comment, ok := ParseMarker(encoded)
			require.True(t, ok, "marker %q did not parse", encoded)
			assert.Equal(t, tc.sourceID, id)
			assert.Equal(t, tc.comment, comment)
		})
	}
}

func TestEncodeMarkerFormat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "TIMEMACHINE_WID 10042: debug", EncodeMarker("10042", "debug"))
	assert.Equal(t, "TIMEMACHINE_WID 10042:", EncodeMarker("10042", ""))
}

func TestParseMarkerRejectsLookalikes(t *testing.T) {
	t.Parallel()

	for _, text := range []string{
		"",
		"Some original work",
		"TIMEMACHINE_WID",
		"TIMEMACHINE_WID ",
		"TIMEMACHINE_WID 123",
		"TIMEMACHINE_WID :",
		"TIMEMACHINE_WID 12 foo: bar",
		"TIMEMACHINE_WIDGET 12: bar",
		"timemachine_wid 12: bar",
		" TIMEMACHINE_WID 12: bar",
		"note: TIMEMACHINE_WID 12: bar",
		"TIMEMACHINE_WID 12:bar",
		"TIMEMACHINE_WID %zz: bad escape",
	} {
		_, _, ok := ParseMarker(text)
		assert.False(t, ok, "expected %q to be rejected", text)
	}
}

func TestParseMarkerAcceptsLegacyFormat(t *testing.T) {
	t.Parallel()

	id, comment, ok := ParseMarker("TIMEMACHINE_WID 124: X spent 1440s on Y-126 at 2018-11-16T12:34:01Z")
	require.True(t, ok)
	assert.Equal(t, "124", id)
	assert.Equal(t, "X spent 1440s on Y-126 at 2018-11-16T12:34:01Z", comment)
}

func TestDestinationWorklogWithMarker(t *testing.T) {
	t.Parallel()

	marked := DestinationWorklog{ID: "9", Comment: EncodeMarker("SRC-1", "debug")}.WithMarker()
	assert.True(t, marked.Marked())
	assert.Equal(t, "SRC-1", marked.SourceID)
	assert.Equal(t, "debug", marked.OriginalComment)

	foreign := DestinationWorklog{ID: "10", Comment: "manual entry"}.WithMarker()
	assert.False(t, foreign.Marked())
}
