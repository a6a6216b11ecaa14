package receipt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteLines(t *testing.T) {
	long := strings.Repeat("a", 36) + strings.Repeat("b", 36) + "cc"

	tests := []struct {
		name  string
		notes string
		enc   NoteEncoding
		want  []string
	}{
		{"empty", "", NotesSegmented, nil},
		{"blank", "   ", NotesWrapped, nil},
		{"single segment", "sin cebolla", NotesSegmented, []string{"sin cebolla"}},
		{"segments trimmed", "sin cebolla, extra queso ,,salsa aparte", NotesSegmented,
			[]string{"sin cebolla", "extra queso", "salsa aparte"}},
		{"wrapped keeps commas", "sin cebolla, extra queso", NotesWrapped, []string{"sin cebolla, extra queso"}},
		{"wrapped greedy", long, NotesWrapped, []string{strings.Repeat("a", 36), strings.Repeat("b", 36), "cc"}},
		{"long segment wrapped", "x, " + long, NotesSegmented,
			[]string{"x", strings.Repeat("a", 36), strings.Repeat("b", 36), "cc"}},
		{"multibyte counted as characters", strings.Repeat("ñ", 37), NotesWrapped,
			[]string{strings.Repeat("ñ", 36), "ñ"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NoteLines(tt.notes, tt.enc))
		})
	}
}

func TestNormalizeNotes(t *testing.T) {
	assert.Equal(t, "sin cebolla, extra queso", NormalizeNotes(" sin cebolla ,, extra queso,"))
	assert.Equal(t, "", NormalizeNotes(" , "))
}

func TestParseNoteEncoding(t *testing.T) {
	enc, err := ParseNoteEncoding("Wrapped")
	require.NoError(t, err)
	assert.Equal(t, NotesWrapped, enc)

	enc, err = ParseNoteEncoding("")
	require.NoError(t, err)
	assert.Equal(t, NotesSegmented, enc)
	assert.Equal(t, "segments", enc.String())

	_, err = ParseNoteEncoding("csv")
	assert.Error(t, err)
}
