package receipt

import (
	"fmt"
	"strings"
)

// NoteEncoding selects how a line's notes string is split into receipt lines.
type NoteEncoding int

const (
	// NotesSegmented treats commas as separators: one or more lines per segment.
	NotesSegmented NoteEncoding = iota
	// NotesWrapped treats the whole string as one note, greedily cut every NoteWidth characters.
	NotesWrapped
)

func ParseNoteEncoding(s string) (NoteEncoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "segments", "segmented":
		return NotesSegmented, nil
	case "wrapped", "wrap":
		return NotesWrapped, nil
	}
	return 0, fmt.Errorf("unknown note encoding %q", s)
}

func (e NoteEncoding) String() string {
	if e == NotesWrapped {
		return "wrapped"
	}
	return "segments"
}

// NoteLines splits notes into printable chunks of at most NoteWidth characters, without the prefix.
func NoteLines(notes string, enc NoteEncoding) []string {
	if strings.TrimSpace(notes) == "" {
		return nil
	}
	if enc == NotesWrapped {
		return chunk(notes, NoteWidth)
	}
	var out []string
	for _, seg := range segments(notes) {
		out = append(out, chunk(seg, NoteWidth)...)
	}
	return out
}

// NormalizeNotes rewrites a historical notes string into the segmented form: trimmed,
// non-empty segments joined by ", ".
func NormalizeNotes(notes string) string {
	return strings.Join(segments(notes), ", ")
}

func segments(notes string) []string {
	var out []string
	for _, seg := range strings.Split(notes, ",") {
		if seg = strings.TrimSpace(seg); seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// chunk cuts s every n runes, regardless of word boundaries.
func chunk(s string, n int) []string {
	runes := []rune(s)
	var out []string
	for len(runes) > n {
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}
