package services

import (
	"reflect"
	"testing"
)

func TestLineSplitter(t *testing.T) {
	tc := []struct {
		name   string
		chunks []string
		want   []string
	}{
		{
			name:   "lines split across chunks with duplicate",
			chunks: []string{"Song A\nSo", "ng B\n", "Song A\n"},
			want:   []string{"Song A", "Song B"},
		},
		{
			name:   "trailing text without newline is flushed",
			chunks: []string{"Only Song"},
			want:   []string{"Only Song"},
		},
		{
			name:   "blank lines and whitespace are dropped",
			chunks: []string{"\n  \n  Hyperballad  \r\n", "\n\nJoga"},
			want:   []string{"Hyperballad", "Joga"},
		},
		{
			name:   "duplicates are case-insensitive",
			chunks: []string{"Army of Me\nARMY OF ME\narmy of me"},
			want:   []string{"Army of Me"},
		},
		{
			name:   "one character at a time",
			chunks: []string{"A", "\n", "B", "\n", "A"},
			want:   []string{"A", "B"},
		},
		{
			name:   "empty stream",
			chunks: nil,
			want:   nil,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			emit := func(s string) { got = append(got, s) }

			l := NewLineSplitter()
			for _, c := range tt.chunks {
				l.Feed(c, emit)
			}
			l.Flush(emit)

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("emits synchronously per chunk", func(t *testing.T) {
		var got []string
		emit := func(s string) { got = append(got, s) }

		l := NewLineSplitter()
		l.Feed("First\nSec", emit)
		if len(got) != 1 || got[0] != "First" {
			t.Fatalf("expected First before the next chunk, got %q", got)
		}

		l.Feed("ond\n", emit)
		if len(got) != 2 || got[1] != "Second" {
			t.Fatalf("expected Second after its newline, got %q", got)
		}
	})

	t.Run("splitters do not share memory", func(t *testing.T) {
		var got []string
		emit := func(s string) { got = append(got, s) }

		a := NewLineSplitter()
		a.Feed("Song\n", emit)
		b := NewLineSplitter()
		b.Feed("Song\n", emit)

		if len(got) != 2 {
			t.Errorf("expected each splitter to emit once, got %q", got)
		}
	})

	t.Run("zero value", func(t *testing.T) {
		var got []string
		emit := func(s string) { got = append(got, s) }

		var l LineSplitter
		l.Feed("Joga\njoga\n", emit)
		l.Flush(emit)

		if !reflect.DeepEqual(got, []string{"Joga"}) {
			t.Errorf("got %q, want [Joga]", got)
		}
	})
}
