package services

import "strings"

// LineSplitter turns an arbitrarily chunked text stream into distinct, trimmed lines.
//
// A splitter holds the state of one stream and must not be shared between streams.
// The zero value is ready to use.
type LineSplitter struct {
	pending string
	seen    map[string]struct{}
}

// NewLineSplitter creates an empty splitter.
func NewLineSplitter() *LineSplitter {
	return &LineSplitter{seen: make(map[string]struct{})}
}

// Feed appends chunk and emits every complete line, in order, before returning.
//
// Blank lines and case-insensitive repeats are dropped.
func (l *LineSplitter) Feed(chunk string, emit func(string)) {
	l.pending += chunk
	for {
		i := strings.IndexByte(l.pending, '\n')
		if i < 0 {
			return
		}
		line := l.pending[:i]
		l.pending = l.pending[i+1:]
		l.deliver(line, emit)
	}
}

// Flush emits whatever remains after the final newline.
func (l *LineSplitter) Flush(emit func(string)) {
	line := l.pending
	l.pending = ""
	l.deliver(line, emit)
}

func (l *LineSplitter) deliver(line string, emit func(string)) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	key := strings.ToLower(line)
	if _, dup := l.seen[key]; dup {
		return
	}
	if l.seen == nil {
		l.seen = make(map[string]struct{})
	}
	l.seen[key] = struct{}{}
	emit(line)
}
