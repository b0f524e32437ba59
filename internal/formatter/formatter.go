// package formatter renders generated playlists as plain text, Markdown, CSV or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/soundscout/internal/models"
	"github.com/desertthunder/soundscout/internal/shared"
)

// Format is an output encoding for a playlist.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

// Formats lists the accepted format names.
var Formats = []string{string(FormatText), string(FormatMarkdown), string(FormatCSV), string(FormatJSON)}

// ParseFormat accepts a format name or a common alias ("md", "txt"); empty means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: unknown format %q (expected one of %s)", shared.ErrInvalidArgument, s, strings.Join(Formats, ", "))
}

// Meta carries optional context printed alongside a playlist.
type Meta struct {
	Vibe       string
	Size       models.Size
	Sequence   int    // history number, 0 when unsaved
	SpotifyURL string // set once exported
}

// MetaFromRecord builds [Meta] from a history entry.
func MetaFromRecord(r *models.PlaylistRecord) Meta {
	return Meta{Vibe: r.Vibe, Size: r.Size, Sequence: r.Sequence(), SpotifyURL: r.SpotifyURL}
}

// Render encodes p in the requested format.
func Render(format Format, p *models.Playlist, meta Meta) ([]byte, error) {
	switch format {
	case FormatText, "":
		return ExportToText(p, meta)
	case FormatMarkdown:
		return ExportToMarkdown(p, meta)
	case FormatCSV:
		return ExportToCSV(p)
	case FormatJSON:
		return ExportToJSON(p)
	}
	return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
}

// ExportToCSV converts a playlist to CSV with columns: Position, Title, Artist, Source
func ExportToCSV(p *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Position", "Title", "Artist", "Source"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, song := range p.Songs {
		record := []string{fmt.Sprint(i + 1), song.Title, song.Artist, song.Source.Label()}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToJSON encodes the playlist in the same shape the completion service returns.
func ExportToJSON(p *models.Playlist) ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode playlist: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToMarkdown converts a playlist to a Markdown document with a song table.
func ExportToMarkdown(p *models.Playlist, meta Meta) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", p.Name)
	if meta.Vibe != "" {
		fmt.Fprintf(&buf, "**Vibe**: %s\n", meta.Vibe)
	}
	if meta.Size != "" {
		fmt.Fprintf(&buf, "**Size**: %s\n", meta.Size)
	}
	fmt.Fprintf(&buf, "**Songs**: %d (%s)\n", len(p.Songs), tally(p))
	if meta.SpotifyURL != "" {
		fmt.Fprintf(&buf, "**Spotify**: <%s>\n", meta.SpotifyURL)
	}

	buf.WriteString("\n| # | Title | Artist | Picked for |\n|---|---|---|---|\n")
	for i, song := range p.Songs {
		fmt.Fprintf(&buf, "| %d | %s | %s | %s |\n", i+1, escapeCell(song.Title), escapeCell(song.Artist), song.Source.Label())
	}
	return buf.Bytes(), nil
}

// ExportToText converts a playlist to plain text
func ExportToText(p *models.Playlist, meta Meta) ([]byte, error) {
	var buf bytes.Buffer

	if meta.Sequence > 0 {
		fmt.Fprintf(&buf, "Playlist #%d: %s\n", meta.Sequence, p.Name)
	} else {
		fmt.Fprintf(&buf, "Playlist: %s\n", p.Name)
	}
	if meta.Vibe != "" {
		fmt.Fprintf(&buf, "Vibe: %s\n", meta.Vibe)
	}
	fmt.Fprintf(&buf, "Songs: %d (%s)\n", len(p.Songs), tally(p))
	if meta.SpotifyURL != "" {
		fmt.Fprintf(&buf, "Spotify: %s\n", meta.SpotifyURL)
	}
	buf.WriteString("\n")

	for i, song := range p.Songs {
		fmt.Fprintf(&buf, "%d. %s - %s [%s]\n", i+1, song.Artist, song.Title, song.Source.Label())
	}
	return buf.Bytes(), nil
}

// WriteExport writes data to path, creating parent directories as needed.
func WriteExport(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// tally summarises how many songs were picked for each source, e.g. "Both: 2, Listener 1: 1".
func tally(p *models.Playlist) string {
	counts := p.CountBySource()
	var parts []string
	for _, s := range []models.Source{models.Both, models.FirstListener, models.SecondListener} {
		if n := counts[s]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", s.Label(), n))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
