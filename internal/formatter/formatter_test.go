package formatter

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/soundscout/internal/models"
	"github.com/desertthunder/soundscout/internal/shared"
	tu "github.com/desertthunder/soundscout/internal/testing"
)

func testPlaylist() *models.Playlist {
	return &models.Playlist{
		Name: "Common Ground",
		Songs: []models.Song{
			{Title: "Teardrop", Artist: "Massive Attack", Source: models.Both},
			{Title: "Motion Sickness", Artist: "Phoebe Bridgers", Source: models.SecondListener},
			{Title: "Joga", Artist: "Björk", Source: models.FirstListener},
			{Title: "Either | Or", Artist: "Elliott Smith", Source: models.Both},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tc := []struct {
		in   string
		want Format
	}{
		{"", FormatText},
		{"TXT", FormatText},
		{"md", FormatMarkdown},
		{"Markdown", FormatMarkdown},
		{"csv", FormatCSV},
		{" json ", FormatJSON},
	}
	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if err != nil || got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
			}
		})
	}

	if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestExportToText(t *testing.T) {
	data, err := ExportToText(testPlaylist(), Meta{Vibe: "rainy sunday", Sequence: 4, SpotifyURL: "https://open.spotify.com/playlist/x"})
	if err != nil {
		t.Fatalf("ExportToText() error = %v", err)
	}

	out := string(data)
	for _, want := range []string{
		"Playlist #4: Common Ground",
		"Vibe: rainy sunday",
		"Songs: 4 (Both: 2, Listener 1: 1, Listener 2: 1)",
		"Spotify: https://open.spotify.com/playlist/x",
		"1. Massive Attack - Teardrop [Both]",
		"2. Phoebe Bridgers - Motion Sickness [Listener 2]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestExportToMarkdown(t *testing.T) {
	data, err := ExportToMarkdown(testPlaylist(), Meta{Vibe: "rainy sunday", Size: models.SizeTaster})
	if err != nil {
		t.Fatalf("ExportToMarkdown() error = %v", err)
	}

	out := string(data)
	for _, want := range []string{
		"# Common Ground",
		"**Vibe**: rainy sunday",
		"**Size**: taster",
		"| 3 | Joga | Björk | Listener 1 |",
		`| 4 | Either \| Or | Elliott Smith | Both |`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "**Spotify**") {
		t.Error("unexported playlist should not show a Spotify link")
	}
}

func TestExportToCSV(t *testing.T) {
	data, err := ExportToCSV(testPlaylist())
	if err != nil {
		t.Fatalf("ExportToCSV() error = %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("expected header plus 4 rows, got %d", len(records))
	}
	if strings.Join(records[0], ",") != "Position,Title,Artist,Source" {
		t.Errorf("unexpected header %v", records[0])
	}
	if strings.Join(records[2], ",") != "2,Motion Sickness,Phoebe Bridgers,Listener 2" {
		t.Errorf("unexpected row %v", records[2])
	}
}

func TestExportToJSON(t *testing.T) {
	data, err := ExportToJSON(testPlaylist())
	if err != nil {
		t.Fatalf("ExportToJSON() error = %v", err)
	}

	var decoded struct {
		PlaylistName string `json:"playlistName"`
		Songs        []struct {
			Source string `json:"source"`
		} `json:"songs"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.PlaylistName != "Common Ground" || decoded.Songs[1].Source != "Listener 2" {
		t.Errorf("unexpected document %s", data)
	}
}

func TestRender(t *testing.T) {
	for _, f := range Formats {
		t.Run(f, func(t *testing.T) {
			data, err := Render(Format(f), testPlaylist(), Meta{})
			if err != nil || len(data) == 0 {
				t.Errorf("Render(%s) = %d bytes, %v", f, len(data), err)
			}
		})
	}

	if _, err := Render(Format("xml"), testPlaylist(), Meta{}); err == nil {
		t.Error("expected error for unknown format")
	}

	t.Run("empty playlist", func(t *testing.T) {
		data, _ := ExportToText(&models.Playlist{Name: "Quiet"}, Meta{})
		if !strings.Contains(string(data), "Songs: 0 (none)") {
			t.Errorf("unexpected output %s", data)
		}
	})
}

func TestMetaFromRecord(t *testing.T) {
	r := models.NewPlaylistRecord(*testPlaylist(), "dusk", models.SizeFull, models.UserPreferences{}, models.UserPreferences{})
	r.SetSequence(7)
	r.MarkExported("id", "https://open.spotify.com/playlist/id")

	meta := MetaFromRecord(r)
	if meta.Sequence != 7 || meta.Vibe != "dusk" || meta.Size != models.SizeFull || meta.SpotifyURL == "" {
		t.Errorf("unexpected meta %+v", meta)
	}
}

func TestWriteExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "mix.md")
	if err := WriteExport(path, []byte("# Mix\n")); err != nil {
		t.Fatalf("WriteExport() error = %v", err)
	}

	tu.AssertFileExists(t, path)
	if got := tu.MustReadFile(t, path); got != "# Mix\n" {
		t.Errorf("unexpected content %q", got)
	}
}
