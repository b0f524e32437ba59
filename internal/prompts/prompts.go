// Package prompts builds the instructions and response contract sent to the completion service.
package prompts

import (
	"fmt"
	"strings"

	"github.com/desertthunder/soundscout/internal/models"
)

const notProvided = "Not provided"

// SearchPolicy controls how the artist lookup trades completeness against latency.
type SearchPolicy string

const (
	// PolicyFast streams the most popular songs first, unsorted, as soon as possible.
	PolicyFast SearchPolicy = "fast"
	// PolicyAlphabetical waits for the complete catalog and returns it sorted.
	PolicyAlphabetical SearchPolicy = "alphabetical"
)

// ParseSearchPolicy maps config text to a policy, defaulting to [PolicyFast].
func ParseSearchPolicy(s string) (SearchPolicy, error) {
	switch SearchPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyFast:
		return PolicyFast, nil
	case PolicyAlphabetical:
		return PolicyAlphabetical, nil
	}
	return "", fmt.Errorf("unknown search policy %q", s)
}

// NormalizeList rewrites a semicolon-delimited list as a comma-joined one.
func NormalizeList(s string) string {
	var parts []string
	for p := range strings.SplitSeq(s, ";") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func orNotProvided(s string) string {
	if strings.TrimSpace(s) == "" {
		return notProvided
	}
	return s
}

func writeListener(b *strings.Builder, label string, p models.UserPreferences) {
	fmt.Fprintf(b, "%s's preferences:\n", label)
	fmt.Fprintf(b, "- Favorite songs: %s\n", orNotProvided(NormalizeList(p.SongsText())))
	fmt.Fprintf(b, "- Favorite artists: %s\n", orNotProvided(p.Artists))
	fmt.Fprintf(b, "- Favorite genres: %s\n\n", orNotProvided(strings.Join(p.Genres, ", ")))
}

func sizeRequest(size models.Size) string {
	lo, hi := size.Range()
	if size == models.SizeFull {
		return fmt.Sprintf("A full playlist of %d-%d songs.", lo, hi)
	}
	return fmt.Sprintf("A short taster playlist of %d-%d songs.", lo, hi)
}

// BuildPlaylistPrompt renders the generation instructions for two listeners, a vibe and a size.
//
// The output depends only on its arguments.
func BuildPlaylistPrompt(first, second models.UserPreferences, vibe string, size models.Size) string {
	one, two, both := models.FirstListener.Label(), models.SecondListener.Label(), models.Both.Label()

	var b strings.Builder
	b.WriteString("You are SoundScout, a relaxed and knowledgeable music guide who builds shared playlists for two friends.\n\n")
	b.WriteString("Build one playlist from the tastes of two listeners and the vibe they asked for.\n\n")

	writeListener(&b, one, first)
	writeListener(&b, two, second)

	fmt.Fprintf(&b, "Vibe: %s\n\n", orNotProvided(vibe))
	fmt.Fprintf(&b, "Size: %s\n\n", sizeRequest(size))

	b.WriteString("Follow every rule below:\n")
	fmt.Fprintf(&b, "1. Balance: give both listeners equal weight, even if one of them wrote much more than the other.\n")
	fmt.Fprintf(&b, "2. Overlap first: begin from songs, artists and genres both listeners like and tag them %q.\n", both)
	fmt.Fprintf(&b, "3. Bridges: where tastes do not overlap, pick tracks whose mood, tempo and energy connect them, and tag them %q.\n", both)
	fmt.Fprintf(&b, "4. Individual picks: after the shared core, add a few songs for each listener alone, tagged %q or %q. Use these sparingly.\n", one, two)
	fmt.Fprintf(&b, "5. Vibe: every song must fit %q. A study session stays calm; a party stays loud.\n", orNotProvided(vibe))
	b.WriteString("6. Flow: open with shared songs, alternate between the listeners' picks, and use bridge tracks to smooth changes in style.\n")
	b.WriteString("7. Real music only: every song must be a real, released recording by the named artist.\n")
	fmt.Fprintf(&b, "8. Tags: every song must carry exactly one source tag: %q, %q or %q.\n\n", one, two, both)

	b.WriteString("Reply with the JSON object only. No introduction, no markdown, no commentary.\n")
	return b.String()
}

// BuildArtistPrompt asks for an artist's songs, one title per line, under the given policy.
func BuildArtistPrompt(artist string, policy SearchPolicy) string {
	var b strings.Builder
	fmt.Fprintf(&b, "List songs recorded by the artist %q.\n", strings.TrimSpace(artist))
	b.WriteString("Output rules:\n")
	b.WriteString("- One song title per line.\n")
	b.WriteString("- Titles only: no numbering, bullets, quotes, artist names or commentary.\n")
	b.WriteString("- Never repeat a title.\n")

	switch policy {
	case PolicyAlphabetical:
		b.WriteString("- Include the complete catalog of released songs.\n")
		b.WriteString("- Sort the titles alphabetically before writing anything.\n")
	default:
		b.WriteString("- Start writing immediately, most popular songs first.\n")
		b.WriteString("- Do not sort the list.\n")
	}
	return b.String()
}
