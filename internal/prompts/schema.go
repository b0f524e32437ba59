package prompts

import "github.com/desertthunder/soundscout/internal/models"

// Schema is the subset of the OpenAPI schema object accepted as a structured-output contract.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// PlaylistSchema describes the playlist object the completion service must return.
func PlaylistSchema() *Schema {
	song := &Schema{
		Type: "OBJECT",
		Properties: map[string]*Schema{
			"title":  {Type: "STRING"},
			"artist": {Type: "STRING"},
			"source": {
				Type:        "STRING",
				Description: "Which listener the song is for.",
				Enum:        models.SourceLabels(),
			},
		},
		Required: []string{"title", "artist", "source"},
	}

	return &Schema{
		Type: "OBJECT",
		Properties: map[string]*Schema{
			"playlistName": {
				Type:        "STRING",
				Description: "A short, catchy playlist name that reflects both listeners and the vibe.",
			},
			"songs": {
				Type:        "ARRAY",
				Description: "The ordered songs of the playlist.",
				Items:       song,
			},
		},
		Required: []string{"playlistName", "songs"},
	}
}
