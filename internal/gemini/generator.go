package gemini

import (
	"context"
	"fmt"
	"strings"
)

// DefaultSongCount is how many songs the prompt asks for.
const DefaultSongCount = 25

// Separator splits artist from title in a suggestion line.
const Separator = " - "

const promptTemplate = `You are a expert music curator. Generate %d songs unless otherwise stated in the format "Artist - Song Title" based on the concept: "%s".
Just return the list, one per line.`

// TextModel completes a prompt.
type TextModel interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Generator turns a concept into "Artist - Title" suggestion lines.
type Generator struct {
	model TextModel
	count int
}

// NewGenerator creates a Generator asking model for count songs.
func NewGenerator(model TextModel, count int) *Generator {
	if count <= 0 {
		count = DefaultSongCount
	}
	return &Generator{model: model, count: count}
}

// Generate asks the model for songs matching concept. Lines not shaped like
// "Artist - Title" are dropped. The result may be empty. Model errors are
// returned unchanged so callers see the upstream message.
func (g *Generator) Generate(ctx context.Context, concept string) ([]string, error) {
	text, err := g.model.GenerateText(ctx, Prompt(concept, g.count))
	if err != nil {
		return nil, err
	}
	return ParseSuggestions(text), nil
}

// Prompt renders the curator instruction for concept.
func Prompt(concept string, count int) string {
	return fmt.Sprintf(promptTemplate, count, concept)
}

// ParseSuggestions splits model output into trimmed suggestion lines.
func ParseSuggestions(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if IsSuggestion(line) {
			lines = append(lines, line)
		}
	}
	return lines
}

// IsSuggestion reports whether line has the "Artist - Title" shape.
func IsSuggestion(line string) bool {
	return strings.Contains(line, Separator)
}
