package gemini

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

type mockModel struct {
	text   string
	err    error
	prompt string
	calls  int
}

func (m *mockModel) GenerateText(_ context.Context, prompt string) (string, error) {
	m.calls++
	m.prompt = prompt
	return m.text, m.err
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "keeps well formed lines in order",
			text: "Radiohead - Airbag\nHere are some songs:\nPortishead - Roads\r\n\n  Massive Attack - Teardrop  ",
			want: []string{"Radiohead - Airbag", "Portishead - Roads", "Massive Attack - Teardrop"},
		},
		{
			name: "hyphen without spaces is not a separator",
			text: "Jay-Z\nAC-DC - Thunderstruck",
			want: []string{"AC-DC - Thunderstruck"},
		},
		{
			name: "nothing usable",
			text: "Sorry, I can't help with that.",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &mockModel{text: tt.text}
			g := NewGenerator(model, 0)

			got, err := g.Generate(context.Background(), "rainy sunday")
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Generate() = %q, want %q", got, tt.want)
			}
			if model.calls != 1 {
				t.Errorf("model calls = %d, want 1", model.calls)
			}
		})
	}
}

func TestGenerate_Error(t *testing.T) {
	modelErr := errors.New("quota exceeded")
	g := NewGenerator(&mockModel{err: modelErr}, 10)

	_, err := g.Generate(context.Background(), "x")
	if !errors.Is(err, modelErr) {
		t.Errorf("Generate() error = %v, want %v", err, modelErr)
	}
	if err.Error() != modelErr.Error() {
		t.Errorf("Generate() error message = %q, want upstream message %q", err.Error(), modelErr.Error())
	}
}

func TestPrompt(t *testing.T) {
	model := &mockModel{}
	g := NewGenerator(model, 12)
	if _, err := g.Generate(context.Background(), "road trip"); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	for _, want := range []string{
		"Generate 12 songs",
		`"Artist - Song Title"`,
		`based on the concept: "road trip".`,
		"\nJust return the list, one per line.",
	} {
		if !strings.Contains(model.prompt, want) {
			t.Errorf("prompt %q missing %q", model.prompt, want)
		}
	}

	if p := Prompt("x", DefaultSongCount); !strings.Contains(p, "Generate 25 songs") {
		t.Errorf("Prompt() = %q, want default count 25", p)
	}
}
