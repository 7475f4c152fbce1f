// Package chronicle asks Gemini for a closing epilogue built from the
// adventure journal.
package chronicle

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/google/generative-ai-go/genai"
	"github.com/tatianab/donjon/internal/catalog"
	"github.com/tatianab/donjon/internal/models"
	"google.golang.org/api/option"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.5-flash"

// maxJournal bounds how many of the latest journal entries go into the
// prompt.
const maxJournal = 40

//go:embed prompts/epilogue.txt
var epiloguePrompt string

var epilogueTmpl = template.Must(template.New("epilogue").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(epiloguePrompt))

type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Chronicler writes epilogues.
type Chronicler struct {
	client *genai.Client
	model  generator
	cat    *catalog.Catalog
}

// New connects to Gemini. An empty model name selects DefaultModel.
func New(ctx context.Context, apiKey, model string, cat *catalog.Catalog) (*Chronicler, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("chronicle: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &Chronicler{client: client, model: client.GenerativeModel(model), cat: cat}, nil
}

// Close releases the client.
func (c *Chronicler) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Epilogue returns a few sentences closing the adventure of s.
func (c *Chronicler) Epilogue(ctx context.Context, s *models.GameSession) (string, error) {
	text, err := Prompt(c.cat, s)
	if err != nil {
		return "", err
	}
	resp, err := c.model.GenerateContent(ctx, genai.Text(text))
	if err != nil {
		return "", fmt.Errorf("chronicle: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("chronicle: no content returned from Gemini")
	}
	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			out.WriteString(string(t))
		}
	}
	epilogue := strings.TrimSpace(out.String())
	if epilogue == "" {
		return "", fmt.Errorf("chronicle: unexpected response type from Gemini")
	}
	return epilogue, nil
}

// Prompt renders the epilogue prompt for s.
func Prompt(cat *catalog.Catalog, s *models.GameSession) (string, error) {
	class := s.Player.Class
	if cl, ok := cat.Class(class); ok {
		class = cl.Name
	}
	journal := s.Journal
	if len(journal) > maxJournal {
		journal = journal[len(journal)-maxJournal:]
	}
	allies := make([]string, 0, len(s.Allies))
	for _, a := range s.Allies {
		allies = append(allies, a.Name)
	}

	data := struct {
		MaxSentences int
		Name         string
		Level        int
		Class        string
		Gold         int
		Enemies      int
		Allies       []string
		Journal      []string
	}{
		MaxSentences: 5,
		Name:         s.Player.Name,
		Level:        s.Player.Level,
		Class:        class,
		Gold:         s.Gold,
		Enemies:      s.Counters.EnemiesDefeated,
		Allies:       allies,
		Journal:      journal,
	}

	var buf bytes.Buffer
	if err := epilogueTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("chronicle: %w", err)
	}
	return buf.String(), nil
}
