package statement

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/dvloznov/statement-sync/internal/category"
	"github.com/dvloznov/statement-sync/internal/domain"
	"github.com/dvloznov/statement-sync/internal/logger"
)

// DefaultModelName is the default Gemini model used for parsing.
const DefaultModelName = "gemini-2.5-flash"

// Model generates text for a prompt with an attached PDF.
type Model interface {
	Generate(ctx context.Context, prompt string, pdf []byte) (string, error)
}

// genaiModel implements Model on the Gen AI SDK.
type genaiModel struct {
	client *genai.Client
	name   string
}

// NewGenAIModel creates a Gemini-backed Model. An empty apiKey lets the SDK
// read GOOGLE_API_KEY or the Vertex AI environment variables.
func NewGenAIModel(ctx context.Context, apiKey, modelName string) (Model, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGenAIModel: create genai client: %w", err)
	}
	if modelName == "" {
		modelName = DefaultModelName
	}
	return &genaiModel{client: client, name: modelName}, nil
}

func (m *genaiModel) Generate(ctx context.Context, prompt string, pdf []byte) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
				{
					InlineData: &genai.Blob{
						MIMEType: "application/pdf",
						Data:     pdf,
					},
				},
			},
		},
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.name, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return resp.Text(), nil
}

// GeminiParser asks a language model to read the statement.
type GeminiParser struct {
	model     Model
	names     []string
	validator *category.Validator
}

// NewGeminiParser creates a parser constrained to the categorizer's taxonomy.
func NewGeminiParser(model Model, categorizer *category.Categorizer) *GeminiParser {
	if categorizer == nil {
		categorizer = category.Default()
	}
	names := categorizer.Names()
	return &GeminiParser{
		model:     model,
		names:     names,
		validator: category.NewValidator(names),
	}
}

func (p *GeminiParser) Parse(ctx context.Context, pdf []byte, bank domain.BankID, filename string) ([]domain.Transaction, error) {
	log := logger.FromContext(ctx)

	rawText, err := p.model.Generate(ctx, buildStatementPrompt(bank, p.names), pdf)
	if err != nil {
		return nil, &domain.ParseError{Bank: bank, Filename: filename, Err: fmt.Errorf("GeminiParser: %w", err)}
	}
	if strings.TrimSpace(rawText) == "" {
		return nil, &domain.ParseError{Bank: bank, Filename: filename, Err: fmt.Errorf("GeminiParser: empty response from model")}
	}

	clean := cleanModelJSON(rawText)

	var parsed interface{}
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		log.Debug().Str("raw_response", rawText).Msg("Unparseable model output")
		return nil, &domain.ParseError{Bank: bank, Filename: filename, Err: fmt.Errorf("GeminiParser: unmarshal JSON: %w", err)}
	}

	txs, err := transformModelOutput(parsed, bank, filename, p.validator)
	if err != nil {
		return nil, &domain.ParseError{Bank: bank, Filename: filename, Err: err}
	}
	if len(txs) == 0 {
		return nil, &domain.ParseError{Bank: bank, Filename: filename, Err: domain.ErrNoTransactions}
	}

	log.Info().Int("transactions", len(txs)).Str("filename", filename).Msg("Model parsed statement")
	return txs, nil
}

// cleanModelJSON strips Markdown fences and text around the JSON array.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return s
		}
		s = strings.TrimSpace(s[idx+1:])
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
