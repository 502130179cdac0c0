package receipts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

// DefaultModelName is the Gemini model used when none is configured.
const DefaultModelName = "gemini-2.5-flash"

// Extraction is what a scanner read from a receipt image.
type Extraction struct {
	Merchant string
	Date     *civil.Date
	Total    *decimal.Decimal
	Currency string
	Category string
}

// Scanner reads purchase details from receipt file bytes.
type Scanner interface {
	Scan(ctx context.Context, data []byte, mimeType string) (Extraction, error)
}

// GeminiScanner is the Scanner backed by a Gemini model.
type GeminiScanner struct {
	client *genai.Client
	model  string
}

// NewGeminiScanner creates a genai client from the environment
// (GOOGLE_API_KEY, or GOOGLE_GENAI_USE_VERTEXAI with project and location).
func NewGeminiScanner(ctx context.Context, model string) (*GeminiScanner, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiScanner: create genai client: %w", err)
	}
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiScanner{client: client, model: model}, nil
}

const scanPrompt = "You read shop receipts for a personal finance ledger.\n\n" +
	"Task:\n" +
	"- Read the attached receipt.\n" +
	"- Output STRICT JSON only: a single object, no comments, no extra text.\n\n" +
	"The object must have these fields:\n" +
	"- \"merchant\": string or null\n" +
	"- \"date\": string, ISO format \"YYYY-MM-DD\", or null\n" +
	"- \"total\": number, the amount paid including tax, or null\n" +
	"- \"currency\": string ISO code (e.g. \"IDR\"), or null\n" +
	"- \"category\": string, one short spending category such as \"Food\", \"Transport\" or \"Groceries\", or null\n\n" +
	"Return ONLY valid raw JSON.\n" +
	"Do NOT wrap the response in code fences.\n" +
	"Output must begin with \"{\" and end with \"}\".\n"

func (s *GeminiScanner) Scan(ctx context.Context, data []byte, mimeType string) (Extraction, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: scanPrompt},
				{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
			},
		},
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, nil)
	if err != nil {
		return Extraction{}, fmt.Errorf("Scan: generate content: %w", err)
	}
	raw := resp.Text()
	if raw == "" {
		return Extraction{}, fmt.Errorf("Scan: empty response from model")
	}
	return decodeExtraction(raw)
}

type extractionJSON struct {
	Merchant *string          `json:"merchant"`
	Date     *string          `json:"date"`
	Total    *decimal.Decimal `json:"total"`
	Currency *string          `json:"currency"`
	Category *string          `json:"category"`
}

// decodeExtraction parses the model reply, tolerating Markdown fences.
func decodeExtraction(raw string) (Extraction, error) {
	var out extractionJSON
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &out); err != nil {
		return Extraction{}, fmt.Errorf("decodeExtraction: unmarshal JSON: %w\nraw response: %s", err, raw)
	}

	e := Extraction{
		Merchant: strings.TrimSpace(deref(out.Merchant)),
		Currency: strings.ToUpper(strings.TrimSpace(deref(out.Currency))),
		Category: strings.TrimSpace(deref(out.Category)),
		Total:    out.Total,
	}
	if d := strings.TrimSpace(deref(out.Date)); d != "" {
		date, err := civil.ParseDate(d)
		if err != nil {
			return Extraction{}, fmt.Errorf("decodeExtraction: invalid date %q: %w", d, err)
		}
		e.Date = &date
	}
	if e.Total != nil && e.Total.IsNegative() {
		abs := e.Total.Abs()
		e.Total = &abs
	}
	return e, nil
}

// cleanModelJSON strips code fences and any text around the outermost JSON
// object.
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

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
