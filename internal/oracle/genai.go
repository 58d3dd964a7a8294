package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spboyer/thinkroute/internal/models"
	"google.golang.org/genai"
)

// contentGenerator is the part of [*genai.Models] the oracle needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GenAIOracle scores questions with a Gemini model, asking for a JSON
// response that matches a fixed schema.
type GenAIOracle struct {
	models      contentGenerator
	model       string
	instruction string
}

// NewGenAIOracle creates a Gemini-backed oracle. model defaults to the
// first recommended genai model.
func NewGenAIOracle(ctx context.Context, apiKey, model, instruction string) (*GenAIOracle, error) {
	if apiKey == "" {
		return nil, errors.New("GenAI API key is required (set GEMINI_API_KEY)")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return newGenAIOracle(client.Models, model, instruction), nil
}

func newGenAIOracle(gen contentGenerator, model, instruction string) *GenAIOracle {
	if model == "" {
		model = RecommendedModels[BackendGenAI][0]
	}
	if instruction == "" {
		instruction = DefaultInstruction
	}
	return &GenAIOracle{models: gen, model: model, instruction: instruction}
}

// Name implements [Named].
func (o *GenAIOracle) Name() string {
	return fmt.Sprintf("%s/%s", BackendGenAI, o.model)
}

// Score implements [Oracle].
func (o *GenAIOracle) Score(ctx context.Context, question string) (*models.OracleResponse, error) {
	start := time.Now()

	result, err := o.models.GenerateContent(ctx, o.model,
		genai.Text(question),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(o.instruction, genai.RoleUser),
			Temperature:       genai.Ptr[float32](0),
			ResponseMIMEType:  "application/json",
			ResponseSchema:    scoreSchema,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("GenAI scoring failed: %w", err)
	}

	resp, err := ParseText(result.Text())
	if err != nil {
		return nil, err
	}
	resp.Latency = time.Since(start)
	return resp, nil
}

var scoreSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"breadth":    {Type: genai.TypeNumber},
		"depth":      {Type: genai.TypeNumber},
		"confidence": {Type: genai.TypeNumber},
		"mode_guess": {
			Type: genai.TypeString,
			Enum: []string{"DIRECT", "COT", "TOT", "GOT", "AOT", "COMBINED"},
		},
		"rationale": {Type: genai.TypeString},
	},
	Required: []string{"breadth", "depth"},
}
