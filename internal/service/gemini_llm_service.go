package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"github.com/verticalstudies/coaching-api/config"
	"github.com/verticalstudies/coaching-api/internal/dto"
	"github.com/verticalstudies/coaching-api/internal/model"
	"go.uber.org/fx"
	"google.golang.org/api/option"
)

const geminiModel = "gemini-1.5-flash"

// GeminiLLMService drafts multiple-choice questions for teachers. Drafts are never stored;
// the teacher reviews them and submits them through test creation.
type GeminiLLMService interface {
	GenerateQuestions(ctx context.Context, req dto.GenerateQuestionsDTO) ([]dto.QuestionCreateDTO, error)
}

// generateFunc sends a prompt and returns the raw text of the first candidate.
type generateFunc func(ctx context.Context, prompt string) (string, error)

type geminiLLMService struct {
	generate generateFunc
}

func NewGeminiLLMService(lc fx.Lifecycle, cfg *config.Config) (GeminiLLMService, error) {
	if cfg.GeminiApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. Question generation will be unavailable.")
		return &geminiLLMService{}, nil
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	gm := client.GenerativeModel(geminiModel)
	gm.ResponseMIMEType = "application/json"
	gm.SetTemperature(0.7)

	return &geminiLLMService{generate: func(ctx context.Context, prompt string) (string, error) {
		resp, err := gm.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return "", err
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return "", fmt.Errorf("gemini returned no candidates")
		}
		var sb strings.Builder
		for _, part := range resp.Candidates[0].Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				sb.WriteString(string(txt))
			}
		}
		return sb.String(), nil
	}}, nil
}

func newGeminiLLMServiceWith(generate generateFunc) GeminiLLMService {
	return &geminiLLMService{generate: generate}
}

func (s *geminiLLMService) GenerateQuestions(ctx context.Context, req dto.GenerateQuestionsDTO) ([]dto.QuestionCreateDTO, error) {
	if s.generate == nil {
		return nil, fmt.Errorf("question generation is not configured: %w", ErrUnavailable)
	}
	if req.Count < 1 || req.Count > 20 {
		return nil, validationError("count must be between 1 and 20, got %d", req.Count)
	}
	marks := req.MarksEach
	if marks <= 0 {
		marks = 1
	}

	raw, err := s.generate(ctx, buildQuestionPrompt(req))
	if err != nil {
		log.Error().Err(err).Str("topic", req.Topic).Msg("Gemini API error during question generation")
		return nil, fmt.Errorf("gemini request failed: %w: %v", ErrUnavailable, err)
	}

	questions, err := parseGeneratedQuestions(raw, marks)
	if err != nil {
		log.Warn().Err(err).Str("rawResponse", raw).Msg("Failed to parse generated questions")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(questions) > req.Count {
		questions = questions[:req.Count]
	}
	log.Info().Str("topic", req.Topic).Int("count", len(questions)).Msg("Generated question drafts")
	return questions, nil
}

func buildQuestionPrompt(req dto.GenerateQuestionsDTO) string {
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = "medium"
	}
	var b strings.Builder
	b.WriteString("You are an experienced teacher preparing a competitive-exam practice test.\n")
	fmt.Fprintf(&b, "Write %d %s difficulty multiple-choice questions on the topic: %q.\n", req.Count, difficulty, req.Topic)
	b.WriteString("Each question has exactly four options and exactly one correct option.\n")
	b.WriteString("Respond with a JSON array only. Each element must have the fields:\n")
	b.WriteString(`"question_text" (string), "options" (array of 4 strings), "correct_answer" (integer index 0-3), "solution_text" (short explanation).`)
	b.WriteString("\n")
	return b.String()
}

type generatedQuestion struct {
	QuestionText  string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	SolutionText  string   `json:"solution_text"`
}

// parseGeneratedQuestions decodes the model output and drops malformed items.
func parseGeneratedQuestions(raw string, marks int) ([]dto.QuestionCreateDTO, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var items []generatedQuestion
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("response is not a JSON question array: %w", err)
	}

	out := make([]dto.QuestionCreateDTO, 0, len(items))
	for i, it := range items {
		if strings.TrimSpace(it.QuestionText) == "" || len(it.Options) != 4 || !model.ValidOption(it.CorrectAnswer) {
			log.Debug().Int("index", i).Msg("Skipping malformed generated question")
			continue
		}
		q := dto.QuestionCreateDTO{
			QuestionText:  strings.TrimSpace(it.QuestionText),
			OptionA:       it.Options[0],
			OptionB:       it.Options[1],
			OptionC:       it.Options[2],
			OptionD:       it.Options[3],
			CorrectAnswer: it.CorrectAnswer,
			Marks:         marks,
		}
		if s := strings.TrimSpace(it.SolutionText); s != "" {
			q.SolutionText = &s
		}
		out = append(out, q)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("response contained no usable questions")
	}
	return out, nil
}
