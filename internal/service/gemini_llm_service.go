package service

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/lshigami/mocktest/config"
	"github.com/lshigami/mocktest/internal/exam"
	"github.com/lshigami/mocktest/internal/model"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// SolutionExplainer writes a worked solution for a question that has no authored one.
type SolutionExplainer interface {
	Explain(ctx context.Context, question *model.Question, selected string) (string, error)
}

type geminiExplainer struct {
	client     *genai.GenerativeModel
	httpClient *http.Client
}

// NewGeminiExplainer returns an explainer backed by Gemini. Without GEMINI_API_KEY every call
// fails with ErrExplainerDisabled.
func NewGeminiExplainer(cfg *config.Config) (SolutionExplainer, error) {
	if cfg.Gemini.APIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. AI explanations are disabled.")
		return &geminiExplainer{}, nil
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.Gemini.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	m := client.GenerativeModel(cfg.Gemini.Model)
	m.SetTemperature(0.2)
	return &geminiExplainer{client: m, httpClient: &http.Client{Timeout: 15 * time.Second}}, nil
}

func (s *geminiExplainer) Explain(ctx context.Context, question *model.Question, selected string) (string, error) {
	if s.client == nil {
		return "", ErrExplainerDisabled
	}

	parts := s.promptParts(ctx, question, selected)
	resp, err := s.client.GenerateContent(ctx, parts...)
	if err != nil {
		log.Error().Err(err).Uint("questionID", question.ID).Msg("Gemini API error during explanation")
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no content")
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", fmt.Errorf("gemini returned no text content")
	}
	return strings.TrimSpace(text.String()), nil
}

// promptParts builds the request: the question image when it can be fetched, then the prompt.
func (s *geminiExplainer) promptParts(ctx context.Context, question *model.Question, selected string) []genai.Part {
	var parts []genai.Part
	if question.ImageURL != nil && *question.ImageURL != "" {
		imageData, mimeType, err := s.fetchImageData(ctx, *question.ImageURL)
		if err != nil {
			// The text alone is usually enough to explain the answer.
			log.Warn().Err(err).Str("imageURL", *question.ImageURL).Msg("Explaining without question image")
		} else {
			// genai.ImageData expects a bare format and would prefix "image/" again.
			parts = append(parts, genai.Blob{MIMEType: mimeType, Data: imageData})
		}
	}
	return append(parts, genai.Text(explanationPrompt(question, selected)))
}

func explanationPrompt(q *model.Question, selected string) string {
	var b strings.Builder
	b.WriteString("You are an experienced JEE/NEET tutor. Explain the solution of the following ")
	b.WriteString(q.Section)
	b.WriteString(" question step by step, in at most 250 words.\n\n")
	b.WriteString("Question:\n---\n")
	b.WriteString(q.QuestionText)
	b.WriteString("\n---\n")

	options := []struct {
		key   string
		value *string
	}{{"A", q.OptionA}, {"B", q.OptionB}, {"C", q.OptionC}, {"D", q.OptionD}}
	if q.QuestionType != string(exam.Numeric) {
		b.WriteString("Options:\n")
		for _, o := range options {
			if o.value != nil {
				fmt.Fprintf(&b, "(%s) %s\n", o.key, *o.value)
			}
		}
	}
	switch exam.QuestionType(q.QuestionType) {
	case exam.MultiSelect:
		b.WriteString("More than one option may be correct.\n")
	case exam.Numeric:
		b.WriteString("The answer is a number.\n")
	}
	fmt.Fprintf(&b, "\nCorrect answer: %s\n", q.CorrectAnswer)
	if selected == "" {
		b.WriteString("The student did not answer this question.\n")
	} else {
		fmt.Fprintf(&b, "The student answered: %s\n", selected)
		b.WriteString("If the student's answer is wrong, point out the likely mistake.\n")
	}
	b.WriteString("\nEnd with a single line starting with \"Answer:\" that restates the correct answer.\n")
	return b.String()
}

func (s *geminiExplainer) fetchImageData(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("bad image URL %s: %w", imageURL, err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch image from URL %s: %w", imageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to fetch image (status %d) from URL %s", resp.StatusCode, imageURL)
	}
	imageData, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image data from URL %s: %w", imageURL, err)
	}

	mimeType := ""
	if parsed, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil && strings.HasPrefix(parsed, "image/") {
		mimeType = parsed
	}
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(imageURL))
		if !strings.HasPrefix(mimeType, "image/") {
			return nil, "", fmt.Errorf("unsupported or undeterminable image MIME type for %s", imageURL)
		}
	}
	return imageData, mimeType, nil
}
