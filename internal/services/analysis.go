package services

import (
	"context"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/snapmix/internal/media"
	"github.com/desertthunder/snapmix/internal/params"
	"github.com/desertthunder/snapmix/internal/shared"
	lru "github.com/hashicorp/golang-lru/v2"
	"google.golang.org/genai"
)

const (
	DefaultGeminiModel    = "gemini-2.5-flash"
	DefaultGeminiLocation = "us-central1"
	analysisCacheSize     = 32
)

// streamFunc matches [genai.Models.GenerateContentStream].
type streamFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]

// GeminiAnalyzer implements [Analyzer] with the Gemini API or Vertex AI.
type GeminiAnalyzer struct {
	model  string
	stream streamFunc
	cache  *lru.Cache[string, string]
	logger *log.Logger
}

// NewGeminiAnalyzer creates the genai client for cfg.
//
// An API key selects the Gemini API; otherwise Project selects Vertex AI.
func NewGeminiAnalyzer(ctx context.Context, cfg shared.GeminiConfig, logger *log.Logger) (*GeminiAnalyzer, error) {
	if !cfg.HasCredentials() {
		return nil, fmt.Errorf("%w: set gemini api_key or project", shared.ErrMissingCredentials)
	}

	clientConfig := &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	if cfg.APIKey == "" {
		location := cfg.Location
		if location == "" {
			location = DefaultGeminiLocation
		}
		clientConfig = &genai.ClientConfig{
			Project:  cfg.Project,
			Location: location,
			Backend:  genai.BackendVertexAI,
		}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrMissingCredentials, err)
	}
	return newGeminiAnalyzer(cfg.Model, client.Models.GenerateContentStream, logger), nil
}

func newGeminiAnalyzer(model string, stream streamFunc, logger *log.Logger) *GeminiAnalyzer {
	if model == "" {
		model = DefaultGeminiModel
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	cache, _ := lru.New[string, string](analysisCacheSize)
	return &GeminiAnalyzer{model: model, stream: stream, cache: cache, logger: logger}
}

// Analyze sends the image with the parameter prompt and concatenates the streamed text.
//
// Any failure returns an empty string with [shared.ErrAnalysisFailed]; partial text is discarded.
func (g *GeminiAnalyzer) Analyze(ctx context.Context, token string) (string, error) {
	data, mediaType, err := media.Decode(token)
	if err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrAnalysisFailed, err)
	}

	digest := media.Digest(token)
	if text, ok := g.cache.Get(digest); ok {
		g.logger.Debug("analysis cache hit", "digest", digest[:12])
		return text, nil
	}

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: mediaType, Data: data}},
			{Text: AnalysisPrompt()},
		},
	}}

	g.logger.Debug("streaming analysis", "model", g.model, "media_type", mediaType, "bytes", len(data))

	var b strings.Builder
	chunks := 0
	for resp, err := range g.stream(ctx, g.model, contents, generationConfig()) {
		if err != nil {
			return "", fmt.Errorf("%w: %w", shared.ErrAnalysisFailed, err)
		}
		if resp == nil {
			continue
		}
		b.WriteString(resp.Text())
		chunks++
	}

	text := b.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty response", shared.ErrAnalysisFailed)
	}

	g.logger.Debug("analysis complete", "chunks", chunks, "chars", len(text))
	g.cache.Add(digest, text)
	return text, nil
}

func generationConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.4),
		TopP:            genai.Ptr[float32](1),
		TopK:            genai.Ptr[float32](32),
		MaxOutputTokens: 2048,
	}
}

// AnalysisPrompt asks for one "key: value" line per known parameter.
func AnalysisPrompt() string {
	var b strings.Builder
	b.WriteString("Analyze this image and provide Spotify recommendation parameters.\n")
	b.WriteString("Describe the mood of the photo as music, one parameter per line in the form \"key: value\".\n")
	b.WriteString("Use N/A for a parameter you cannot infer. List genres separated by commas.\n")
	b.WriteString("Parameters:\n")
	for _, key := range params.Keys() {
		kind, _ := params.Lookup(key)
		fmt.Fprintf(&b, "%s (%s)\n", key, kind)
	}
	return b.String()
}
