// Package gemini generates variants with the Gemini generateContent REST
// endpoint.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/evo/internal/domain"
	"github.com/bnema/evo/internal/ports"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/"
	DefaultModel   = "gemini-2.5-flash-image"

	defaultTimeout    = 2 * time.Minute
	maxResponseBytes  = 64 << 20
	maxErrorBodyBytes = 4 << 10
	// base64 payloads shorter than this cannot hold a real image.
	minImageBase64Len = 100

	promptSuffix = ". Modify this image according to the instruction"
)

type Config struct {
	BaseURL        string
	Model          string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

type Generator struct {
	cfg Config
}

var _ ports.VariantGenerator = (*Generator)(nil)

func New(cfg Config) *Generator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Generator{cfg: cfg}
}

// ValidateKey returns a warning when key does not look like a Google API
// key. The key is still used.
func ValidateKey(key string) string {
	if !strings.HasPrefix(key, "AIza") || len(key) < 30 {
		return "Gemini API keys usually start with AIza and are at least 30 characters"
	}
	return ""
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text       string             `json:"text,omitempty"`
	InlineData *requestInlineData `json:"inline_data,omitempty"`
}

type requestInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	CandidateCount  int     `json:"candidateCount"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text       string `json:"text,omitempty"`
				InlineData *struct {
					MIMEType string `json:"mimeType"`
					Data     string `json:"data"`
				} `json:"inlineData,omitempty"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (e *apiError) String() string {
	if e.Message != "" {
		return e.Message
	}
	payload, _ := json.Marshal(e)
	return string(payload)
}

func (g *Generator) Generate(ctx context.Context, req ports.GenerateRequest) (domain.Image, error) {
	if strings.TrimSpace(req.Credential) == "" {
		return domain.Image{}, domain.NewFatalError("API key is missing", domain.ErrCredentialMissing)
	}

	encoded := req.Image.Base64()
	if len(encoded) < minImageBase64Len {
		return domain.Image{}, domain.NewFatalError("invalid image data", domain.ErrInvalidImage)
	}

	endpoint, err := g.endpoint()
	if err != nil {
		return domain.Image{}, domain.NewFatalError("build request URL", err)
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []requestPart{
			{Text: req.Instruction.String() + promptSuffix},
			{InlineData: &requestInlineData{MIMEType: mimeTypeOf(req.Image), Data: encoded}},
		}}},
		GenerationConfig: generationConfig{Temperature: 0.8, CandidateCount: 1, MaxOutputTokens: 2048},
	})
	if err != nil {
		return domain.Image{}, domain.NewFatalError("encode request", err)
	}

	requestCtx, cancel := g.requestContext(ctx)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(requestCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Image{}, domain.NewFatalError("create request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", req.Credential)

	resp, err := g.httpClient().Do(httpReq)
	if err != nil {
		return domain.Image{}, domain.NewFatalError("network error", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return domain.Image{}, domain.NewFatalError(
			fmt.Sprintf("API request failed: %d", resp.StatusCode),
			errors.New(strings.TrimSpace(string(detail))),
		)
	}

	var payload generateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return domain.Image{}, domain.NewFatalError("decode response", err)
	}

	return classify(payload)
}

func classify(payload generateResponse) (domain.Image, error) {
	if len(payload.Candidates) > 0 {
		for _, part := range payload.Candidates[0].Content.Parts {
			if part.InlineData == nil || !strings.HasPrefix(part.InlineData.MIMEType, "image/") {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return domain.Image{}, domain.NewFatalError("decode image payload", err)
			}
			return domain.NewImage(data, part.InlineData.MIMEType), nil
		}
	}

	if payload.Error != nil {
		return domain.Image{}, domain.NewFatalError("API error: "+payload.Error.String(), nil)
	}

	if len(payload.Candidates) > 0 {
		switch reason := payload.Candidates[0].FinishReason; reason {
		case "SAFETY", "RECITATION", "PROHIBITED_CONTENT", "IMAGE_SAFETY":
			return domain.Image{}, domain.NewSafetyBlockError("finish reason " + reason)
		}
	}
	if payload.PromptFeedback != nil && payload.PromptFeedback.BlockReason != "" {
		return domain.Image{}, domain.NewSafetyBlockError("prompt blocked: " + payload.PromptFeedback.BlockReason)
	}

	return domain.Image{}, domain.NewNoImageError("no image found in API response")
}

func (g *Generator) endpoint() (string, error) {
	base, err := url.Parse(g.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return "", errors.New("base url must use http or https")
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	endpoint, err := base.Parse("models/" + url.PathEscape(g.cfg.Model) + ":generateContent")
	if err != nil {
		return "", fmt.Errorf("parse model path: %w", err)
	}
	return endpoint.String(), nil
}

func (g *Generator) httpClient() *http.Client {
	if g.cfg.HTTPClient != nil {
		return g.cfg.HTTPClient
	}
	return http.DefaultClient
}

func (g *Generator) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}

	timeout := g.cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

func mimeTypeOf(image domain.Image) string {
	if image.MIMEType == "" {
		return domain.DefaultImageMIMEType
	}
	return image.MIMEType
}
