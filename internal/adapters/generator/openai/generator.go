// Package openai generates variants with the OpenAI image edit API.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bnema/evo/internal/domain"
	"github.com/bnema/evo/internal/ports"
	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	DefaultModel = openai.ImageModelGPTImage1

	defaultTimeout      = 3 * time.Minute
	moderationBlockCode = "moderation_blocked"
	contentPolicyCode   = "content_policy_violation"
)

type Config struct {
	BaseURL        string
	Model          string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

type Generator struct {
	client  openai.Client
	model   openai.ImageModel
	timeout time.Duration
}

var _ ports.VariantGenerator = (*Generator)(nil)

func New(cfg Config) *Generator {
	// Retries belong to the retry supervisor, not the SDK.
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	model := openai.ImageModel(cfg.Model)
	if cfg.Model == "" {
		model = DefaultModel
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Generator{client: openai.NewClient(opts...), model: model, timeout: timeout}
}

// ValidateKey returns a warning when key does not look like an OpenAI key.
func ValidateKey(key string) string {
	if !strings.HasPrefix(key, "sk-") {
		return "OpenAI API keys usually start with sk-"
	}
	return ""
}

func (g *Generator) Generate(ctx context.Context, req ports.GenerateRequest) (domain.Image, error) {
	if strings.TrimSpace(req.Credential) == "" {
		return domain.Image{}, domain.NewFatalError("API key is missing", domain.ErrCredentialMissing)
	}
	if req.Image.IsZero() {
		return domain.Image{}, domain.NewFatalError("invalid image data", domain.ErrInvalidImage)
	}

	mimeType := req.Image.MIMEType
	if mimeType == "" {
		mimeType = domain.DefaultImageMIMEType
	}

	resp, err := g.client.Images.Edit(ctx, openai.ImageEditParams{
		Image: openai.ImageEditParamsImageUnion{
			OfFile: openai.File(bytes.NewReader(req.Image.Data), "image"+extension(mimeType), mimeType),
		},
		Prompt: req.Instruction.String() + ". Modify this image according to the instruction",
		Model:  g.model,
	}, option.WithAPIKey(req.Credential), option.WithRequestTimeout(g.timeout))
	if err != nil {
		return domain.Image{}, classifyError(err)
	}

	for _, item := range resp.Data {
		if item.B64JSON == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(item.B64JSON)
		if err != nil {
			return domain.Image{}, domain.NewFatalError("decode image payload", err)
		}
		return domain.NewImage(data, "image/png"), nil
	}

	return domain.Image{}, domain.NewNoImageError("no image found in API response")
}

func classifyError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case moderationBlockCode, contentPolicyCode:
			return domain.NewSafetyBlockError(apiErr.Message)
		}
		return domain.NewFatalError(fmt.Sprintf("API request failed: %d", apiErr.StatusCode), err)
	}
	return domain.NewFatalError("network error", err)
}

func extension(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
