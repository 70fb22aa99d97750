package ai

import (
	"context"
	"fmt"

	"hub-service/pkg/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// FillRequest carries the transcription text and patient metadata sent to
// the external completion service
type FillRequest struct {
	TemplateSlug  string            `json:"template_slug"`
	Transcription string            `json:"transcription"`
	Language      string            `json:"language"`
	PatientMeta   map[string]string `json:"patient_meta,omitempty"`
}

// FillResponse is the generated document returned by the service
type FillResponse struct {
	Content string `json:"content"`
	Model   string `json:"model"`
}

// Client calls the external template-fill completion service. It is a pure
// consumer: it reads tenant-scoped data and produces text, and never writes
// license or quota state.
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient creates a template-fill client from configuration
func NewClient(cfg *config.AIConfig, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetAuthToken(cfg.APIKey)

	return &Client{
		httpClient: client,
		logger:     logger,
	}
}

// FillTemplate submits a transcription for template filling. The request is
// bounded by the client timeout and the caller's context.
func (c *Client) FillTemplate(ctx context.Context, req FillRequest) (*FillResponse, error) {
	var response FillResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&response).
		Post("/v1/template-fill")

	if err != nil {
		c.logger.Error("Template-fill API call failed", zap.Error(err))
		return nil, fmt.Errorf("failed to call template-fill API: %w", err)
	}

	if resp.IsError() {
		c.logger.Error("Template-fill API returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("template", req.TemplateSlug),
		)
		return nil, fmt.Errorf("template-fill API error: status %d", resp.StatusCode())
	}

	return &response, nil
}
