package handler

import (
	"net/http"

	"hub-service/internal/ai"
	"hub-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var templateFillClient *ai.Client

// InitTemplateFill wires the external completion client used by the
// transcription template endpoints
func InitTemplateFill(client *ai.Client) {
	templateFillClient = client
}

// FillTemplate forwards a transcription and patient metadata to the external
// completion service and returns the generated document. The service itself
// never writes license or quota state.
func FillTemplate(c echo.Context) error {
	log := logger.FromContext(c)

	if templateFillClient == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "template_fill_not_configured"})
	}

	var req ai.FillRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse template-fill request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.TemplateSlug == "" || req.Transcription == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "template_slug and transcription are required"})
	}

	result, err := templateFillClient.FillTemplate(c.Request().Context(), req)
	if err != nil {
		log.Error("Template fill failed",
			zap.String("template", req.TemplateSlug),
			zap.Error(err),
		)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "template_fill_failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"content": result.Content,
		"model":   result.Model,
	})
}
