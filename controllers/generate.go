package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"hairtryapi/services"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
)

type GenerateController struct {
	Generator services.ImageGenProvider
}

func (controller *GenerateController) GenerateRoutes(g *echo.Group) {
	g.POST("/generate", controller.Generate)
}

// Generate is the relay endpoint: accepts an image plus prompt, forwards to
// the generative model and normalizes the response into {imageUrl, text}.
// Rate-limit errors from upstream carry "429" in their message and are
// surfaced as HTTP 429 so callers can back off.
func (controller *GenerateController) Generate(c echo.Context) error {
	var req services.RelayGenerateIn
	if err := c.Bind(&req); err != nil {
		fmt.Println(err)
		return c.JSON(http.StatusBadRequest, services.RelayErrorOut{Error: "Invalid request body"})
	}

	if strings.TrimSpace(req.Image) == "" || strings.TrimSpace(req.Prompt) == "" {
		return c.JSON(http.StatusBadRequest, services.RelayErrorOut{Error: "Image and prompt are required"})
	}

	imageBytes, mimeType, err := services.DecodeImagePayload(req.Image, req.MimeType)
	if err != nil {
		return c.JSON(http.StatusBadRequest, services.RelayErrorOut{Error: "Could not decode image payload", Details: err.Error()})
	}

	genReq := services.GenerationRequest{
		Prompt:   req.Prompt,
		Image:    imageBytes,
		MimeType: mimeType,
	}
	if strings.TrimSpace(req.ReferenceImage) != "" {
		referenceBytes, referenceMime, err := services.DecodeImagePayload(req.ReferenceImage, "")
		if err != nil {
			return c.JSON(http.StatusBadRequest, services.RelayErrorOut{Error: "Could not decode reference image", Details: err.Error()})
		}
		genReq.Reference = referenceBytes
		genReq.ReferenceMimeType = referenceMime
	}

	result, err := controller.Generator.Generate(c.Request().Context(), genReq)
	if err != nil {
		if strings.Contains(err.Error(), "429") {
			fmt.Println("Upstream rate limited the generation call:", err)
			return c.JSON(http.StatusTooManyRequests, services.RelayErrorOut{Error: "Too many requests, please wait a moment and try again"})
		}
		fmt.Println("Generation call failed:", err)
		sentry.CaptureException(fmt.Errorf("relay generation failed: %v", err))
		return c.JSON(http.StatusInternalServerError, services.RelayErrorOut{Error: "Image generation failed", Details: err.Error()})
	}

	return c.JSON(http.StatusOK, services.RelayGenerateOut{
		ImageURL: &result.ImageURL,
		Text:     result.Text,
	})
}
