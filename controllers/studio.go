package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"hairtryapi/models"
	"hairtryapi/services"
	"hairtryapi/studio"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Longest allowed side of a normalized source photo, in pixels.
const maxSourceImageDimension = 1024

type CreateSessionIn struct {
	Image    string  `json:"image" validate:"omitempty"`
	MimeType string  `json:"mime_type" validate:"omitempty,max=100"`
	FileKey  *string `json:"file_key" validate:"omitempty,max=300"`
}

type UploadFileIn struct {
	FileName *string `json:"file_name" validate:"required,max=200"`
}

type UploadCreatedResponse struct {
	FileKey       string `json:"file_key"`
	FileUploadUrl string `json:"file_upload_url"`
}

type RefineIn struct {
	StyleID string `json:"style_id" validate:"required,styleid"`
	ColorID string `json:"color_id" validate:"omitempty,styleid"`
}

type CustomGenerateIn struct {
	Prompt         string `json:"prompt" validate:"required,max=2000"`
	ReferenceImage string `json:"reference_image" validate:"omitempty"`
}

type StylesListResponse struct {
	Styles   []models.StyleOption `json:"styles"`
	Colors   []models.StyleOption `json:"colors"`
	Creative []models.StyleOption `json:"creative"`
}

type StudioController struct {
	Store        *studio.Store
	Orchestrator *studio.Orchestrator
	AWSService   services.AWSServiceProvider
	URLCache     services.URLCacheServiceProvider
}

func (controller *StudioController) StudioRoutes(g *echo.Group) {
	g.GET("/styles", controller.ListStyles)
	g.POST("/studio/uploads", controller.PresignUpload)
	g.POST("/studio/sessions", controller.CreateSession)

	sessionGroup := g.Group("/studio/sessions/:sessionId", SessionMiddleware)
	sessionGroup.GET("", controller.GetSession)
	sessionGroup.DELETE("", controller.DeleteSession)
	sessionGroup.POST("/previews", controller.StartBatch)
	sessionGroup.POST("/previews/:styleId/retry", controller.RetryPreview)
	sessionGroup.POST("/refine", controller.Refine)
	sessionGroup.POST("/custom", controller.CustomGenerate)
}

func (controller *StudioController) ListStyles(c echo.Context) error {
	return c.JSON(http.StatusOK, StylesListResponse{
		Styles:   models.StylesByCategory(models.CategoryStyle),
		Colors:   models.StylesByCategory(models.CategoryColor),
		Creative: models.StylesByCategory(models.CategoryCreative),
	})
}

// PresignUpload hands the browser a presigned PUT link so the source photo
// never travels through this server on upload.
func (controller *StudioController) PresignUpload(c echo.Context) error {
	var req UploadFileIn
	if err := c.Bind(&req); err != nil {
		fmt.Println(err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if controller.AWSService == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "File uploads are not configured"})
	}

	var bucketName = services.GetEnv("R2_BUCKET_NAME", "")
	fileKey := fmt.Sprintf("sources/%s/%s", uuid.NewString(), *req.FileName)
	uploadUrl, presignErr := controller.AWSService.PresignLink(context.Background(), bucketName, fileKey)
	if presignErr != nil {
		log.Printf("Unable to presign upload for %s!, %s", *req.FileName, presignErr)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"message": "Error while preparing photo upload",
		})
	}

	return c.JSON(http.StatusCreated, UploadCreatedResponse{
		FileKey:       fileKey,
		FileUploadUrl: uploadUrl,
	})
}

// CreateSession opens a studio session from an inline base64 photo or from a
// previously uploaded object key. The photo is normalized before it becomes
// the session source: every generation call reuses these exact bytes.
func (controller *StudioController) CreateSession(c echo.Context) error {
	var req CreateSessionIn
	if err := c.Bind(&req); err != nil {
		fmt.Println(err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	var sourceBytes []byte
	switch {
	case strings.TrimSpace(req.Image) != "":
		decoded, _, err := services.DecodeImagePayload(req.Image, req.MimeType)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Could not decode photo", "details": err.Error()})
		}
		sourceBytes = decoded
	case req.FileKey != nil && *req.FileKey != "":
		if controller.AWSService == nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "File uploads are not configured"})
		}
		var bucketName = services.GetEnv("R2_BUCKET_NAME", "")
		readURL, err := controller.AWSService.GetPresignedR2FileReadURL(context.Background(), bucketName, *req.FileKey)
		if err != nil {
			sentry.CaptureException(fmt.Errorf("failed to presign read for uploaded photo %s: %v", *req.FileKey, err))
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Could not read uploaded photo"})
		}
		fetched, err := services.ReadFileFromUrl(readURL)
		if err != nil {
			sentry.CaptureException(fmt.Errorf("failed to fetch uploaded photo %s: %v", *req.FileKey, err))
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Could not read uploaded photo"})
		}
		sourceBytes = fetched
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Photo is required, provide image or file_key"})
	}

	normalized, err := services.NormalizeSourceImage(sourceBytes, maxSourceImageDimension)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unsupported photo format", "details": err.Error()})
	}

	session := controller.Store.Create(normalized, "image/png")
	fmt.Printf("[Session %s] Created, source photo %v bytes\n", session.ID, len(normalized))
	return c.JSON(http.StatusCreated, session.View())
}

func (controller *StudioController) GetSession(c echo.Context) error {
	session := c.Get("currentSession").(*studio.Session)
	view := session.View()

	// Archived results are served through short-lived presigned links; the
	// cache keeps polling from presigning on every request.
	if key := session.ArchiveKey(); key != "" && controller.URLCache != nil {
		readURL, err := controller.URLCache.GetReadURL(c.Request().Context(), key)
		if err != nil {
			fmt.Printf("[Session %s] Failed to resolve archive URL: %v\n", session.ID, err)
		} else if readURL != "" {
			view.ResultImageURL = &readURL
		}
	}

	return c.JSON(http.StatusOK, view)
}

func (controller *StudioController) DeleteSession(c echo.Context) error {
	session := c.Get("currentSession").(*studio.Session)
	controller.Store.Delete(session.ID)
	fmt.Printf("[Session %s] Cleared\n", session.ID)
	return c.NoContent(http.StatusNoContent)
}

// StartBatch kicks off the preview batch in the background and returns 202;
// the client polls the session for per-style progress. A second start while
// any orchestration is active is rejected with 409.
func (controller *StudioController) StartBatch(c echo.Context) error {
	session := c.Get("currentSession").(*studio.Session)

	if !session.HasSourceImage() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Session has no photo, upload one first"})
	}

	err := controller.Orchestrator.StartBatchAsync(context.Background(), session)
	if errors.Is(err, studio.ErrGenerationInFlight) {
		return c.JSON(http.StatusConflict, map[string]string{"error": "A generation is already running for this session"})
	}
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[Session %s] failed to start batch: %v", session.ID, err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Could not start preview generation"})
	}

	return c.JSON(http.StatusAccepted, session.View())
}

// RetryPreview re-runs a single style synchronously. Unknown style ids are a
// no-op on purpose, the response simply reflects the unchanged collection.
func (controller *StudioController) RetryPreview(c echo.Context) error {
	session := c.Get("currentSession").(*studio.Session)
	styleID := c.Param("styleId")

	err := controller.Orchestrator.RetrySingle(c.Request().Context(), session, styleID)
	if errors.Is(err, studio.ErrGenerationInFlight) {
		return c.JSON(http.StatusConflict, map[string]string{"error": "A generation is already running for this session"})
	}
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[Session %s] retry %s failed: %v", session.ID, styleID, err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Could not retry this style"})
	}

	return c.JSON(http.StatusOK, session.View())
}

func (controller *StudioController) Refine(c echo.Context) error {
	var req RefineIn
	if err := c.Bind(&req); err != nil {
		fmt.Println(err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	session := c.Get("currentSession").(*studio.Session)
	err := controller.Orchestrator.Refine(c.Request().Context(), session, req.StyleID, req.ColorID)
	if handled := controller.mapGenerationError(c, session, err); handled != nil {
		return handled
	}

	controller.archiveResult(session)
	return c.JSON(http.StatusOK, session.View())
}

func (controller *StudioController) CustomGenerate(c echo.Context) error {
	var req CustomGenerateIn
	if err := c.Bind(&req); err != nil {
		fmt.Println(err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	var referenceBytes []byte
	var referenceMime string
	if strings.TrimSpace(req.ReferenceImage) != "" {
		decoded, mime, err := services.DecodeImagePayload(req.ReferenceImage, "")
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Could not decode reference image", "details": err.Error()})
		}
		referenceBytes = decoded
		referenceMime = mime
	}

	session := c.Get("currentSession").(*studio.Session)
	err := controller.Orchestrator.Custom(c.Request().Context(), session, req.Prompt, referenceBytes, referenceMime)
	if handled := controller.mapGenerationError(c, session, err); handled != nil {
		return handled
	}

	controller.archiveResult(session)
	return c.JSON(http.StatusOK, session.View())
}

// mapGenerationError translates a single-shot failure into the HTTP reply.
// Returns nil when the generation succeeded and the handler should continue.
func (controller *StudioController) mapGenerationError(c echo.Context, session *studio.Session, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, studio.ErrGenerationInFlight) {
		return c.JSON(http.StatusConflict, map[string]string{"error": "A generation is already running for this session"})
	}
	if strings.HasPrefix(err.Error(), "unknown") {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if strings.Contains(err.Error(), "429") {
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "Too many requests, please wait a moment and try again"})
	}
	sentry.CaptureException(fmt.Errorf("[Session %s] single-shot generation failed: %v", session.ID, err))
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Generation failed, please try again"})
}

// archiveResult uploads the freshly generated result to R2 so later polls
// can serve it through a presigned link instead of the inline data-URL.
// Best effort: an archive failure never fails the generation reply.
func (controller *StudioController) archiveResult(session *studio.Session) {
	if controller.AWSService == nil {
		return
	}
	var bucketName = services.GetEnv("R2_BUCKET_NAME", "")
	if bucketName == "" {
		return
	}

	view := session.View()
	if view.ResultImageURL == nil {
		return
	}
	imageBytes, _, err := services.DecodeImagePayload(*view.ResultImageURL, "")
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[Session %s] could not decode result for archive: %v", session.ID, err))
		return
	}

	archiveKey := fmt.Sprintf("results/%s/%s.png", session.ID, uuid.NewString())
	uploadUrl, err := controller.AWSService.PresignLink(context.Background(), bucketName, archiveKey)
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[Session %s] could not presign archive upload: %v", session.ID, err))
		return
	}
	_, statusCode, err := controller.AWSService.UploadToPresignedURL(context.Background(), bucketName, uploadUrl, imageBytes)
	if err != nil || statusCode < 200 || statusCode > 299 {
		sentry.CaptureException(fmt.Errorf("[Session %s] archive upload failed, status %v: %v", session.ID, statusCode, err))
		return
	}

	session.SetArchiveKey(archiveKey)
	fmt.Printf("[Session %s] Result archived as %s\n", session.ID, archiveKey)
}
