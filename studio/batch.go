package studio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hairtryapi/models"
	"hairtryapi/services"

	"github.com/getsentry/sentry-go"
)

// BatchItemDelay is the fixed throttle before every automated batch item.
// The external API has no documented quota, one request per 1.5s is what it
// tolerates in practice. Manual retries are not throttled.
const BatchItemDelay = 1500 * time.Millisecond

// ErrGenerationInFlight is returned when a second orchestration is started
// against a session that already has one active.
var ErrGenerationInFlight = errors.New("another generation is already in progress for this session")

const tooManyRequestsMessage = "Too many requests, please wait a moment and try again"

// Orchestrator drives generation calls against one session: the sequential
// preview batch, single-style retries and the refine/custom single shots.
// Only ever one call in flight per session.
type Orchestrator struct {
	Generator services.ImageGenProvider
	// Throttle is the pre-item delay of the batch loop, BatchItemDelay in
	// production and zero in tests.
	Throttle time.Duration
}

func NewOrchestrator(generator services.ImageGenProvider) *Orchestrator {
	return &Orchestrator{Generator: generator, Throttle: BatchItemDelay}
}

func BuildStylePrompt(style models.StyleOption) string {
	return fmt.Sprintf("Change hair to %s", style.Prompt)
}

func BuildRefinePrompt(style models.StyleOption, color *models.StyleOption) string {
	prompt := fmt.Sprintf("Change hair to %s", style.Prompt)
	if color != nil {
		prompt = fmt.Sprintf("%s, in %s", prompt, color.Prompt)
	}
	return prompt + ". Keep the face and identity exactly the same."
}

// humanizeGenerationError turns a transport/model error into the message
// stored on the preview. The upstream rate-limit signal carries "429".
func humanizeGenerationError(err error) string {
	if err == nil {
		return ""
	}
	if strings.Contains(err.Error(), "429") {
		return tooManyRequestsMessage
	}
	message := strings.TrimSpace(err.Error())
	if message == "" {
		return "Generation failed, please retry this style"
	}
	return message
}

// RunBatch generates a preview for every catalog style against the session
// source image, strictly in catalog order, one call at a time. Styles whose
// preview already succeeded in a prior run are skipped so quota is never
// re-spent on completed work; skip decisions come from a snapshot taken at
// loop entry. A failed item records its error and the loop moves on: one
// style failing must never abort the rest of the batch.
func (o *Orchestrator) RunBatch(ctx context.Context, session *Session) error {
	if !session.HasSourceImage() {
		fmt.Printf("[Session %s] Batch requested without a source image, skipping\n", session.ID)
		return nil
	}
	if !session.TryAcquireFlight() {
		return ErrGenerationInFlight
	}
	defer session.ReleaseFlight()
	session.SetStatus(models.SessionBatchRunning)

	o.runBatch(ctx, session)
	return nil
}

// StartBatchAsync acquires the in-flight slot synchronously so the caller
// can report a conflict right away, then runs the batch in the background.
// Progress is observed by polling the session.
func (o *Orchestrator) StartBatchAsync(ctx context.Context, session *Session) error {
	if !session.HasSourceImage() {
		return fmt.Errorf("session has no source image")
	}
	if !session.TryAcquireFlight() {
		return ErrGenerationInFlight
	}
	session.SetStatus(models.SessionBatchRunning)
	go func() {
		defer session.ReleaseFlight()
		o.runBatch(ctx, session)
	}()
	return nil
}

func (o *Orchestrator) runBatch(ctx context.Context, session *Session) {
	snapshot := session.SnapshotPreviews()
	sourceImage, mimeType := session.Source()
	for _, style := range models.StyleCatalog {
		if existing, ok := snapshot[style.ID]; ok && existing.Status == models.PreviewSuccess {
			fmt.Printf("[Session %s] Style %s already generated, skipping\n", session.ID, style.ID)
			continue
		}

		session.SetPreviewLoading(style.ID)
		if o.Throttle > 0 {
			time.Sleep(o.Throttle)
		}

		result, err := o.Generator.Generate(ctx, services.GenerationRequest{
			Prompt:   BuildStylePrompt(style),
			Image:    sourceImage,
			MimeType: mimeType,
		})
		if err != nil {
			fmt.Printf("[Session %s] Style %s failed: %v\n", session.ID, style.ID, err)
			sentry.CaptureException(fmt.Errorf("[Session %s] batch item %s failed: %v", session.ID, style.ID, err))
			session.SetPreviewError(style.ID, humanizeGenerationError(err))
			continue
		}
		session.SetPreviewSuccess(style.ID, result.ImageURL)
		fmt.Printf("[Session %s] Style %s generated\n", session.ID, style.ID)
	}
}

// RetrySingle re-runs generation for exactly one style. Unknown style ids
// and sessions without a photo are silent no-ops; other previews are never
// touched. No throttle delay applies to a manual retry.
func (o *Orchestrator) RetrySingle(ctx context.Context, session *Session, styleID string) error {
	style, ok := models.StyleByID(styleID)
	if !ok {
		fmt.Printf("[Session %s] Retry requested for unknown style %q, skipping\n", session.ID, styleID)
		return nil
	}
	if !session.HasSourceImage() {
		return nil
	}
	if !session.TryAcquireFlight() {
		return ErrGenerationInFlight
	}
	defer session.ReleaseFlight()

	session.SetPreviewLoading(style.ID)
	sourceImage, mimeType := session.Source()
	result, err := o.Generator.Generate(ctx, services.GenerationRequest{
		Prompt:   BuildStylePrompt(style),
		Image:    sourceImage,
		MimeType: mimeType,
	})
	if err != nil {
		fmt.Printf("[Session %s] Retry for style %s failed: %v\n", session.ID, style.ID, err)
		sentry.CaptureException(fmt.Errorf("[Session %s] retry %s failed: %v", session.ID, style.ID, err))
		session.SetPreviewError(style.ID, humanizeGenerationError(err))
		return nil
	}
	session.SetPreviewSuccess(style.ID, result.ImageURL)
	return nil
}

// Refine runs the high-fidelity single shot composing a catalog style with
// an optional catalog color and replaces the session result slot. Failure
// is surfaced on the session and the status reverts to ready so the user
// can resubmit.
func (o *Orchestrator) Refine(ctx context.Context, session *Session, styleID string, colorID string) error {
	style, ok := models.StyleByID(styleID)
	if !ok {
		return fmt.Errorf("unknown style %q", styleID)
	}
	var color *models.StyleOption
	if colorID != "" {
		picked, ok := models.StyleByID(colorID)
		if !ok {
			return fmt.Errorf("unknown color %q", colorID)
		}
		color = &picked
	}
	return o.singleShot(ctx, session, BuildRefinePrompt(style, color), nil, "")
}

// Custom runs the high-fidelity single shot with a free-form prompt and an
// optional reference image.
func (o *Orchestrator) Custom(ctx context.Context, session *Session, prompt string, reference []byte, referenceMimeType string) error {
	return o.singleShot(ctx, session, prompt, reference, referenceMimeType)
}

func (o *Orchestrator) singleShot(ctx context.Context, session *Session, prompt string, reference []byte, referenceMimeType string) error {
	if !session.HasSourceImage() {
		return fmt.Errorf("session has no source image")
	}
	if !session.TryAcquireFlight() {
		return ErrGenerationInFlight
	}
	defer session.ReleaseFlight()
	session.SetStatus(models.SessionRefining)

	sourceImage, mimeType := session.Source()
	result, err := o.Generator.Generate(ctx, services.GenerationRequest{
		Prompt:            prompt,
		Image:             sourceImage,
		MimeType:          mimeType,
		Reference:         reference,
		ReferenceMimeType: referenceMimeType,
		HighFidelity:      true,
	})
	if err != nil {
		fmt.Printf("[Session %s] Single-shot generation failed: %v\n", session.ID, err)
		sentry.CaptureException(fmt.Errorf("[Session %s] single-shot generation failed: %v", session.ID, err))
		session.SetLastError(humanizeGenerationError(err))
		return err
	}

	session.SetResult(result.ImageURL)
	return nil
}
