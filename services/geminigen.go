package services

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"
)

// ImageModelName is the GenAI image model to use for a generation call.
type ImageModelName int32

const (
	Flash25Image ImageModelName = iota
	Flash20Image
)

func (t ImageModelName) String() string {
	switch t {
	case Flash25Image:
		return "gemini-2.5-flash-image-preview"
	case Flash20Image:
		return "gemini-2.0-flash-preview-image-generation"
	default:
		return "gemini-2.5-flash-image-preview"
	}
}

func floatPointer(f float32) *float32 {
	return &f
}

func Int32Pointer(i int32) *int32 {
	return &i
}

// GenerationRequest is one styled-image generation call against the external
// model: the source photo, the derived prompt, and optionally a reference
// image the model should take cues from.
type GenerationRequest struct {
	Prompt            string
	Image             []byte
	MimeType          string
	Reference         []byte
	ReferenceMimeType string
	HighFidelity      bool
}

type GenerationResult struct {
	ImageURL         string `json:"image_url"`
	Text             string `json:"text"`
	InputTokenCount  int32  `json:"input_token_count"`
	OutputTokenCount int32  `json:"output_token_count"`
	TotalTokenCount  int32  `json:"total_token_count"`
}

type ImageGenProvider interface {
	Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error)
}

const hairEditSystemInstruction = `Edit the hair of the person in the first image exactly as the prompt describes, keeping identity, personality and facial identity (100% same) unchanged. Keep the original pose, framing, background and lighting. If a second image is provided, use it only as a style reference for the hair. Output only the edited photo of the same person. If no person is detected in the image return NO_PERSON as response.`

// FirstInlineImage extracts the first inline image from a generation
// response together with its mime type. Safety-blocked candidates abort the
// whole call.
func FirstInlineImage(result *genai.GenerateContentResponse) ([]byte, string, error) {
	if result == nil {
		return nil, "", fmt.Errorf("nil generation response")
	}

	for _, cand := range result.Candidates {
		for _, rating := range cand.SafetyRatings {
			if rating.Blocked {
				return nil, "", fmt.Errorf("content blocked by safety setting: %s", rating.Category)
			}
		}
		if cand.Content == nil || len(cand.Content.Parts) == 0 {
			continue
		}

		for _, part := range cand.Content.Parts {
			inlineData := part.InlineData
			if inlineData == nil {
				continue
			}
			if strings.HasPrefix(inlineData.MIMEType, "image/") && len(inlineData.Data) > 0 {
				return inlineData.Data, inlineData.MIMEType, nil
			}
		}
	}

	return nil, "", nil
}

// GoogleImageGenerator talks to the Gemini image model directly. It is the
// upstream side of the relay.
type GoogleImageGenerator struct{}

func (GoogleImageGenerator) Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  os.Getenv("GOOGLE_API_KEY"),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %v", err)
	}

	var parts []*genai.Part
	parts = append(parts, &genai.Part{
		InlineData: &genai.Blob{
			Data:     req.Image,
			MIMEType: req.MimeType,
		},
	})
	if len(req.Reference) > 0 {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				Data:     req.Reference,
				MIMEType: req.ReferenceMimeType,
			},
		})
	}

	prompt := req.Prompt
	maxOutputTokens := int32(8192)
	if req.HighFidelity {
		prompt = prompt + ". High-resolution, full detail, photorealistic finish."
		maxOutputTokens = 32768
	} else {
		prompt = prompt + ". Fast draft preview quality is acceptable."
	}
	parts = append(parts, &genai.Part{Text: prompt})

	model := Flash25Image
	result, err := client.Models.GenerateContent(ctx, model.String(), []*genai.Content{{Parts: parts}}, &genai.GenerateContentConfig{
		CandidateCount:  1,
		MaxOutputTokens: maxOutputTokens,
		Temperature:     floatPointer(1),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{
				{Text: hairEditSystemInstruction},
			},
		},
	})
	if err != nil {
		fmt.Println("Error in GenerateContent:", err)
		return nil, fmt.Errorf("%v", err)
	}

	var inputTokenCount, outputTokenCount, totalTokenCount int32
	if result.UsageMetadata != nil {
		inputTokenCount = result.UsageMetadata.PromptTokenCount
		outputTokenCount = result.UsageMetadata.CandidatesTokenCount
		totalTokenCount = result.UsageMetadata.TotalTokenCount
		fmt.Println("Input token count:", inputTokenCount)
		fmt.Println("Output token count:", outputTokenCount)
		fmt.Println("Total token count:", totalTokenCount)
	} else {
		fmt.Println("UsageMetadata is nil!")
	}

	if result.PromptFeedback != nil {
		fmt.Println(result.PromptFeedback.BlockReason)
		fmt.Println(result.PromptFeedback.BlockReasonMessage)
		fmt.Println(result.PromptFeedback.SafetyRatings)
		return nil, fmt.Errorf("content violation: %s", result.PromptFeedback.BlockReasonMessage)
	}

	fmt.Println("Number of candidates received:", len(result.Candidates))
	imageBytes, imageMime, err := FirstInlineImage(result)
	if err != nil {
		fmt.Println("Error getting candidate image: ", err)
		return nil, fmt.Errorf("error getting candidate image: %v", err)
	}
	if len(imageBytes) == 0 {
		fmt.Println("Model returned no image, text was:", result.Text())
		return nil, fmt.Errorf("model returned no image")
	}

	return &GenerationResult{
		ImageURL:         EncodeDataURL(imageBytes, imageMime),
		Text:             result.Text(),
		InputTokenCount:  inputTokenCount,
		OutputTokenCount: outputTokenCount,
		TotalTokenCount:  totalTokenCount,
	}, nil
}
