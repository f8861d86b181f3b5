package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelayClientGenerateOk(t *testing.T) {
	var received RelayGenerateIn
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		imageURL := "data:image/png;base64,cHJldmlldw=="
		json.NewEncoder(w).Encode(RelayGenerateOut{ImageURL: &imageURL, Text: "done"})
	}))
	defer server.Close()

	client := NewRelayClient(server.URL)
	result, err := client.Generate(context.Background(), GenerationRequest{
		Prompt:   "Change hair to a very short buzz cut",
		Image:    []byte("fake image bytes"),
		MimeType: "image/png",
	})

	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,cHJldmlldw==", result.ImageURL)
	assert.Equal(t, "done", result.Text)
	assert.Equal(t, "Change hair to a very short buzz cut", received.Prompt)
	assert.True(t, strings.HasPrefix(received.Image, "data:image/png;base64,"))
	assert.Empty(t, received.ReferenceImage)
}

func TestRelayClientSendsReferenceImage(t *testing.T) {
	var received RelayGenerateIn
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		imageURL := "data:image/png;base64,cHJldmlldw=="
		json.NewEncoder(w).Encode(RelayGenerateOut{ImageURL: &imageURL})
	}))
	defer server.Close()

	client := NewRelayClient(server.URL)
	_, err := client.Generate(context.Background(), GenerationRequest{
		Prompt:            "wolf cut",
		Image:             []byte("fake image bytes"),
		MimeType:          "image/png",
		Reference:         []byte("reference bytes"),
		ReferenceMimeType: "image/jpeg",
	})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(received.ReferenceImage, "data:image/jpeg;base64,"))
}

func TestRelayClientSurfacesRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(RelayErrorOut{Error: "quota exceeded"})
	}))
	defer server.Close()

	client := NewRelayClient(server.URL)
	_, err := client.Generate(context.Background(), GenerationRequest{
		Prompt: "x", Image: []byte("fake"), MimeType: "image/png",
	})

	// The "429" marker must survive into the error string, the orchestrator
	// keys its humanized message off it.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestRelayClientSurfacesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(RelayErrorOut{Error: "Image generation failed", Details: "model returned no image"})
	}))
	defer server.Close()

	client := NewRelayClient(server.URL)
	_, err := client.Generate(context.Background(), GenerationRequest{
		Prompt: "x", Image: []byte("fake"), MimeType: "image/png",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Image generation failed")
}

func TestRelayClientGenericFallbackWithoutErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewRelayClient(server.URL)
	_, err := client.Generate(context.Background(), GenerationRequest{
		Prompt: "x", Image: []byte("fake"), MimeType: "image/png",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "relay returned status 502")
}

func TestRelayClientRejectsEmptyImageResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(RelayGenerateOut{ImageURL: nil, Text: "no person detected"})
	}))
	defer server.Close()

	client := NewRelayClient(server.URL)
	_, err := client.Generate(context.Background(), GenerationRequest{
		Prompt: "x", Image: []byte("fake"), MimeType: "image/png",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no image")
}
