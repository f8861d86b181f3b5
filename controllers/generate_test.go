package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hairtryapi/services"
	"hairtryapi/studio"
	"hairtryapi/test"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	e     *echo.Echo
	store *studio.Store
}

func setupTestServer(gen *test.GeneratorMock) *testServer {
	store := studio.NewStore()
	orchestrator := &studio.Orchestrator{Generator: gen, Throttle: 0}
	e := SetupServer(store, gen, orchestrator, &test.AWSProviderMock{}, test.URLCacheMock{})
	return &testServer{e: e, store: store}
}

func TestGenerateOk(t *testing.T) {
	gen := &test.GeneratorMock{}
	srv := setupTestServer(gen)

	reqBody := services.RelayGenerateIn{
		Image:  test.TinyPNGBase64(),
		Prompt: "Change hair to a very short buzz cut",
	}
	req := test.NewJSONRequest("POST", "/api/generate", reqBody)
	rec := httptest.NewRecorder()

	srv.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, "Expected status code 200 OK, got %d: %s", rec.Code, rec.Body.String())

	var response services.RelayGenerateOut
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(t, err)
	require.NotNil(t, response.ImageURL)
	require.True(t, strings.HasPrefix(*response.ImageURL, "data:image/"))
	require.Equal(t, "done", response.Text)

	calls := gen.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, reqBody.Prompt, calls[0].Prompt)
	require.NotEmpty(t, calls[0].Image)
}

func TestGenerateAcceptsDataURL(t *testing.T) {
	gen := &test.GeneratorMock{}
	srv := setupTestServer(gen)

	reqBody := services.RelayGenerateIn{
		Image:  "data:image/png;base64," + test.TinyPNGBase64(),
		Prompt: "Change hair to a short textured pixie cut",
	}
	req := test.NewJSONRequest("POST", "/api/generate", reqBody)
	rec := httptest.NewRecorder()

	srv.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	calls := gen.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, "image/png", calls[0].MimeType)
}

func TestGenerateMissingInput(t *testing.T) {
	gen := &test.GeneratorMock{}
	srv := setupTestServer(gen)

	cases := []services.RelayGenerateIn{
		{Prompt: "Change hair to a very short buzz cut"},
		{Image: test.TinyPNGBase64()},
		{},
	}
	for _, reqBody := range cases {
		req := test.NewJSONRequest("POST", "/api/generate", reqBody)
		rec := httptest.NewRecorder()

		srv.e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var response services.RelayErrorOut
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, "Image and prompt are required", response.Error)
	}
	assert.Equal(t, 0, gen.CallCount())
}

func TestGenerateRateLimited(t *testing.T) {
	gen := &test.GeneratorMock{FailWith: map[string]string{"limit-test": "googleapi: Error 429: quota exceeded"}}
	srv := setupTestServer(gen)

	reqBody := services.RelayGenerateIn{
		Image:  test.TinyPNGBase64(),
		Prompt: "limit-test prompt",
	}
	req := test.NewJSONRequest("POST", "/api/generate", reqBody)
	rec := httptest.NewRecorder()

	srv.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	var response services.RelayErrorOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Equal(t, "Too many requests, please wait a moment and try again", response.Error)
}

func TestGenerateUpstreamFailure(t *testing.T) {
	gen := &test.GeneratorMock{FailWith: map[string]string{"broken": "model returned no image"}}
	srv := setupTestServer(gen)

	reqBody := services.RelayGenerateIn{
		Image:  test.TinyPNGBase64(),
		Prompt: "broken prompt",
	}
	req := test.NewJSONRequest("POST", "/api/generate", reqBody)
	rec := httptest.NewRecorder()

	srv.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var response services.RelayErrorOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Equal(t, "Image generation failed", response.Error)
	require.Contains(t, response.Details, "model returned no image")
}

func TestGenerateBadImagePayload(t *testing.T) {
	gen := &test.GeneratorMock{}
	srv := setupTestServer(gen)

	reqBody := services.RelayGenerateIn{
		Image:  "not-base64-at-all!!!",
		Prompt: "Change hair to a very short buzz cut",
	}
	req := test.NewJSONRequest("POST", "/api/generate", reqBody)
	rec := httptest.NewRecorder()

	srv.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, 0, gen.CallCount())
}
