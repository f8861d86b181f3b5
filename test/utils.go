package test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"hairtryapi/services"
)

func JsonString(model interface{}) string {
	bytes, _ := json.Marshal(model)
	return string(bytes)
}

func NewJSONRequest(method string, target string, param interface{}) *http.Request {

	req := httptest.NewRequest(method, target, strings.NewReader(JsonString(param)))
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	return req
}

func NewRefString(data string) *string {
	return &data
}

// TinyPNG returns a small valid PNG for upload payloads in tests.
func TinyPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(1, 1, color.RGBA{B: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func TinyPNGBase64() string {
	return base64.StdEncoding.EncodeToString(TinyPNG())
}

// GeneratorMock records every generation call and fails the ones whose
// prompt contains a key of FailWith. Each successful call gets its own
// data-URL so tests can tell results apart.
type GeneratorMock struct {
	mu       sync.Mutex
	calls    []services.GenerationRequest
	FailWith map[string]string
	Delay    time.Duration
}

func (m *GeneratorMock) Generate(ctx context.Context, req services.GenerationRequest) (*services.GenerationResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	callNumber := len(m.calls)
	m.mu.Unlock()

	if m.Delay > 0 {
		time.Sleep(m.Delay)
	}
	for marker, message := range m.FailWith {
		if strings.Contains(req.Prompt, marker) {
			return nil, fmt.Errorf("%s", message)
		}
	}
	payload := base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("preview-%d", callNumber)))
	return &services.GenerationResult{
		ImageURL: fmt.Sprintf("data:image/png;base64,%s", payload),
		Text:     "done",
	}, nil
}

func (m *GeneratorMock) Calls() []services.GenerationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]services.GenerationRequest, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *GeneratorMock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *GeneratorMock) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	prompts := make([]string, 0, len(m.calls))
	for _, call := range m.calls {
		prompts = append(prompts, call.Prompt)
	}
	return prompts
}

type AWSProviderMock struct {
	MockUrl string
}

func (awsService AWSProviderMock) InitPresignClient(ctx context.Context) error {
	return nil
}

func (awsService AWSProviderMock) PresignLink(ctx context.Context, bucketName string, fileName string) (string, error) {

	return fmt.Sprintf("https://fakebucketurl.com/%s", fileName), nil
}

func (awsService AWSProviderMock) GetPresignedR2FileReadURL(ctx context.Context, bucketName, fileKey string) (string, error) {
	return awsService.MockUrl, nil
}

func (awsService AWSProviderMock) UploadToPresignedURL(ctx context.Context, bucketName, url string, fileContent []byte) (string, int, error) {
	// Simulate a successful upload
	return url, 204, nil
}

type URLCacheMock struct {
	MockUrl string
}

func (m URLCacheMock) GetReadURL(ctx context.Context, objectKey string) (string, error) {
	if objectKey == "" {
		return "", nil
	}
	if m.MockUrl != "" {
		return m.MockUrl, nil
	}
	return fmt.Sprintf("https://fakebucketurl.com/%s", objectKey), nil
}
