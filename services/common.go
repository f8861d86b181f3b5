package services

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

var allowedImageMimeTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/heic": true,
	"image/webp": true,
}

func IsAllowedImageMimeType(mimeType string) bool {
	return allowedImageMimeTypes[strings.ToLower(mimeType)]
}

func StrPointer(str string) *string {
	if str == "" {
		return nil
	}
	return &str
}

func GetEnv(key, fallback string) string {
	value := os.Getenv(key)
	if len(value) == 0 {
		return fallback
	}
	return value
}

// DecodeImagePayload accepts a raw base64 string or a full data-URL
// ("data:image/png;base64,....") and returns the image bytes plus the mime
// type. An explicit mimeType argument wins over the data-URL prefix.
func DecodeImagePayload(payload string, mimeType string) ([]byte, string, error) {
	raw := strings.TrimSpace(payload)
	if raw == "" {
		return nil, "", fmt.Errorf("empty image payload")
	}
	if strings.HasPrefix(raw, "data:") {
		headerEnd := strings.Index(raw, ",")
		if headerEnd < 0 {
			return nil, "", fmt.Errorf("malformed data URL, missing comma separator")
		}
		header := raw[len("data:"):headerEnd]
		raw = raw[headerEnd+1:]
		if mimeType == "" {
			mimeType = strings.TrimSuffix(header, ";base64")
		}
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode base64 image: %v", err)
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, nil
}

// EncodeDataURL renders image bytes as the data-URL string used by the relay
// response contract.
func EncodeDataURL(data []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

func ReadFileFromUrl(url string) ([]byte, error) {
	httpClient := &http.Client{}
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %v", err)
	}

	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get response: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch file, status code: %d", resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %v", err)
	}

	return content, nil
}
