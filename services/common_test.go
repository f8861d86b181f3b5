package services

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeImagePayloadRawBase64(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("fake image bytes"))

	data, mimeType, err := DecodeImagePayload(payload, "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, []byte("fake image bytes"), data)
	assert.Equal(t, "image/jpeg", mimeType)
}

func TestDecodeImagePayloadDataURL(t *testing.T) {
	payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("fake image bytes"))

	data, mimeType, err := DecodeImagePayload(payload, "")

	require.NoError(t, err)
	assert.Equal(t, []byte("fake image bytes"), data)
	assert.Equal(t, "image/png", mimeType)
}

func TestDecodeImagePayloadExplicitMimeWins(t *testing.T) {
	payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("fake image bytes"))

	_, mimeType, err := DecodeImagePayload(payload, "image/webp")

	require.NoError(t, err)
	assert.Equal(t, "image/webp", mimeType)
}

func TestDecodeImagePayloadInvalid(t *testing.T) {
	_, _, err := DecodeImagePayload("", "")
	require.Error(t, err)

	_, _, err = DecodeImagePayload("!!!not base64!!!", "")
	require.Error(t, err)

	_, _, err = DecodeImagePayload("data:image/png;base64", "")
	require.Error(t, err)
}

func TestEncodeDataURLRoundTrip(t *testing.T) {
	original := []byte("fake image bytes")

	dataURL := EncodeDataURL(original, "image/png")
	decoded, mimeType, err := DecodeImagePayload(dataURL, "")

	require.NoError(t, err)
	assert.Equal(t, original, decoded)
	assert.Equal(t, "image/png", mimeType)
}

func TestIsAllowedImageMimeType(t *testing.T) {
	assert.True(t, IsAllowedImageMimeType("image/png"))
	assert.True(t, IsAllowedImageMimeType("image/jpeg"))
	assert.True(t, IsAllowedImageMimeType("IMAGE/PNG"))
	assert.False(t, IsAllowedImageMimeType("application/pdf"))
	assert.False(t, IsAllowedImageMimeType(""))
}

func TestGetEnv(t *testing.T) {
	t.Setenv("HAIRTRY_TEST_ENV_KEY", "set")
	assert.Equal(t, "set", GetEnv("HAIRTRY_TEST_ENV_KEY", "fallback"))
	assert.Equal(t, "fallback", GetEnv("HAIRTRY_TEST_ENV_KEY_MISSING", "fallback"))
}

func TestStrPointer(t *testing.T) {
	assert.Nil(t, StrPointer(""))
	require.NotNil(t, StrPointer("value"))
	assert.Equal(t, "value", *StrPointer("value"))
}
