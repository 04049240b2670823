package ocr

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testExtractor(t *testing.T) *VisionExtractor {
	t.Helper()

	extractor, err := NewVisionExtractor(VisionConfig{
		APIKey:       "test-key",
		FetchTimeout: 2 * time.Second,
		Logger:       zerolog.New(io.Discard),
	})
	require.NoError(t, err)
	return extractor
}

// pngPayload returns a syntactically valid PNG header padded past the
// plausibility floor.
func pngPayload() []byte {
	header := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	return append(header, bytes.Repeat([]byte{0x00}, minImageBytes)...)
}

func TestValidateImageAcceptsPNG(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(pngPayload())
	}))
	defer server.Close()

	require.NoError(t, testExtractor(t).validateImage(context.Background(), server.URL))
}

func TestValidateImageRejectsNonImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte("plain text, definitely not an image. "), 100))
	}))
	defer server.Close()

	require.Error(t, testExtractor(t).validateImage(context.Background(), server.URL))
}

func TestValidateImageRejectsTinyPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte{0x89, 0x50, 0x4E, 0x47})
	}))
	defer server.Close()

	require.Error(t, testExtractor(t).validateImage(context.Background(), server.URL))
}

func TestValidateImageRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	require.Error(t, testExtractor(t).validateImage(context.Background(), server.URL))
}

func TestExtractTextDegradesToEmptyString(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	text, err := testExtractor(t).ExtractText(context.Background(), server.URL)
	require.NoError(t, err)
	require.Empty(t, text)
}

func TestExtractTextPropagatesCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testExtractor(t).ExtractText(ctx, server.URL)
	require.ErrorIs(t, err, context.Canceled)
}
