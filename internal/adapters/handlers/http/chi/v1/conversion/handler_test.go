package conversion_test

import (
	"bytes"
	"errors"
	"formatwave/internal/adapters/handlers/http/chi"
	conversionhttp "formatwave/internal/adapters/handlers/http/chi/v1/conversion"
	"formatwave/internal/core/domain"
	"formatwave/internal/core/service/conversion"
	"formatwave/internal/core/service/packager"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler  http.Handler
	service  *conversion.MockConversionService
	packager *packager.MockPackagerService
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	discardLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := conversion.NewMockConversionService()
	packagerService := packager.NewMockPackagerService()
	handler := conversionhttp.NewConversionHandlerV1(service, packagerService, discardLogger)
	t.Cleanup(func() {
		service.AssertExpectations(t)
		packagerService.AssertExpectations(t)
	})
	return testServer{
		handler:  chi.NewRouter(discardLogger, handler, "", chi.Options{}),
		service:  service,
		packager: packagerService,
	}
}

type part struct {
	filename string
	content  string
}

func multipartRequest(t *testing.T, conversionID string, parts ...part) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if conversionID != "" {
		require.NoError(t, writer.WriteField("conversion_id", conversionID))
	}
	for _, p := range parts {
		fw, err := writer.CreateFormFile("files", p.filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(p.content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/convert", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// fakeBundle is an in-memory port.BundleStream
type fakeBundle struct {
	filename string
	content  []byte
	err      error
	closed   bool
}

func (b *fakeBundle) Filename() string { return b.filename }

func (b *fakeBundle) WriteTo(w io.Writer) (int64, error) {
	if b.err != nil {
		return 0, b.err
	}
	n, err := w.Write(b.content)
	return int64(n), err
}

func (b *fakeBundle) Close() error {
	b.closed = true
	return nil
}

var errBoom = errors.New("boom")

func sampleSession() *domain.Session {
	return &domain.Session{ConversionID: "png-to-jpg", Status: domain.SessionStatusActive}
}
