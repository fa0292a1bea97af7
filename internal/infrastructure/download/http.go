package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/JungesAngebot/platform-connectors/internal/domain/repository"
)

// HTTPDownloader implements repository.SourceDownloader with a plain
// streaming GET. Source files can be large, so no overall client timeout is
// set; cancellation comes from the request context.
type HTTPDownloader struct {
	client *http.Client
}

// Compile-time verification that HTTPDownloader implements repository.SourceDownloader.
var _ repository.SourceDownloader = (*HTTPDownloader)(nil)

// NewHTTPDownloader creates a new HTTPDownloader.
func NewHTTPDownloader() *HTTPDownloader {
	return &HTTPDownloader{client: &http.Client{}}
}

// Download fetches url and writes the body to path, creating parent
// directories as needed.
func (d *HTTPDownloader) Download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", url, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("get %s: unexpected status %d", url, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create local file: %w", err)
	}

	if _, err := io.Copy(file, resp.Body); err != nil {
		_ = file.Close()
		return fmt.Errorf("copy to local file: %w", err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("close local file: %w", err)
	}

	return nil
}
