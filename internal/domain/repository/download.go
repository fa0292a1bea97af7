package repository

import "context"

// SourceDownloader streams remote artifacts (source media, captions) to the
// local staging directory.
type SourceDownloader interface {
	// Download fetches url and writes the body to path, creating parent
	// directories as needed. A non-2xx response is an error.
	Download(ctx context.Context, url, path string) error
}
