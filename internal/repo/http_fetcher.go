package repo

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultDriveURL = "https://drive.usercontent.google.com/download"

// HTTPFetcher downloads http(s) and Google Drive artifacts.
type HTTPFetcher struct {
	httpClient *http.Client
	maxBytes   int64
	driveURL   string
}

// NewHTTPFetcher constructs a fetcher bounded by timeout and maxBytes (0 disables the size cap).
func NewHTTPFetcher(timeout time.Duration, maxBytes int64) *HTTPFetcher {
	return &HTTPFetcher{
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   maxBytes,
		driveURL:   defaultDriveURL,
	}
}

// WithDriveURL points gdrive downloads at another endpoint, e.g. a local mirror.
func (f *HTTPFetcher) WithDriveURL(endpoint string) *HTTPFetcher {
	if endpoint != "" {
		f.driveURL = endpoint
	}
	return f
}

// Fetch implements Fetcher for http and gdrive references.
func (f *HTTPFetcher) Fetch(ctx context.Context, ref Ref) ([]byte, error) {
	if f == nil {
		return nil, fmt.Errorf("http fetcher not initialised")
	}
	switch ref.Scheme {
	case SchemeHTTP:
		return f.get(ctx, ref.URL)
	case SchemeGDrive:
		data, err := f.get(ctx, f.driveDownloadURL(ref.ID))
		if err != nil {
			return nil, fmt.Errorf("drive download %s: %w", ref.ID, err)
		}
		// Drive answers with an HTML interstitial instead of the file when it cannot serve it
		// directly (quota, permissions).
		if looksLikeHTML(data) {
			return nil, fmt.Errorf("drive download %s: received an HTML page instead of file content", ref.ID)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("http fetcher cannot handle %s references", ref.Scheme)
	}
}

func (f *HTTPFetcher) driveDownloadURL(id string) string {
	u, err := url.Parse(f.driveURL)
	if err != nil {
		return f.driveURL + "?id=" + url.QueryEscape(id)
	}
	q := u.Query()
	q.Set("id", id)
	q.Set("export", "download")
	q.Set("confirm", "t")
	u.RawQuery = q.Encode()
	return u.String()
}

func (f *HTTPFetcher) get(ctx context.Context, endpoint string) ([]byte, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("empty endpoint")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, endpoint)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("artifact host returned %s", resp.Status)
	}
	data, err := readLimited(resp.Body, f.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}

func looksLikeHTML(data []byte) bool {
	head := bytes.TrimSpace(data)
	if len(head) > 64 {
		head = head[:64]
	}
	lower := strings.ToLower(string(head))
	return strings.HasPrefix(lower, "<!doctype html") || strings.HasPrefix(lower, "<html")
}
