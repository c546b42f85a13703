package repo

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileFetcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perfiles.csv")
	if err := os.WriteFile(path, []byte("Cluster\n0\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	ref, _ := ParseRef(path)
	data, err := NewRouter().Fetch(context.Background(), ref)
	if err != nil || string(data) != "Cluster\n0\n" {
		t.Fatalf("unexpected fetch %q %v", data, err)
	}

	missing, _ := ParseRef(filepath.Join(t.TempDir(), "absent.csv"))
	if _, err := NewRouter().Fetch(context.Background(), missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRouterWithoutFetcher(t *testing.T) {
	ref, _ := ParseRef("s3://bucket/key.parquet")
	if _, err := NewRouter().Fetch(context.Background(), ref); err == nil {
		t.Fatalf("expected error for unregistered scheme")
	}
}

func TestHTTPFetcherDownloads(t *testing.T) {
	fetcher := NewHTTPFetcher(time.Second, 0)
	fetcher.httpClient = newTestClient(roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodGet || req.URL.Path != "/artifacts/mexico.json" {
			t.Fatalf("unexpected request %s %s", req.Method, req.URL)
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewReader([]byte(`{"type":"FeatureCollection","features":[]}`))),
			Header:     make(http.Header),
		}, nil
	}))

	ref, _ := ParseRef("https://example.com/artifacts/mexico.json")
	data, err := fetcher.Fetch(context.Background(), ref)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !bytes.Contains(data, []byte("FeatureCollection")) {
		t.Fatalf("unexpected body %q", data)
	}
}

func TestHTTPFetcherStatusAndSize(t *testing.T) {
	status := http.StatusNotFound
	fetcher := NewHTTPFetcher(time.Second, 4)
	fetcher.httpClient = newTestClient(roundTripFunc(func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Status:     http.StatusText(status),
			Body:       io.NopCloser(bytes.NewReader([]byte("0123456789"))),
			Header:     make(http.Header),
		}, nil
	}))
	ref, _ := ParseRef("https://example.com/casos.parquet")

	if _, err := fetcher.Fetch(context.Background(), ref); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	status = http.StatusBadGateway
	if _, err := fetcher.Fetch(context.Background(), ref); err == nil {
		t.Fatalf("expected error for 502")
	}
	status = http.StatusOK
	if _, err := fetcher.Fetch(context.Background(), ref); err == nil {
		t.Fatalf("expected size limit error")
	}
}

func TestHTTPFetcherDrive(t *testing.T) {
	var page []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") != "abc123" || r.URL.Query().Get("confirm") != "t" {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		_, _ = w.Write(page)
	}))
	defer srv.Close()

	fetcher := NewHTTPFetcher(time.Second, 0).WithDriveURL(srv.URL + "/download")
	ref, _ := ParseRef("gdrive://abc123")

	page = []byte("PAR1....")
	data, err := fetcher.Fetch(context.Background(), ref)
	if err != nil || !bytes.HasPrefix(data, []byte("PAR1")) {
		t.Fatalf("unexpected drive fetch %q %v", data, err)
	}

	page = []byte("<!DOCTYPE html><html><body>Virus scan warning</body></html>")
	if _, err := fetcher.Fetch(context.Background(), ref); err == nil {
		t.Fatalf("expected error for interstitial page")
	}
}

func TestObjectFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/artifacts/2023/perfiles.csv" {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			return
		}
		body := "Cluster,Perfil\n0,A\n"
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Length", "19")
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.Header().Set("Last-Modified", time.Unix(1_700_000_000, 0).UTC().Format(http.TimeFormat))
		_, _ = io.WriteString(w, body)
	}))
	defer srv.Close()

	fetcher, err := NewObjectFetcher(ObjectStoreConfig{
		Endpoint:  srv.Listener.Addr().String(),
		AccessKey: "atlas",
		SecretKey: "atlas-secret",
		Region:    "us-east-1",
	})
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	ref, _ := ParseRef("s3://artifacts/2023/perfiles.csv")
	data, err := fetcher.Fetch(context.Background(), ref)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(data) != "Cluster,Perfil\n0,A\n" {
		t.Fatalf("unexpected object body %q", data)
	}

	missing, _ := ParseRef("s3://artifacts/absent.csv")
	if _, err := fetcher.Fetch(context.Background(), missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
