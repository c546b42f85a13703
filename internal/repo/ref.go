package repo

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Scheme identifies where an artifact lives.
type Scheme string

const (
	SchemeFile   Scheme = "file"
	SchemeHTTP   Scheme = "http"
	SchemeS3     Scheme = "s3"
	SchemeGDrive Scheme = "gdrive"
)

// Ref is a parsed artifact reference.
type Ref struct {
	Raw    string
	Scheme Scheme
	// Path is the local path for file refs.
	Path string
	// URL is the full URL for http refs.
	URL string
	// Bucket and Key address s3 objects.
	Bucket string
	Key    string
	// ID is the Google Drive file id.
	ID string
}

// ParseRef accepts a bare path, file://, http(s)://, s3://bucket/key or gdrive://<file-id>.
func ParseRef(raw string) (Ref, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Ref{}, fmt.Errorf("empty artifact reference")
	}
	ref := Ref{Raw: raw}
	scheme, rest, found := strings.Cut(raw, "://")
	if !found {
		ref.Scheme = SchemeFile
		ref.Path = filepath.Clean(raw)
		return ref, nil
	}
	switch strings.ToLower(scheme) {
	case "file":
		ref.Scheme = SchemeFile
		ref.Path = filepath.Clean(filepath.FromSlash(rest))
	case "http", "https":
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return Ref{}, fmt.Errorf("invalid artifact url %q", raw)
		}
		ref.Scheme = SchemeHTTP
		ref.URL = u.String()
	case "s3":
		bucket, key, _ := strings.Cut(rest, "/")
		key = strings.TrimLeft(key, "/")
		if bucket == "" || key == "" {
			return Ref{}, fmt.Errorf("s3 reference %q needs bucket and key", raw)
		}
		ref.Scheme = SchemeS3
		ref.Bucket = bucket
		ref.Key = key
	case "gdrive":
		id := strings.Trim(rest, "/")
		if id == "" || strings.ContainsAny(id, "/?&#") {
			return Ref{}, fmt.Errorf("invalid drive file id in %q", raw)
		}
		ref.Scheme = SchemeGDrive
		ref.ID = id
	default:
		return Ref{}, fmt.Errorf("unsupported artifact scheme %q", scheme)
	}
	return ref, nil
}

// Local reports whether the artifact is read from the local filesystem.
func (r Ref) Local() bool { return r.Scheme == SchemeFile }

// Ext returns the lower-case file extension of the referenced object, if any.
func (r Ref) Ext() string {
	var name string
	switch r.Scheme {
	case SchemeFile:
		name = r.Path
	case SchemeS3:
		name = r.Key
	case SchemeHTTP:
		if u, err := url.Parse(r.URL); err == nil {
			name = u.Path
		}
	}
	return strings.ToLower(filepath.Ext(name))
}

func (r Ref) String() string { return r.Raw }
