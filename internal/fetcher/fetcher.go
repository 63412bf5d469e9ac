// Package fetcher opens input tables from local directories, HTTP(S) and FTP
// locations, decodes their character encoding and streams CSV rows.
package fetcher

import (
	"context"
	"errors"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned (wrapped) when a location does not exist.
var ErrNotFound = errors.New("fetcher: not found")

// Fetcher opens a single location for reading.
type Fetcher interface {
	// Open returns the content at location. The caller must close it.
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}

// Options configures the remote fetchers built by NewSource.
type Options struct {
	HTTP HTTPOptions
	FTP  FTPOptions
}

// Source dispatches locations to the file, HTTP or FTP fetcher by scheme.
type Source struct {
	file Fetcher
	http Fetcher
	ftp  Fetcher
}

// NewSource creates a Source with the default fetcher for each scheme.
func NewSource(opts Options) *Source {
	return &Source{
		file: FileFetcher{},
		http: NewHTTPFetcher(opts.HTTP),
		ftp:  NewFTPFetcher(opts.FTP),
	}
}

// Open implements Fetcher.
func (s *Source) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	switch Scheme(location) {
	case "http", "https":
		return s.http.Open(ctx, location)
	case "ftp":
		return s.ftp.Open(ctx, location)
	default:
		return s.file.Open(ctx, location)
	}
}

// Scheme returns the lower-cased URL scheme of location, or "" for local paths.
func Scheme(location string) string {
	i := strings.Index(location, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(location[:i])
}

// Resolve joins a table file name onto a base directory or base URL.
func Resolve(base, name string) string {
	if Scheme(name) != "" || filepath.IsAbs(name) {
		return name
	}
	if Scheme(base) == "" {
		return filepath.Join(base, name)
	}
	u, err := url.Parse(base)
	if err != nil {
		return strings.TrimRight(base, "/") + "/" + name
	}
	u.Path = path.Join("/", u.Path, name)
	return u.String()
}

// FileFetcher opens local files.
type FileFetcher struct{}

// Open implements Fetcher.
func (FileFetcher) Open(_ context.Context, location string) (io.ReadCloser, error) {
	f, err := os.Open(location)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, eris.Wrapf(ErrNotFound, "file: %s", location)
		}
		return nil, eris.Wrapf(err, "file: open %s", location)
	}
	return f, nil
}
