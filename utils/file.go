package utils

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// EnsureDir creates dir if it doesn't exist
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, os.ModePerm)
}

// OpenAirportSource opens an airport dataset from an http(s) URL, a .zip
// archive holding the CSV, or a plain CSV file.
func OpenAirportSource(ctx context.Context, src string) (io.ReadCloser, error) {
	lower := strings.ToLower(src)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return Download(ctx, src)
	case filepath.Ext(lower) == ".zip":
		return OpenZippedCSV(src)
	}
	return os.Open(src)
}
