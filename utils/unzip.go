// utils/unzip.go
package utils

import (
	"archive/zip"
	"fmt"
	"io"
)

type zipEntryReader struct {
	io.ReadCloser
	archive *zip.ReadCloser
}

func (z *zipEntryReader) Close() error {
	err := z.ReadCloser.Close()
	if cerr := z.archive.Close(); err == nil {
		err = cerr
	}
	return err
}

// OpenZippedCSV opens the airport CSV stored in the zip archive at src.
// Closing the returned reader closes the archive too.
func OpenZippedCSV(src string) (io.ReadCloser, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(r.File))
	byName := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
		byName[f.Name] = f
	}

	entry, err := findCSVEntry(names)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("no CSV file in %s: %w", src, err)
	}

	rc, err := byName[entry].Open()
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to open %s in %s: %w", entry, src, err)
	}
	return &zipEntryReader{ReadCloser: rc, archive: r}, nil
}
