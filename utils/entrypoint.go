// utils/entrypoint.go
package utils

import (
	"os"
	"path"
	"strings"
)

// Preferred dataset filenames inside an archive (case-insensitive)
var csvCandidates = []string{
	"airports.csv",
	"airport.csv",
}

// findCSVEntry picks the dataset file among archive entry names:
// a known filename first, otherwise the first .csv entry.
func findCSVEntry(names []string) (string, error) {
	for _, candidate := range csvCandidates {
		for _, name := range names {
			if strings.ToLower(path.Base(name)) == candidate {
				return name, nil
			}
		}
	}
	for _, name := range names {
		if strings.HasSuffix(strings.ToLower(name), ".csv") {
			return name, nil
		}
	}
	return "", os.ErrNotExist
}
