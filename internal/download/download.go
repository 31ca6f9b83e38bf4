// Package download saves binary report blobs to disk under the
// deterministic filename patterns the rest of the office expects.
package download

import (
	"fmt"
	"os"
	"path/filepath"
)

// Statement writes an investor statement PDF and returns its path.
// Filename pattern: statement_{lastName}_{investorId}.pdf.
func Statement(dir, lastName string, investorID int64, data []byte) (string, error) {
	return write(dir, fmt.Sprintf("statement_%s_%d.pdf", lastName, investorID), data)
}

// Receipt writes a payment receipt PDF and returns its path.
// Filename pattern: receipt_{paymentId}_{investorName}.pdf.
func Receipt(dir string, paymentID int64, investorName string, data []byte) (string, error) {
	return write(dir, fmt.Sprintf("receipt_%d_%s.pdf", paymentID, investorName), data)
}

func write(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	return path, nil
}
