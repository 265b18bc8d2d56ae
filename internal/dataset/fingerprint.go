package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Fingerprint computes a SHA256 hash of a dataset's canonical CSV file.
// A missing file hashes as empty content so that fingerprint diffs treat
// it as a removed dataset rather than an error.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			h := sha256.Sum256([]byte{})
			return hex.EncodeToString(h[:]), nil
		}
		return "", fmt.Errorf("opening data file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing data file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
