package media

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// Fingerprint computes the SHA-256 hex digest and byte count of an asset.
func Fingerprint(r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// FingerprintFile fingerprints a local file.
func FingerprintFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()
	return Fingerprint(f)
}
