// Package checksum derives content digests used as record ETags.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/starford/semestra/internal/models"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Record digests the user-visible content of a semester: its name and
// subject list in order. Timestamps and ids do not contribute.
func Record(name string, subjects []models.Subject) (string, error) {
	if subjects == nil {
		subjects = []models.Subject{}
	}
	data, err := json.Marshal(struct {
		Name     string           `json:"name"`
		Subjects []models.Subject `json:"subjects"`
	}{name, subjects})
	if err != nil {
		return "", fmt.Errorf("checksum: encode record: %w", err)
	}
	return Sum(data), nil
}
