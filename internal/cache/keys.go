package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"strings"

	"go-sheet-pipeline/internal/model"
)

// IngestKey identifies one parsed source: the same URL read with different
// hints is a different entry.
func IngestKey(url string, h model.Hints) string {
	return makeKey("ingest", canonicalURL(url), HintsHash(h))
}

// HintsHash digests hints canonically. encoding/json sorts map keys, so equal
// hints always hash the same.
func HintsHash(h model.Hints) string {
	b, err := json.Marshal(h)
	if err != nil {
		return ""
	}
	return makeKey(string(b))
}

func canonicalURL(url string) string {
	return strings.TrimSpace(url)
}

func makeKey(parts ...string) string {
	joined := strings.Join(parts, "|")
	h := sha1.Sum([]byte(joined))
	return hex.EncodeToString(h[:])
}
