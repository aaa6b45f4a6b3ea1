package util

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// DedupeKey derives a stable job id from the fields that identify a posting
// when the source gives no native id.
func DedupeKey(company, title, location, url string) string {
	norm := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	canonical := norm(company) + "|" + norm(title) + "|" + norm(location) + "|" + norm(url)
	sum := sha1.Sum([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// ContentHash fingerprints the text an embedding was computed from. It matches
// Postgres md5(text) so stale rows can be detected in SQL.
func ContentHash(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
