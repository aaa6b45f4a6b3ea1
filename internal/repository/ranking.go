package repository

import (
	"math"
	"strings"
	"time"
)

const (
	TitleMatchScore   = 1.0
	CompanyMatchScore = 0.8
)

// CosineSimilarity is dot(a, b) / (|a||b|) in [-1, 1]. Mismatched lengths and
// zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// TextMatchScore is 1.0 when query is a case-insensitive substring of the
// title, 0.8 when it is one of the company, 0 otherwise. Title wins.
func TextMatchScore(query, title, company string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0
	}
	switch {
	case strings.Contains(strings.ToLower(title), q):
		return TitleMatchScore
	case strings.Contains(strings.ToLower(company), q):
		return CompanyMatchScore
	default:
		return 0
	}
}

// RecencyScore halves every halfLife of age: 1 for a posting made now, 0 for
// an undated one. Future dates count as now.
func RecencyScore(postedAt *time.Time, now time.Time, halfLife time.Duration) float64 {
	if postedAt == nil || halfLife <= 0 {
		return 0
	}
	age := now.Sub(*postedAt)
	if age < 0 {
		age = 0
	}
	return math.Exp(-math.Ln2 * age.Seconds() / halfLife.Seconds())
}

// postedBefore orders postings newest first with undated ones last.
func postedBefore(a, b *time.Time) (less, decided bool) {
	switch {
	case a == nil && b == nil:
		return false, false
	case a == nil:
		return false, true
	case b == nil:
		return true, true
	case a.Equal(*b):
		return false, false
	default:
		return a.After(*b), true
	}
}

// rankLess is the ranking order shared by every mode: score descending,
// then posted_at descending with nulls last, then id ascending.
func rankLess(scoreA, scoreB float64, postedA, postedB *time.Time, idA, idB string) bool {
	if scoreA != scoreB {
		return scoreA > scoreB
	}
	if less, ok := postedBefore(postedA, postedB); ok {
		return less
	}
	return idA < idB
}
