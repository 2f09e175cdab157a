package encoder

import "math"

// l2Normalize returns v scaled to unit length; a zero vector is
// returned unchanged (avoids a divide-by-zero that would otherwise
// poison every downstream distance computation with NaN).
func l2Normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// truncateRunes caps s at maxLen runes, mirroring §4.3's "truncation at
// 512 tokens" at the rune granularity this service actually controls
// (token-accurate truncation would require the remote model's own
// tokenizer, which is not available client-side).
func truncateRunes(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen])
}
