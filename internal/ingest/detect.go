// Package ingest implements the Format Detector (C1) and Input Adapter
// (C2): it classifies a batch of heterogeneous JSON records into one of
// five tagged shapes and normalizes each to core.NormalizedItem.
package ingest

import (
	"clustering-service/internal/apierr"
	"clustering-service/internal/core"
)

// requiredArticleKeys are the fields that, together with "embedding",
// mark a record as the article tag (§4.1 rule 2).
var requiredArticleKeys = []string{"title", "content", "url", "publishDate"}

// DetectOne classifies a single record. It never fails — an
// unrecognized shape is TagUnknown, and the caller decides whether that
// is fatal.
func DetectOne(item core.RawItem) core.Tag {
	_, hasEmbedding := item["embedding"]
	_, hasText := item["text"]

	if hasEmbedding && len(item) == 2 {
		_, hasID := item["id"]
		if hasID {
			return core.TagSimpleVector
		}
	}

	if hasEmbedding && hasAllKeys(item, requiredArticleKeys) {
		return core.TagArticle
	}

	if hasEmbedding && hasText {
		return core.TagVectorWithText
	}

	if hasEmbedding && len(item) <= 7 {
		return core.TagExtendedVector
	}

	if hasText && !hasEmbedding {
		return core.TagPlainText
	}

	return core.TagUnknown
}

func hasAllKeys(item core.RawItem, keys []string) bool {
	for _, k := range keys {
		if _, ok := item[k]; !ok {
			return false
		}
	}
	return true
}

// Detect classifies the batch as a whole: the tag is determined from
// the first item, then every remaining item is checked against the same
// tag. A mismatch is a HETEROGENEOUS_INPUT error, not a silent downgrade.
func Detect(items []core.RawItem) (core.Tag, error) {
	if len(items) == 0 {
		return core.TagUnknown, apierr.InvalidEmbeddings("item batch is empty", nil)
	}

	tag := DetectOne(items[0])
	if tag == core.TagUnknown {
		return tag, apierr.BadInputFormat("could not classify input item shape", map[string]any{"index": 0})
	}

	for i := 1; i < len(items); i++ {
		if DetectOne(items[i]) != tag {
			return tag, apierr.HeterogeneousInput(
				"items in a single batch must share the same shape",
				map[string]any{"index": i, "expected_tag": tag},
			)
		}
	}

	return tag, nil
}
