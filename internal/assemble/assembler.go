// Package assemble implements C10: turning labels and a reduced matrix
// into the wire-shaped Response, the one place in the pipeline that
// produces the json-tagged types defined in internal/core.
package assemble

import (
	"sort"

	"clustering-service/internal/core"
)

const defaultTopN = 5

// Build groups items by label, computes per-cluster stats and
// descriptors, and sorts the result — size descending, the outlier
// group (-1) always last regardless of size, per DESIGN.md's outlier-
// visibility Open Question decision.
func Build(items []core.NormalizedItem, reduced [][]float64, labels []int, removeOutliers bool) (core.ClusteringStats, []core.ClusterDescriptor) {
	stats := computeStats(labels)

	groups := map[int][]int{}
	for i, l := range labels {
		groups[l] = append(groups[l], i)
	}

	descriptors := make([]core.ClusterDescriptor, 0, len(groups))
	for label, idxs := range groups {
		descriptors = append(descriptors, buildDescriptor(label, idxs, items, reduced))
	}

	sort.Slice(descriptors, func(a, b int) bool {
		ai, bi := descriptors[a], descriptors[b]
		if ai.ClusterID == -1 {
			return false
		}
		if bi.ClusterID == -1 {
			return true
		}
		return ai.Size > bi.Size
	})

	if removeOutliers {
		filtered := make([]core.ClusterDescriptor, 0, len(descriptors))
		for _, d := range descriptors {
			if d.ClusterID != -1 {
				filtered = append(filtered, d)
			}
		}
		descriptors = filtered
	}

	return stats, descriptors
}

func computeStats(labels []int) core.ClusteringStats {
	stats := core.ClusteringStats{ClusterSizes: map[int]int{}}
	seen := map[int]bool{}

	for _, l := range labels {
		if l == -1 {
			stats.NOutliers++
			continue
		}
		stats.ClusterSizes[l]++
		if !seen[l] {
			seen[l] = true
			stats.NClusters++
		}
	}

	stats.NSamples = len(labels)
	if stats.NSamples > 0 {
		stats.OutlierRatio = float64(stats.NOutliers) / float64(stats.NSamples)
	}

	return stats
}

func buildDescriptor(label int, idxs []int, items []core.NormalizedItem, reduced [][]float64) core.ClusterDescriptor {
	ordered := append([]int{}, idxs...)
	sort.Ints(ordered)

	members := make([]core.NormalizedItem, len(ordered))
	for i, idx := range ordered {
		members[i] = items[idx]
	}

	desc := core.ClusterDescriptor{
		ClusterID:             label,
		Size:                  len(members),
		Items:                 members,
		RepresentativeContent: representativeContent(members, defaultTopN),
		Keywords:              []string{},
	}

	if centroid := columnMeanCentroid(ordered, reduced); centroid != nil {
		desc.Centroid = centroid
	}

	return desc
}

// columnMeanCentroid is the column-wise mean of the reduced vectors of
// idxs, or nil when no reduced vectors are available for this group
// (e.g. the group was assembled before a reduction step ran).
func columnMeanCentroid(idxs []int, reduced [][]float64) []float64 {
	if len(reduced) == 0 || len(idxs) == 0 {
		return nil
	}

	d := len(reduced[idxs[0]])
	centroid := make([]float64, d)
	for _, idx := range idxs {
		row := reduced[idx]
		for k := 0; k < d && k < len(row); k++ {
			centroid[k] += row[k]
		}
	}
	for k := range centroid {
		centroid[k] /= float64(len(idxs))
	}
	return centroid
}

// representativeContent takes up to topN item texts in original order,
// except for article-tagged members, which are sorted by publishDate
// descending first (most recent first) before truncation — the one
// tag-dependent ordering rule §4.10 calls out.
func representativeContent(members []core.NormalizedItem, topN int) []string {
	ordered := members
	if isArticleGroup(members) {
		ordered = append([]core.NormalizedItem{}, members...)
		sort.SliceStable(ordered, func(a, b int) bool {
			return ordered[a].PublishDate.After(ordered[b].PublishDate)
		})
	}

	n := topN
	if n > len(ordered) {
		n = len(ordered)
	}

	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = ordered[i].Text
	}
	return out
}

// isArticleGroup detects the article tag indirectly: at least one member
// of this group carries a non-zero PublishDate (articles parse one;
// every other tag leaves it zero, per the adapter).
func isArticleGroup(members []core.NormalizedItem) bool {
	for _, m := range members {
		if !m.PublishDate.IsZero() {
			return true
		}
	}
	return false
}
