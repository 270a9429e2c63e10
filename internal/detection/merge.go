package detection

import (
	"sort"

	"github.com/floorplanlab/roomscan/internal/geometry"
)

// DefaultMergeIoUThreshold is the standard overlap threshold above which two
// detections are considered the same physical object.
const DefaultMergeIoUThreshold = 0.3

// Merge collapses overlapping detections that likely represent the same
// physical wall or room into single consolidated boxes.
//
// Detections are sorted by descending confidence (stable: ties keep their
// input order). The highest-confidence unconsumed detection seeds a cluster;
// every lower-ranked unconsumed detection whose IoU with the seed's original
// box reaches iouThreshold is folded in by taking the coordinate-wise union
// of the boxes and a running confidence average
// (conf*count + other)/(count+1), then marked consumed. Each detection joins
// at most one cluster. The merged box keeps the seed's class label.
//
// Thresholds outside [0, 1] are clamped to the nearest bound. Empty and
// singleton inputs are returned unchanged. Re-merging an already-merged list
// changes nothing as long as the surviving clusters stay below the threshold
// with each other.
func Merge(dets []Detection, iouThreshold float64) []Detection {
	if len(dets) <= 1 {
		return dets
	}
	if iouThreshold < 0 {
		iouThreshold = 0
	} else if iouThreshold > 1 {
		iouThreshold = 1
	}

	ranked := make([]Detection, len(dets))
	copy(ranked, dets)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})

	merged := make([]Detection, 0, len(ranked))
	consumed := make([]bool, len(ranked))

	for i, seed := range ranked {
		if consumed[i] {
			continue
		}
		consumed[i] = true

		box := seed.Box
		conf := seed.Confidence
		count := 1

		for j := i + 1; j < len(ranked); j++ {
			if consumed[j] {
				continue
			}
			if geometry.IoU(seed.Box, ranked[j].Box) >= iouThreshold {
				box = box.Union(ranked[j].Box)
				conf = (conf*float64(count) + ranked[j].Confidence) / float64(count+1)
				count++
				consumed[j] = true
			}
		}

		merged = append(merged, Detection{
			Box:        box,
			Confidence: conf,
			Class:      seed.Class,
		})
	}

	return merged
}
