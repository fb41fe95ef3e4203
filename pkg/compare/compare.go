// Package compare measures how far apart two binary masks are. It is used to
// check thinning output against a reference skeleton.
package compare

import (
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/stat"

	"voxmask/internal/models"
	"voxmask/pkg/volume"
)

// Report holds the agreement metrics between masks A and B
type Report struct {
	// Voxels is the total number of samples in each volume
	Voxels int

	// Diff counts samples whose values differ
	Diff int

	// OnesA and OnesB count foreground samples
	OnesA, OnesB int

	// Dice is 2|A∩B| / (|A|+|B|); 1 when both masks are empty
	Dice float64

	// Jaccard is |A∩B| / |A∪B|; 1 when both masks are empty
	Jaccard float64

	// MeanDistance is the mean nearest-neighbour distance from every
	// foreground voxel of either mask to the other mask, in voxels
	MeanDistance float64

	// P95Distance is the 95th percentile of the same distances
	P95Distance float64

	// Hausdorff is the largest of the same distances. Distances are NaN
	// when exactly one mask is empty.
	Hausdorff float64
}

// Compare computes a Report for two masks with identical extents
func Compare(a, b models.ZYXVolume) (Report, error) {
	diff, err := volume.DiffCount(a, b)
	if err != nil {
		return Report{}, errors.Wrap(err, "compare masks")
	}

	r := Report{
		Voxels: len(a.Data),
		Diff:   diff,
		OnesA:  volume.CountOnes(a.Data),
		OnesB:  volume.CountOnes(b.Data),
	}

	inter, union := 0, 0
	for i := range a.Data {
		fa, fb := a.Data[i] != 0, b.Data[i] != 0
		if fa && fb {
			inter++
		}
		if fa || fb {
			union++
		}
	}
	if union == 0 {
		r.Dice, r.Jaccard = 1, 1
	} else {
		r.Dice = 2 * float64(inter) / float64(r.OnesA+r.OnesB)
		r.Jaccard = float64(inter) / float64(union)
	}

	switch {
	case r.OnesA == 0 && r.OnesB == 0:
		// identical empty masks are zero distance apart
	case r.OnesA == 0 || r.OnesB == 0:
		r.MeanDistance, r.P95Distance, r.Hausdorff = math.NaN(), math.NaN(), math.NaN()
	default:
		ptsA, ptsB := foreground(a), foreground(b)
		dists := nearestDistances(ptsA, ptsB)
		dists = append(dists, nearestDistances(ptsB, ptsA)...)
		sort.Float64s(dists)

		r.MeanDistance = stat.Mean(dists, nil)
		r.P95Distance = stat.Quantile(0.95, stat.Empirical, dists, nil)
		r.Hausdorff = dists[len(dists)-1]
	}

	return r, nil
}

// nearestDistances returns, for each point of from, the distance to the
// closest point of to
func nearestDistances(from, to Points3D) []float64 {
	tree := kdtree.New(append(Points3D(nil), to...), false)

	out := make([]float64, len(from))
	numWorkers := runtime.NumCPU()
	chunkSize := (len(from) + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for start := 0; start < len(from); start += chunkSize {
		end := min(start+chunkSize, len(from))
		wg.Add(1)
		go func(startIdx, endIdx int) {
			defer wg.Done()
			for i := startIdx; i < endIdx; i++ {
				_, d2 := tree.Nearest(from[i])
				out[i] = math.Sqrt(d2)
			}
		}(start, end)
	}
	wg.Wait()
	return out
}

func (r Report) String() string {
	return fmt.Sprintf("Diff voxels: %d / %d, ones %d vs %d, dice %.4f, jaccard %.4f, "+
		"mean dist %.3f, p95 %.3f, hausdorff %.3f",
		r.Diff, r.Voxels, r.OnesA, r.OnesB, r.Dice, r.Jaccard,
		r.MeanDistance, r.P95Distance, r.Hausdorff)
}
