package topics

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/panjf2000/ants/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// EffectiveK adapts the requested cluster count to the dataset size:
// max(2, min(target, n/minClusterSize)), never more than n.
func EffectiveK(n, target, minClusterSize int) int {
	if n <= 0 {
		return 0
	}
	if minClusterSize < 1 {
		minClusterSize = 1
	}
	k := max(2, min(target, n/minClusterSize))
	return min(k, n)
}

// kmeansOptions controls a clustering run.
type kmeansOptions struct {
	restarts      int
	seed          int64
	maxIterations int
	tolerance     float64
	workers       int
}

// kmeansResult is the outcome of one k-means run.
type kmeansResult struct {
	labels  []int
	inertia float64
}

// clusterRows runs k-means restarts on a worker pool and keeps the run with
// the lowest inertia. Ties go to the lowest restart index, so the result does
// not depend on scheduling. Labels are renumbered by first appearance.
func clusterRows(ctx context.Context, data *mat.Dense, k int, opts kmeansOptions) ([]int, error) {
	n, _ := data.Dims()
	if k < 1 || k > n {
		return nil, fmt.Errorf("%w: k=%d for %d rows", ErrInvalidK, k, n)
	}
	if k == 1 {
		return make([]int, n), nil
	}

	restarts := max(opts.restarts, 1)
	pool, err := ants.NewPool(max(opts.workers, 1))
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	results := make([]kmeansResult, restarts)
	var wg sync.WaitGroup
	for i := range restarts {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		restart := i
		if err := pool.Submit(func() {
			defer wg.Done()
			rng := rand.New(rand.NewSource(opts.seed + int64(restart)))
			results[restart] = runKMeans(data, k, rng, opts.maxIterations, opts.tolerance)
		}); err != nil {
			wg.Done()
			wg.Wait()
			return nil, err
		}
	}
	wg.Wait()

	best := 0
	for i := 1; i < restarts; i++ {
		if results[i].inertia < results[best].inertia {
			best = i
		}
	}
	return relabel(results[best].labels), nil
}

// runKMeans is a single Lloyd run from a k-means++ start.
func runKMeans(data *mat.Dense, k int, rng *rand.Rand, maxIterations int, tolerance float64) kmeansResult {
	n, _ := data.Dims()
	centroids := initCentroidsPlusPlus(data, k, rng)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	for iteration := 0; iteration < maxIterations; iteration++ {
		newLabels := assignRows(data, centroids)

		converged := true
		for i := range labels {
			if labels[i] != newLabels[i] {
				converged = false
				break
			}
		}
		labels = newLabels
		if converged {
			break
		}

		newCentroids := updateCentroids(data, labels, centroids)
		shift := centroidShift(centroids, newCentroids)
		centroids = newCentroids
		if shift < tolerance {
			labels = assignRows(data, centroids)
			break
		}
	}

	return kmeansResult{labels: labels, inertia: inertia(data, centroids, labels)}
}

// initCentroidsPlusPlus picks k starting centroids, each new one with
// probability proportional to its squared distance from the nearest pick.
func initCentroidsPlusPlus(data *mat.Dense, k int, rng *rand.Rand) *mat.Dense {
	n, d := data.Dims()
	centroids := mat.NewDense(k, d, nil)
	centroids.SetRow(0, data.RawRowView(rng.Intn(n)))

	distances := make([]float64, n)
	for j := range distances {
		distances[j] = math.Inf(1)
	}

	for c := 1; c < k; c++ {
		prev := centroids.RawRowView(c - 1)
		total := 0.0
		for j := 0; j < n; j++ {
			dist := squaredDistance(data.RawRowView(j), prev)
			if dist < distances[j] {
				distances[j] = dist
			}
			total += distances[j]
		}

		if total == 0 {
			// All points coincide with a chosen centroid
			centroids.SetRow(c, data.RawRowView(rng.Intn(n)))
			continue
		}

		target := rng.Float64() * total
		chosen := n - 1
		cumulative := 0.0
		for j, dist := range distances {
			cumulative += dist
			if cumulative >= target {
				chosen = j
				break
			}
		}
		centroids.SetRow(c, data.RawRowView(chosen))
	}
	return centroids
}

// assignRows labels each row with its nearest centroid, lowest index on ties.
func assignRows(data, centroids *mat.Dense) []int {
	n, _ := data.Dims()
	k, _ := centroids.Dims()
	labels := make([]int, n)

	for i := 0; i < n; i++ {
		row := data.RawRowView(i)
		best := 0
		bestDist := math.Inf(1)
		for c := 0; c < k; c++ {
			dist := squaredDistance(row, centroids.RawRowView(c))
			if dist < bestDist {
				bestDist = dist
				best = c
			}
		}
		labels[i] = best
	}
	return labels
}

// updateCentroids averages the members of each cluster. A cluster that lost
// all its members keeps its previous centroid.
func updateCentroids(data *mat.Dense, labels []int, previous *mat.Dense) *mat.Dense {
	k, d := previous.Dims()
	centroids := mat.NewDense(k, d, nil)
	counts := make([]int, k)

	for i, label := range labels {
		floats.Add(centroids.RawRowView(label), data.RawRowView(i))
		counts[label]++
	}
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			centroids.SetRow(c, previous.RawRowView(c))
			continue
		}
		floats.Scale(1/float64(counts[c]), centroids.RawRowView(c))
	}
	return centroids
}

// centroidShift is the largest squared movement of any centroid.
func centroidShift(old, updated *mat.Dense) float64 {
	k, _ := old.Dims()
	shift := 0.0
	for c := 0; c < k; c++ {
		shift = max(shift, squaredDistance(old.RawRowView(c), updated.RawRowView(c)))
	}
	return shift
}

func inertia(data, centroids *mat.Dense, labels []int) float64 {
	total := 0.0
	for i, label := range labels {
		total += squaredDistance(data.RawRowView(i), centroids.RawRowView(label))
	}
	return total
}

func squaredDistance(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

// relabel renumbers clusters 0..m-1 in order of first appearance.
func relabel(labels []int) []int {
	mapping := make(map[int]int)
	out := make([]int, len(labels))
	for i, label := range labels {
		id, ok := mapping[label]
		if !ok {
			id = len(mapping)
			mapping[label] = id
		}
		out[i] = id
	}
	return out
}
