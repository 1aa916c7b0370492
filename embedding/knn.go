package embedding

import (
	"context"
	"runtime"
	"sync"

	"github.com/RyanBlaney/sonido-mach/algorithms/stats"
)

// knnGraph holds the k nearest neighbors of every row, closest first
type knnGraph struct {
	indices   [][]int
	distances [][]float64
}

// nearestNeighbors runs an exact neighbor search for every row using a pool of workers
func nearestNeighbors(ctx context.Context, x [][]float64, k int, metric stats.DistanceMetric, workers int) (*knnGraph, error) {
	n := len(x)
	graph := &knnGraph{
		indices:   make([][]int, n),
		distances: make([][]float64, n),
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = max(1, min(workers, n))

	rows := make(chan int, workers)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range rows {
				neighbors := stats.NearestNeighbors(x[i], x, k, metric)
				idx := make([]int, len(neighbors))
				dist := make([]float64, len(neighbors))
				for j, nb := range neighbors {
					idx[j] = nb.Index
					dist[j] = nb.Distance
				}
				graph.indices[i] = idx
				graph.distances[i] = dist
			}
		}()
	}

	var err error
feed:
	for i := range n {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case rows <- i:
		}
	}
	close(rows)
	wg.Wait()

	if err != nil {
		return nil, err
	}
	return graph, nil
}
