// Package index implements an exhaustive nearest-neighbor index over
// fixed-dimension vectors, searched by squared Euclidean distance.
package index

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"sort"
)

var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Flat is a brute-force vector index. Vectors keep their insertion order,
// and position i in the index corresponds to chunk i of the source paper.
type Flat struct {
	dim  int
	data []float32 // row-major, len == dim * count
}

func NewFlat(dim int) (*Flat, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", dim)
	}
	return &Flat{dim: dim}, nil
}

func (f *Flat) Dim() int { return f.dim }

func (f *Flat) Len() int { return len(f.data) / f.dim }

// Row returns the vector stored at position i. The returned slice aliases
// the index's storage and must not be modified.
func (f *Flat) Row(i int) []float32 {
	return f.data[i*f.dim : (i+1)*f.dim]
}

// Add appends vectors in the order given. A vector of the wrong dimension
// signals an embedding-provider inconsistency and fails the whole batch
// before anything is appended.
func (f *Flat) Add(vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != f.dim {
			return fmt.Errorf("%w: vector %d has %d dims, index has %d",
				ErrDimensionMismatch, i, len(v), f.dim)
		}
	}
	for _, v := range vectors {
		f.data = append(f.data, v...)
	}
	return nil
}

// Search returns the positions and squared L2 distances of the k vectors
// nearest to query, nearest-first. Ties are broken by insertion order. If
// the index holds fewer than k vectors, all of them are returned.
func (f *Flat) Search(query []float32, k int) ([]int, []float32, error) {
	if len(query) != f.dim {
		return nil, nil, fmt.Errorf("%w: query has %d dims, index has %d",
			ErrDimensionMismatch, len(query), f.dim)
	}
	n := f.Len()
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil, nil, nil
	}

	dists := make([]float32, n)
	for i := 0; i < n; i++ {
		row := f.Row(i)
		var sum float32
		for j, q := range query {
			d := row[j] - q
			sum += d * d
		}
		dists[i] = sum
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return dists[order[a]] < dists[order[b]]
	})

	ids := make([]int, k)
	out := make([]float32, k)
	for i := 0; i < k; i++ {
		ids[i] = order[i]
		out[i] = dists[order[i]]
	}
	return ids, out, nil
}

type flatFile struct {
	Dim  int
	Data []float32
}

// WriteFile serializes the index so it can be reloaded in a later process.
func (f *Flat) WriteFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create index file: %w", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(flatFile{Dim: f.dim, Data: f.data}); err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}
	return nil
}

// ReadFile loads an index previously written with WriteFile.
func ReadFile(path string) (*Flat, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index file: %w", err)
	}
	defer file.Close()

	var ff flatFile
	if err := gob.NewDecoder(file).Decode(&ff); err != nil {
		return nil, fmt.Errorf("failed to decode index: %w", err)
	}
	if ff.Dim <= 0 || len(ff.Data)%ff.Dim != 0 {
		return nil, fmt.Errorf("corrupt index file %s", path)
	}
	return &Flat{dim: ff.Dim, data: ff.Data}, nil
}
