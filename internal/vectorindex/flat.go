// Package vectorindex holds the flat exact-distance index behind candidate search
// and its on-disk form.
package vectorindex

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
)

const (
	magic         = "HRVX"
	formatVersion = 1
	headerSize    = 16
)

// Hit is a search result. Position is the insertion order of the vector.
type Hit struct {
	Position int
	Distance float32
}

// Flat is a brute-force squared-L2 index. It is not safe for concurrent writes.
type Flat struct {
	dim     int
	vectors [][]float32
}

func NewFlat(dim int) *Flat {
	return &Flat{dim: dim}
}

func (f *Flat) Dim() int { return f.dim }

func (f *Flat) Len() int { return len(f.vectors) }

// Truncate drops every vector at position n or later.
func (f *Flat) Truncate(n int) {
	if n >= 0 && n < len(f.vectors) {
		f.vectors = f.vectors[:n]
	}
}

// Add appends vec and returns its position.
func (f *Flat) Add(vec []float32) (int, error) {
	if len(vec) != f.dim {
		return 0, fmt.Errorf("vectorindex: vector dim %d != index dim %d", len(vec), f.dim)
	}
	f.vectors = append(f.vectors, append([]float32(nil), vec...))
	return len(f.vectors) - 1, nil
}

// Search returns up to k nearest vectors, closest first. Ties keep insertion order.
func (f *Flat) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != f.dim {
		return nil, fmt.Errorf("vectorindex: query dim %d != index dim %d", len(query), f.dim)
	}
	if k <= 0 || len(f.vectors) == 0 {
		return nil, nil
	}

	hits := make([]Hit, len(f.vectors))
	for i, vec := range f.vectors {
		hits[i] = Hit{Position: i, Distance: squaredL2(query, vec)}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Distance < hits[b].Distance })

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// MarshalBinary stores magic, version(uint32), dim(uint32), count(uint32)
// followed by count*dim little-endian float32 values.
func (f *Flat) MarshalBinary() ([]byte, error) {
	out := make([]byte, headerSize, headerSize+4*f.dim*len(f.vectors))
	copy(out, magic)
	binary.LittleEndian.PutUint32(out[4:8], formatVersion)
	binary.LittleEndian.PutUint32(out[8:12], uint32(f.dim))
	binary.LittleEndian.PutUint32(out[12:16], uint32(len(f.vectors)))

	buf := make([]byte, 4)
	for _, vec := range f.vectors {
		for _, v := range vec {
			binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
			out = append(out, buf...)
		}
	}
	return out, nil
}

// UnmarshalBinary replaces the index content with data produced by MarshalBinary.
func (f *Flat) UnmarshalBinary(data []byte) error {
	if len(data) < headerSize || string(data[:4]) != magic {
		return errors.New("vectorindex: invalid data")
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != formatVersion {
		return fmt.Errorf("vectorindex: unsupported format version %d", v)
	}
	dim := int(binary.LittleEndian.Uint32(data[8:12]))
	n := int(binary.LittleEndian.Uint32(data[12:16]))
	if len(data) != headerSize+4*dim*n {
		return errors.New("vectorindex: truncated data")
	}

	off := headerSize
	vectors := make([][]float32, n)
	for i := range vectors {
		vec := make([]float32, dim)
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
			off += 4
		}
		vectors[i] = vec
	}

	f.dim = dim
	f.vectors = vectors
	return nil
}

func squaredL2(a, b []float32) float32 {
	var s float32
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}
