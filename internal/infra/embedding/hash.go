package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultHashDims is the vector size of the hashing embedder.
const DefaultHashDims = 256

// Hash is an offline embedder: word tokens and character trigrams are hashed
// into a fixed number of buckets and the result is L2 normalised. Equal texts
// always produce equal vectors. Case and punctuation are dropped, so
// "Car Wash" and "car-wash" embed identically.
type Hash struct {
	dims int
}

func NewHash(dims int) *Hash {
	if dims <= 0 {
		dims = DefaultHashDims
	}
	return &Hash{dims: dims}
}

func (h *Hash) Model() string { return fmt.Sprintf("hash:%d", h.dims) }

func (h *Hash) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float64, h.dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		vec[h.bucket("w:"+w)] += 1
		padded := []rune(" " + w + " ")
		for i := 0; i+3 <= len(padded); i++ {
			vec[h.bucket("t:"+string(padded[i:i+3]))] += 0.5
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	out := make([]float32, h.dims)
	if norm == 0 {
		return out, nil
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out, nil
}

func (h *Hash) bucket(s string) int {
	f := fnv.New32a()
	f.Write([]byte(s))
	return int(f.Sum32() % uint32(h.dims))
}
