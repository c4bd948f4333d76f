package capability

import (
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// HashingEmbedder maps text to a fixed-dimension vector by feature-hashing
// word unigrams and bigrams, L2-normalized. It is deterministic, versioned,
// and cheap enough to gate a synchronous pipeline stage. Vectors from
// different dimensions or versions are distinct spaces and must never be
// compared.
type HashingEmbedder struct {
	dimension int
	version   string
}

// NewHashingEmbedder creates an embedder for the given dimension. The
// version tag encodes the hashing scheme and dimension so the Memory Bank
// can reject mismatched vectors.
func NewHashingEmbedder(dimension int, version string) *HashingEmbedder {
	return &HashingEmbedder{
		dimension: dimension,
		version:   version,
	}
}

func (e *HashingEmbedder) Dimension() int {
	return e.dimension
}

func (e *HashingEmbedder) Version() string {
	return e.version
}

// Embed produces the normalized feature-hash vector for text. Empty or
// token-free text yields the zero vector.
func (e *HashingEmbedder) Embed(text string) []float32 {
	vec := make([]float32, e.dimension)

	tokens := tokenize(text)
	if len(tokens) == 0 {
		return vec
	}

	for i, tok := range tokens {
		e.accumulate(vec, tok)
		if i+1 < len(tokens) {
			e.accumulate(vec, tok+" "+tokens[i+1])
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}

	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}

	return vec
}

// accumulate hashes the feature into a bucket with a sign bit so collisions
// cancel rather than pile up.
func (e *HashingEmbedder) accumulate(vec []float32, feature string) {
	h := fnv.New32a()
	h.Write([]byte(feature))
	sum := h.Sum32()

	bucket := int(sum>>1) % e.dimension
	if sum&1 == 1 {
		vec[bucket]--
	} else {
		vec[bucket]++
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
