// Package identity issues machine identifiers (MIDs) for parsed nodes and
// references. Generators are plain values owned by whoever runs a parse, so
// two parses never share counter state and results stay reproducible.
package identity

import (
	"fmt"

	"github.com/google/uuid"
)

// MID is an opaque machine identifier attached to nodes and references.
// It is never derived from document content; equality is the only operation
// downstream tooling may rely on.
type MID string

// IsZero reports whether the MID was never assigned.
func (m MID) IsZero() bool { return m == "" }

func (m MID) String() string { return string(m) }

// Generator produces MIDs. Implementations are not safe for concurrent use;
// each parse call owns its generator exclusively.
type Generator interface {
	Next() MID
}

// SequentialGenerator issues "prefix-1", "prefix-2", ... in call order.
// This is the default for parsing: reruns over the same input produce the
// same identifiers, which keeps golden tests and caches stable.
type SequentialGenerator struct {
	prefix string
	n      uint64
}

// NewSequentialGenerator returns a generator with the given prefix.
// An empty prefix defaults to "mid".
func NewSequentialGenerator(prefix string) *SequentialGenerator {
	if prefix == "" {
		prefix = "mid"
	}
	return &SequentialGenerator{prefix: prefix}
}

func (g *SequentialGenerator) Next() MID {
	g.n++
	return MID(fmt.Sprintf("%s-%d", g.prefix, g.n))
}

// RandomGenerator issues UUIDv4 identifiers. Used by interactive tooling
// that merges object graphs from many parses and needs global uniqueness.
type RandomGenerator struct{}

func (RandomGenerator) Next() MID {
	return MID(uuid.NewString())
}
