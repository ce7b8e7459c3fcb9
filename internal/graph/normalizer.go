package graph

import (
	"github.com/roach88/ldgraph/internal/algebra"
	"github.com/roach88/ldgraph/internal/ident"
	"github.com/roach88/ldgraph/internal/vocab"
)

// MaxDepth bounds how many levels below the root Unflatten expands,
// regardless of the visited arena.
const MaxDepth = 500

// Normalizer flattens and unflattens record graphs.
type Normalizer struct {
	alg   *algebra.Algebra
	vocab *vocab.Vocabulary
	ids   ident.Generator
}

// New creates a Normalizer. Generated ids are blank nodes minted by gen.
func New(alg *algebra.Algebra, gen ident.Generator) *Normalizer {
	return &Normalizer{
		alg:   alg,
		vocab: alg.Vocabulary(),
		ids:   gen,
	}
}

// Algebra returns the record algebra the normalizer merges with.
func (n *Normalizer) Algebra() *algebra.Algebra {
	return n.alg
}
