package ast

import (
	"hash/fnv"
	"math/big"

	"github.com/17451k/rodincore-sub001/internal/types"
)

// Structural hashes are computed once, when a node is built. They follow
// Equal: declaration names and spans are ignored, types are not.

const hashPrime = 1099511628211

func combine(h, v uint64) uint64 {
	h ^= v + 0x9e3779b97f4a7c15 + (h << 6) + (h >> 2)
	return h * hashPrime
}

func tagHash(tag Tag) uint64 {
	return combine(14695981039346656037, uint64(tag)+1)
}

func typeHash(t types.Type) uint64 {
	if t == nil {
		return 0
	}
	return t.Hash()
}

func stringHash(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

func freeHash(name string, typ types.Type) uint64 {
	return combine(combine(tagHash(TagFreeIdent), stringHash(name)), typeHash(typ))
}

func boundHash(index int, typ types.Type) uint64 {
	return combine(combine(tagHash(TagBoundIdent), uint64(index)), typeHash(typ))
}

func declHash(typ types.Type) uint64 {
	return combine(tagHash(TagBoundIdentDecl), typeHash(typ))
}

func literalHash(v *big.Int, typ types.Type) uint64 {
	return combine(combine(tagHash(TagIntLit), stringHash(v.String())), typeHash(typ))
}

// nodeHash hashes a tag, an optional type and child hashes in order.
func nodeHash(tag Tag, typ types.Type, children ...Formula) uint64 {
	h := combine(tagHash(tag), typeHash(typ))
	for _, c := range children {
		h = combine(h, c.Hash())
	}
	return h
}

func declsHash(h uint64, decls []*BoundIdentDecl) uint64 {
	h = combine(h, uint64(len(decls)))
	for _, d := range decls {
		h = combine(h, d.hash)
	}
	return h
}
