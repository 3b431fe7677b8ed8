package expr

import (
	xxhash "github.com/cespare/xxhash/v2"
)

// Fingerprint returns a 64-bit structural fingerprint of an expression
// tree. Two trees with identical structure and parameters share a
// fingerprint; it backs plan descriptions and cheap tree-identity
// checks. The rendered form encodes the full structure, so hashing it
// is sufficient.
func Fingerprint(e Expr) uint64 {
	return xxhash.Sum64String(e.String())
}
