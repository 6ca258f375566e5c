// Package assetid derives short deterministic identifiers for stored
// assets. The identifier of an asset is a function of its path relative to
// the owning category root, so the request layer, the storage layer, and
// the offline thumbnail pipeline can recompute the same identifier without
// sharing a registry.
package assetid

import (
	"crypto/md5"
	"encoding/hex"
)

// Length is the number of hex characters kept from the digest.
const Length = 16

// New returns the identifier for a category-relative path. The caller must
// supply a canonical forward-slash path with no leading separator;
// identifiers for non-canonical spellings of the same file will diverge.
func New(relPath string) string {
	sum := md5.Sum([]byte(relPath))
	return hex.EncodeToString(sum[:])[:Length]
}
