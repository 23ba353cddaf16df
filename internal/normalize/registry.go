package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/pvsignal/engine/internal/synonym"
)

// CanonicalID resolves a normalized surface string against resolver,
// falling back to a deterministic hash-derived ID namespaced to
// "unmatched" when no synonym entry matches. The hash is over the
// namespace and the normalized surface only, so the same unrecognized
// string always mints the same ID across runs.
func CanonicalID(resolver *synonym.Resolver, namespace, normalizedSurface string) string {
	if id, _, ok := resolver.Resolve(normalizedSurface); ok {
		return id
	}
	sum := sha256.Sum256([]byte(namespace + "\x1f" + normalizedSurface))
	return fmt.Sprintf("unmatched:%s:%s", namespace, hex.EncodeToString(sum[:])[:16])
}
