package mediagate

import (
	"encoding/hex"
	"path"
	"strings"

	"github.com/zeebo/blake3"
)

// Extension sets for classification. Anything not listed here, including
// paths with no extension at all, is opaque.
var (
	imageExtensions = map[string]struct{}{
		".png":  {},
		".jpg":  {},
		".jpeg": {},
		".webp": {},
		".avif": {},
		".gif":  {},
	}

	videoExtensions = map[string]struct{}{
		".mp4": {},
	}
)

// tokenBytes is the number of digest bytes kept in a validator token.
// 8 bytes (16 hex chars) keeps headers small while leaving the birthday
// bound far beyond realistic catalog sizes.
const tokenBytes = 8

// Classify maps an object path to its cache category by file extension.
// Matching is case-insensitive; unrecognized or missing extensions are
// opaque. Classification is total: it never fails.
func Classify(p string) Category {
	ext := strings.ToLower(path.Ext(p))

	if _, ok := imageExtensions[ext]; ok {
		return CategoryImage
	}
	if _, ok := videoExtensions[ext]; ok {
		return CategoryVideo
	}
	return CategoryOpaque
}

// Fingerprint derives the validator token for a path. Objects are
// write-once, so the path alone identifies the content: the token is a
// truncated BLAKE3 digest of the path string and never requires reading the
// object's bytes. Deterministic across calls and processes.
func Fingerprint(p string) string {
	sum := blake3.Sum256([]byte(p))
	return hex.EncodeToString(sum[:tokenBytes])
}

// CacheGateway makes conditional-cache decisions for object requests.
// It holds no mutable state; Evaluate is safe for concurrent use without
// synchronization.
type CacheGateway struct {
	policies PolicyTable
}

// NewCacheGateway creates a CacheGateway with the given policy table.
// The table is validated for exhaustiveness; a bad table is a startup
// error, never a per-request one.
func NewCacheGateway(policies PolicyTable) (*CacheGateway, error) {
	if err := policies.Validate(); err != nil {
		return nil, err
	}
	return &CacheGateway{policies: policies}, nil
}

// Policy returns the cache policy for a category.
func (g *CacheGateway) Policy(c Category) CachePolicy {
	return g.policies[c]
}

// Evaluate decides how to answer a request for path p carrying an optional
// client validator token. Pure function of its two arguments.
//
// NotModified is returned only when the category is cacheable and the client
// token exactly equals the path's fingerprint. A missing token, a stale
// token, or an opaque category always means serve. Opaque decisions carry no
// token at all, so clients of non-cacheable objects never receive a
// validator to resubmit.
func (g *CacheGateway) Evaluate(p, clientToken string) Decision {
	category := Classify(p)
	policy := g.policies[category]

	if !policy.Cacheable {
		return Decision{Category: category, Policy: policy}
	}

	token := Fingerprint(p)
	if clientToken != "" && clientToken == token {
		return Decision{NotModified: true, Category: category, Token: token, Policy: policy}
	}

	return Decision{Category: category, Token: token, Policy: policy}
}
