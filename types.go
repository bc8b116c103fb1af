package mediagate

import (
	"fmt"
)

// Category classifies an object by how aggressively clients may cache it.
type Category string

const (
	CategoryImage  Category = "image"
	CategoryVideo  Category = "video"
	CategoryOpaque Category = "opaque"
)

// Categories lists every known category. PolicyTable validation checks
// exhaustiveness against this list.
var Categories = []Category{CategoryImage, CategoryVideo, CategoryOpaque}

func (c Category) IsValid() bool {
	switch c {
	case CategoryImage, CategoryVideo, CategoryOpaque:
		return true
	default:
		return false
	}
}

// CachePolicy is the header pair attached to a served object.
// Cacheable=false means no validator is emitted and conditional requests
// never short-circuit.
type CachePolicy struct {
	CacheControl string
	Cacheable    bool
}

// PolicyTable maps each category to its cache policy. Adding a category is a
// data change here, not a control-flow change in the gateway.
type PolicyTable map[Category]CachePolicy

// DefaultPolicies returns the standard policy set: images and video are
// immutable and long-lived, everything else must not be cached.
func DefaultPolicies() PolicyTable {
	return PolicyTable{
		CategoryImage:  {CacheControl: "public, max-age=31536000, immutable", Cacheable: true},
		CategoryVideo:  {CacheControl: "public, max-age=31536000, immutable", Cacheable: true},
		CategoryOpaque: {CacheControl: "no-store", Cacheable: false},
	}
}

// Validate checks the table covers every known category exactly, that each
// policy carries a directive, and that the opaque category is not cacheable.
func (t PolicyTable) Validate() error {
	for _, c := range Categories {
		p, ok := t[c]
		if !ok {
			return fmt.Errorf("validate policies: missing category %q", c)
		}
		if p.CacheControl == "" {
			return fmt.Errorf("validate policies: empty cache-control for category %q", c)
		}
	}

	for c := range t {
		if !c.IsValid() {
			return fmt.Errorf("validate policies: unknown category %q", c)
		}
	}

	if t[CategoryOpaque].Cacheable {
		return fmt.Errorf("validate policies: opaque category cannot be cacheable")
	}

	return nil
}

// Decision is the outcome of a conditional-cache evaluation.
//
// NotModified=true means the client's validator matched: respond 304 and do
// not fetch. Otherwise the caller fetches the object and attaches Policy's
// cache-control directive plus Token as the validator (Token is empty for
// non-cacheable categories).
type Decision struct {
	NotModified bool
	Category    Category
	Token       string
	Policy      CachePolicy
}
