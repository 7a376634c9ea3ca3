package cache

// Keyer builds cache keys for registry data.
type Keyer interface {
	// IndexKey returns the key for a registry's discovered service index.
	IndexKey(registryURL string) string
}

// DefaultKeyer is the unscoped Keyer used for anonymous registries.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// IndexKey hashes the registry URL so that arbitrary URLs map to safe keys.
// Registry identity is case-sensitive, so the URL is not normalized.
func (DefaultKeyer) IndexKey(registryURL string) string {
	return indexKey(registryURL)
}

// ScopedKeyer wraps a Keyer with a prefix for credential isolation.
// An authenticated user may see a different service index than an anonymous
// one, so credentialed registries get their own key space:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), UserScope(username))
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// IndexKey generates a prefixed service index key.
func (k *ScopedKeyer) IndexKey(registryURL string) string {
	return k.prefix + k.inner.IndexKey(registryURL)
}
