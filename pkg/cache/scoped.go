package cache

// ScopedKeyer prefixes every key of an inner [Keyer]. The CLI scopes keys
// by participant so that two participants run with the same seed still get
// separate entries that can be cleared independently:
//
//	k := NewScopedKeyer(NewDefaultKeyer(), "subject:s01:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer returns a keyer prepending prefix. A nil inner keyer means
// the default one.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// TimelineKey returns the prefixed timeline key.
func (k *ScopedKeyer) TimelineKey(opts TimelineKeyOpts) string {
	return k.prefix + k.inner.TimelineKey(opts)
}

// FrameKey returns the prefixed frame key. timelineKey is passed through
// unchanged, so a frame key already carries its scope.
func (k *ScopedKeyer) FrameKey(timelineKey string, opts FrameKeyOpts) string {
	return k.prefix + k.inner.FrameKey(timelineKey, opts)
}
