package schema

import "strings"

// NamespaceContext is the namespace table of one schema document: a mapping
// from namespace URI to the short prefix declared for it, plus the namespace
// currently being processed. Built once per document, read-only afterwards.
type NamespaceContext struct {
	prefixes map[string]string // namespace URI -> short prefix
	current  string            // URI of the namespace being processed
}

// NewNamespaceContext builds a context from a URI->prefix table and the URI
// of the namespace the caller is currently walking.
func NewNamespaceContext(prefixes map[string]string, current string) *NamespaceContext {
	return &NamespaceContext{prefixes: prefixes, current: current}
}

// Current returns the URI of the namespace being processed.
func (c *NamespaceContext) Current() string {
	return c.current
}

// Multiple reports whether more than one namespace is declared. With a
// single namespace, prefix disambiguation is skipped entirely.
func (c *NamespaceContext) Multiple() bool {
	return len(c.prefixes) > 1
}

// CurrentPrefix returns the short prefix registered for the namespace being
// processed.
func (c *NamespaceContext) CurrentPrefix() string {
	return c.prefixes[c.current]
}

// HasPrefix reports whether p is a prefix registered for any namespace.
func (c *NamespaceContext) HasPrefix(p string) bool {
	for _, known := range c.prefixes {
		if known == p {
			return true
		}
	}
	return false
}

// StripCurrent removes the current namespace's "prefix:" head from s, if
// present. Used to reduce type references like "xs:string" to their local
// name before registry lookup.
func (c *NamespaceContext) StripCurrent(s string) string {
	if p := c.CurrentPrefix(); p != "" {
		return strings.TrimPrefix(s, p+":")
	}
	return s
}

// hasKnownPrefixHead reports whether s already begins with a registered
// prefix followed by an underscore, i.e. it has been normalized before.
func (c *NamespaceContext) hasKnownPrefixHead(s string) bool {
	for _, p := range c.prefixes {
		if p != "" && strings.HasPrefix(s, p+"_") {
			return true
		}
	}
	return false
}

// Normalize turns a raw schema name into a safe relational identifier:
// leading whitespace is trimmed and whitespace, hyphens and periods become
// underscores. When more than one namespace is active, names are
// additionally disambiguated by prefix: "pfx:local" keeps a registered
// prefix (as "pfx_local") and rewrites an unknown one to the current
// namespace's prefix; bare names gain the current prefix unless they already
// carry a registered one, which keeps the function idempotent. Pure function
// of its inputs and the namespace table.
func Normalize(raw string, ns *NamespaceContext) string {
	s := strings.TrimLeft(raw, " \t\r\n")
	s = strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(s)

	if ns == nil || !ns.Multiple() || ns.current == "" || s == "" {
		return s
	}

	if i := strings.IndexByte(s, ':'); i >= 0 {
		prefix, rest := s[:i], s[i+1:]
		if ns.HasPrefix(prefix) {
			return prefix + "_" + rest
		}
		return ns.CurrentPrefix() + "_" + rest
	}
	if ns.hasKnownPrefixHead(s) {
		return s
	}
	return ns.CurrentPrefix() + "_" + s
}
