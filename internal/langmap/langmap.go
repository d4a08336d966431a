// Package langmap maps user-facing locale tags to the translation model's
// internal (Flores-200) language codes.
package langmap

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"

	"nllbd/internal/common/fsutil"
)

// DefaultCode is returned by Resolve when no mapping exists.
const DefaultCode = "eng_Latn"

var (
	// ErrUnknownLanguage is returned by ResolveStrict when the tag has no mapping.
	ErrUnknownLanguage = errors.New("unknown language")
	// ErrInvalidTag is returned by ResolveStrict for empty or malformed tags.
	ErrInvalidTag = errors.New("invalid language tag")
)

// chineseVariants are looked up by their full tag; the primary subtag "zh"
// alone cannot tell simplified from traditional script.
var chineseVariants = map[string]struct{}{
	"zh-hans": {},
	"zh-hant": {},
	"zh-cn":   {},
	"zh-tw":   {},
}

// Map is an immutable tag -> Flores code table.
type Map struct {
	codes map[string]string
	known map[string]struct{}
}

// New builds a Map from an in-memory table. Keys are lowercased.
func New(m map[string]string) *Map {
	lm := &Map{
		codes: make(map[string]string, len(m)),
		known: make(map[string]struct{}, len(m)),
	}
	for k, v := range m {
		lm.codes[strings.ToLower(k)] = v
		lm.known[v] = struct{}{}
	}
	return lm
}

// Load reads a JSON object of tag -> code pairs from path.
func Load(path string) (*Map, error) {
	b, p, err := fsutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read language map: %w", err)
	}
	var raw map[string]string
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse language map %s: %w", p, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("parse language map %s: not a JSON object", p)
	}
	return New(raw), nil
}

// Len returns the number of tags in the map.
func (m *Map) Len() int { return len(m.codes) }

// Tags returns all tags in sorted order.
func (m *Map) Tags() []string {
	out := make([]string, 0, len(m.codes))
	for k := range m.codes {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Lookup returns the code mapped to an exact (lowercase) tag.
func (m *Map) Lookup(tag string) (string, bool) {
	v, ok := m.codes[tag]
	return v, ok
}

// key returns the lookup key for a user tag.
func key(tag string) string {
	k := strings.ToLower(tag)
	if _, ok := chineseVariants[k]; ok {
		return k
	}
	if i := strings.IndexByte(k, '-'); i >= 0 {
		return k[:i]
	}
	return k
}

// Resolve maps tag to a Flores code. It never fails: tags without a
// mapping resolve to DefaultCode.
func (m *Map) Resolve(tag string) string {
	if v, ok := m.codes[key(tag)]; ok {
		return v
	}
	return DefaultCode
}

// ResolveStrict is Resolve without the fallback. Flores codes that appear as
// values in the map are accepted as-is.
func (m *Map) ResolveStrict(tag string) (string, error) {
	if strings.TrimSpace(tag) == "" {
		return "", fmt.Errorf("%w: empty tag", ErrInvalidTag)
	}
	if _, ok := m.known[tag]; ok {
		return tag, nil
	}
	if v, ok := m.codes[key(tag)]; ok {
		return v, nil
	}
	if _, err := language.Parse(tag); err != nil {
		// Well-formed but unregistered subtags are still just unknown.
		var verr language.ValueError
		if !errors.As(err, &verr) {
			return "", fmt.Errorf("%w: %q: %v", ErrInvalidTag, tag, err)
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, tag)
}
