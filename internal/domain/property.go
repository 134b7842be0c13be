package domain

import (
	"fmt"
	"strings"
)

// Property is an exposed, string-valued variable readable by conditions
// and text substitution
type Property struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Properties is an ordered property list. Order decides substitution
// priority and is preserved through save and load.
type Properties []Property

// Lookup returns the value of the named property
func (p Properties) Lookup(name string) (string, bool) {
	for _, prop := range p {
		if prop.Name == name {
			return prop.Value, true
		}
	}
	return "", false
}

// index returns the position of the named property or -1
func (p Properties) index(name string) int {
	for i, prop := range p {
		if prop.Name == name {
			return i
		}
	}
	return -1
}

// UniqueName returns name, suffixed with "(1)" until it no longer collides
// with an existing property
func (p Properties) UniqueName(name string) string {
	for p.index(name) >= 0 {
		name = name + "(1)"
	}
	return name
}

// Clone returns an independent copy
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	copy(out, p)
	return out
}

// Map returns the properties as a name to value map
func (p Properties) Map() map[string]string {
	m := make(map[string]string, len(p))
	for _, prop := range p {
		m[prop.Name] = prop.Value
	}
	return m
}

// Substitute replaces every "[name]" in text with the property's value. The
// scan runs once, left to right; where several properties could match at
// the same position the earlier one in the list wins. Replacement values
// are copied to the output verbatim and never scanned again.
func (p Properties) Substitute(text string) string {
	if text == "" || len(p) == 0 || !strings.Contains(text, "[") {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))

	i := 0
	for i < len(text) {
		if text[i] == '[' {
			if prop, ok := p.matchAt(text[i:]); ok {
				b.WriteString(prop.Value)
				i += len(prop.Name) + 2
				continue
			}
		}
		b.WriteByte(text[i])
		i++
	}
	return b.String()
}

func (p Properties) matchAt(s string) (Property, bool) {
	for _, prop := range p {
		token := "[" + prop.Name + "]"
		if strings.HasPrefix(s, token) {
			return prop, true
		}
	}
	return Property{}, false
}

// errPropertyNotFound formats a missing-property error
func errPropertyNotFound(name string) error {
	return fmt.Errorf("%w: %s", ErrPropertyNotFound, name)
}
