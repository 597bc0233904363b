package memdom

import "strings"

// selectorGroup is a comma separated list of compound selectors.
type selectorGroup []compound

// compound is a tag plus id, class and attribute conditions. Combinators
// are not supported because the document is flat.
type compound struct {
	tag     string
	id      string
	classes []string
	attrs   []attrCond
}

type attrCond struct {
	name     string
	value    string
	hasValue bool
}

func (g selectorGroup) matches(el *Element) bool {
	for _, c := range g {
		if c.matches(el) {
			return true
		}
	}
	return false
}

func (c compound) matches(el *Element) bool {
	if c.tag != "" && c.tag != "*" && c.tag != el.Tag() {
		return false
	}
	if c.id != "" && c.id != el.ID() {
		return false
	}
	for _, cls := range c.classes {
		if !el.HasClass(cls) {
			return false
		}
	}
	for _, a := range c.attrs {
		v, ok := el.Attribute(a.name)
		if !ok || (a.hasValue && v != a.value) {
			return false
		}
	}
	return true
}

func parseSelector(s string) (selectorGroup, bool) {
	var group selectorGroup
	for _, part := range strings.Split(s, ",") {
		c, ok := parseCompound(strings.TrimSpace(part))
		if !ok {
			return nil, false
		}
		group = append(group, c)
	}
	return group, len(group) > 0
}

func parseCompound(s string) (compound, bool) {
	var c compound
	if s == "" {
		return c, false
	}

	i := 0
	name, n := readIdent(s)
	if n == 0 && strings.HasPrefix(s, "*") {
		name, n = "*", 1
	}
	c.tag = strings.ToLower(name)
	i += n

	for i < len(s) {
		switch s[i] {
		case '#':
			id, n := readIdent(s[i+1:])
			if n == 0 || c.id != "" {
				return c, false
			}
			c.id = id
			i += 1 + n
		case '.':
			cls, n := readIdent(s[i+1:])
			if n == 0 {
				return c, false
			}
			c.classes = append(c.classes, cls)
			i += 1 + n
		case '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return c, false
			}
			cond, ok := parseAttr(s[i+1 : i+end])
			if !ok {
				return c, false
			}
			c.attrs = append(c.attrs, cond)
			i += end + 1
		default:
			return c, false
		}
	}
	return c, true
}

func parseAttr(s string) (attrCond, bool) {
	name, value, hasValue := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if _, n := readIdent(name); n == 0 || n != len(name) {
		return attrCond{}, false
	}
	if !hasValue {
		return attrCond{name: name}, true
	}
	value = strings.TrimSpace(value)
	if len(value) >= 2 && (value[0] == '"' || value[0] == '\'') && value[len(value)-1] == value[0] {
		value = value[1 : len(value)-1]
	}
	return attrCond{name: name, value: value, hasValue: true}, true
}

// readIdent reads a CSS identifier prefix of s.
func readIdent(s string) (string, int) {
	n := 0
	for n < len(s) {
		ch := s[n]
		if ch == '-' || ch == '_' || ch >= '0' && ch <= '9' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= 0x80 {
			n++
			continue
		}
		break
	}
	return s[:n], n
}
