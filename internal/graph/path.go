package graph

import (
	"strconv"
	"strings"
)

// Path addresses a node through composite nesting: each element is a node
// identifier inside the network reached by the previous element.
type Path []NodeID

// Child returns a new path extended by id. The receiver is never modified.
func (p Path) Child(id NodeID) Path {
	c := make(Path, len(p)+1)
	copy(c, p)
	c[len(p)] = id
	return c
}

// String renders the path as "4/2/7".
func (p Path) String() string {
	var b strings.Builder
	for i, id := range p {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteString(strconv.FormatUint(uint64(id), 10))
	}
	return b.String()
}

// ParsePath parses the String form of a path.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return Path{}, nil
	}
	parts := strings.Split(s, "/")
	p := make(Path, len(parts))
	for i, part := range parts {
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, err
		}
		p[i] = NodeID(id)
	}
	return p, nil
}
