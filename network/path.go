package network

import "strings"

// Path addresses an entity by the child names leading to it from some
// starting group, outermost segment first. An empty Path addresses the
// starting group itself.
type Path []string

// String renders the path in dotted source notation.
func (p Path) String() string { return strings.Join(p, ".") }

// Parent returns the path minus its final segment.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return p
	}

	return p[:len(p)-1]
}

// Leaf returns the final segment, or "" for an empty path.
func (p Path) Leaf() string {
	if len(p) == 0 {
		return ""
	}

	return p[len(p)-1]
}

// Child returns a new path extended by one segment.
// The receiver is not modified.
func (p Path) Child(name string) Path {
	q := make(Path, len(p)+1)
	copy(q, p)
	q[len(p)] = name

	return q
}

// ParsePath splits dotted source notation into a Path.
// An empty string yields an empty path.
func ParsePath(s string) Path {
	if s == "" {
		return nil
	}

	return Path(strings.Split(s, "."))
}

// PortRef addresses one named port on the node reached by Path.
// The path may land on a group whose boundary table forwards the port
// name to an interior node.
type PortRef struct {
	Port string
	Path Path
}

// String renders the reference in dotted source notation.
func (r PortRef) String() string {
	if len(r.Path) == 0 {
		return r.Port
	}

	return r.Path.String() + "." + r.Port
}
