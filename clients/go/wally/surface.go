package wally

// Node is one rendered message entry on a Surface. The reconciler records
// each entry's ordering key on the node itself as a string attribute, so
// ordering state survives entirely in the rendered output.
type Node interface {
	// SetAttribute stores a named string attribute on the node.
	SetAttribute(name, value string)
	// Attribute reads a named attribute, reporting whether it is set.
	Attribute(name string) (value string, ok bool)
	// SetAuthor renders the entry's author name and profile picture.
	SetAuthor(name, photoURL string)
	// SetLines renders the entry's body as text lines.
	SetLines(lines []string)
	// SetImage renders the entry's body as an image.
	SetImage(url string)
}

// Surface is an ordered rendering target for the reconciler. Implementations
// are not required to be safe for concurrent use; the reconciler drives a
// surface from a single goroutine.
type Surface interface {
	// CreateNode allocates a detached node for the given entry id.
	CreateNode(id string) Node
	// InsertBefore places node immediately before an attached node.
	InsertBefore(node, before Node)
	// Append places node at the end of the surface.
	Append(node Node)
	// Remove detaches a node from the surface.
	Remove(node Node)
}
