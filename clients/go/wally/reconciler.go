package wally

import (
	"strconv"
	"strings"
	"time"
)

// timestampAttr is the node attribute that records an entry's ordering key.
const timestampAttr = "timestamp"

// Reconciler keeps a Surface in sync with the live change feed. Entries are
// kept sorted by ascending timestamp, with at most one node per message id.
// An entry's position is fixed at insertion time: later modifications update
// the rendered content in place and never move the node.
//
// Apply must be called from a single goroutine.
type Reconciler struct {
	surface Surface
	nodes   []Node
	byID    map[string]Node
	now     func() time.Time
}

// NewReconciler creates a reconciler rendering onto surface.
func NewReconciler(surface Surface) *Reconciler {
	return &Reconciler{
		surface: surface,
		byID:    make(map[string]Node),
		now:     time.Now,
	}
}

// Len returns the number of rendered entries.
func (r *Reconciler) Len() int {
	return len(r.nodes)
}

// Apply folds a feed batch into the surface, one change at a time in batch
// order. Added and modified changes are treated identically, so a
// modification for an entry the reconciler has never seen simply inserts it.
//
// Apply panics if an upsert change carries no message snapshot, or if a
// rendered node's timestamp attribute is missing or unreadable: both mean
// the rendered list can no longer be trusted, and there is no reasonable
// way to continue.
func (r *Reconciler) Apply(batch []Change) {
	for _, change := range batch {
		switch change.Kind {
		case ChangeRemoved:
			r.remove(change.ID)
		case ChangeAdded, ChangeModified:
			if change.Message == nil {
				panic("wally: " + string(change.Kind) + " change for " + change.ID + " has no message")
			}
			r.upsert(change.ID, change.Message)
		}
	}
}

// remove detaches the entry's node. Removing an unknown id is a no-op, so
// duplicate removal notifications are harmless.
func (r *Reconciler) remove(id string) {
	node, ok := r.byID[id]
	if !ok {
		return
	}

	r.surface.Remove(node)
	delete(r.byID, id)
	for i, n := range r.nodes {
		if n == node {
			r.nodes = append(r.nodes[:i], r.nodes[i+1:]...)
			break
		}
	}
}

// upsert inserts a new entry at its sorted position, or re-renders an
// existing entry's content in place.
func (r *Reconciler) upsert(id string, msg *Message) {
	node, ok := r.byID[id]
	if !ok {
		node = r.surface.CreateNode(id)
		ts := msg.Timestamp
		if ts == 0 {
			// Not yet assigned a server timestamp; treat as current.
			ts = r.now().UnixMilli()
		}
		node.SetAttribute(timestampAttr, strconv.FormatInt(ts, 10))
		r.insert(node, ts)
		r.byID[id] = node
	}
	r.render(node, msg)
}

// insert places node before the first entry whose timestamp strictly exceeds
// ts, or at the end. Equal timestamps therefore keep arrival order.
func (r *Reconciler) insert(node Node, ts int64) {
	for i, existing := range r.nodes {
		if r.nodeTimestamp(existing) > ts {
			r.surface.InsertBefore(node, existing)
			r.nodes = append(r.nodes[:i], append([]Node{node}, r.nodes[i:]...)...)
			return
		}
	}
	r.surface.Append(node)
	r.nodes = append(r.nodes, node)
}

// nodeTimestamp reads an attached node's ordering key back off the surface.
func (r *Reconciler) nodeTimestamp(node Node) int64 {
	raw, ok := node.Attribute(timestampAttr)
	if !ok {
		panic("wally: rendered entry is missing its timestamp attribute")
	}
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		panic("wally: rendered entry has unreadable timestamp attribute " + strconv.Quote(raw))
	}
	return ts
}

// render draws the entry's author and body onto its node. Image URLs get a
// fresh cache-busting query suffix on every render, so a placeholder that
// resolves to its real URL is always refetched.
func (r *Reconciler) render(node Node, msg *Message) {
	node.SetAuthor(msg.Name, msg.ProfilePicURL)

	switch {
	case msg.Text != "":
		node.SetLines(strings.Split(msg.Text, "\n"))
	case msg.ImageURL != "":
		node.SetImage(cacheBust(msg.ImageURL, r.now()))
	}
}

func cacheBust(imageURL string, now time.Time) string {
	sep := "?"
	if strings.Contains(imageURL, "?") {
		sep = "&"
	}
	return imageURL + sep + "t=" + strconv.FormatInt(now.UnixNano(), 10)
}
