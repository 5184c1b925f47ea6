package wally

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

// fakeNode is an in-memory Node implementation for reconciler tests.
type fakeNode struct {
	id    string
	attrs map[string]string
	name  string
	photo string
	lines []string
	image string
}

func (n *fakeNode) SetAttribute(name, value string) { n.attrs[name] = value }

func (n *fakeNode) Attribute(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

func (n *fakeNode) SetAuthor(name, photoURL string) {
	n.name = name
	n.photo = photoURL
}

func (n *fakeNode) SetLines(lines []string) {
	n.lines = lines
	n.image = ""
}

func (n *fakeNode) SetImage(url string) {
	n.image = url
	n.lines = nil
}

// fakeSurface is an in-memory Surface that records node order.
type fakeSurface struct {
	order []*fakeNode
}

func (s *fakeSurface) CreateNode(id string) Node {
	return &fakeNode{id: id, attrs: make(map[string]string)}
}

func (s *fakeSurface) InsertBefore(node, before Node) {
	n := node.(*fakeNode)
	b := before.(*fakeNode)
	for i, existing := range s.order {
		if existing == b {
			s.order = append(s.order[:i], append([]*fakeNode{n}, s.order[i:]...)...)
			return
		}
	}
	panic("InsertBefore: reference node not attached")
}

func (s *fakeSurface) Append(node Node) {
	s.order = append(s.order, node.(*fakeNode))
}

func (s *fakeSurface) Remove(node Node) {
	n := node.(*fakeNode)
	for i, existing := range s.order {
		if existing == n {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

func (s *fakeSurface) ids() []string {
	ids := make([]string, len(s.order))
	for i, n := range s.order {
		ids[i] = n.id
	}
	return ids
}

func (s *fakeSurface) byID(t *testing.T, id string) *fakeNode {
	t.Helper()
	for _, n := range s.order {
		if n.id == id {
			return n
		}
	}
	t.Fatalf("node %s not on surface", id)
	return nil
}

func added(id string, ts int64, text string) Change {
	return Change{Kind: ChangeAdded, ID: id, Message: &Message{
		ID:        id,
		Name:      "rosie",
		Text:      text,
		Timestamp: ts,
	}}
}

func TestApplySortsDescendingBatch(t *testing.T) {
	surface := &fakeSurface{}
	rec := NewReconciler(surface)

	// Initial batches arrive newest first.
	rec.Apply([]Change{
		added("c", 300, "third"),
		added("b", 200, "second"),
		added("a", 100, "first"),
	})

	want := []string{"a", "b", "c"}
	if got := surface.ids(); !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	if rec.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", rec.Len())
	}
}

func TestApplyOneNodePerID(t *testing.T) {
	surface := &fakeSurface{}
	rec := NewReconciler(surface)

	rec.Apply([]Change{added("a", 100, "first")})
	rec.Apply([]Change{added("a", 100, "first again")})

	if len(surface.order) != 1 {
		t.Fatalf("surface has %d nodes, want 1", len(surface.order))
	}
	if got := surface.byID(t, "a").lines; !reflect.DeepEqual(got, []string{"first again"}) {
		t.Fatalf("lines = %v", got)
	}
}

func TestInsertBetweenExisting(t *testing.T) {
	surface := &fakeSurface{}
	rec := NewReconciler(surface)

	rec.Apply([]Change{
		added("a", 100, "first"),
		added("c", 300, "third"),
	})
	rec.Apply([]Change{added("b", 200, "second")})

	want := []string{"a", "b", "c"}
	if got := surface.ids(); !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestEqualTimestampsKeepArrivalOrder(t *testing.T) {
	surface := &fakeSurface{}
	rec := NewReconciler(surface)

	rec.Apply([]Change{added("a", 100, "first")})
	rec.Apply([]Change{added("b", 100, "also first")})

	// b does not strictly exceed a, so it lands after it.
	want := []string{"a", "b"}
	if got := surface.ids(); !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestMissingTimestampAppendsAtEnd(t *testing.T) {
	surface := &fakeSurface{}
	rec := NewReconciler(surface)
	rec.now = func() time.Time { return time.UnixMilli(500) }

	rec.Apply([]Change{
		added("a", 100, "first"),
		added("b", 200, "second"),
	})
	rec.Apply([]Change{{Kind: ChangeAdded, ID: "pending", Message: &Message{
		ID:   "pending",
		Name: "rosie",
		Text: "no server timestamp yet",
	}}})

	want := []string{"a", "b", "pending"}
	if got := surface.ids(); !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	if got, _ := surface.byID(t, "pending").Attribute("timestamp"); got != "500" {
		t.Fatalf("timestamp attribute = %q, want %q", got, "500")
	}
}

func TestModifiedUnknownEntryInserts(t *testing.T) {
	surface := &fakeSurface{}
	rec := NewReconciler(surface)

	rec.Apply([]Change{{Kind: ChangeModified, ID: "a", Message: &Message{
		ID:        "a",
		Name:      "rosie",
		Text:      "hello",
		Timestamp: 100,
	}}})

	if got := surface.ids(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("order = %v, want [a]", got)
	}
}

func TestModificationNeverMovesNode(t *testing.T) {
	surface := &fakeSurface{}
	rec := NewReconciler(surface)

	rec.Apply([]Change{
		added("a", 100, "first"),
		added("b", 200, "second"),
		added("c", 300, "third"),
	})

	// Edited text: content updates, position does not.
	rec.Apply([]Change{{Kind: ChangeModified, ID: "b", Message: &Message{
		ID:        "b",
		Name:      "rosie",
		Text:      "second, edited",
		Timestamp: 200,
	}}})

	want := []string{"a", "b", "c"}
	if got := surface.ids(); !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	node := surface.byID(t, "b")
	if !reflect.DeepEqual(node.lines, []string{"second, edited"}) {
		t.Fatalf("lines = %v", node.lines)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	surface := &fakeSurface{}
	rec := NewReconciler(surface)

	rec.Apply([]Change{
		added("a", 100, "first"),
		added("b", 200, "second"),
	})

	rec.Apply([]Change{{Kind: ChangeRemoved, ID: "a"}})
	rec.Apply([]Change{{Kind: ChangeRemoved, ID: "a"}})
	rec.Apply([]Change{{Kind: ChangeRemoved, ID: "never-existed"}})

	if got := surface.ids(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("order = %v, want [b]", got)
	}
	if rec.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", rec.Len())
	}
}

func TestTextSplitsIntoLines(t *testing.T) {
	surface := &fakeSurface{}
	rec := NewReconciler(surface)

	rec.Apply([]Change{added("a", 100, "one\ntwo\nthree")})

	want := []string{"one", "two", "three"}
	if got := surface.byID(t, "a").lines; !reflect.DeepEqual(got, want) {
		t.Fatalf("lines = %v, want %v", got, want)
	}
}

func TestPlaceholderResolvesInPlace(t *testing.T) {
	surface := &fakeSurface{}
	rec := NewReconciler(surface)

	rec.Apply([]Change{
		added("a", 100, "before"),
		{Kind: ChangeAdded, ID: "img", Message: &Message{
			ID:        "img",
			Name:      "rosie",
			ImageURL:  LoadingImageURL,
			Timestamp: 200,
		}},
		added("c", 300, "after"),
	})

	node := surface.byID(t, "img")
	if !strings.HasPrefix(node.image, LoadingImageURL) {
		t.Fatalf("image = %q, want loading spinner", node.image)
	}

	rec.Apply([]Change{{Kind: ChangeModified, ID: "img", Message: &Message{
		ID:        "img",
		Name:      "rosie",
		ImageURL:  "https://example.com/files/pic.png",
		Timestamp: 200,
	}}})

	want := []string{"a", "img", "c"}
	if got := surface.ids(); !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	if !strings.HasPrefix(node.image, "https://example.com/files/pic.png?t=") {
		t.Fatalf("image = %q, want resolved URL with cache-bust suffix", node.image)
	}
}

func TestImageRenderBustsCacheEveryTime(t *testing.T) {
	surface := &fakeSurface{}
	rec := NewReconciler(surface)

	tick := time.UnixMilli(1000)
	rec.now = func() time.Time {
		tick = tick.Add(time.Millisecond)
		return tick
	}

	msg := &Message{ID: "img", Name: "rosie", ImageURL: "https://example.com/pic.png", Timestamp: 100}
	rec.Apply([]Change{{Kind: ChangeAdded, ID: "img", Message: msg}})
	first := surface.byID(t, "img").image

	rec.Apply([]Change{{Kind: ChangeModified, ID: "img", Message: msg}})
	second := surface.byID(t, "img").image

	if first == second {
		t.Fatalf("both renders produced %q, want distinct cache-bust suffixes", first)
	}
}

func TestCacheBustAppendsToExistingQuery(t *testing.T) {
	got := cacheBust("https://example.com/pic.png?alt=media", time.UnixMilli(5))
	if !strings.HasPrefix(got, "https://example.com/pic.png?alt=media&t=") {
		t.Fatalf("cacheBust = %q", got)
	}
}

func TestUpsertWithoutSnapshotPanics(t *testing.T) {
	surface := &fakeSurface{}
	rec := NewReconciler(surface)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for added change without message")
		}
	}()
	rec.Apply([]Change{{Kind: ChangeAdded, ID: "a"}})
}

func TestUnreadableTimestampAttributePanics(t *testing.T) {
	surface := &fakeSurface{}
	rec := NewReconciler(surface)

	rec.Apply([]Change{added("a", 100, "first")})
	surface.byID(t, "a").attrs["timestamp"] = "not-a-number"

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unreadable timestamp attribute")
		}
	}()
	rec.Apply([]Change{added("b", 50, "needs a scan")})
}

func TestMissingTimestampAttributePanics(t *testing.T) {
	surface := &fakeSurface{}
	rec := NewReconciler(surface)

	rec.Apply([]Change{added("a", 100, "first")})
	delete(surface.byID(t, "a").attrs, "timestamp")

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for missing timestamp attribute")
		}
	}()
	rec.Apply([]Change{added("b", 50, "needs a scan")})
}

func TestFeedRoundTrip(t *testing.T) {
	surface := &fakeSurface{}
	rec := NewReconciler(surface)

	// Connect batch arrives newest first, then a live removal lands.
	rec.Apply([]Change{
		added("b", 200, "newer"),
		added("a", 100, "older"),
	})
	if got := surface.ids(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("order after connect = %v, want [a b]", got)
	}

	rec.Apply([]Change{{Kind: ChangeRemoved, ID: "a"}})
	if got := surface.ids(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("order after removal = %v, want [b]", got)
	}

	node := surface.byID(t, "b")
	if node.name != "rosie" {
		t.Fatalf("author = %q, want rosie", node.name)
	}
}
