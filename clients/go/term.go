package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/zachlamont/wheres-wally/clients/go/wally"
)

// termNode renders one message as a block of terminal lines.
type termNode struct {
	id    string
	attrs map[string]string
	name  string
	lines []string
	image string
}

func (n *termNode) SetAttribute(name, value string) { n.attrs[name] = value }

func (n *termNode) Attribute(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

func (n *termNode) SetAuthor(name, photoURL string) { n.name = name }

func (n *termNode) SetLines(lines []string) {
	n.lines = lines
	n.image = ""
}

func (n *termNode) SetImage(url string) {
	n.image = url
	n.lines = nil
}

// termSurface is a wally.Surface backed by the terminal. Redraw repaints
// the whole list after each applied batch.
type termSurface struct {
	order []*termNode
}

func (s *termSurface) CreateNode(id string) wally.Node {
	return &termNode{id: id, attrs: make(map[string]string)}
}

func (s *termSurface) InsertBefore(node, before wally.Node) {
	n := node.(*termNode)
	b := before.(*termNode)
	for i, existing := range s.order {
		if existing == b {
			s.order = append(s.order[:i], append([]*termNode{n}, s.order[i:]...)...)
			return
		}
	}
	s.order = append(s.order, n)
}

func (s *termSurface) Append(node wally.Node) {
	s.order = append(s.order, node.(*termNode))
}

func (s *termSurface) Remove(node wally.Node) {
	n := node.(*termNode)
	for i, existing := range s.order {
		if existing == n {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

func (s *termSurface) Redraw() {
	// Clear screen and home the cursor.
	fmt.Print("\033[2J\033[H")
	for _, n := range s.order {
		ts := ""
		if raw, ok := n.attrs["timestamp"]; ok {
			if ms, err := parseMillis(raw); err == nil {
				ts = time.UnixMilli(ms).Format("15:04:05")
			}
		}
		switch {
		case n.image != "":
			fmt.Printf("[%s] %s: <image %s>\n", ts, n.name, n.image)
		default:
			fmt.Printf("[%s] %s: %s\n", ts, n.name, strings.Join(n.lines, "\n    "))
		}
	}
}

func parseMillis(raw string) (int64, error) {
	var ms int64
	_, err := fmt.Sscanf(raw, "%d", &ms)
	return ms, err
}
