package outline

import (
	"fmt"
	"io"
	"strings"
)

// Walk visits n and its descendants depth-first in document order.
// The depth passed to fn is relative to n. Returning false from fn skips the
// children of the visited node.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(node *Node, depth int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, child := range n.Children {
		child.walk(fn, depth+1)
	}
}

// FlatSection is a section with its position in the tree, as handed to
// collaborators that cannot consume a tree.
type FlatSection struct {
	Section

	// Depth is 1 for top-level sections.
	Depth int `json:"depth"`

	// Path lists the names of the enclosing sections followed by this one.
	Path []string `json:"path"`
}

// Flatten lists every section below the root depth-first.
func (n *Node) Flatten() []FlatSection {
	var flat []FlatSection
	n.Walk(func(node *Node, depth int) bool {
		if node == n {
			return true
		}
		flat = append(flat, FlatSection{
			Section: node.Section,
			Depth:   depth,
			Path:    node.Path(),
		})
		return true
	})
	return flat
}

// Find returns the first section named title in depth-first order.
// Titles are compared after the same normalization Build applies.
func (n *Node) Find(title string) (*Node, bool) {
	want := normalizeTitle(title)

	var found *Node
	n.Walk(func(node *Node, _ int) bool {
		if found != nil {
			return false
		}
		if node.Section.Name == want {
			found = node
			return false
		}
		return true
	})
	return found, found != nil
}

// Deepest returns the most nested section containing page.
// It returns n itself when no child contains the page, and nil when n does not.
func (n *Node) Deepest(page int) *Node {
	if !n.Section.Contains(page) {
		return nil
	}
	// Adjacent sections share their boundary page; the later one wins since
	// it starts on that page.
	for i := len(n.Children) - 1; i >= 0; i-- {
		if d := n.Children[i].Deepest(page); d != nil {
			return d
		}
	}
	return n
}

// Count returns the number of sections below n.
func (n *Node) Count() int {
	count := 0
	n.Walk(func(node *Node, _ int) bool {
		if node != n {
			count++
		}
		return true
	})
	return count
}

// Print writes an indented rendering of the tree, one section per line.
func (n *Node) Print(w io.Writer) error {
	var err error
	n.Walk(func(node *Node, depth int) bool {
		if err != nil {
			return false
		}
		_, err = fmt.Fprintf(w, "%s%s [%d-%d]\n",
			strings.Repeat("  ", depth),
			node.Section.Name,
			node.Section.StartPage,
			node.Section.EndPage,
		)
		return true
	})
	return err
}

// String returns the Print rendering.
func (n *Node) String() string {
	var b strings.Builder
	_ = n.Print(&b) //nolint:errcheck // strings.Builder never fails
	return b.String()
}
