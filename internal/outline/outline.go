package outline

import (
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// RootTitle is the name of the synthetic root section.
const RootTitle = "Document"

// Observation is a single heading event extracted from a document.
type Observation struct {
	// FontSize is the rendered size of the heading. Larger is shallower.
	FontSize float64 `json:"font_size" yaml:"font_size"`

	// Title is the heading text.
	Title string `json:"title" yaml:"title"`

	// StartPage is the 1-based page on which the heading appears.
	StartPage int `json:"start_page" yaml:"start_page"`
}

// Section is a named page range of a document.
type Section struct {
	Name      string `json:"name"`
	StartPage int    `json:"start_page"`
	EndPage   int    `json:"end_page"`
}

// Pages returns the number of pages the section touches.
func (s Section) Pages() int {
	if s.EndPage < s.StartPage {
		return 0
	}
	return s.EndPage - s.StartPage + 1
}

// Contains reports whether page falls inside the section.
func (s Section) Contains(page int) bool {
	return page >= s.StartPage && page <= s.EndPage
}

// Node is one section of an outline tree.
// Children own their subtrees; the parent pointer is only used to walk back
// up the tree and never for ownership.
type Node struct {
	// FontSize is the font size of the heading that opened the section.
	// The root carries math.MaxFloat64.
	FontSize float64

	// Section holds the name and resolved page range.
	Section Section

	// Children are the nested sections in document order.
	Children []*Node

	parent *Node
}

// Parent returns the enclosing section, or nil for the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// IsRoot reports whether n is the synthetic document root.
func (n *Node) IsRoot() bool {
	return n.parent == nil
}

// Depth returns the nesting level of n. The root is at depth 0.
func (n *Node) Depth() int {
	depth := 0
	for p := n.parent; p != nil; p = p.parent {
		depth++
	}
	return depth
}

// Path returns the section names from the first level below the root down to n.
func (n *Node) Path() []string {
	var path []string
	for cur := n; cur != nil && !cur.IsRoot(); cur = cur.parent {
		path = append(path, cur.Section.Name)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func (n *Node) addChild(child *Node) {
	child.parent = n
	n.Children = append(n.Children, child)
}

// Build folds observations into an outline tree whose root spans from the
// first observed page to documentEndPage.
//
// Build is best-effort: out-of-order pages are accepted as they come and
// produce a structurally valid tree. Use BuildStrict to reject such input.
func Build(observations []Observation, documentEndPage int) *Node {
	firstPage := 1
	if len(observations) > 0 {
		firstPage = observations[0].StartPage
	}

	root := &Node{
		FontSize: math.MaxFloat64,
		Section: Section{
			Name:      RootTitle,
			StartPage: firstPage,
			EndPage:   documentEndPage,
		},
	}

	cursor := root
	for _, obs := range observations {
		candidate := &Node{
			FontSize: obs.FontSize,
			Section: Section{
				Name:      normalizeTitle(obs.Title),
				StartPage: obs.StartPage,
				EndPage:   documentEndPage,
			},
		}

		// Anything open with a font no larger than the candidate cannot be its ancestor.
		for !cursor.IsRoot() && cursor.FontSize <= candidate.FontSize {
			cursor.Section.EndPage = candidate.Section.StartPage
			cursor = cursor.parent
		}
		if !cursor.IsRoot() {
			cursor.Section.EndPage = candidate.Section.StartPage
		}

		cursor.addChild(candidate)
		cursor = candidate
	}

	for n := cursor; n != nil; n = n.parent {
		n.Section.EndPage = documentEndPage
	}

	return root
}

// normalizeTitle trims surrounding whitespace and composes the title to NFC
// so that headings extracted with decomposed accents compare equal.
func normalizeTitle(title string) string {
	return norm.NFC.String(strings.TrimSpace(title))
}
