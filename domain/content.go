package domain

import "encoding/json"

// Node type names with special meaning to the engine. Anything else is an
// opaque container or leaf owned by the editor on the client side.
const (
	NodeText      = "text"
	NodeParagraph = "paragraph"
	NodeImage     = "image"
)

// ContentNode is one node of a rich-text document tree. Leaf nodes of type
// "text" carry Text and formatting Marks; container nodes ("doc",
// "paragraph") carry child nodes; special leaves ("image", "mention",
// "codeBlock") carry Attrs instead of text.
//
// The tree is attached to exactly one Comment and is replaced wholesale on
// edit. The engine never patches it partially.
type ContentNode struct {
	Type    string            `json:"type"`
	Text    string            `json:"text,omitempty"`
	Marks   []json.RawMessage `json:"marks,omitempty"`
	Attrs   map[string]any    `json:"attrs,omitempty"`
	Content []*ContentNode    `json:"content,omitempty"`
}

// PlainText returns the plain-text projection of the tree: the concatenation
// of all leaf text, with a newline appended after each paragraph node.
func (n *ContentNode) PlainText() string {
	if n == nil {
		return ""
	}
	out := n.Text
	for _, child := range n.Content {
		out += child.PlainText()
	}
	if n.Type == NodeParagraph {
		out += "\n"
	}
	return out
}
