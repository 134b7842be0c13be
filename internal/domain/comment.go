package domain

// DefaultCommentTitle is given to blocks added through AddComment without a title
const DefaultCommentTitle = "Comment Block"

// CommentBlock groups nodes on the editor canvas. It has no runtime meaning;
// membership is recorded by node id so it survives save and load.
type CommentBlock struct {
	Title    string   `json:"title"`
	Position Position `json:"position"`
	NodeIDs  []string `json:"node_ids"`
}

// NewCommentBlock creates a comment block around the given nodes. The
// title is kept as given, empty included.
func NewCommentBlock(title string, pos Position, nodeIDs ...string) *CommentBlock {
	ids := make([]string, 0, len(nodeIDs))
	ids = append(ids, nodeIDs...)
	return &CommentBlock{
		Title:    title,
		Position: pos,
		NodeIDs:  ids,
	}
}

// Contains reports whether the block groups the node
func (c *CommentBlock) Contains(nodeID string) bool {
	for _, id := range c.NodeIDs {
		if id == nodeID {
			return true
		}
	}
	return false
}
