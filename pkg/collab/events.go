package collab

import (
	"encoding/json"
	"time"
)

// CommentPayload travels inline in a comment_added envelope. Unlike
// item_shared there is no pull phase: the comment itself is the data.
type CommentPayload struct {
	ItemID    string    `json:"item_id"`
	CommentID string    `json:"comment_id"`
	AuthorID  string    `json:"author_id"`
	Text      string    `json:"text"`
	At        time.Time `json:"at"`
}

// UpdatePayload travels inline in an item_updated envelope and replaces
// the recipient's copy of the item data.
type UpdatePayload struct {
	ItemID string          `json:"item_id"`
	Data   json.RawMessage `json:"data"`
}

// RevokePayload tells a recipient to drop its copy of the item.
type RevokePayload struct {
	ItemID string `json:"item_id"`
}
