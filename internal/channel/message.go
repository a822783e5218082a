package channel

// Type discriminates the cross-surface message payload.
type Type string

const (
	// TypeNew announces that a tab finished loading a new video. Fire-and-forget.
	TypeNew Type = "NEW"
	// TypePlay asks the page surface to seek the player. Fire-and-forget.
	TypePlay Type = "PLAY"
	// TypeDelete asks the page surface to delete a bookmark. Expects the
	// resulting list as a reply.
	TypeDelete Type = "DELETE"
	// TypeEdit asks the page surface to re-describe a bookmark. Expects the
	// resulting list as a reply.
	TypeEdit Type = "EDIT"
)

// ExpectsReply reports whether the type carries an asynchronous reply.
func (t Type) ExpectsReply() bool {
	return t == TypeDelete || t == TypeEdit
}

// Message is the discriminated payload exchanged between surfaces.
// Value carries the playback time in seconds where applicable.
type Message struct {
	Type       Type    `json:"type"`
	VideoID    string  `json:"videoId,omitempty"`
	Value      float64 `json:"value,omitempty"`
	BookmarkID string  `json:"bookmarkId,omitempty"`
	NewDesc    string  `json:"newDesc,omitempty"`
}
