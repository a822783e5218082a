package remote

// Frame is the wire unit exchanged with a browser client. One flat shape
// keeps the client trivial; unused fields are omitted per kind.
type Frame struct {
	Kind     string  `json:"kind"`
	ID       uint64  `json:"id,omitempty"`
	Op       string  `json:"op,omitempty"`
	URL      string  `json:"url,omitempty"`
	Complete bool    `json:"complete,omitempty"`
	Value    float64 `json:"value,omitempty"`
	Text     string  `json:"text,omitempty"`
	OK       bool    `json:"ok,omitempty"`
	Ready    bool    `json:"ready,omitempty"`
}

// Client to server.
const (
	// KindNav reports a navigation: URL plus whether the load completed.
	KindNav = "nav"
	// KindClick reports that the user clicked the bookmark control.
	KindClick = "click"
	// KindReply answers a query by ID.
	KindReply = "reply"
)

// Server to client.
const (
	// KindQuery asks the client about its page; Op selects what.
	KindQuery = "query"
	// KindSeek moves playback to Value seconds.
	KindSeek = "seek"
	// KindNotify shows a blocking message.
	KindNotify = "notify"
	// KindFlash dips the control opacity for Value seconds.
	KindFlash = "flash"
)

// Query operations.
const (
	OpPlayer        = "player"        // reply: OK = media element exists
	OpPlayerReady   = "playerReady"   // reply: Ready = position is reportable
	OpPosition      = "position"      // reply: Value = playback seconds
	OpControls      = "controls"      // reply: Ready = control bar exists
	OpEnsureControl = "ensureControl" // reply: OK = control attached
	OpPrompt        = "prompt"        // Text = prefill; reply: Text, OK = not cancelled
)
