package domain

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DuplicateWindow is the minimum spacing in seconds between two bookmarks
	// on the same video. Creates inside the window are rejected; imports are not.
	DuplicateWindow = 2.0

	// MergeWindow is the proximity threshold used when merging an imported
	// list into an existing one. First occurrence wins on collision.
	MergeWindow = 1.0
)

// Bookmark is a single annotated timestamp within one video.
type Bookmark struct {
	// ID is a process-wide-unique token assigned at creation.
	// Records written by early versions may lack it; Normalize backfills.
	ID string `json:"id"`

	// Time is the playback position in seconds, >= 0.
	Time float64 `json:"time"`

	// Desc is the user-facing description. Never empty after creation.
	Desc string `json:"desc"`

	// CreatedAt is the creation instant in RFC 3339.
	CreatedAt string `json:"createdAt"`
}

// List is the ordered set of bookmarks for one video,
// kept sorted ascending by Time after every mutation.
type List []Bookmark

// NewBookmark builds a bookmark with a fresh ID and creation timestamp.
// An empty or all-whitespace desc falls back to the default description.
func NewBookmark(at float64, desc string) Bookmark {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		desc = DefaultDesc(at)
	}
	return Bookmark{
		ID:        NewID(),
		Time:      at,
		Desc:      desc,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// NewID generates a unique bookmark token: a base36 millisecond prefix so IDs
// sort roughly by creation time, plus a random suffix so two bookmarks created
// in the same millisecond stay distinguishable.
func NewID() string {
	prefix := strconv.FormatInt(time.Now().UnixMilli(), 36)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return prefix + suffix
}

// DefaultDesc returns the fallback description for a bookmark at the given
// playback position, e.g. "Bookmark at 00:01:42".
func DefaultDesc(at float64) string {
	return "Bookmark at " + FormatTimestamp(at)
}

// FormatTimestamp renders elapsed seconds as zero-padded HH:MM:SS.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Matches reports whether b is the target of an operation carrying the given
// id and time. ID wins when both sides have one; exact time match covers
// legacy records written without an ID.
func (b Bookmark) Matches(id string, at float64) bool {
	if id != "" && b.ID == id {
		return true
	}
	return b.Time == at
}

// Sort orders the list ascending by time, in place.
func (l List) Sort() {
	sort.SliceStable(l, func(i, j int) bool { return l[i].Time < l[j].Time })
}

// EnsureIDs backfills missing IDs in place, preserving order. Merge relies on
// the given order staying intact; first occurrence wins on collision.
func (l List) EnsureIDs() {
	for i := range l {
		if l[i].ID == "" {
			l[i].ID = NewID()
		}
	}
}

// Normalize backfills missing IDs and restores sort order. Called on every
// load so the rest of the code never special-cases legacy records.
func (l List) Normalize() {
	l.EnsureIDs()
	l.Sort()
}

// HasNear reports whether any entry lies within window seconds of at.
func (l List) HasNear(at, window float64) bool {
	for _, b := range l {
		if math.Abs(b.Time-at) < window {
			return true
		}
	}
	return false
}

// Clone returns an independent copy of the list.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	copy(out, l)
	return out
}
