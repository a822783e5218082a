package page

import "time"

// Player is the host page's active media element.
type Player interface {
	// Ready reports whether the element can report a playback position.
	Ready() bool

	// Position returns the current playback position in seconds.
	Position() float64

	// Seek moves playback to the given position. Implementations resume
	// playback when the player is paused.
	Seek(seconds float64) error
}

// Control is the bookmark affordance attached to the native control bar.
type Control interface {
	// Flash dips the control's opacity as creation feedback, restoring it
	// after the given duration.
	Flash(d time.Duration)
}

// Host abstracts the page context the controller lives in: the location, the
// media element, the native control bar, and the user-facing dialogs.
type Host interface {
	// Location returns the page's current URL.
	Location() string

	// Player resolves the active media element. ok is false when no media
	// element exists on the page.
	Player() (p Player, ok bool)

	// ControlsReady reports whether the native control bar exists yet.
	// Freshly navigated pages take a while to build it.
	ControlsReady() bool

	// EnsureControl attaches the bookmark affordance to the control bar,
	// wiring onClick to it. Idempotent: repeated calls must not create a
	// second control, and return the existing one.
	EnsureControl(onClick func()) (Control, error)

	// Prompt asks the user for a bookmark description, pre-filled with def.
	// ok is false when the user cancelled.
	Prompt(def string) (desc string, ok bool)

	// Notify shows a blocking user-visible message.
	Notify(msg string)
}
