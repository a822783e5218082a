package deps

import (
	"time"

	"seekmark/internal/channel"
	"seekmark/internal/domain"
	"seekmark/internal/engine"
	"seekmark/internal/logger"
	"seekmark/internal/relay"
	"seekmark/internal/store"
	"seekmark/internal/surface/page"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	Sites      []domain.Site         // tracked watch-page patterns
	Records    store.Records         // direct read path for the popup surface
	Engine     *engine.Engine        // reconciliation engine
	Router     *channel.Router       // per-tab message buses
	NavEvents  chan<- relay.NavEvent // navigation reports feeding the relay
	PageConfig page.Config           // timing knobs for per-tab controllers
}
