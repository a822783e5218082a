package popup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seekmark/internal/channel"
	"seekmark/internal/domain"
	"seekmark/internal/engine"
	"seekmark/internal/logger"
	"seekmark/internal/store/memory"
)

type fixture struct {
	records *memory.Store
	engine  *engine.Engine
	bus     *channel.Bus
	sites   []domain.Site
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	records := memory.NewStore()
	f := &fixture{
		records: records,
		engine:  engine.New(records, logger.Nop()),
		bus:     channel.NewBus(),
		sites:   []domain.Site{domain.DefaultSite()},
	}
	t.Cleanup(f.bus.Close)
	return f
}

// servePage answers bus commands the way the page surface would.
func (f *fixture) servePage(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		for {
			select {
			case env := <-f.bus.Deliver():
				switch env.Msg.Type {
				case channel.TypeDelete:
					list, err := f.engine.Delete(ctx, "abc123", env.Msg.Value, env.Msg.BookmarkID)
					if err != nil {
						env.Reply(nil)
						continue
					}
					env.Reply(list)
				case channel.TypeEdit:
					list, err := f.engine.Edit(ctx, "abc123", env.Msg.Value, env.Msg.BookmarkID, env.Msg.NewDesc)
					if err != nil {
						env.Reply(nil)
						continue
					}
					env.Reply(list)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// serveFailure answers every command with a nil reply.
func (f *fixture) serveFailure(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		for {
			select {
			case env := <-f.bus.Deliver():
				env.Reply(nil)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (f *fixture) open(t *testing.T) *Session {
	t.Helper()
	s, err := Open(context.Background(), "https://www.youtube.com/watch?v=abc123",
		f.sites, f.records, f.engine, f.bus, logger.Nop())
	require.NoError(t, err)
	return s
}

func TestOpenNotApplicable(t *testing.T) {
	f := newFixture(t)

	_, err := Open(context.Background(), "https://www.youtube.com/feed/home",
		f.sites, f.records, f.engine, f.bus, logger.Nop())
	assert.ErrorIs(t, err, ErrNotApplicable)
}

func TestOpenLoadsCurrentList(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Create(context.Background(), "abc123", 10, "intro")
	require.NoError(t, err)

	s := f.open(t)
	assert.Equal(t, "abc123", s.VideoID())
	require.Len(t, s.Bookmarks(), 1)
	assert.Equal(t, "intro", s.Bookmarks()[0].Desc)
}

func TestSearchIsCaseInsensitiveViewOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.engine.Create(ctx, "abc123", 10, "Opening Scene")
	require.NoError(t, err)
	_, err = f.engine.Create(ctx, "abc123", 30, "the big reveal")
	require.NoError(t, err)
	_, err = f.engine.Create(ctx, "abc123", 50, "closing scene")
	require.NoError(t, err)

	s := f.open(t)

	got := s.Search("SCENE")
	require.Len(t, got, 2)
	assert.Equal(t, "Opening Scene", got[0].Desc)
	assert.Equal(t, "closing scene", got[1].Desc)

	assert.Len(t, s.Search("reveal"), 1)
	assert.Empty(t, s.Search("nothing matches this"))
	assert.Len(t, s.Search("  "), 3, "blank query returns the full list")

	// The unfiltered copy survives filtering.
	assert.Len(t, s.Bookmarks(), 3)
}

func TestDeleteAdoptsAuthoritativeReply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b1, err := f.engine.Create(ctx, "abc123", 10, "one")
	require.NoError(t, err)
	_, err = f.engine.Create(ctx, "abc123", 20, "two")
	require.NoError(t, err)

	f.servePage(t)
	s := f.open(t)

	list, err := s.Delete(ctx, b1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 20.0, list[0].Time)
	assert.Len(t, s.Bookmarks(), 1)
}

func TestDeleteRestoresRowOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b1, err := f.engine.Create(ctx, "abc123", 10, "one")
	require.NoError(t, err)

	f.serveFailure(t)
	s := f.open(t)

	list, err := s.Delete(ctx, b1)
	assert.ErrorIs(t, err, ErrRoundTripFailed)
	assert.Len(t, list, 1, "failed round trip restores the optimistic removal")
	assert.Len(t, s.Bookmarks(), 1)
}

func TestEditThroughPageSurface(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b1, err := f.engine.Create(ctx, "abc123", 10, "before")
	require.NoError(t, err)

	f.servePage(t)
	s := f.open(t)

	list, err := s.Edit(ctx, b1, "after")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "after", list[0].Desc)
}

func TestExportImportRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.engine.Create(ctx, "abc123", 10, "intro")
	require.NoError(t, err)
	_, err = f.engine.Create(ctx, "abc123", 20, "outro")
	require.NoError(t, err)

	s := f.open(t)
	data, err := s.Export()
	require.NoError(t, err)

	// Import into a different, empty video.
	other, err := Open(ctx, "https://www.youtube.com/watch?v=empty9",
		f.sites, f.records, f.engine, f.bus, logger.Nop())
	require.NoError(t, err)

	merged, err := other.Import(ctx, data)
	require.NoError(t, err)
	require.Len(t, merged, 2)
	assert.Equal(t, 10.0, merged[0].Time)
	assert.Equal(t, "intro", merged[0].Desc)
	assert.Equal(t, 20.0, merged[1].Time)
	assert.Equal(t, "outro", merged[1].Desc)

	stored, err := f.records.Load(ctx, "empty9")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestImportRejectsMissingArray(t *testing.T) {
	f := newFixture(t)
	s := f.open(t)

	_, err := s.Import(context.Background(), []byte(`{"videoId":"abc123"}`))
	assert.ErrorIs(t, err, ErrBadImport)

	_, err = s.Import(context.Background(), []byte(`not json`))
	assert.ErrorIs(t, err, ErrBadImport)
}

func TestImportMergesWithWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.engine.Create(ctx, "abc123", 10, "mine")
	require.NoError(t, err)

	s := f.open(t)
	merged, err := s.Import(ctx, []byte(`{"videoId":"abc123","bookmarks":[
		{"id":"x","time":10.4,"desc":"near-duplicate","createdAt":"2020-01-01T00:00:00Z"},
		{"id":"y","time":30,"desc":"fresh","createdAt":"2020-01-01T00:00:00Z"}
	]}`))
	require.NoError(t, err)
	require.Len(t, merged, 2)
	assert.Equal(t, "mine", merged[0].Desc, "existing entry wins inside the merge window")
	assert.Equal(t, 30.0, merged[1].Time)
}
