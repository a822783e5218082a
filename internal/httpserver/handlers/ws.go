package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"

	"seekmark/internal/httpserver/deps"
	"seekmark/internal/logger"
	"seekmark/internal/relay"
	"seekmark/internal/surface/page"
	"seekmark/internal/surface/remote"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WS hosts the page surface for one browser tab. The client owns the DOM and
// nothing else: it reports navigation and clicks, answers page queries, and
// executes seek/notify/flash. The controller, its state machine and the
// message bus all live on this side of the socket.
func WS(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tab, err := strconv.Atoi(r.URL.Query().Get("tab"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing or invalid tab parameter")
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			d.Logger.Warn("websocket upgrade failed", logger.Error(err))
			return
		}

		c := &wsClient{conn: conn, tab: tab, logger: d.Logger}
		defer c.close()

		host := remote.NewHost(c.writeFrame, d.Logger)
		defer host.Close()

		bus := d.Router.Attach(tab)
		// Detach on disconnect so pending popup requests resolve to nil
		// instead of waiting out their timeout.
		defer d.Router.Detach(tab)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		ctrl := page.New(d.Engine, bus, host, d.Sites, d.Logger, d.PageConfig)
		go ctrl.Run(ctx)

		d.Logger.Info("browser client connected", logger.Int("tab_id", tab))
		c.readLoop(ctx, host, d.NavEvents)
		d.Logger.Info("browser client disconnected", logger.Int("tab_id", tab))
	}
}

type wsClient struct {
	conn   *websocket.Conn
	tab    int
	logger logger.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func (c *wsClient) readLoop(ctx context.Context, host *remote.Host, nav chan<- relay.NavEvent) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("browser client read failed",
					logger.Int("tab_id", c.tab),
					logger.Error(err))
			}
			return
		}

		var frame remote.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.logger.Debug("dropping malformed frame",
				logger.Int("tab_id", c.tab),
				logger.Error(err))
			continue
		}

		switch frame.Kind {
		case remote.KindNav:
			host.SetLocation(frame.URL)
			select {
			case nav <- relay.NavEvent{TabID: c.tab, URL: frame.URL, Complete: frame.Complete}:
			default:
				c.logger.Warn("navigation event dropped, relay backlogged",
					logger.Int("tab_id", c.tab))
			}

		case remote.KindClick:
			// The create flow blocks on the description prompt; it must not
			// hold up this loop, which delivers the prompt's reply.
			go host.Click()

		case remote.KindReply:
			host.HandleReply(frame)

		default:
			c.logger.Debug("unknown frame kind",
				logger.Int("tab_id", c.tab),
				logger.String("kind", frame.Kind))
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (c *wsClient) writeFrame(f remote.Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(f)
}

func (c *wsClient) close() {
	c.closeOnce.Do(func() {
		_ = c.conn.Close()
	})
}
