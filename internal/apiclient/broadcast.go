package apiclient

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/fullmoon-jpg/paceon-sub000/internal/feedsync"
)

// Subscribe opens the feed websocket and delivers decoded events to
// handler until the returned unsubscribe func runs or ctx is canceled.
func (c *Client) Subscribe(ctx context.Context, scope string, handler func(feedsync.Event)) (func(), error) {
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/ws/feed"
	q := url.Values{}
	q.Set("scope", scope)
	if c.token != "" {
		q.Set("token", c.token)
	}
	wsURL += "?" + q.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, feedsync.NewTransientError(err)
	}

	ctx, cancel := context.WithCancel(ctx)
	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			_ = conn.Close()
		})
	}

	// Closing the connection on ctx.Done unblocks the read loop.
	go func() {
		<-ctx.Done()
		stop()
	}()

	go func() {
		defer stop()
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Warn("feed broadcast connection lost", slog.String("error", err.Error()))
				}
				return
			}
			var ev feedsync.Event
			if err := json.Unmarshal(raw, &ev); err != nil {
				slog.Warn("dropping malformed feed event", slog.String("error", err.Error()))
				continue
			}
			handler(ev)
		}
	}()

	return stop, nil
}
