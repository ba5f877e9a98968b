// internal/adapter/shopapi/events.go

package shopapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"shopmap/internal/domain/shop"
)

// Follow connects to the backend event stream. The returned channel carries
// shop events until ctx is cancelled or the connection drops, then closes.
func (c *Client) Follow(ctx context.Context) (<-chan shop.Event, error) {
	u := *c.baseURL
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/shops"

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, &shop.NetworkError{Op: "follow", Err: fmt.Errorf("error dialing %s: %w", u.String(), err)}
	}

	events := make(chan shop.Event)

	// Unblock ReadMessage on cancellation
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	go func() {
		defer close(events)
		defer close(stop)
		defer conn.Close()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.logger.Warn("Shop event stream closed", zap.Error(err))
				}
				return
			}

			var ev shop.Event
			if err := json.Unmarshal(data, &ev); err != nil {
				c.logger.Warn("Skipping unreadable shop event", zap.Error(err))
				continue
			}

			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}
