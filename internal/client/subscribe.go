package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/raysh454/trimetric/internal/logging"
	"github.com/raysh454/trimetric/internal/model"
)

// Subscribe opens the score websocket for firm. The channel first carries the
// current document, then every committed update, and is closed when ctx is
// done or the server goes away.
func (c *Client) Subscribe(ctx context.Context, firm string) (<-chan *model.ScoresData, error) {
	u := *c.base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += "/ws" + firmPath(firm, "scores")

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return nil, &model.RemoteError{Status: resp.StatusCode, Message: fmt.Sprintf("websocket upgrade refused: %v", err)}
		}
		return nil, fmt.Errorf("dial websocket: %w", err)
	}

	out := make(chan *model.ScoresData)
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	go func() {
		defer close(out)
		defer stop()
		defer conn.Close()
		for {
			var doc model.ScoresData
			if err := conn.ReadJSON(&doc); err != nil {
				if ctx.Err() == nil {
					c.logger.Debug("score subscription ended", logging.Err(err))
				}
				return
			}
			select {
			case out <- &doc:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
