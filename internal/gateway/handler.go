package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/scrumdeck/poker-host/internal/store"
)

const writeTimeout = 3 * time.Second

// Handler upgrades the connection and runs the session: a sequential reader
// loop and a writer goroutine draining the session outbox, so a slow write
// never stalls inbound processing.
func Handler(st *store.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// Participants reach us through shared invite URLs, not a
			// fixed frontend origin.
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		sess := NewSession(st, logger)
		defer sess.Close()

		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for {
				select {
				case <-writeCtx.Done():
					return
				case msg := <-sess.Outbox():
					data, err := msg.Encode()
					if err != nil {
						logger.Error("encode outbound frame", zap.Error(err))
						continue
					}
					ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
					err = conn.Write(ctx, websocket.MessageText, data)
					cancel()
					if err != nil {
						// the connection is already dead; the reader's
						// exit does the cleanup
						return
					}
				}
			}
		}()

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					logger.Debug("websocket read ended", zap.Error(err))
				}
				return
			}
			sess.HandleFrame(data)
		}
	}
}
