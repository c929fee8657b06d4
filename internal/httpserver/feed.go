package httpserver

import (
	"net/http"
	"time"

	"bookshop/internal/events"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	feedBuffer     = 32
	feedWriteWait  = 10 * time.Second
	feedPongWait   = 60 * time.Second
	feedPingPeriod = feedPongWait * 9 / 10
)

// Access is gated by the admin token, so any origin may connect.
var feedUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// orderFeedHandler streams order events to an admin over a websocket.
func orderFeedHandler(logger logrus.FieldLogger, hub *events.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := feedUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.WithError(err).Warn("order feed upgrade failed")
			return
		}
		defer conn.Close()

		sub, unsubscribe := hub.Subscribe(feedBuffer)
		defer unsubscribe()

		log := logger.WithField("admin", identityFrom(c).UserID)
		log.Info("order feed connected")

		// The reader only exists to notice the client going away and to
		// process pongs.
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			conn.SetReadLimit(512)
			_ = conn.SetReadDeadline(time.Now().Add(feedPongWait))
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(feedPongWait))
			})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ping := time.NewTicker(feedPingPeriod)
		defer ping.Stop()
		for {
			select {
			case <-closed:
				log.Info("order feed disconnected")
				return
			case e, ok := <-sub:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
				if err := conn.WriteJSON(e); err != nil {
					log.WithError(err).Debug("order feed write failed")
					return
				}
			case <-ping.C:
				_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}
}
