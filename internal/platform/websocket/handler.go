package websocket

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/auth"
)

const (
	sendBuffer = 64
	writeWait  = 10 * time.Second
)

// Handler upgrades admin requests to a websocket carrying the activity feed.
type Handler struct {
	feed     *Feed
	upgrader gorillawebsocket.Upgrader
	log      zerolog.Logger
}

// NewHandler accepts upgrades from the given origins; "*" allows any. A
// request without an Origin header is always accepted.
func NewHandler(feed *Feed, origins []string, logger zerolog.Logger) *Handler {
	return &Handler{
		feed: feed,
		upgrader: gorillawebsocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(origins),
		},
		log: logger.With().Str("component", "activity_feed").Logger(),
	}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/activity-logs", auth.RequireRole(auth.RoleAdmin))
	g.GET("/stream", h.Stream)
}

// Stream upgrades the request. The initial filter comes from the comma
// separated "entity" query parameter and defaults to AllEntities.
func (h *Handler) Stream(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already answered with an HTTP error.
		return nil
	}

	sub := NewSubscriber(uuid.NewString(), sendBuffer, parseEntities(c.QueryParam("entity"))...)
	h.feed.Add(sub)
	h.log.Debug().
		Str("subscriber", sub.ID).
		Str("user_id", auth.UserIDFromContext(c.Request().Context())).
		Strs("entities", h.feed.Filter(sub)).
		Msg("Feed subscriber connected")

	go h.deliver(sub, conn)
	go h.listen(sub, conn)
	return nil
}

// listen applies filter requests until the peer goes away.
func (h *Handler) listen(sub *Subscriber, conn *gorillawebsocket.Conn) {
	defer func() {
		h.feed.Remove(sub)
		conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req Request
		if err := json.Unmarshal(msg, &req); err != nil {
			continue
		}
		h.feed.Apply(sub, req)
	}
}

// deliver writes queued frames until Remove closes the channel.
func (h *Handler) deliver(sub *Subscriber, conn *gorillawebsocket.Conn) {
	defer conn.Close()

	for frame := range sub.Send {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(gorillawebsocket.TextMessage, frame); err != nil {
			return
		}
	}
	_ = conn.WriteMessage(gorillawebsocket.CloseMessage, []byte{})
}

func parseEntities(q string) []string {
	var out []string
	for _, e := range strings.Split(q, ",") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return []string{AllEntities}
	}
	return out
}

func originChecker(origins []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origins {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}
