package handlers

import (
	"log"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tasknest/tasknest-api/internal/constants"
	apierrors "github.com/tasknest/tasknest-api/internal/errors"
	"github.com/tasknest/tasknest-api/internal/middleware"
	"github.com/tasknest/tasknest-api/internal/realtime"
)

// WSHandler upgrades authenticated requests to live-push connections.
type WSHandler struct {
	registry *realtime.Registry
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(registry *realtime.Registry) *WSHandler {
	return &WSHandler{registry: registry}
}

// Serve attaches a websocket to the caller's logical session and then pumps
// join/leave frames into the registry until the socket closes. Closing the
// socket keeps the session's subscriptions; the next connect resumes them.
func (h *WSHandler) Serve(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	sid, ok := middleware.SessionID(c)
	if !ok {
		// Session predates the realtime id; mint one now.
		sid = uuid.NewString()
		session := sessions.Default(c)
		session.Set(constants.ContextKeySessionID, sid)
		if err := session.Save(); err != nil {
			apierrors.InternalError(c, "Failed to save session")
			return
		}
	}

	transport := realtime.NewWSTransport(c.Writer, c.Request)
	conn, err := h.registry.Connect(c.Request.Context(), sid, userID, transport)
	if err != nil {
		// The upgrader has already written its handshake failure response.
		log.Printf("websocket connect failed for session %s: %v", sid, err)
		return
	}

	for {
		frame, err := transport.ReadFrame()
		if err != nil {
			h.registry.Disconnect(sid, conn)
			return
		}

		switch frame.Action {
		case "join":
			h.registry.Join(sid, frame.Topic)
		case "leave":
			h.registry.Leave(sid, frame.Topic)
		}
	}
}
