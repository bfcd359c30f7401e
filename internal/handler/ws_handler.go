package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/learnflow/learnflow-backend/internal/exam"
	"github.com/learnflow/learnflow-backend/internal/middleware"
	"github.com/learnflow/learnflow-backend/internal/response"
	"github.com/learnflow/learnflow-backend/internal/service"
	ws "github.com/learnflow/learnflow-backend/internal/websocket"
	"github.com/rs/zerolog"
)

const outboundBuffer = 16

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a live session to the student's browser.
type WSHandler struct {
	sessionService *service.SessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.SessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/student/assessments/:id/stream?token=...
// Pushes a state event on every tick and answer change, then a submitted
// event with the result. Accepts select, submit and ping actions.
func (h *WSHandler) SessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	userID := claims.UserID
	assessmentID := c.Param("id")

	// Reject before upgrading so the client gets a normal JSON error.
	feed, cancel, err := h.sessionService.Subscribe(userID, assessmentID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("user_id", userID).
		Str("assessment_id", assessmentID).
		Logger()
	wsLog.Info().Msg("Student connected")

	out := make(chan any, outboundBuffer)
	readerDone := make(chan struct{})

	go h.readLoop(conn, wsLog, userID, assessmentID, out, readerDone)

	h.writeLoop(conn, wsLog, userID, assessmentID, feed, out, readerDone)
	wsLog.Info().Msg("Student disconnected")
}

// writeLoop is the connection's only writer.
func (h *WSHandler) writeLoop(
	conn *websocket.Conn,
	wsLog zerolog.Logger,
	userID int,
	assessmentID string,
	feed <-chan exam.Snapshot,
	out <-chan any,
	readerDone <-chan struct{},
) {
	ping := time.NewTicker(ws.PingPeriod)
	defer ping.Stop()

	// Current state first so a reconnecting client can render immediately.
	if snap, err := h.sessionService.State(userID, assessmentID); err == nil {
		if err := ws.WriteTyped(conn, ws.StateResponse{Event: ws.EventState, State: snap}); err != nil {
			return
		}
	}

	for {
		select {
		case <-readerDone:
			return

		case snap, ok := <-feed:
			if !ok {
				h.finish(conn, wsLog, userID, assessmentID)
				return
			}
			if err := ws.WriteTyped(conn, ws.StateResponse{Event: ws.EventState, State: snap}); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed")
				return
			}

		case msg := <-out:
			if err := ws.WriteTyped(conn, msg); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed")
				return
			}

		case <-ping.C:
			if err := ws.WritePing(conn); err != nil {
				return
			}
		}
	}
}

// finish sends the result once the session has ended, then closes.
func (h *WSHandler) finish(conn *websocket.Conn, wsLog zerolog.Logger, userID int, assessmentID string) {
	res, err := h.sessionService.Result(userID, assessmentID)
	if err != nil {
		// Torn down without scoring.
		_ = ws.WriteTyped(conn, ws.ErrorResponse{
			Event: ws.EventError,
			Code:  string(response.ErrSessionNotFound),
			Error: response.GetMessage(response.ErrSessionNotFound),
		})
		_ = ws.WriteClose(conn, "session closed")
		return
	}

	if err := ws.WriteTyped(conn, ws.SubmittedResponse{Event: ws.EventSubmitted, Result: res}); err != nil {
		wsLog.Debug().Err(err).Msg("Write failed")
		return
	}
	_ = ws.WriteClose(conn, "submitted")
}

// readLoop decodes client actions and queues replies for the writer.
func (h *WSHandler) readLoop(
	conn *websocket.Conn,
	wsLog zerolog.Logger,
	userID int,
	assessmentID string,
	out chan<- any,
	done chan<- struct{},
) {
	defer close(done)
	ws.Prepare(conn)

	for {
		var req ws.Request
		if err := ws.ReadJSON(conn, &req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}

		var reply any
		switch req.Action {
		case ws.ActionSelect:
			if req.QuestionID == "" || req.OptionIndex == nil {
				reply = errorEvent(response.ErrValidation)
				break
			}
			// Success is reported by the state event from the feed.
			if _, err := h.sessionService.SelectAnswer(userID, assessmentID, req.QuestionID, *req.OptionIndex); err != nil {
				reply = errorEventFor(err)
			}

		case ws.ActionSubmit:
			// The feed closes on submit and the writer sends the result.
			if _, err := h.sessionService.Submit(userID, assessmentID); err != nil {
				reply = errorEventFor(err)
			}

		case ws.ActionPing:
			reply = ws.PongResponse{Event: ws.EventPong}

		default:
			wsLog.Warn().Str("action", string(req.Action)).Msg("Unknown action")
			reply = ws.ErrorResponse{
				Event: ws.EventError,
				Code:  string(response.ErrValidation),
				Error: "unknown action: " + string(req.Action),
			}
		}

		if reply == nil {
			continue
		}
		select {
		case out <- reply:
		default:
			wsLog.Warn().Msg("Outbound queue full, reply dropped")
		}
	}
}

func errorEvent(code response.ErrCode) ws.ErrorResponse {
	return ws.ErrorResponse{Event: ws.EventError, Code: string(code), Error: response.GetMessage(code)}
}

func errorEventFor(err error) ws.ErrorResponse {
	_, code := classify(err)
	return errorEvent(code)
}
