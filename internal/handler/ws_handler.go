package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/hirelens/hirelens-backend/internal/middleware"
	"github.com/hirelens/hirelens-backend/internal/model"
	"github.com/hirelens/hirelens-backend/internal/service"
	ws "github.com/hirelens/hirelens-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
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

// WSHandler streams session activity over WebSocket: autosave, blur events,
// navigation and submission.
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
// WS /ws/v1/candidate/assessments/:assessment_id/stream
// Upgrades to WebSocket for real-time autosave, integrity reporting,
// navigation and submission. Connecting resumes the countdown; dropping the
// stream parks the session so disconnected time is not charged.
func (h *WSHandler) SessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	assessmentID, err := uuid.Parse(c.Param("assessment_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assessment ID"})
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewSafeConn(raw)
	defer conn.Close()

	candidateID := claims.UserID

	wsLog := h.log.With().
		Int("candidate_id", candidateID).
		Str("assessment_id", assessmentID.String()).
		Logger()

	wsLog.Info().Msg("Candidate connected")

	expired, err := h.sessionService.WatchExpiry(context.Background(), candidateID, assessmentID)
	if err != nil {
		ws.WriteError(conn, err.Error())
		return
	}

	// Stop the clock when the stream drops. A no-op on sealed sessions.
	defer h.sessionService.Park(context.Background(), candidateID, assessmentID)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-done:
		case <-expired:
			wsLog.Info().Msg("Countdown expired, auto-submitted")
			ws.WriteTyped(conn, ws.ExpiredResponse{Event: ws.EventExpired, Reason: "timeout"})
		}
	}()

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch msg.Action {
		case ws.ActionAutosave:
			h.handleAutosave(conn, wsLog, candidateID, assessmentID, &msg)
		case ws.ActionBlur:
			h.handleBlur(conn, wsLog, candidateID, assessmentID)
		case ws.ActionAdvance:
			h.handleAdvance(conn, candidateID, assessmentID)
		case ws.ActionRetreat:
			h.handleRetreat(conn, candidateID, assessmentID)
		case ws.ActionSubmit:
			h.handleSubmit(conn, wsLog, candidateID, assessmentID)
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			ws.WriteError(conn, "unknown action: "+string(msg.Action))
		}
	}
}

func (h *WSHandler) handleAutosave(conn *ws.SafeConn, wsLog zerolog.Logger, candidateID int, assessmentID uuid.UUID, msg *ws.RequestPayload) {
	if msg.QuestionID == "" || len(msg.Response) == 0 {
		ws.WriteError(conn, "question_id and response are required")
		return
	}

	questionID, err := uuid.Parse(msg.QuestionID)
	if err != nil {
		ws.WriteError(conn, "invalid question_id format")
		return
	}

	resp, err := model.UnmarshalResponse(msg.Response)
	if err != nil {
		ws.WriteError(conn, "unrecognized response variant")
		return
	}

	if err := h.sessionService.Autosave(context.Background(), candidateID, assessmentID, questionID, resp); err != nil {
		wsLog.Warn().Err(err).Str("question_id", msg.QuestionID).Msg("Autosave rejected")
		ws.WriteError(conn, err.Error())
		return
	}

	ws.WriteTyped(conn, ws.AutosaveResponse{Event: ws.EventSuccess, Status: "saved"})
}

func (h *WSHandler) handleBlur(conn *ws.SafeConn, wsLog zerolog.Logger, candidateID int, assessmentID uuid.UUID) {
	signal, err := h.sessionService.RecordBlur(context.Background(), candidateID, assessmentID)
	if err != nil {
		ws.WriteError(conn, err.Error())
		return
	}

	submitted := signal.Action == model.IntegrityAutosubmit
	if submitted {
		wsLog.Info().Int("count", signal.Count).Msg("Tab-switch threshold crossed, session auto-submitted")
	}

	ws.WriteTyped(conn, ws.IntegrityResponse{
		Event:     ws.EventIntegrity,
		Count:     signal.Count,
		Flagged:   signal.Flagged,
		Action:    string(signal.Action),
		Submitted: submitted,
	})
}

func (h *WSHandler) handleAdvance(conn *ws.SafeConn, candidateID int, assessmentID uuid.UUID) {
	nav, snap, err := h.sessionService.Advance(context.Background(), candidateID, assessmentID)
	if err != nil {
		ws.WriteError(conn, err.Error())
		return
	}

	ws.WriteTyped(conn, ws.NavigatedResponse{
		Event:        ws.EventNavigated,
		OK:           nav.OK,
		Reason:       nav.Reason,
		CurrentIndex: snap.CurrentIndex,
	})
}

func (h *WSHandler) handleRetreat(conn *ws.SafeConn, candidateID int, assessmentID uuid.UUID) {
	snap, err := h.sessionService.Retreat(context.Background(), candidateID, assessmentID)
	if err != nil {
		ws.WriteError(conn, err.Error())
		return
	}

	ws.WriteTyped(conn, ws.NavigatedResponse{
		Event:        ws.EventNavigated,
		OK:           true,
		CurrentIndex: snap.CurrentIndex,
	})
}

func (h *WSHandler) handleSubmit(conn *ws.SafeConn, wsLog zerolog.Logger, candidateID int, assessmentID uuid.UUID) {
	breakdown, err := h.sessionService.Submit(context.Background(), candidateID, assessmentID)
	if err != nil {
		wsLog.Error().Err(err).Msg("Submit failed")
		ws.WriteError(conn, "submit failed")
		return
	}

	wsLog.Info().
		Float64("percentage", breakdown.Percentage).
		Bool("passed", breakdown.Passed).
		Msg("Session submitted and graded")

	ws.WriteTyped(conn, ws.GradedResponse{
		Event:      ws.EventGraded,
		Status:     "completed",
		Percentage: breakdown.Percentage,
		Passed:     breakdown.Passed,
	})
}
