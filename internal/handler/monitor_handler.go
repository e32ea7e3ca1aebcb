package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hirelens/hirelens-backend/internal/config"
	"github.com/hirelens/hirelens-backend/internal/middleware"
	"github.com/hirelens/hirelens-backend/internal/model"
	"github.com/hirelens/hirelens-backend/internal/response"
	"github.com/hirelens/hirelens-backend/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	refreshInterval   = 15 * time.Second
	keepAliveInterval = 30 * time.Second
	refreshTimeout    = 5 * time.Second // prevent slow queries from blocking the SSE loop
)

// MonitorHandler streams live session activity to recruiters over SSE.
type MonitorHandler struct {
	rdb               *redis.Client
	assessmentService *service.AssessmentService
	sessionService    *service.SessionService
	monitorService    *service.MonitorService
	log               zerolog.Logger
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(
	rdb *redis.Client,
	assessmentService *service.AssessmentService,
	sessionService *service.SessionService,
	monitorService *service.MonitorService,
	log zerolog.Logger,
) *MonitorHandler {
	return &MonitorHandler{
		rdb:               rdb,
		assessmentService: assessmentService,
		sessionService:    sessionService,
		monitorService:    monitorService,
		log:               log.With().Str("component", "monitor_handler").Logger(),
	}
}

// MonitorSSE godoc
// GET /api/v1/recruiter/assessments/:id/monitor
// Streams an initial snapshot, forwarded pub/sub events, periodic refreshes
// and keep-alive pings.
func (h *MonitorHandler) MonitorSSE(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	assessmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	assessment, err := h.assessmentService.GetByID(c.Request.Context(), assessmentID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	reqCtx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	h.sendInitialSnapshot(c, reqCtx, assessmentID, assessment)

	channelName := config.CacheKey.AssessmentMonitorChannel(assessmentID.String())
	pubsub := h.rdb.Subscribe(reqCtx, channelName)
	defer pubsub.Close()

	ch := pubsub.Channel()

	keepAliveTicker := time.NewTicker(keepAliveInterval)
	defer keepAliveTicker.Stop()

	refreshTicker := time.NewTicker(refreshInterval)
	defer refreshTicker.Stop()

	// Track whether anyone is active so empty refreshes can be skipped.
	hasActivity := false

	h.log.Info().Str("assessment_id", assessmentID.String()).Msg("Recruiter attached to live monitor SSE")

	pingPayload, _ := json.Marshal(map[string]string{"type": "ping"})

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Str("assessment_id", assessmentID.String()).Msg("Recruiter disconnected from live monitor SSE")
			return

		case msg := <-ch:
			// Forward raw JSON directly, no deserialization needed.
			c.Writer.Write([]byte("data: "))
			c.Writer.Write([]byte(msg.Payload))
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()

			hasActivity = true

		case <-refreshTicker.C:
			if !hasActivity {
				continue
			}
			h.sendRefresh(c, reqCtx, assessmentID, assessment.QuestionCount)

		case <-keepAliveTicker.C:
			c.Writer.Write([]byte("data: "))
			c.Writer.Write(pingPayload)
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		}
	}
}

// sendInitialSnapshot gathers data and writes the first SSE event.
func (h *MonitorHandler) sendInitialSnapshot(c *gin.Context, ctx context.Context, assessmentID uuid.UUID, assessment *model.Assessment) {
	results, _, _ := h.sessionService.GetResults(ctx, assessmentID, 1, 1000)

	totalStarted := len(results)
	totalInProgress := 0
	totalCompleted := 0

	candidatesSnapshot := make([]map[string]interface{}, 0, len(results))
	for _, res := range results {
		if res.Completed {
			totalCompleted++
		} else {
			totalInProgress++
		}

		var score float64
		if res.FinalScore != nil {
			score = *res.FinalScore
		}

		candidatesSnapshot = append(candidatesSnapshot, map[string]interface{}{
			"candidate_id":     res.CandidateID,
			"name":             res.Name,
			"email":            res.Email,
			"completed":        res.Completed,
			"flagged":          res.Flagged,
			"tab_switch_count": res.TabSwitchCount,
			"score":            score,
			"started_at":       res.StartedAt,
			"answered_count":   int64(0),
			"incident_count":   int64(0),
			"total_questions":  assessment.QuestionCount,
		})
	}

	// Fetch counts with a timeout so a slow query doesn't block the connection.
	var totalIncidents int64
	fetchCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	if progress, err := h.monitorService.GetProgress(fetchCtx, assessmentID); err == nil {
		totalIncidents = progress.TotalIncidents
		for i, s := range candidatesSnapshot {
			cid, ok := s["candidate_id"].(int)
			if !ok {
				continue
			}
			if count, found := progress.AnsweredCounts[cid]; found {
				candidatesSnapshot[i]["answered_count"] = count
			}
			if count, found := progress.IntegrityCounts[cid]; found {
				candidatesSnapshot[i]["incident_count"] = count
			}
		}
	}

	c.SSEvent("message", map[string]interface{}{
		"type": "snapshot",
		"data": map[string]interface{}{
			"assessment": map[string]interface{}{
				"id":              assessmentID.String(),
				"title":           assessment.Title,
				"duration":        assessment.DurationMinutes,
				"total_questions": assessment.QuestionCount,
			},
			"stats": map[string]interface{}{
				"total_started":     totalStarted,
				"total_in_progress": totalInProgress,
				"total_completed":   totalCompleted,
				"total_incidents":   totalIncidents,
			},
			"candidates": candidatesSnapshot,
		},
	})
	c.Writer.Flush()
}

// sendRefresh polls current progress and sends a compact refresh event.
func (h *MonitorHandler) sendRefresh(c *gin.Context, parentCtx context.Context, assessmentID uuid.UUID, totalQuestions int) {
	ctx, cancel := context.WithTimeout(parentCtx, refreshTimeout)
	defer cancel()

	progress, err := h.monitorService.GetProgress(ctx, assessmentID)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to fetch progress for refresh")
		return
	}

	progressData := make([]map[string]interface{}, 0, len(progress.AnsweredCounts)+len(progress.IntegrityCounts))

	for cid, answered := range progress.AnsweredCounts {
		progressData = append(progressData, map[string]interface{}{
			"candidate_id":   cid,
			"answered_count": answered,
			"incident_count": progress.IntegrityCounts[cid], // 0 if missing
		})
		delete(progress.IntegrityCounts, cid) // mark as handled
	}

	// Remaining incident-only candidates (already submitted, not in-progress).
	for cid, incidents := range progress.IntegrityCounts {
		progressData = append(progressData, map[string]interface{}{
			"candidate_id":   cid,
			"answered_count": int64(0),
			"incident_count": incidents,
		})
	}

	c.SSEvent("message", map[string]interface{}{
		"type":            "refresh",
		"total_questions": totalQuestions,
		"total_incidents": progress.TotalIncidents,
		"flagged":         progress.FlaggedIDs,
		"candidates":      progressData,
	})
	c.Writer.Flush()
}
