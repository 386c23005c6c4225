package api

import (
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// ThreadResponse is the operator view of one conversation's state.
type ThreadResponse struct {
	ThreadID        string   `json:"thread_id"`
	AutoRepliesSent int      `json:"auto_replies_sent"`
	MoreInfoLoops   int      `json:"more_info_loops"`
	AgreementSent   bool     `json:"agreement_sent"`
	ManualOwner     bool     `json:"manual_owner"`
	LastTemplate    string   `json:"last_template"`
	LastFrom        string   `json:"last_from"`
	LockedRoles     []string `json:"locked_roles"`
	ProcessedCount  int      `json:"processed_count"`
}

// getThread returns the stored state for one thread
func (s *Server) getThread(c echo.Context) error {
	id := c.Param("id")
	snap := s.store.Snapshot(id)

	return c.JSON(http.StatusOK, ThreadResponse{
		ThreadID:        id,
		AutoRepliesSent: snap.AutoRepliesSent,
		MoreInfoLoops:   snap.MoreInfoLoops,
		AgreementSent:   snap.AgreementSent,
		ManualOwner:     snap.ManualOwner,
		LastTemplate:    snap.LastTemplate,
		LastFrom:        snap.LastFrom,
		LockedRoles:     snap.LockedRoles,
		ProcessedCount:  len(snap.ProcessedMsgIDs),
	})
}

// manualRelease clears the manual-owner flag on a thread so automation can
// resume. Exists because manual-owner detection has a known false-positive
// mode on pre-marker outbound messages.
func (s *Server) manualRelease(c echo.Context) error {
	id := c.Param("id")
	s.store.ResetManualOwner(id)

	operator, _ := c.Get("operator_email").(string)
	log.Printf("[INFO] Thread %s released back to automation by %s", id, operator)

	return c.JSON(http.StatusOK, map[string]string{
		"status":    "released",
		"thread_id": id,
	})
}

// getRecentDecisions returns the latest audit entries
func (s *Server) getRecentDecisions(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "limit must be an integer between 1 and 500",
			})
		}
		limit = parsed
	}

	entries, err := s.recorder.Recent(c.Request().Context(), limit)
	if err != nil {
		log.Printf("[ERROR] Failed to fetch recent decisions: %v", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to fetch decisions",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"decisions": entries,
		"count":     len(entries),
	})
}
