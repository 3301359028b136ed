package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/supertrooper/backend/internal/logging"
	"github.com/supertrooper/backend/internal/service"
	"github.com/supertrooper/backend/internal/sse"
)

var heartbeatInterval = 30 * time.Second

func writeEvent(w io.Writer, hub *sse.Hub, ev sse.Event) {
	data, _ := json.Marshal(ev.Data)
	fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", hub.FormatID(ev), ev.Type, string(data))
}

func closesStream(eventType string) bool {
	return eventType == service.EventProjectDeleted || eventType == service.EventWorkspaceDeleted
}

// GET /projects/:id/events
func (h *ProjectHandler) Stream(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	exists, err := h.projectService.Exists(c.Request.Context(), projectID)
	if err != nil {
		InternalError(c, err)
		return
	}
	if !exists {
		NotFound(c, fmt.Sprintf("No project found with ID %d", projectID))
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		Error(c, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Subscribe before replaying so nothing published in between is lost.
	ch, unsub := h.hub.Subscribe(projectID)
	defer unsub()

	ctx := c.Request.Context()
	lastEventID := h.hub.ResumeFrom(ctx, projectID, c.GetHeader("Last-Event-ID"))
	history, err := h.hub.ReplayFrom(ctx, projectID, lastEventID)
	if err != nil {
		logging.FromContext(c).WithError(err).Warnf("replay events of project %d", projectID)
	}
	c.Writer.WriteHeader(http.StatusOK)
	next := lastEventID
	for _, ev := range history {
		writeEvent(c.Writer, h.hub, ev)
		next = ev.ID + 1
	}
	flusher.Flush()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, open := <-ch:
			if !open {
				return
			}
			if ev.ID < next {
				continue
			}
			writeEvent(c.Writer, h.hub, ev)
			next = ev.ID + 1
			flusher.Flush()
			if closesStream(ev.Type) {
				return
			}
		case <-ticker.C:
			fmt.Fprintf(c.Writer, ": heartbeat\n\n")
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}
