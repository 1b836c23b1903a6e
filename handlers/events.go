package handlers

import (
	"fmt"
	"io"
	"net/http"

	"matjar-backend/middleware"
	"matjar-backend/models"
	"matjar-backend/realtime"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EventsHandler struct {
	DB     *gorm.DB
	Broker *realtime.Broker
}

// Stream is the SSE endpoint dashboards subscribe to. Management roles with
// no branch pinned receive events from every branch.
func (h *EventsHandler) Stream(c *gin.Context) {
	userID, _ := c.Get("user_id")
	role, _ := c.Get("user_role")

	branchID := uuid.Nil
	if scoped, ok := middleware.ScopedBranchID(c); ok {
		branchID = scoped
	} else if role != models.RoleAdmin && role != models.RoleSuperAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "No branch associated with this account"})
		return
	}

	client := h.Broker.Register(userID.(uuid.UUID), branchID)
	defer h.Broker.Unregister(client)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	// Let the client know the stream is live
	fmt.Fprintf(c.Writer, "event: connected\ndata: {}\n\n")
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case data, ok := <-client.Channel:
			if !ok {
				return false
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
