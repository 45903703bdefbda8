package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parkshare/pkg/models"
)

func (h *Handler) listNotifications(c *gin.Context) {
	list, err := h.svc.Notification().ListForUser(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	unread := 0
	for _, n := range list {
		if n.Status == models.NotificationUnread {
			unread++
		}
	}
	ok(c, http.StatusOK, gin.H{"notifications": emptyIfNil(list), "unread": unread})
}

func (h *Handler) markNotificationsRead(c *gin.Context) {
	n, err := h.svc.Notification().MarkAllRead(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"updated": n})
}

func (h *Handler) clearNotifications(c *gin.Context) {
	n, err := h.svc.Notification().ClearAll(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": n})
}
