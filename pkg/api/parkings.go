package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parkshare/pkg/models"
)

func (h *Handler) createParking(c *gin.Context) {
	var req models.CreateParking
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	p, err := h.svc.Parking().Create(c.Request.Context(), currentUser(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, p)
}

func (h *Handler) getParking(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	p, err := h.svc.Parking().Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

func (h *Handler) myParkings(c *gin.Context) {
	list, err := h.svc.Parking().ListByOwner(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, emptyIfNil(list))
}

func (h *Handler) listActiveParkings(c *gin.Context) {
	var bbox *models.BBox
	if raw := c.Query("bbox"); raw != "" {
		b, err := models.ParseBBox(raw)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		bbox = &b
	}

	list, err := h.svc.Parking().ListActive(c.Request.Context(), bbox)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, emptyIfNil(list))
}

func emptyIfNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
