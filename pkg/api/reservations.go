package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"parkshare/pkg/logger"
	"parkshare/pkg/models"
)

type extraTimeRequest struct {
	ExtraMinutes int `json:"extra_minutes" binding:"required"`
}

type finishRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *Handler) createReservation(c *gin.Context) {
	var req models.CreateReservation
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	r, err := h.svc.Reservation().Create(c.Request.Context(), currentUser(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, r)
}

// myReservations lists the caller's reservations as driver and as owner.
// With ?parking_id= it returns the caller's live reservation on that spot.
func (h *Handler) myReservations(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUser(c)

	if raw := c.Query("parking_id"); raw != "" {
		parkingID, err := cast.ToInt64E(raw)
		if err != nil {
			badRequest(c, "invalid parking_id")
			return
		}
		r, err := h.svc.Reservation().FindLive(ctx, userID, parkingID)
		if err != nil {
			h.fail(c, err)
			return
		}
		ok(c, http.StatusOK, r)
		return
	}

	asDriver, err := h.svc.Reservation().ListForDriver(ctx, userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	asOwner, err := h.svc.Reservation().ListForOwner(ctx, userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"as_driver": emptyIfNil(asDriver),
		"as_owner":  emptyIfNil(asOwner),
	})
}

func (h *Handler) getReservation(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	r, err := h.svc.Reservation().Get(c.Request.Context(), id, currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

func (h *Handler) markArrived(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	r, err := h.svc.Reservation().MarkArrived(c.Request.Context(), id, currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

func (h *Handler) requestExtraTime(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var req extraTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.svc.Reservation().RequestExtraTime(c.Request.Context(), id, currentUser(c), req.ExtraMinutes); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusAccepted, gin.H{"reservation_id": id, "extra_minutes": req.ExtraMinutes})
}

func (h *Handler) approveExtraTime(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var req extraTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	r, err := h.svc.Reservation().ApproveExtraTime(c.Request.Context(), id, currentUser(c), req.ExtraMinutes)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

func (h *Handler) rejectExtraTime(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	r, err := h.svc.Reservation().RejectExtraTime(c.Request.Context(), id, currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

func (h *Handler) cancelReservation(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	r, err := h.svc.Reservation().Cancel(c.Request.Context(), id, currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

// finishReservation accepts an optional rating. The owner's review is
// written first, as its own operation; a rejected review does not block
// the finish and is reported next to the result.
func (h *Handler) finishReservation(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var req finishRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}

	ctx := c.Request.Context()
	userID := currentUser(c)

	resp := gin.H{}
	if req.Rating > 0 {
		review, err := h.svc.Review().Submit(ctx, userID, models.SubmitReview{
			ReservationID: id,
			Rating:        req.Rating,
			Comment:       req.Comment,
		})
		if err != nil {
			h.log.Warning("review before finish failed", logger.Int64("reservation_id", id), logger.Error(err))
			resp["review_error"] = err.Error()
		} else {
			resp["review"] = review
		}
	}

	r, err := h.svc.Reservation().Finish(ctx, id, userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	resp["reservation"] = r
	ok(c, http.StatusOK, resp)
}

func (h *Handler) driverStats(c *gin.Context) {
	driverID := currentUser(c)
	if raw := c.Query("driver_id"); raw != "" {
		id, err := cast.ToInt64E(raw)
		if err != nil {
			badRequest(c, "invalid driver_id")
			return
		}
		driverID = id
	}

	stats, err := h.svc.Review().DriverStats(c.Request.Context(), driverID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, stats)
}
