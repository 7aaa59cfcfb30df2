package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-attendance/internal/model"
	"github.com/iliyamo/event-attendance/internal/service"
)

// AttendanceHandler serves the attendee-side surface: requesting
// admission, changing or withdrawing a response, joining and leaving
// the waitlist, checking position and accepting a promotion offer.
// JWT authentication and the ATTENDEE role are enforced by middleware;
// every capacity decision happens inside the services, the handler only
// translates outcomes to HTTP.
type AttendanceHandler struct {
	Admissions    *service.AdmissionService
	Waitlists     *service.WaitlistService
	Confirmations *service.ConfirmationService
}

// NewAttendanceHandler constructs an AttendanceHandler.  Dependencies must be non-nil.
func NewAttendanceHandler(a *service.AdmissionService, w *service.WaitlistService, cf *service.ConfirmationService) *AttendanceHandler {
	if a == nil || w == nil || cf == nil {
		panic("nil service passed to NewAttendanceHandler")
	}
	return &AttendanceHandler{Admissions: a, Waitlists: w, Confirmations: cf}
}

// Attend handles POST /v1/events/:id/attend.  When the event is full
// and has a waitlist, the response tells the client to join it instead.
func (h *AttendanceHandler) Attend(c echo.Context) error {
	userID, eventID, errResp := h.identify(c)
	if errResp != nil {
		return errResp
	}
	if err := h.Admissions.RequestAdmission(c.Request().Context(), eventID, userID); err != nil {
		if errors.Is(err, service.ErrMustJoinWaitlist) {
			return c.JSON(http.StatusConflict, echo.Map{
				"error":         err.Error(),
				"waitlist_open": true,
			})
		}
		return admissionError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"event_id": eventID,
		"response": model.ResponseConfirmed,
	})
}

// ChangeResponse handles PATCH /v1/events/:id/response with a body of
// {"response": "DECLINED"|"TENTATIVE"}.  Moving off CONFIRMED vacates
// the slot and triggers a promotion through the vacancy queue.
func (h *AttendanceHandler) ChangeResponse(c echo.Context) error {
	userID, eventID, errResp := h.identify(c)
	if errResp != nil {
		return errResp
	}
	var body struct {
		Response string `json:"response"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	response := strings.ToUpper(strings.TrimSpace(body.Response))
	if err := h.Admissions.ChangeResponse(c.Request().Context(), eventID, userID, response); err != nil {
		return admissionError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"event_id": eventID,
		"response": response,
	})
}

// Withdraw handles DELETE /v1/events/:id/response and removes the
// attendance record entirely.
func (h *AttendanceHandler) Withdraw(c echo.Context) error {
	userID, eventID, errResp := h.identify(c)
	if errResp != nil {
		return errResp
	}
	if err := h.Admissions.Withdraw(c.Request().Context(), eventID, userID); err != nil {
		return admissionError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// JoinWaitlist handles POST /v1/events/:id/waitlist.
func (h *AttendanceHandler) JoinWaitlist(c echo.Context) error {
	userID, eventID, errResp := h.identify(c)
	if errResp != nil {
		return errResp
	}
	entry, err := h.Waitlists.Join(c.Request().Context(), eventID, userID)
	if err != nil {
		return admissionError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"event_id":  eventID,
		"joined_at": entry.JoinedAt,
	})
}

// LeaveWaitlist handles DELETE /v1/events/:id/waitlist.  Leaving does
// not trigger a promotion; no slot was vacated.
func (h *AttendanceHandler) LeaveWaitlist(c echo.Context) error {
	userID, eventID, errResp := h.identify(c)
	if errResp != nil {
		return errResp
	}
	if err := h.Waitlists.Leave(c.Request().Context(), eventID, userID); err != nil {
		return admissionError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// WaitlistStatus handles GET /v1/events/:id/waitlist.  Position is
// dense and 1-based; offer fields appear only while an offer stands.
func (h *AttendanceHandler) WaitlistStatus(c echo.Context) error {
	userID, eventID, errResp := h.identify(c)
	if errResp != nil {
		return errResp
	}
	position, entry, err := h.Waitlists.Position(c.Request().Context(), eventID, userID)
	if err != nil {
		return admissionError(c, err)
	}
	resp := echo.Map{
		"event_id":  eventID,
		"position":  position,
		"joined_at": entry.JoinedAt,
	}
	if entry.HasOffer() {
		resp["offered_at"] = entry.OfferedAt
		resp["offer_expires_at"] = entry.OfferExpiresAt
	}
	return c.JSON(http.StatusOK, resp)
}

// ConfirmOffer handles POST /v1/events/:id/waitlist/confirm and turns a
// standing offer into confirmed attendance.
func (h *AttendanceHandler) ConfirmOffer(c echo.Context) error {
	userID, eventID, errResp := h.identify(c)
	if errResp != nil {
		return errResp
	}
	if err := h.Confirmations.Confirm(c.Request().Context(), eventID, userID); err != nil {
		return admissionError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"event_id": eventID,
		"response": model.ResponseConfirmed,
	})
}

func (h *AttendanceHandler) identify(c echo.Context) (userID, eventID uint64, errResp error) {
	userID, err := getUserID(c)
	if err != nil {
		return 0, 0, c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := eventParam(c)
	if !ok {
		return 0, 0, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	return userID, eventID, nil
}

// admissionError maps the admission core's sentinels onto HTTP
// responses.  Unknown errors become 500 without leaking details.
func admissionError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	case errors.Is(err, service.ErrNotQueued),
		errors.Is(err, service.ErrNoResponse):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidResponse):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrOfferExpired):
		return c.JSON(http.StatusGone, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrEventDraft),
		errors.Is(err, service.ErrEventCancelled),
		errors.Is(err, service.ErrEventClosed),
		errors.Is(err, service.ErrEventOngoing),
		errors.Is(err, service.ErrEventCompleted),
		errors.Is(err, service.ErrAlreadyConfirmed),
		errors.Is(err, service.ErrAlreadyQueued),
		errors.Is(err, service.ErrWaitlistDisabled),
		errors.Is(err, service.ErrNoCapacityLimit),
		errors.Is(err, service.ErrAdmissionAvailable),
		errors.Is(err, service.ErrEventFull),
		errors.Is(err, service.ErrNoOffer),
		errors.Is(err, service.ErrSlotFilled):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}
