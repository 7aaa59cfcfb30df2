package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-attendance/internal/clock"
	"github.com/iliyamo/event-attendance/internal/model"
	"github.com/iliyamo/event-attendance/internal/phase"
	"github.com/iliyamo/event-attendance/internal/repository"
	"github.com/iliyamo/event-attendance/internal/service"
)

// OrganizerHandler serves the event-management surface: creating
// drafts, editing, publishing, cancelling and deleting events.  All
// methods assume JWT authentication and the ORGANIZER role have been
// enforced by middleware.  Responses always report the effective phase
// derived from the clock, not the raw stored value.
type OrganizerHandler struct {
	Events *repository.EventRepo
	Clock  clock.Clock
}

// NewOrganizerHandler constructs an OrganizerHandler.  Dependencies must be non-nil.
func NewOrganizerHandler(events *repository.EventRepo, clk clock.Clock) *OrganizerHandler {
	if events == nil || clk == nil {
		panic("nil dependency passed to NewOrganizerHandler")
	}
	return &OrganizerHandler{Events: events, Clock: clk}
}

// ----- DTOs -----

type eventReq struct {
	Title            string     `json:"title"`
	Description      *string    `json:"description"`
	StartsAt         time.Time  `json:"starts_at"`
	EndsAt           *time.Time `json:"ends_at"`
	ResponseDeadline *time.Time `json:"response_deadline"`
	Capacity         *uint32    `json:"capacity"`
	WaitlistEnabled  bool       `json:"waitlist_enabled"`
}

type eventResp struct {
	ID               uint64     `json:"id"`
	OrganizerID      uint64     `json:"organizer_id"`
	Title            string     `json:"title"`
	Description      *string    `json:"description,omitempty"`
	Phase            string     `json:"phase"`
	StartsAt         time.Time  `json:"starts_at"`
	EndsAt           *time.Time `json:"ends_at,omitempty"`
	ResponseDeadline *time.Time `json:"response_deadline,omitempty"`
	Capacity         *uint32    `json:"capacity,omitempty"`
	WaitlistEnabled  bool       `json:"waitlist_enabled"`
}

func eventView(e *model.Event, now time.Time) eventResp {
	return eventResp{
		ID:               e.ID,
		OrganizerID:      e.OrganizerID,
		Title:            e.Title,
		Description:      e.Description,
		Phase:            phase.Resolve(e, now),
		StartsAt:         e.StartsAt,
		EndsAt:           e.EndsAt,
		ResponseDeadline: e.ResponseDeadline,
		Capacity:         e.Capacity,
		WaitlistEnabled:  e.WaitlistEnabled,
	}
}

func (r *eventReq) validate() string {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return "title is required"
	}
	if r.StartsAt.IsZero() {
		return "starts_at is required"
	}
	if r.EndsAt != nil && !r.EndsAt.After(r.StartsAt) {
		return "ends_at must be after starts_at"
	}
	if r.Capacity != nil && *r.Capacity == 0 {
		return "capacity must be positive when set"
	}
	return ""
}

// CreateEvent handles POST /v1/organizer/events.  New events always
// start as drafts; publishing is a separate step.
func (h *OrganizerHandler) CreateEvent(c echo.Context) error {
	organizerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	rec := &repository.EventRecord{
		OrganizerID:      organizerID,
		Title:            req.Title,
		Description:      req.Description,
		Phase:            model.PhaseDraft,
		StartsAt:         req.StartsAt,
		EndsAt:           req.EndsAt,
		ResponseDeadline: req.ResponseDeadline,
		Capacity:         req.Capacity,
		WaitlistEnabled:  req.WaitlistEnabled,
	}
	if err := h.Events.Create(c.Request().Context(), rec); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
	}

	e, err := h.Events.GetByID(c.Request().Context(), rec.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load event failed"})
	}
	return c.JSON(http.StatusCreated, eventView(e, h.Clock.Now()))
}

// ListEvents handles GET /v1/organizer/events and returns all events
// belonging to the caller, newest start first.
func (h *OrganizerHandler) ListEvents(c echo.Context) error {
	organizerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	events, err := h.Events.ListByOrganizer(c.Request().Context(), organizerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list events failed"})
	}
	now := h.Clock.Now()
	out := make([]eventResp, 0, len(events))
	for i := range events {
		out = append(out, eventView(&events[i], now))
	}
	return c.JSON(http.StatusOK, echo.Map{"events": out})
}

// GetEvent handles GET /v1/organizer/events/:id.
func (h *OrganizerHandler) GetEvent(c echo.Context) error {
	organizerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := eventParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	e, err := h.Events.GetByID(c.Request().Context(), eventID)
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load event failed"})
	}
	if e.OrganizerID != organizerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not owner of this event"})
	}
	return c.JSON(http.StatusOK, eventView(e, h.Clock.Now()))
}

// UpdateEvent handles PUT /v1/organizer/events/:id and rewrites the
// mutable fields of an event the caller owns.
func (h *OrganizerHandler) UpdateEvent(c echo.Context) error {
	organizerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := eventParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	rec := &repository.EventRecord{
		ID:               eventID,
		OrganizerID:      organizerID,
		Title:            req.Title,
		Description:      req.Description,
		StartsAt:         req.StartsAt,
		EndsAt:           req.EndsAt,
		ResponseDeadline: req.ResponseDeadline,
		Capacity:         req.Capacity,
		WaitlistEnabled:  req.WaitlistEnabled,
	}
	if err := h.Events.Update(c.Request().Context(), rec); err != nil {
		return h.ownershipError(c, err)
	}

	e, err := h.Events.GetByID(c.Request().Context(), eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load event failed"})
	}
	return c.JSON(http.StatusOK, eventView(e, h.Clock.Now()))
}

// PublishEvent handles POST /v1/organizer/events/:id/publish.  Only a
// draft can be published; once cancelled an event stays cancelled.
func (h *OrganizerHandler) PublishEvent(c echo.Context) error {
	return h.transition(c, model.PhasePublished, map[string]bool{model.PhaseDraft: true})
}

// CancelEvent handles POST /v1/organizer/events/:id/cancel.
// Cancellation is allowed from any phase except COMPLETED and is
// terminal.
func (h *OrganizerHandler) CancelEvent(c echo.Context) error {
	allowed := map[string]bool{
		model.PhaseDraft:     true,
		model.PhasePublished: true,
		model.PhaseClosed:    true,
		model.PhaseOngoing:   true,
	}
	return h.transition(c, model.PhaseCancelled, allowed)
}

// transition moves an event into target when its current effective
// phase is in the allowed set.
func (h *OrganizerHandler) transition(c echo.Context, target string, allowed map[string]bool) error {
	organizerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := eventParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx := c.Request().Context()
	e, err := h.Events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load event failed"})
	}
	now := h.Clock.Now()
	effective := phase.Resolve(e, now)
	if !allowed[effective] {
		return c.JSON(http.StatusConflict, echo.Map{"error": "event is " + strings.ToLower(effective)})
	}
	if err := h.Events.SetStoredPhase(ctx, eventID, organizerID, target); err != nil {
		return h.ownershipError(c, err)
	}
	e.Phase = target
	return c.JSON(http.StatusOK, eventView(e, now))
}

// DeleteEvent handles DELETE /v1/organizer/events/:id.  Only drafts
// can be deleted; anything else may carry attendance state.
func (h *OrganizerHandler) DeleteEvent(c echo.Context) error {
	organizerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := eventParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	if err := h.Events.Delete(c.Request().Context(), eventID, organizerID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "only draft events can be deleted"})
		}
		return h.ownershipError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *OrganizerHandler) ownershipError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not owner of this event"})
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, service.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}
