// Package handler exposes HTTP handlers for both authenticated and public endpoints.
// This file defines handlers for the public browsing API. These routes allow
// unauthenticated users to list upcoming events and inspect a single event
// without requiring authentication. Sensitive fields (organizer IDs,
// timestamps, etc.) are filtered from responses.

package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-attendance/internal/clock"
	"github.com/iliyamo/event-attendance/internal/model"
	"github.com/iliyamo/event-attendance/internal/phase"
	"github.com/iliyamo/event-attendance/internal/repository"
	"github.com/iliyamo/event-attendance/internal/service"
)

// PublicHandler aggregates dependencies needed for unauthenticated
// browsing.  It produces sanitized responses suitable for public
// consumption; phase is always the effective value at request time.
type PublicHandler struct {
	Events *repository.EventRepo
	Clock  clock.Clock
}

// NewPublicHandler constructs a PublicHandler.
func NewPublicHandler(events *repository.EventRepo, clk clock.Clock) *PublicHandler {
	if events == nil || clk == nil {
		panic("nil dependency passed to NewPublicHandler")
	}
	return &PublicHandler{Events: events, Clock: clk}
}

// PublicEvent represents an event exposed via the public API. It
// contains only safe fields.
type PublicEvent struct {
	ID               uint64     `json:"id"`
	Title            string     `json:"title"`
	Description      *string    `json:"description,omitempty"`
	Phase            string     `json:"phase"`
	StartsAt         time.Time  `json:"starts_at"`
	EndsAt           *time.Time `json:"ends_at,omitempty"`
	ResponseDeadline *time.Time `json:"response_deadline,omitempty"`
	Capacity         *uint32    `json:"capacity,omitempty"`
	WaitlistEnabled  bool       `json:"waitlist_enabled"`
}

func publicView(e *model.Event, now time.Time) PublicEvent {
	return PublicEvent{
		ID:               e.ID,
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

// ListUpcoming handles GET /v1/events and returns non-draft events that
// have not started yet, soonest first.
func (h *PublicHandler) ListUpcoming(c echo.Context) error {
	now := h.Clock.Now()
	events, err := h.Events.ListUpcoming(c.Request().Context(), now)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list events failed"})
	}
	out := make([]PublicEvent, 0, len(events))
	for i := range events {
		if events[i].Phase == model.PhaseCancelled {
			continue
		}
		out = append(out, publicView(&events[i], now))
	}
	return c.JSON(http.StatusOK, echo.Map{"events": out})
}

// GetEvent handles GET /v1/events/:id.  Drafts are hidden from the
// public surface and reported as not found.
func (h *PublicHandler) GetEvent(c echo.Context) error {
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
	if e.Phase == model.PhaseDraft {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}
	return c.JSON(http.StatusOK, publicView(e, h.Clock.Now()))
}
