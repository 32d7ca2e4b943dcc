package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/nulldatamap/xthevent/internal/server/models"
)

func eventID(r *http.Request) (int32, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 32)
	if err != nil || id <= 0 {
		return 0, NewInvalidRequestError("event id must be a positive integer")
	}
	return int32(id), nil
}

// CreateEvent handles POST /events
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if err := h.decoder.decode(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	// Not retried: a lost commit acknowledgement would create the event twice.
	event, err := h.roster.CreateEvent(r.Context(), req.Title, req.DateTime, req.Tournament)
	if err != nil {
		WriteError(w, err)
		return
	}

	JSON(w, http.StatusCreated, EventDetailResponseFromModel(event))
}

// ListEvents handles GET /events
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if v := r.URL.Query().Get("active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			WriteError(w, NewInvalidRequestError("active must be a boolean"))
			return
		}
		activeOnly = b
	}

	var events []*models.Event
	err := h.call(r.Context(), func(ctx context.Context) error {
		var err error
		events, err = h.roster.ListEvents(ctx, activeOnly)
		return err
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := EventListResponse{Events: make([]EventResponse, 0, len(events))}
	for _, e := range events {
		resp.Events = append(resp.Events, EventResponseFromModel(e))
	}
	JSON(w, http.StatusOK, resp)
}

// GetEvent handles GET /events/{id}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var event *models.Event
	err = h.call(r.Context(), func(ctx context.Context) error {
		var err error
		event, err = h.roster.GetEvent(ctx, id)
		return err
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	JSON(w, http.StatusOK, EventDetailResponseFromModel(event))
}

// ActivateEvent handles POST /events/{id}/activate
func (h *Handler) ActivateEvent(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

// DeactivateEvent handles POST /events/{id}/deactivate
func (h *Handler) DeactivateEvent(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := eventID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	err = h.call(r.Context(), func(ctx context.Context) error {
		return h.roster.SetActive(ctx, id, active)
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	NoContent(w)
}

// Signup handles POST /events/{id}/signup. Players sign up themselves.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	h.rosterChange(w, r, true, h.roster.Signup)
}

// ConfirmPlayer handles POST /events/{id}/confirm
func (h *Handler) ConfirmPlayer(w http.ResponseWriter, r *http.Request) {
	h.rosterChange(w, r, false, h.roster.Confirm)
}

// Withdraw handles POST /events/{id}/withdraw. Players withdraw themselves.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.rosterChange(w, r, true, h.roster.Withdraw)
}

func (h *Handler) rosterChange(w http.ResponseWriter, r *http.Request, selfOnly bool, op func(ctx context.Context, eventID, playerID int32) error) {
	id, err := eventID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req PlayerRequest
	if err := h.decoder.decode(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	if selfOnly {
		if caller, _ := AccountID(r.Context()); caller != req.PlayerID {
			h.logger.Info(r.Context(), "roster change for another player refused",
				"request_id", RequestID(r.Context()), "account_id", caller, "player_id", req.PlayerID)
			WriteError(w, newForbiddenError("player_id must be the caller's own account"))
			return
		}
	}

	err = h.call(r.Context(), func(ctx context.Context) error {
		return op(ctx, id, req.PlayerID)
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	NoContent(w)
}
