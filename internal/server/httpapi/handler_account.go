package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/nulldatamap/xthevent/internal/common"
	"github.com/nulldatamap/xthevent/internal/server/models"
	"github.com/nulldatamap/xthevent/internal/server/services"
)

// Register handles POST /register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := h.decoder.decode(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	var token string
	err := h.call(r.Context(), func(ctx context.Context) error {
		var err error
		token, err = h.registrations.Request(ctx, services.RegistrationRequest{
			SteamID:   req.SteamID,
			Name:      req.Name,
			Email:     req.Email,
			PlayerTag: req.PlayerTag,
			Rank:      req.Rank,
			Password:  req.Password,
		})
		return err
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	JSON(w, http.StatusCreated, RegisterResponse{Token: token})
}

// ConfirmRegistration handles POST /register/confirm
func (h *Handler) ConfirmRegistration(w http.ResponseWriter, r *http.Request) {
	var req ConfirmRegistrationRequest
	if err := h.decoder.decode(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	var accountID int32
	err := h.call(r.Context(), func(ctx context.Context) error {
		var err error
		accountID, err = h.registrations.Confirm(ctx, req.Token)
		return err
	})
	switch {
	case errors.Is(err, common.ErrExpired):
		h.logger.Info(r.Context(), "registration token expired", "request_id", RequestID(r.Context()))
		WriteError(w, newInvalidRegistrationTokenError())
		return
	case errors.Is(err, common.ErrNotFound):
		h.logger.Info(r.Context(), "registration token unknown", "request_id", RequestID(r.Context()))
		WriteError(w, newInvalidRegistrationTokenError())
		return
	case err != nil:
		WriteError(w, err)
		return
	}

	JSON(w, http.StatusCreated, ConfirmRegistrationResponse{AccountID: accountID})
}

// Login handles POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := h.decoder.decode(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	var session *services.Session
	err := h.call(r.Context(), func(ctx context.Context) error {
		var err error
		session, err = h.sessions.Login(ctx, req.Email, req.Password)
		return err
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	JSON(w, http.StatusOK, LoginResponseFromSession(session))
}

// Logout handles POST /logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	if err := h.decoder.decode(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	err := h.call(r.Context(), func(ctx context.Context) error {
		return h.sessions.Logout(ctx, req.Token)
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	NoContent(w)
}

// Session handles GET /session
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	accountID, ok := AccountID(r.Context())
	if !ok {
		WriteError(w, NewUnauthorizedError())
		return
	}

	var user *models.User
	err := h.call(r.Context(), func(ctx context.Context) error {
		var err error
		user, err = h.sessions.Profile(ctx, accountID)
		return err
	})
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		WriteError(w, err)
		return
	}

	JSON(w, http.StatusOK, SessionResponse{AccountID: accountID, Profile: UserResponseFromModel(user)})
}
