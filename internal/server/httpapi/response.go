package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/nulldatamap/xthevent/internal/server/models"
	"github.com/nulldatamap/xthevent/internal/server/services"
)

// JSON writes data with the given status.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// NoContent writes a 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

type RegisterResponse struct {
	Token string `json:"token"`
}

type ConfirmRegistrationResponse struct {
	AccountID int32 `json:"account_id"`
}

type LoginResponse struct {
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func LoginResponseFromSession(s *services.Session) LoginResponse {
	return LoginResponse{SessionToken: s.Token, ExpiresAt: s.ExpiresAt.UTC()}
}

type UserResponse struct {
	ID        int32   `json:"id"`
	SteamID   string  `json:"steam_id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	PlayerTag *string `json:"player_tag,omitempty"`
	Rank      *string `json:"rank,omitempty"`
}

func UserResponseFromModel(u *models.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:        u.ID,
		SteamID:   u.SteamID,
		Name:      u.Name,
		Email:     u.Email,
		PlayerTag: u.PlayerTag,
		Rank:      u.Rank,
	}
}

type SessionResponse struct {
	AccountID int32         `json:"account_id"`
	Profile   *UserResponse `json:"profile,omitempty"`
}

// EventResponse is an event without its roster, as listed.
type EventResponse struct {
	ID         int32     `json:"id"`
	Title      string    `json:"title"`
	DateTime   time.Time `json:"date_time"`
	Tournament bool      `json:"tournament"`
	Active     bool      `json:"active"`
}

// EventDetailResponse adds both roster lists.
type EventDetailResponse struct {
	EventResponse
	UnconfirmedPlayers []int32 `json:"unconfirmed_players"`
	ConfirmedPlayers   []int32 `json:"confirmed_players"`
}

func EventResponseFromModel(e *models.Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		Title:      e.Title,
		DateTime:   e.DateTime.UTC(),
		Tournament: e.Tournament,
		Active:     e.Active,
	}
}

func EventDetailResponseFromModel(e *models.Event) EventDetailResponse {
	return EventDetailResponse{
		EventResponse:      EventResponseFromModel(e),
		UnconfirmedPlayers: nonNil(e.UnconfirmedPlayers),
		ConfirmedPlayers:   nonNil(e.ConfirmedPlayers),
	}
}

type EventListResponse struct {
	Events []EventResponse `json:"events"`
}

func nonNil(ids []int32) []int32 {
	if ids == nil {
		return []int32{}
	}
	return ids
}
