package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/nulldatamap/xthevent/internal/common"
	"github.com/nulldatamap/xthevent/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEvent_RequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	body := map[string]any{"title": "Cup", "date_time": "2024-03-01T18:00:00Z"}
	rr := ts.request(http.MethodPost, "/events", body, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Nil(t, ts.roster.created)
}

func TestCreateEvent(t *testing.T) {
	ts := newTestServer(t)

	body := map[string]any{"title": "Cup", "date_time": "2024-03-01T18:00:00Z", "tournament": true}
	rr := ts.request(http.MethodPost, "/events", body, validToken)
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp EventDetailResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Cup", resp.Title)
	assert.True(t, resp.Tournament)
	assert.True(t, resp.Active)
	assert.Equal(t, []int32{}, resp.UnconfirmedPlayers)
	assert.Equal(t, []int32{}, resp.ConfirmedPlayers)
	assert.True(t, time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC).Equal(resp.DateTime))
}

func TestCreateEvent_MissingDate(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/events", map[string]any{"title": "Cup"}, validToken)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "date_time is required", decodeError(t, rr).Message)
}

func TestListEvents(t *testing.T) {
	ts := newTestServer(t)
	ts.roster.events = []*models.Event{
		{ID: 1, Title: "Open", Active: true},
		{ID: 2, Title: "Closed", Active: false},
	}

	rr := ts.request(http.MethodGet, "/events", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var all EventListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &all))
	assert.Len(t, all.Events, 2)

	rr = ts.request(http.MethodGet, "/events?active=true", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var active EventListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &active))
	require.Len(t, active.Events, 1)
	assert.Equal(t, int32(1), active.Events[0].ID)

	rr = ts.request(http.MethodGet, "/events?active=maybe", nil, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListEvents_EmptyIsArray(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/events", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"events":[]}`, rr.Body.String())
}

func TestGetEvent(t *testing.T) {
	ts := newTestServer(t)
	ts.roster.event = &models.Event{
		ID:                 3,
		Title:              "Cup",
		Active:             true,
		UnconfirmedPlayers: []int32{9, 4},
		ConfirmedPlayers:   []int32{1, 2},
	}

	rr := ts.request(http.MethodGet, "/events/3", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp EventDetailResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, []int32{9, 4}, resp.UnconfirmedPlayers)
	assert.Equal(t, []int32{1, 2}, resp.ConfirmedPlayers)
}

func TestGetEvent_NotFound(t *testing.T) {
	ts := newTestServer(t)
	ts.roster.getErr = fmt.Errorf("db error: %w", common.ErrNotFound)

	rr := ts.request(http.MethodGet, "/events/3", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, CodeNotFound, decodeError(t, rr).Code)
}

func TestGetEvent_BadID(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/events/0", nil, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.request(http.MethodGet, "/events/abc", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestActivateDeactivate(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/events/5/deactivate", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Empty(t, ts.roster.calls)

	rr = ts.request(http.MethodPost, "/events/5/deactivate", nil, validToken)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.False(t, ts.roster.active[5])

	rr = ts.request(http.MethodPost, "/events/5/activate", nil, validToken)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.True(t, ts.roster.active[5])
}

func TestRosterRoutes(t *testing.T) {
	ts := newTestServer(t)

	// the fake session belongs to account 7
	for _, op := range []string{"signup", "confirm", "withdraw"} {
		rr := ts.request(http.MethodPost, "/events/4/"+op, map[string]int{"player_id": 7}, validToken)
		assert.Equal(t, http.StatusNoContent, rr.Code, op)
	}

	assert.Equal(t, []rosterCall{
		{op: "signup", eventID: 4, playerID: 7},
		{op: "confirm", eventID: 4, playerID: 7},
		{op: "withdraw", eventID: 4, playerID: 7},
	}, ts.roster.calls)
}

func TestRosterRoutes_RequireAuth(t *testing.T) {
	ts := newTestServer(t)

	for _, op := range []string{"signup", "confirm", "withdraw"} {
		rr := ts.request(http.MethodPost, "/events/4/"+op, map[string]int{"player_id": 7}, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, op)
		assert.Equal(t, CodeUnauthorized, decodeError(t, rr).Code, op)
	}
	assert.Empty(t, ts.roster.calls)
}

func TestRosterRoutes_OnlyOwnSignupAndWithdraw(t *testing.T) {
	ts := newTestServer(t)

	for _, op := range []string{"signup", "withdraw"} {
		rr := ts.request(http.MethodPost, "/events/4/"+op, map[string]int{"player_id": 11}, validToken)
		assert.Equal(t, http.StatusForbidden, rr.Code, op)
		assert.Equal(t, CodeForbidden, decodeError(t, rr).Code, op)
	}
	assert.Empty(t, ts.roster.calls)

	// confirming someone else's signup is allowed
	rr := ts.request(http.MethodPost, "/events/4/confirm", map[string]int{"player_id": 11}, validToken)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, []rosterCall{{op: "confirm", eventID: 4, playerID: 11}}, ts.roster.calls)
}

func TestRosterRoutes_PlayerIDRequired(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/events/4/signup", map[string]int{"player_id": 0}, validToken)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, ts.roster.calls)
}

func TestRosterErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{common.ErrAlreadyRegistered, http.StatusConflict, CodeAlreadyRegistered},
		{common.ErrNotPending, http.StatusConflict, CodeNotPending},
		{common.ErrNotRegistered, http.StatusNotFound, CodeNotRegistered},
		{common.ErrEventInactive, http.StatusLocked, CodeEventInactive},
		{common.ErrNotFound, http.StatusNotFound, CodeNotFound},
		{common.ErrInvariantViolation, http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			ts := newTestServer(t)
			ts.roster.errs = []error{fmt.Errorf("roster: %w", tt.err)}

			rr := ts.request(http.MethodPost, "/events/4/confirm", map[string]int{"player_id": 11}, validToken)
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.code, decodeError(t, rr).Code)
			assert.Len(t, ts.roster.calls, 1)
		})
	}
}

func TestRoster_TransientFailureIsRetried(t *testing.T) {
	ts := newTestServer(t)
	ts.roster.errs = []error{common.ErrStoreUnavailable}

	rr := ts.request(http.MethodPost, "/events/4/signup", map[string]int{"player_id": 7}, validToken)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Len(t, ts.roster.calls, 2)
}
