package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/nulldatamap/xthevent/internal/common"
	"github.com/nulldatamap/xthevent/internal/dbx"
	"github.com/nulldatamap/xthevent/internal/logging"
	"github.com/nulldatamap/xthevent/internal/server/models"
	"github.com/nulldatamap/xthevent/internal/server/services"
	"github.com/stretchr/testify/require"
)

const validToken = "good-token"

type fakeSessions struct {
	mu          sync.Mutex
	loginResp   *services.Session
	loginErr    error
	loginCalls  int
	validateErr error
	logoutErr   error
	loggedOut   []string
	profile     *models.User
	profileErr  error

	// validateErrs is consumed one per Validate call before validateErr.
	validateErrs  []error
	validateCalls int
}

func (f *fakeSessions) Login(_ context.Context, email, password string) (*services.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls++
	return f.loginResp, f.loginErr
}

func (f *fakeSessions) Validate(_ context.Context, token string) (int32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.validateCalls++
	if len(f.validateErrs) > 0 {
		err := f.validateErrs[0]
		f.validateErrs = f.validateErrs[1:]
		return 0, err
	}
	if f.validateErr != nil {
		return 0, f.validateErr
	}
	if token != validToken {
		return 0, common.ErrInvalidToken
	}
	return 7, nil
}

func (f *fakeSessions) Logout(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loggedOut = append(f.loggedOut, token)
	return f.logoutErr
}

func (f *fakeSessions) Profile(_ context.Context, accountID int32) (*models.User, error) {
	return f.profile, f.profileErr
}

type fakeRegistrations struct {
	requests   []services.RegistrationRequest
	token      string
	requestErr error

	confirmID  int32
	confirmErr error
}

func (f *fakeRegistrations) Request(_ context.Context, req services.RegistrationRequest) (string, error) {
	f.requests = append(f.requests, req)
	return f.token, f.requestErr
}

func (f *fakeRegistrations) Confirm(_ context.Context, token string) (int32, error) {
	return f.confirmID, f.confirmErr
}

type rosterCall struct {
	op       string
	eventID  int32
	playerID int32
}

type fakeRoster struct {
	calls []rosterCall
	// errs is consumed one per mutation call; once empty, calls succeed.
	errs  []error

	event     *models.Event
	events    []*models.Event
	getErr    error
	created   *models.Event
	createErr error
	active    map[int32]bool
}

func (f *fakeRoster) record(op string, eventID, playerID int32) error {
	f.calls = append(f.calls, rosterCall{op: op, eventID: eventID, playerID: playerID})
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func (f *fakeRoster) Signup(_ context.Context, eventID, playerID int32) error {
	return f.record("signup", eventID, playerID)
}

func (f *fakeRoster) Confirm(_ context.Context, eventID, playerID int32) error {
	return f.record("confirm", eventID, playerID)
}

func (f *fakeRoster) Withdraw(_ context.Context, eventID, playerID int32) error {
	return f.record("withdraw", eventID, playerID)
}

func (f *fakeRoster) CreateEvent(_ context.Context, title string, dateTime time.Time, tournament bool) (*models.Event, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = &models.Event{ID: 1, Title: title, DateTime: dateTime, Tournament: tournament, Active: true}
	return f.created, nil
}

func (f *fakeRoster) GetEvent(_ context.Context, id int32) (*models.Event, error) {
	return f.event, f.getErr
}

func (f *fakeRoster) ListEvents(_ context.Context, activeOnly bool) ([]*models.Event, error) {
	var out []*models.Event
	for _, e := range f.events {
		if !activeOnly || e.Active {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRoster) SetActive(_ context.Context, id int32, active bool) error {
	if err := f.record("set_active", id, 0); err != nil {
		return err
	}
	if f.active == nil {
		f.active = map[int32]bool{}
	}
	f.active[id] = active
	return nil
}

type testServer struct {
	handler       http.Handler
	sessions      *fakeSessions
	registrations *fakeRegistrations
	roster        *fakeRoster
}

func fastRetry() dbx.RetryPolicy {
	return dbx.RetryPolicy{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ts := &testServer{
		sessions:      &fakeSessions{},
		registrations: &fakeRegistrations{},
		roster:        &fakeRoster{},
	}
	ts.handler = NewRouter(RouterConfig{
		Logger:        logging.Nop(),
		Sessions:      ts.sessions,
		Registrations: ts.registrations,
		Roster:        ts.roster,
		Retry:         fastRetry(),
	})
	return ts
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) APIError {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error
}
