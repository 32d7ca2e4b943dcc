package services

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/nulldatamap/xthevent/internal/common"
	"github.com/nulldatamap/xthevent/internal/dbx"
	"github.com/nulldatamap/xthevent/internal/logging"
	"github.com/nulldatamap/xthevent/internal/server/config"
	"github.com/nulldatamap/xthevent/internal/server/models"
	"github.com/nulldatamap/xthevent/internal/server/repositories/accounts"
	"github.com/nulldatamap/xthevent/internal/server/repositories/events"
	"github.com/nulldatamap/xthevent/internal/server/repositories/registrations"
	"github.com/nulldatamap/xthevent/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func expectCommit(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectCommit()
}

func expectRollback(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectRollback()
}

func testConfig() *config.Config {
	return &config.Config{
		SessionTTL:      time.Hour,
		RegistrationTTL: 48 * time.Hour,
		StoreTimeout:    time.Second,
	}
}

func nopLogger() logging.Logger { return logging.Nop() }

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// memStore is an in-memory stand-in for the relational store. It enforces
// the unique and foreign keys of the real schema so services see the same
// error taxonomy. Transactions are not modelled.
type memStore struct {
	mu sync.Mutex

	nextAccountID int32
	nextEventID   int32
	nextSeq       int64

	accounts      map[int32]*models.Account
	users         map[int32]*models.User
	registrations map[string]*models.Registration
	events        map[int32]*models.Event
	roster        map[int32][]rosterRow

	// failures injected per operation name
	fail map[string]error
	// rosterAffected overrides the affected-row count of roster updates
	rosterAffected int64
	// onExists runs before every duplicate lookup
	onExists func()
}

type rosterRow struct {
	playerID  int32
	confirmed bool
	seq       int64
}

func newMemStore() *memStore {
	return &memStore{
		accounts:      map[int32]*models.Account{},
		users:         map[int32]*models.User{},
		registrations: map[string]*models.Registration{},
		events:        map[int32]*models.Event{},
		roster:        map[int32][]rosterRow{},
		fail:          map[string]error{},
	}
}

func (m *memStore) failure(op string) error {
	return m.fail[op]
}

func (m *memStore) existsCheck() {
	if m.onExists != nil {
		m.onExists()
	}
}

func conflict(name string) error {
	return fmt.Errorf("db error: %w", &dbx.ConstraintError{Constraint: name, Err: common.ErrConflict})
}

func notFound(what string) error {
	return fmt.Errorf("db error: %w: %s", common.ErrNotFound, what)
}

// fakeRepoManager vends repositories that all share one memStore.
type fakeRepoManager struct {
	store *memStore
}

func (f *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (f *fakeRepoManager) Accounts(dbx.DBTX) accounts.Repository           { return &fakeAccounts{f.store} }
func (f *fakeRepoManager) Users(dbx.DBTX) users.Repository                 { return &fakeUsers{f.store} }
func (f *fakeRepoManager) Registrations(dbx.DBTX) registrations.Repository { return &fakeRegistrations{f.store} }
func (f *fakeRepoManager) Events(dbx.DBTX) events.Repository               { return &fakeEvents{f.store} }

// --- accounts ---

type fakeAccounts struct{ m *memStore }

func (r *fakeAccounts) Create(ctx context.Context, a *models.Account) (int32, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.failure("accounts.Create"); err != nil {
		return 0, err
	}
	for _, other := range r.m.accounts {
		if other.Email == a.Email {
			return 0, conflict("accounts_email_key")
		}
	}
	r.m.nextAccountID++
	cp := *a
	cp.ID = r.m.nextAccountID
	r.m.accounts[cp.ID] = &cp
	a.ID = cp.ID
	return cp.ID, nil
}

func (r *fakeAccounts) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.failure("accounts.GetByEmail"); err != nil {
		return nil, err
	}
	for _, a := range r.m.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, notFound("account")
}

func (r *fakeAccounts) GetBySessionToken(ctx context.Context, token string) (*models.Account, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.failure("accounts.GetBySessionToken"); err != nil {
		return nil, err
	}
	for _, a := range r.m.accounts {
		if a.SessionToken != nil && *a.SessionToken == token {
			cp := *a
			return &cp, nil
		}
	}
	return nil, notFound("session")
}

func (r *fakeAccounts) SetSession(ctx context.Context, id int32, token string, expiration time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.failure("accounts.SetSession"); err != nil {
		return err
	}
	a, ok := r.m.accounts[id]
	if !ok {
		return common.ErrNotFound
	}
	a.SessionToken = &token
	a.Expiration = &expiration
	return nil
}

func (r *fakeAccounts) ClearExpiredSession(ctx context.Context, token string, now time.Time) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, a := range r.m.accounts {
		if a.SessionToken != nil && *a.SessionToken == token && !now.Before(*a.Expiration) {
			a.SessionToken, a.Expiration = nil, nil
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAccounts) ClearSession(ctx context.Context, token string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.failure("accounts.ClearSession"); err != nil {
		return err
	}
	for _, a := range r.m.accounts {
		if a.SessionToken != nil && *a.SessionToken == token {
			a.SessionToken, a.Expiration = nil, nil
		}
	}
	return nil
}

func (r *fakeAccounts) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	r.m.existsCheck()
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, a := range r.m.accounts {
		if a.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// --- users ---

type fakeUsers struct{ m *memStore }

func (r *fakeUsers) Create(ctx context.Context, u *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.failure("users.Create"); err != nil {
		return err
	}
	if _, ok := r.m.accounts[u.ID]; !ok {
		return notFound("users_id_fkey")
	}
	for _, other := range r.m.users {
		if other.SteamID == u.SteamID {
			return conflict("users_steam_id_key")
		}
		if other.Email == u.Email {
			return conflict("users_email_key")
		}
	}
	cp := *u
	r.m.users[u.ID] = &cp
	return nil
}

func (r *fakeUsers) Get(ctx context.Context, id int32) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, notFound("user")
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	r.m.existsCheck()
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUsers) ExistsBySteamID(ctx context.Context, steamID string) (bool, error) {
	r.m.existsCheck()
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.SteamID == steamID {
			return true, nil
		}
	}
	return false, nil
}

// --- registrations ---

type fakeRegistrations struct{ m *memStore }

func (r *fakeRegistrations) Create(ctx context.Context, reg *models.Registration) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.failure("registrations.Create"); err != nil {
		return err
	}
	for _, other := range r.m.registrations {
		if other.Email == reg.Email {
			return conflict("registrations_email_key")
		}
		if other.SteamID == reg.SteamID {
			return conflict("registrations_steam_id_key")
		}
	}
	cp := *reg
	r.m.registrations[reg.Token] = &cp
	return nil
}

func (r *fakeRegistrations) FindForUpdate(ctx context.Context, token string) (*models.Registration, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	reg, ok := r.m.registrations[token]
	if !ok {
		return nil, notFound("registration")
	}
	cp := *reg
	return &cp, nil
}

func (r *fakeRegistrations) Delete(ctx context.Context, token string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.registrations[token]; !ok {
		return common.ErrNotFound
	}
	delete(r.m.registrations, token)
	return nil
}

func (r *fakeRegistrations) DeleteExpiredConflicting(ctx context.Context, email, steamID string, cutoff time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for token, reg := range r.m.registrations {
		if (reg.Email == email || reg.SteamID == steamID) && !reg.CreatedAt.After(cutoff) {
			delete(r.m.registrations, token)
			n++
		}
	}
	return n, nil
}

func (r *fakeRegistrations) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	r.m.existsCheck()
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, reg := range r.m.registrations {
		if reg.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRegistrations) ExistsBySteamID(ctx context.Context, steamID string) (bool, error) {
	r.m.existsCheck()
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, reg := range r.m.registrations {
		if reg.SteamID == steamID {
			return true, nil
		}
	}
	return false, nil
}

// --- events ---

type fakeEvents struct{ m *memStore }

func (r *fakeEvents) Create(ctx context.Context, e *models.Event) (int32, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.nextEventID++
	e.ID = r.m.nextEventID
	cp := *e
	r.m.events[e.ID] = &cp
	return e.ID, nil
}

func (r *fakeEvents) Get(ctx context.Context, id int32) (*models.Event, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	e, ok := r.m.events[id]
	if !ok {
		return nil, notFound("event")
	}
	cp := *e
	return &cp, nil
}

func (r *fakeEvents) LockForUpdate(ctx context.Context, id int32) (*models.Event, error) {
	if err := r.m.failure("events.LockForUpdate"); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *fakeEvents) List(ctx context.Context, activeOnly bool) ([]*models.Event, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]*models.Event, 0)
	for _, e := range r.m.events {
		if activeOnly && !e.Active {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *models.Event) int {
		if c := a.DateTime.Compare(b.DateTime); c != 0 {
			return c
		}
		return int(a.ID - b.ID)
	})
	return out, nil
}

func (r *fakeEvents) SetActive(ctx context.Context, id int32, active bool) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	e, ok := r.m.events[id]
	if !ok {
		return common.ErrNotFound
	}
	e.Active = active
	return nil
}

func (r *fakeEvents) FindPlayer(ctx context.Context, eventID, playerID int32) (*models.RosterEntry, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, row := range r.m.roster[eventID] {
		if row.playerID == playerID {
			return &models.RosterEntry{EventID: eventID, PlayerID: playerID, Confirmed: row.confirmed}, nil
		}
	}
	return nil, notFound("roster entry")
}

func (r *fakeEvents) AddPlayer(ctx context.Context, eventID, playerID int32) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[playerID]; !ok {
		return notFound("event_players_player_id_fkey")
	}
	for _, row := range r.m.roster[eventID] {
		if row.playerID == playerID {
			return conflict("event_players_pkey")
		}
	}
	r.m.nextSeq++
	r.m.roster[eventID] = append(r.m.roster[eventID], rosterRow{playerID: playerID, seq: r.m.nextSeq})
	return nil
}

func (r *fakeEvents) ConfirmPlayer(ctx context.Context, eventID, playerID int32) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.rosterAffected != 0 {
		return r.m.rosterAffected, nil
	}
	rows := r.m.roster[eventID]
	for i := range rows {
		if rows[i].playerID == playerID && !rows[i].confirmed {
			rows[i].confirmed = true
			return 1, nil
		}
	}
	return 0, nil
}

func (r *fakeEvents) RemovePlayer(ctx context.Context, eventID, playerID int32) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.rosterAffected != 0 {
		return r.m.rosterAffected, nil
	}
	rows := r.m.roster[eventID]
	for i := range rows {
		if rows[i].playerID == playerID {
			r.m.roster[eventID] = slices.Delete(rows, i, i+1)
			return 1, nil
		}
	}
	return 0, nil
}

func (r *fakeEvents) Roster(ctx context.Context, eventID int32) ([]int32, []int32, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	unconfirmed := make([]int32, 0)
	confirmed := make([]int32, 0)
	for _, row := range r.m.roster[eventID] {
		if row.confirmed {
			confirmed = append(confirmed, row.playerID)
		} else {
			unconfirmed = append(unconfirmed, row.playerID)
		}
	}
	slices.Sort(confirmed)
	return unconfirmed, confirmed, nil
}
