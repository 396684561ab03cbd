package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quiniela/platform/internal/domain"
	"github.com/quiniela/platform/internal/identity"
	"github.com/quiniela/platform/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type pickKey struct{ user, pool, game uuid.UUID }

// memStore implements the repository interfaces in memory.
type memStore struct {
	mu      sync.Mutex
	users   map[uuid.UUID]domain.User
	pools   map[uuid.UUID]domain.Pool
	members map[[2]uuid.UUID]bool
	picks   map[pickKey]domain.Prediction
	games   map[uuid.UUID]domain.Game
	seasons []domain.Season
	weeks   map[uuid.UUID][]int
	events  []domain.OutboxDraft

	// skipExists makes Exists report false so the insert path sees the conflict.
	skipExists bool
	failWrites error
	upserts    int
	queries    int
}

func newMemStore() *memStore {
	return &memStore{
		users:   map[uuid.UUID]domain.User{},
		pools:   map[uuid.UUID]domain.Pool{},
		members: map[[2]uuid.UUID]bool{},
		picks:   map[pickKey]domain.Prediction{},
		games:   map[uuid.UUID]domain.Game{},
		weeks:   map[uuid.UUID][]int{},
	}
}

func (m *memStore) addPool(name string) domain.Pool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := domain.Pool{ID: uuid.New(), Name: name, CreatedAt: time.Now()}
	m.pools[p.ID] = p
	return p
}

func (m *memStore) addGame(week int, tieAllowed bool) domain.Game {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := domain.Game{ID: uuid.New(), WeekNumber: week, TieAllowed: tieAllowed, KickoffAt: time.Now()}
	m.games[g.ID] = g
	return g
}

func (m *memStore) pickCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.picks)
}

func (m *memStore) memberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.members)
}

// --- Transactor ---

type memTx struct{}

func (memTx) InTx(_ context.Context, fn func(tx repository.DBTX) error) error { return fn(nil) }

// --- UserRepository ---

type memUsers struct{ *memStore }

func (r memUsers) FindByAuthID(_ context.Context, _ repository.DBTX, authID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.AuthID == authID {
			return &u, nil
		}
	}
	return nil, nil
}

func (r memUsers) FindByID(_ context.Context, _ repository.DBTX, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (r memUsers) List(_ context.Context, _ repository.DBTX) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memUsers) Create(_ context.Context, _ repository.DBTX, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrites != nil {
		return r.failWrites
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	r.users[user.ID] = *user
	return nil
}

func (r memUsers) UpsertByAuthID(_ context.Context, _ repository.DBTX, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.users {
		if u.AuthID == user.AuthID {
			user.ID = id
			user.CreatedAt = u.CreatedAt
			r.users[id] = *user
			return nil
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = *user
	return nil
}

func (r memUsers) Update(_ context.Context, _ repository.DBTX, user *domain.User) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return false, nil
	}
	r.users[user.ID] = *user
	return true, nil
}

func (r memUsers) Delete(_ context.Context, _ repository.DBTX, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	delete(r.users, id)
	return &u, nil
}

// --- PoolRepository ---

type memPools struct{ *memStore }

func (r memPools) FindByID(_ context.Context, _ repository.DBTX, id uuid.UUID) (*domain.Pool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pools[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (r memPools) List(_ context.Context, _ repository.DBTX) ([]domain.Pool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Pool, 0, len(r.pools))
	for _, p := range r.pools {
		out = append(out, p)
	}
	return out, nil
}

func (r memPools) Create(_ context.Context, _ repository.DBTX, pool *domain.Pool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	pool.ID = uuid.New()
	pool.CreatedAt = time.Now()
	r.pools[pool.ID] = *pool
	return nil
}

func (r memPools) Update(_ context.Context, _ repository.DBTX, pool *domain.Pool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.pools[pool.ID]
	if !ok {
		return false, nil
	}
	pool.CreatedAt = old.CreatedAt
	r.pools[pool.ID] = *pool
	return true, nil
}

func (r memPools) Delete(_ context.Context, _ repository.DBTX, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pools[id]
	delete(r.pools, id)
	return ok, nil
}

// --- MembershipRepository ---

type memMembers struct{ *memStore }

func (r memMembers) Exists(_ context.Context, _ repository.DBTX, userID, poolID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.skipExists {
		return false, nil
	}
	return r.members[[2]uuid.UUID{userID, poolID}], nil
}

func (r memMembers) Insert(_ context.Context, _ repository.DBTX, userID, poolID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrites != nil {
		return false, r.failWrites
	}
	k := [2]uuid.UUID{userID, poolID}
	if r.members[k] {
		return false, nil
	}
	r.members[k] = true
	return true, nil
}

func (r memMembers) ListPoolsForUser(_ context.Context, _ repository.DBTX, userID uuid.UUID) ([]domain.PoolSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PoolSummary
	for k := range r.members {
		if k[0] == userID {
			p := r.pools[k[1]]
			out = append(out, domain.PoolSummary{ID: p.ID, Name: p.Name})
		}
	}
	return out, nil
}

func (r memMembers) ListMembers(_ context.Context, _ repository.DBTX, poolID uuid.UUID) ([]domain.PoolMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PoolMember
	for k := range r.members {
		if k[1] == poolID {
			u := r.users[k[0]]
			out = append(out, domain.PoolMember{ID: u.ID, Name: u.Name})
		}
	}
	return out, nil
}

// --- PickRepository ---

type memPicks struct{ *memStore }

func (r memPicks) UpsertBatch(_ context.Context, _ repository.DBTX, userID, poolID uuid.UUID, entries []domain.PickEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrites != nil {
		return r.failWrites
	}
	r.upserts++
	for _, e := range entries {
		r.picks[pickKey{userID, poolID, e.GameID}] = e.Prediction
	}
	return nil
}

func (r memPicks) ListByUser(_ context.Context, _ repository.DBTX, userID, poolID uuid.UUID) ([]domain.PickEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PickEntry
	for k, p := range r.picks {
		if k.user == userID && k.pool == poolID {
			out = append(out, domain.PickEntry{GameID: k.game, Prediction: p})
		}
	}
	return out, nil
}

// --- ScheduleRepository ---

type memSchedule struct{ *memStore }

func (r memSchedule) ListSeasons(_ context.Context, _ repository.DBTX) ([]domain.Season, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries++
	return append([]domain.Season(nil), r.seasons...), nil
}

func (r memSchedule) FindSeason(_ context.Context, _ repository.DBTX, id uuid.UUID) (*domain.Season, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.seasons {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, nil
}

func (r memSchedule) ListWeekNumbers(_ context.Context, _ repository.DBTX, seasonID uuid.UUID) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries++
	return r.weeks[seasonID], nil
}

func (r memSchedule) ListGames(_ context.Context, _ repository.DBTX, _ uuid.UUID) ([]domain.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries++
	out := make([]domain.Game, 0, len(r.games))
	for _, g := range r.games {
		out = append(out, g)
	}
	return out, nil
}

func (r memSchedule) TieFlags(_ context.Context, _ repository.DBTX, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if g, ok := r.games[id]; ok {
			out[id] = g.TieAllowed
		}
	}
	return out, nil
}

// --- OutboxRepository ---

type memOutbox struct{ *memStore }

func (r memOutbox) Insert(_ context.Context, _ repository.DBTX, d domain.OutboxDraft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, d)
	return nil
}

func (r memOutbox) FetchUnpublished(context.Context, repository.DBTX, int) ([]domain.OutboxDraft, error) {
	return nil, nil
}

func (r memOutbox) MarkPublished(context.Context, repository.DBTX, []uuid.UUID) error { return nil }

// --- identity.Provider ---

type memProvider struct {
	mu        sync.Mutex
	creds     map[string]string // subject -> email
	passwords map[string]string // email -> password
	createErr error
	deleteErr error
	deleted   []string
}

func newMemProvider() *memProvider {
	return &memProvider{creds: map[string]string{}, passwords: map[string]string{}}
}

func (p *memProvider) ValidateToken(_ context.Context, token string) (identity.Subject, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if email, ok := p.creds[token]; ok {
		return identity.Subject{ID: token, Email: email}, nil
	}
	return identity.Subject{}, identity.ErrInvalidToken
}

func (p *memProvider) SignIn(_ context.Context, email, password string) (identity.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.passwords[email] != password || password == "" {
		return identity.Session{}, identity.ErrInvalidCredentials
	}
	for sub, e := range p.creds {
		if e == email {
			return identity.Session{AccessToken: sub, Subject: identity.Subject{ID: sub, Email: e}}, nil
		}
	}
	return identity.Session{}, identity.ErrInvalidCredentials
}

func (p *memProvider) CreateCredential(_ context.Context, email, password string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return "", p.createErr
	}
	for _, e := range p.creds {
		if e == email {
			return "", identity.ErrCredentialExists
		}
	}
	sub := uuid.NewString()
	p.creds[sub] = email
	p.passwords[email] = password
	return sub, nil
}

func (p *memProvider) DeleteCredential(_ context.Context, subjectID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, subjectID)
	if p.deleteErr != nil {
		return p.deleteErr
	}
	if _, ok := p.creds[subjectID]; !ok {
		return identity.ErrCredentialNotFound
	}
	delete(p.passwords, p.creds[subjectID])
	delete(p.creds, subjectID)
	return nil
}

func (p *memProvider) FindSubjectByEmail(_ context.Context, email string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for sub, e := range p.creds {
		if e == email {
			return sub, nil
		}
	}
	return "", identity.ErrCredentialNotFound
}

func (p *memProvider) credCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.creds)
}

var errStoreDown = errors.New("connection refused")
