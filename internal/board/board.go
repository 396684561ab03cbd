// Package board holds one user's picks for a pool on the client side. Changes
// apply locally at once and are saved after a quiet period; a failed save
// reverts the game to its last committed value.
package board

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quiniela/platform/internal/domain"
)

// Status is the save state of one game's pick.
type Status int

const (
	// Committed means the local value matches what the server acknowledged.
	Committed Status = iota
	// Pending means a local change is waiting for, or in, a save.
	Pending
	// RolledBack means the last save failed and the value was reverted.
	RolledBack
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case RolledBack:
		return "rolled_back"
	default:
		return "committed"
	}
}

// Saver persists one pick. client.Client implements it.
type Saver interface {
	SavePick(ctx context.Context, poolID, gameID uuid.UUID, p domain.Prediction) error
}

// Options configures a Board.
type Options struct {
	// Debounce is the quiet period before a change is saved.
	Debounce time.Duration
	// OnSettle, when set, is called after each save for the newest change of a game completes.
	OnSettle func(gameID uuid.UUID, st State)
}

// State is a snapshot of one game on the board.
type State struct {
	Value  domain.Prediction // empty when there is no pick
	Status Status
	Err    error // set when Status is RolledBack
}

type item struct {
	value     domain.Prediction
	committed domain.Prediction
	status    Status
	err       error
	seq       uint64
	timer     *time.Timer
	inflight  bool
	queued    bool // a newer change is waiting for the in-flight save
}

// Board tracks picks for one pool.
type Board struct {
	poolID uuid.UUID
	saver  Saver
	opts   Options

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	items   map[uuid.UUID]*item
	changed chan struct{}
}

// New creates a Board seeded with the picks already stored on the server.
func New(poolID uuid.UUID, saver Saver, stored []domain.PickEntry, opts Options) *Board {
	if opts.Debounce < 0 {
		opts.Debounce = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &Board{
		poolID:  poolID,
		saver:   saver,
		opts:    opts,
		ctx:     ctx,
		cancel:  cancel,
		items:   make(map[uuid.UUID]*item, len(stored)),
		changed: make(chan struct{}),
	}
	for _, e := range stored {
		b.items[e.GameID] = &item{value: e.Prediction, committed: e.Prediction}
	}
	return b
}

// PoolID returns the pool this board edits.
func (b *Board) PoolID() uuid.UUID { return b.poolID }

// Get returns the state of one game.
func (b *Board) Get(gameID uuid.UUID) State {
	b.mu.Lock()
	defer b.mu.Unlock()
	it, ok := b.items[gameID]
	if !ok {
		return State{}
	}
	return State{Value: it.value, Status: it.status, Err: it.err}
}

// Snapshot returns the state of every game that has or had a pick.
func (b *Board) Snapshot() map[uuid.UUID]State {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[uuid.UUID]State, len(b.items))
	for id, it := range b.items {
		out[id] = State{Value: it.value, Status: it.status, Err: it.err}
	}
	return out
}

// Set applies p to gameID locally and schedules a save. Changes inside the
// debounce window replace each other and produce a single save.
func (b *Board) Set(gameID uuid.UUID, p domain.Prediction) {
	b.mu.Lock()
	defer b.mu.Unlock()

	it, ok := b.items[gameID]
	if !ok {
		it = &item{}
		b.items[gameID] = it
	}
	if it.value == p && it.status != RolledBack {
		return
	}

	it.value = p
	it.status = Pending
	it.err = nil
	it.seq++
	if it.timer != nil {
		it.timer.Stop()
	}
	seq := it.seq
	it.timer = time.AfterFunc(b.opts.Debounce, func() { b.fire(gameID, seq) })
}

// Flush starts every scheduled save now and waits until no game is pending.
func (b *Board) Flush(ctx context.Context) error {
	b.mu.Lock()
	for id, it := range b.items {
		if it.timer != nil && it.timer.Stop() {
			it.timer = nil
			b.startLocked(id, it)
		}
	}
	b.mu.Unlock()

	for {
		b.mu.Lock()
		pending := false
		for _, it := range b.items {
			if it.status == Pending {
				pending = true
				break
			}
		}
		ch := b.changed
		b.mu.Unlock()

		if !pending {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

// Close cancels in-flight saves. Scheduled saves are dropped and their games
// reverted as if the save had failed.
func (b *Board) Close() {
	b.mu.Lock()
	for _, it := range b.items {
		if it.queued || (it.timer != nil && it.timer.Stop()) {
			it.timer = nil
			it.queued = false
			it.value = it.committed
			it.status = RolledBack
			it.err = context.Canceled
		}
	}
	close(b.changed)
	b.changed = make(chan struct{})
	b.mu.Unlock()
	b.cancel()
}

func (b *Board) fire(gameID uuid.UUID, seq uint64) {
	b.mu.Lock()
	it := b.items[gameID]
	if it == nil || it.seq != seq || it.timer == nil {
		b.mu.Unlock()
		return
	}
	it.timer = nil
	b.startLocked(gameID, it)
	b.mu.Unlock()
}

// startLocked saves the item's current value. Saves for one game never
// overlap, so the server sees them in the order they were made.
func (b *Board) startLocked(gameID uuid.UUID, it *item) {
	if it.inflight {
		it.queued = true
		return
	}
	it.inflight = true
	go b.save(gameID, it.seq, it.value)
}

func (b *Board) save(gameID uuid.UUID, seq uint64, value domain.Prediction) {
	err := b.saver.SavePick(b.ctx, b.poolID, gameID, value)
	b.settle(gameID, seq, value, err)
}

// settle records a finished save. A save for a superseded change only moves
// the committed value forward; it never touches the newer local value.
func (b *Board) settle(gameID uuid.UUID, seq uint64, value domain.Prediction, err error) {
	b.mu.Lock()
	it := b.items[gameID]
	it.inflight = false
	if err == nil {
		it.committed = value
	}

	current := it.seq == seq
	if current {
		if err == nil {
			it.status = Committed
			it.err = nil
		} else {
			it.value = it.committed
			it.status = RolledBack
			it.err = err
		}
	}
	st := State{Value: it.value, Status: it.status, Err: it.err}
	if it.queued {
		it.queued = false
		b.startLocked(gameID, it)
	}

	close(b.changed)
	b.changed = make(chan struct{})
	b.mu.Unlock()

	if current && b.opts.OnSettle != nil {
		b.opts.OnSettle(gameID, st)
	}
}
