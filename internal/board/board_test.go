package board

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/quiniela/platform/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type saveCall struct {
	gameID uuid.UUID
	value  domain.Prediction
}

// fakeSaver records calls. When block is set, each call waits for a value on
// release and returns it.
type fakeSaver struct {
	mu      sync.Mutex
	calls   []saveCall
	err     error
	block   bool
	started chan saveCall
	release chan error
}

func newBlockingSaver() *fakeSaver {
	return &fakeSaver{block: true, started: make(chan saveCall, 8), release: make(chan error)}
}

func (f *fakeSaver) SavePick(ctx context.Context, _, gameID uuid.UUID, p domain.Prediction) error {
	c := saveCall{gameID: gameID, value: p}
	f.mu.Lock()
	f.calls = append(f.calls, c)
	err := f.err
	f.mu.Unlock()

	if f.block {
		f.started <- c
		select {
		case err = <-f.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeSaver) Calls() []saveCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]saveCall(nil), f.calls...)
}

func flush(t *testing.T, b *Board) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, b.Flush(ctx))
}

func TestSet_AppliesLocallyBeforeSave(t *testing.T) {
	saver := &fakeSaver{}
	b := New(uuid.New(), saver, nil, Options{Debounce: time.Hour})
	defer b.Close()
	game := uuid.New()

	b.Set(game, domain.PredictionHome)

	st := b.Get(game)
	assert.Equal(t, domain.PredictionHome, st.Value)
	assert.Equal(t, Pending, st.Status)
	assert.Empty(t, saver.Calls())
}

func TestSet_CoalescesWithinDebounce(t *testing.T) {
	saver := &fakeSaver{}
	b := New(uuid.New(), saver, nil, Options{Debounce: time.Hour})
	defer b.Close()
	game := uuid.New()

	b.Set(game, domain.PredictionHome)
	b.Set(game, domain.PredictionAway)
	b.Set(game, domain.PredictionTie)
	flush(t, b)

	calls := saver.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, domain.PredictionTie, calls[0].value)
	assert.Equal(t, State{Value: domain.PredictionTie, Status: Committed}, b.Get(game))
}

func TestSet_SavesAfterQuietPeriod(t *testing.T) {
	settled := make(chan State, 1)
	saver := &fakeSaver{}
	game := uuid.New()
	b := New(uuid.New(), saver, nil, Options{
		Debounce: 10 * time.Millisecond,
		OnSettle: func(id uuid.UUID, st State) {
			assert.Equal(t, game, id)
			settled <- st
		},
	})
	defer b.Close()

	b.Set(game, domain.PredictionAway)

	select {
	case st := <-settled:
		assert.Equal(t, Committed, st.Status)
		assert.Equal(t, domain.PredictionAway, st.Value)
	case <-time.After(2 * time.Second):
		t.Fatal("save never settled")
	}
	assert.Len(t, saver.Calls(), 1)
}

func TestSet_SameValueIsNoop(t *testing.T) {
	saver := &fakeSaver{}
	game := uuid.New()
	b := New(uuid.New(), saver, []domain.PickEntry{{GameID: game, Prediction: domain.PredictionHome}}, Options{Debounce: time.Hour})
	defer b.Close()

	b.Set(game, domain.PredictionHome)
	flush(t, b)

	assert.Empty(t, saver.Calls())
	assert.Equal(t, Committed, b.Get(game).Status)
}

func TestFailedSave_RollsBackToCommitted(t *testing.T) {
	boom := errors.New("HTTP 500")
	saver := &fakeSaver{err: boom}
	game := uuid.New()
	b := New(uuid.New(), saver, []domain.PickEntry{{GameID: game, Prediction: domain.PredictionHome}}, Options{Debounce: time.Hour})
	defer b.Close()

	b.Set(game, domain.PredictionAway)
	flush(t, b)

	st := b.Get(game)
	assert.Equal(t, domain.PredictionHome, st.Value)
	assert.Equal(t, RolledBack, st.Status)
	assert.ErrorIs(t, st.Err, boom)
}

func TestFailedSave_NoPreviousPickClearsValue(t *testing.T) {
	saver := &fakeSaver{err: errors.New("offline")}
	game := uuid.New()
	b := New(uuid.New(), saver, nil, Options{Debounce: time.Hour})
	defer b.Close()

	b.Set(game, domain.PredictionTie)
	flush(t, b)

	st := b.Get(game)
	assert.Equal(t, domain.Prediction(""), st.Value)
	assert.Equal(t, RolledBack, st.Status)
}

func TestRetryAfterRollback(t *testing.T) {
	saver := &fakeSaver{err: errors.New("offline")}
	game := uuid.New()
	b := New(uuid.New(), saver, nil, Options{Debounce: time.Hour})
	defer b.Close()

	b.Set(game, domain.PredictionAway)
	flush(t, b)
	require.Equal(t, RolledBack, b.Get(game).Status)

	saver.mu.Lock()
	saver.err = nil
	saver.mu.Unlock()

	b.Set(game, domain.PredictionAway)
	flush(t, b)
	assert.Equal(t, State{Value: domain.PredictionAway, Status: Committed}, b.Get(game))
	assert.Len(t, saver.Calls(), 2)
}

func TestSupersededFailureKeepsNewerValue(t *testing.T) {
	saver := newBlockingSaver()
	game := uuid.New()
	b := New(uuid.New(), saver, nil, Options{Debounce: time.Hour})
	defer b.Close()

	b.Set(game, domain.PredictionHome)
	done := make(chan error, 1)
	go func() { done <- b.Flush(context.Background()) }()
	first := <-saver.started
	assert.Equal(t, domain.PredictionHome, first.value)

	// A newer change arrives while the first save is in flight.
	b.Set(game, domain.PredictionAway)
	go func() { _ = b.Flush(context.Background()) }()

	saver.release <- errors.New("timeout")

	second := <-saver.started
	assert.Equal(t, domain.PredictionAway, second.value)
	st := b.Get(game)
	assert.Equal(t, domain.PredictionAway, st.Value)
	assert.Equal(t, Pending, st.Status)

	saver.release <- nil
	require.NoError(t, <-done)
	assert.Equal(t, State{Value: domain.PredictionAway, Status: Committed}, b.Get(game))
}

func TestSavesForOneGameDoNotOverlap(t *testing.T) {
	saver := newBlockingSaver()
	game := uuid.New()
	b := New(uuid.New(), saver, nil, Options{Debounce: time.Hour})
	defer b.Close()

	b.Set(game, domain.PredictionHome)
	go func() { _ = b.Flush(context.Background()) }()
	<-saver.started

	b.Set(game, domain.PredictionTie)
	go func() { _ = b.Flush(context.Background()) }()

	select {
	case c := <-saver.started:
		t.Fatalf("second save started while the first was in flight: %+v", c)
	case <-time.After(50 * time.Millisecond):
	}

	saver.release <- nil
	c := <-saver.started
	assert.Equal(t, domain.PredictionTie, c.value)
	saver.release <- nil
	flush(t, b)
	assert.Equal(t, State{Value: domain.PredictionTie, Status: Committed}, b.Get(game))
}

func TestIndependentGames(t *testing.T) {
	saver := &fakeSaver{}
	g1, g2 := uuid.New(), uuid.New()
	b := New(uuid.New(), saver, nil, Options{Debounce: time.Hour})
	defer b.Close()

	b.Set(g1, domain.PredictionHome)
	b.Set(g2, domain.PredictionAway)
	flush(t, b)

	snap := b.Snapshot()
	assert.Equal(t, domain.PredictionHome, snap[g1].Value)
	assert.Equal(t, domain.PredictionAway, snap[g2].Value)
	assert.Len(t, saver.Calls(), 2)
}

func TestClose_DropsScheduledSaves(t *testing.T) {
	saver := &fakeSaver{}
	game := uuid.New()
	b := New(uuid.New(), saver, []domain.PickEntry{{GameID: game, Prediction: domain.PredictionHome}}, Options{Debounce: time.Hour})

	b.Set(game, domain.PredictionAway)
	b.Close()

	st := b.Get(game)
	assert.Equal(t, domain.PredictionHome, st.Value)
	assert.Equal(t, RolledBack, st.Status)
	assert.ErrorIs(t, st.Err, context.Canceled)
	flush(t, b)
	assert.Empty(t, saver.Calls())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "committed", Committed.String())
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "rolled_back", RolledBack.String())
}
