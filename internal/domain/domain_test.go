package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Validator Tests ---

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
		errMsg  string
	}{
		{"valid email", "ana@x.com", false, ""},
		{"valid email with dots", "first.last@example.co.uk", false, ""},
		{"valid email with plus", "user+tag@example.com", false, ""},
		{"empty string", "", true, "email is required"},
		{"no at sign", "userexample.com", true, "invalid email format"},
		{"no domain", "user@", true, "invalid email format"},
		{"no tld", "user@example", true, "invalid email format"},
		{"spaces", "user @example.com", true, "invalid email format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateRole(t *testing.T) {
	assert.NoError(t, ValidateRole("admin"))
	assert.NoError(t, ValidateRole("user"))
	assert.Error(t, ValidateRole("superadmin"))
	assert.Error(t, ValidateRole(""))
}

func TestParseID(t *testing.T) {
	id := uuid.New()

	got, err := ParseID("pool_id", id.String())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseID("pool_id", "")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvalidArgument))
	assert.Contains(t, err.Error(), "pool_id is required")

	_, err = ParseID("pool_id", "not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid pool_id")
}

func TestParseOptionalID(t *testing.T) {
	got, err := ParseOptionalID("season_id", nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	empty := ""
	got, err = ParseOptionalID("season_id", &empty)
	require.NoError(t, err)
	assert.Nil(t, got)

	raw := uuid.New().String()
	got, err = ParseOptionalID("season_id", &raw)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, raw, got.String())
}

// --- Prediction Tests ---

func TestParsePrediction(t *testing.T) {
	tests := []struct {
		in   string
		want Prediction
	}{
		{"home", PredictionHome},
		{"HOME", PredictionHome},
		{"H", PredictionHome},
		{"0", PredictionHome},
		{"away", PredictionAway},
		{"a", PredictionAway},
		{"1", PredictionAway},
		{"tie", PredictionTie},
		{"T", PredictionTie},
		{"2", PredictionTie},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePrediction(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "3", "draw", "-1"} {
		_, err := ParsePrediction(bad)
		assert.Error(t, err, "expected %q to be rejected", bad)
	}
}

func TestPredictionUnmarshalJSON(t *testing.T) {
	var entries []PickEntry
	body := `[{"game_id":"6f1c0d44-4a5e-4b38-9d7e-2f1f7f0f0a01","prediction":"away"},
	          {"game_id":"6f1c0d44-4a5e-4b38-9d7e-2f1f7f0f0a02","prediction":2},
	          {"game_id":"6f1c0d44-4a5e-4b38-9d7e-2f1f7f0f0a03","prediction":"H"}]`
	require.NoError(t, json.Unmarshal([]byte(body), &entries))
	require.Len(t, entries, 3)
	assert.Equal(t, PredictionAway, entries[0].Prediction)
	assert.Equal(t, PredictionTie, entries[1].Prediction)
	assert.Equal(t, PredictionHome, entries[2].Prediction)

	var p Prediction
	assert.Error(t, json.Unmarshal([]byte(`7`), &p))
	assert.Error(t, json.Unmarshal([]byte(`"sideways"`), &p))
	assert.Error(t, json.Unmarshal([]byte(`true`), &p))
}

func TestPredictionMarshalsAsWord(t *testing.T) {
	data, err := json.Marshal(PickEntry{GameID: uuid.Nil, Prediction: PredictionTie})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"prediction":"tie"`)
}

// --- GroupByWeek Tests ---

func TestGroupByWeek(t *testing.T) {
	base := time.Date(2025, 9, 7, 17, 0, 0, 0, time.UTC)
	late := Game{ID: uuid.New(), WeekNumber: 1, KickoffAt: base.Add(3 * time.Hour)}
	early := Game{ID: uuid.New(), WeekNumber: 1, KickoffAt: base}
	wk3 := Game{ID: uuid.New(), WeekNumber: 3, KickoffAt: base.Add(14 * 24 * time.Hour)}

	groups := GroupByWeek([]int{1, 2, 3}, []Game{late, wk3, early})
	require.Len(t, groups, 3)

	assert.Equal(t, 1, groups[0].WeekNumber)
	require.Len(t, groups[0].Games, 2)
	assert.Equal(t, early.ID, groups[0].Games[0].ID)
	assert.Equal(t, late.ID, groups[0].Games[1].ID)

	assert.Equal(t, 2, groups[1].WeekNumber)
	assert.NotNil(t, groups[1].Games)
	assert.Empty(t, groups[1].Games)

	assert.Equal(t, 3, groups[2].WeekNumber)
	assert.Len(t, groups[2].Games, 1)
}

func TestGroupByWeek_GameOutsideKnownWeeks(t *testing.T) {
	g := Game{ID: uuid.New(), WeekNumber: 19}
	groups := GroupByWeek([]int{1}, []Game{g})
	require.Len(t, groups, 2)
	assert.Equal(t, 19, groups[1].WeekNumber)
}

// --- Error Tests ---

func TestAppErrorKinds(t *testing.T) {
	tests := []struct {
		err      *AppError
		wantKind Kind
		wantCode string
	}{
		{ErrUnauthorized("no token"), KindUnauthorized, "UNAUTHORIZED"},
		{ErrForbidden("not admin"), KindForbidden, "FORBIDDEN"},
		{ErrValidation("bad"), KindInvalidArgument, "VALIDATION_ERROR"},
		{ErrNotFound("user", "x"), KindNotFound, "NOT_FOUND"},
		{ErrConflict("dup"), KindConflict, "CONFLICT"},
		{ErrTooManyRequests("slow down"), KindTooManyRequests, "TOO_MANY_REQUESTS"},
		{ErrUpstream("store", nil), KindUpstream, "UPSTREAM_FAILURE"},
		{ErrInternal("oops", nil), KindInternal, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			assert.Equal(t, tt.wantKind, tt.err.Kind)
			assert.Equal(t, tt.wantCode, tt.err.Code())
			assert.Equal(t, tt.wantKind, KindOf(tt.err))
		})
	}
}

func TestKindOfWrapped(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("join pool: %w", ErrUpstream("insert membership", cause))

	assert.Equal(t, KindUpstream, KindOf(err))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestOutboxDraftTopic(t *testing.T) {
	d, err := NewOutboxDraft(AggregatePicks, "pool-1", EventPicksSubmitted, map[string]int{"count": 2})
	require.NoError(t, err)
	assert.Equal(t, "quiniela.picks.submitted", d.Topic())
	assert.NotEqual(t, uuid.Nil, d.EventID)
	assert.JSONEq(t, `{"count":2}`, string(d.Payload))
}
