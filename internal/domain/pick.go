package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Prediction is a predicted outcome for one game.
type Prediction string

const (
	PredictionHome Prediction = "home"
	PredictionAway Prediction = "away"
	PredictionTie  Prediction = "tie"
)

// ParsePrediction normalizes the accepted spellings of a prediction.
func ParsePrediction(s string) (Prediction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "home", "h", "0":
		return PredictionHome, nil
	case "away", "a", "1":
		return PredictionAway, nil
	case "tie", "t", "2":
		return PredictionTie, nil
	}
	return "", fmt.Errorf("invalid prediction %q", s)
}

// Valid reports whether p is one of the three stored values.
func (p Prediction) Valid() bool {
	return p == PredictionHome || p == PredictionAway || p == PredictionTie
}

// UnmarshalJSON accepts strings ("home", "H") and the numeric codes 0, 1, 2.
func (p *Prediction) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		parsed, err := ParsePrediction(n.String())
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("prediction must be a string or number")
	}
	parsed, err := ParsePrediction(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Pick is one user's prediction for one game within one pool.
type Pick struct {
	UserID     uuid.UUID  `json:"user_id"`
	PoolID     uuid.UUID  `json:"pool_id"`
	GameID     uuid.UUID  `json:"game_id"`
	Prediction Prediction `json:"prediction"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// PickEntry is a (game, prediction) pair as submitted and listed.
type PickEntry struct {
	GameID     uuid.UUID  `json:"game_id"`
	Prediction Prediction `json:"prediction"`
}
