package domain

import (
	"time"

	"github.com/google/uuid"
)

// Pool is a named group of users competing on the same set of predictions.
type Pool struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	SeasonID  *uuid.UUID `json:"season_id"`
	CreatedAt time.Time  `json:"created_at"`
}

// PoolSummary is the compact pool shape returned by /pools/mine.
type PoolSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Membership is a user_pools row.
type Membership struct {
	UserID    uuid.UUID `json:"user_id"`
	PoolID    uuid.UUID `json:"pool_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PoolMember is a member listing entry.
type PoolMember struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
