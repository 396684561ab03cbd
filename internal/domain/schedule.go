package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Season is a seasons row.
type Season struct {
	ID    uuid.UUID `json:"id"`
	Year  int       `json:"year"`
	Label string    `json:"label"`
}

// Week is a weeks row.
type Week struct {
	ID         uuid.UUID `json:"id"`
	SeasonID   uuid.UUID `json:"season_id"`
	WeekNumber int       `json:"week_number"`
}

// Team is a teams row.
type Team struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	ShortName string    `json:"short_name"`
}

// Game is a scheduled game with its teams resolved.
type Game struct {
	ID         uuid.UUID `json:"id"`
	KickoffAt  time.Time `json:"kickoff_at"`
	Status     string    `json:"status"`
	TieAllowed bool      `json:"tie_allowed"`
	WeekNumber int       `json:"week_number"`
	Home       Team      `json:"home"`
	Away       Team      `json:"away"`
}

// WeekGroup is one week of a schedule.
type WeekGroup struct {
	WeekNumber int    `json:"week_number"`
	Games      []Game `json:"games"`
}

// Schedule is a season's games grouped by week.
type Schedule struct {
	Season Season      `json:"season"`
	Weeks  []WeekGroup `json:"weeks"`
}

// GroupByWeek groups games by week number. Every week in weeks appears even
// when it has no games; weeks are ascending and games ordered by kickoff.
func GroupByWeek(weeks []int, games []Game) []WeekGroup {
	byWeek := make(map[int][]Game, len(weeks))
	for _, w := range weeks {
		byWeek[w] = []Game{}
	}
	for _, g := range games {
		byWeek[g.WeekNumber] = append(byWeek[g.WeekNumber], g)
	}

	numbers := make([]int, 0, len(byWeek))
	for w := range byWeek {
		numbers = append(numbers, w)
	}
	sort.Ints(numbers)

	groups := make([]WeekGroup, 0, len(numbers))
	for _, w := range numbers {
		gs := byWeek[w]
		sort.SliceStable(gs, func(i, j int) bool {
			return gs[i].KickoffAt.Before(gs[j].KickoffAt)
		})
		groups = append(groups, WeekGroup{WeekNumber: w, Games: gs})
	}
	return groups
}
