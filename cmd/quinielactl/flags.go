package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/quiniela/platform/internal/domain"
)

type scheduleOpts struct {
	seasonID *uuid.UUID
}

func parseScheduleFlags(args []string) (scheduleOpts, error) {
	fs := flag.NewFlagSet("schedule", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	season := fs.String("season", "", "season id (defaults to the latest season)")
	if err := fs.Parse(args); err != nil {
		return scheduleOpts{}, err
	}
	if fs.NArg() > 0 {
		return scheduleOpts{}, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	var opts scheduleOpts
	if *season != "" {
		id, err := uuid.Parse(*season)
		if err != nil {
			return scheduleOpts{}, fmt.Errorf("invalid season %q", *season)
		}
		opts.seasonID = &id
	}
	return opts, nil
}

// parsePickArgs reads game=prediction pairs. A later pair for the same game
// replaces an earlier one and keeps its original position.
func parsePickArgs(args []string) ([]domain.PickEntry, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no picks given, expected <game-id>=<home|away|tie>")
	}

	entries := make([]domain.PickEntry, 0, len(args))
	index := make(map[uuid.UUID]int, len(args))
	for _, arg := range args {
		game, pred, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("pick %q: expected <game-id>=<prediction>", arg)
		}
		gameID, err := uuid.Parse(strings.TrimSpace(game))
		if err != nil {
			return nil, fmt.Errorf("pick %q: invalid game id", arg)
		}
		p, err := domain.ParsePrediction(pred)
		if err != nil {
			return nil, fmt.Errorf("pick %q: %w", arg, err)
		}
		if i, seen := index[gameID]; seen {
			entries[i].Prediction = p
			continue
		}
		index[gameID] = len(entries)
		entries = append(entries, domain.PickEntry{GameID: gameID, Prediction: p})
	}
	return entries, nil
}
