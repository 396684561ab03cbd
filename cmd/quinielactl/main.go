// Command quinielactl is a terminal client for the quiniela API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/quiniela/platform/internal/board"
	"github.com/quiniela/platform/internal/client"
)

type cliConfig struct {
	APIURL   string        `env:"QUINIELA_API_URL" envDefault:"http://localhost:3100"`
	Token    string        `env:"QUINIELA_TOKEN"`
	Debounce time.Duration `env:"QUINIELA_PICK_DEBOUNCE" envDefault:"400ms"`
}

const usage = `usage: quinielactl <command> [args]

commands:
  login <email> <password>          print a bearer token for QUINIELA_TOKEN
  me                                show the current user
  pools                             list my pools
  join <pool-id>                    join a pool
  members <pool-id>                 list a pool's members
  seasons                           list seasons
  schedule [-season <id>]           show games grouped by week
  picks <pool-id>                   list my picks in a pool
  pick <pool-id> <game-id>=<h|a|t>...  save picks
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	var cfg cliConfig
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errors.New("missing command")
	}

	c := client.New(cfg.APIURL, cfg.Token)
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "login":
		if len(rest) != 2 {
			return errors.New("login needs <email> <password>")
		}
		user, err := c.Login(ctx, rest[0], rest[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "logged in as %s (%s)\nexport QUINIELA_TOKEN=%s\n", user.Email, user.Role, c.Token())
		return nil
	case "me":
		user, err := c.Me(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", user.ID, user.Name, user.Email, user.Role)
		return nil
	case "pools":
		pools, err := c.MyPools(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, p := range pools {
			fmt.Fprintf(tw, "%s\t%s\n", p.ID, p.Name)
		}
		return tw.Flush()
	case "join":
		poolID, err := argID(rest, 0, "pool-id")
		if err != nil {
			return err
		}
		already, err := c.Join(ctx, poolID)
		if err != nil {
			return err
		}
		if already {
			fmt.Fprintln(out, "already a member")
		} else {
			fmt.Fprintln(out, "joined")
		}
		return nil
	case "members":
		poolID, err := argID(rest, 0, "pool-id")
		if err != nil {
			return err
		}
		members, err := c.Members(ctx, poolID)
		if err != nil {
			return err
		}
		for _, m := range members {
			fmt.Fprintf(out, "%s\t%s\n", m.ID, m.Name)
		}
		return nil
	case "seasons":
		seasons, err := c.Seasons(ctx)
		if err != nil {
			return err
		}
		for _, s := range seasons {
			fmt.Fprintf(out, "%s\t%d\t%s\n", s.ID, s.Year, s.Label)
		}
		return nil
	case "schedule":
		return schedule(ctx, c, rest, out)
	case "picks":
		poolID, err := argID(rest, 0, "pool-id")
		if err != nil {
			return err
		}
		picks, err := c.Picks(ctx, poolID)
		if err != nil {
			return err
		}
		for _, p := range picks {
			fmt.Fprintf(out, "%s\t%s\n", p.GameID, p.Prediction)
		}
		return nil
	case "pick":
		return pick(ctx, c, cfg.Debounce, rest, out)
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func schedule(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	opts, err := parseScheduleFlags(args)
	if err != nil {
		return err
	}
	sched, err := c.Schedule(ctx, opts.seasonID)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Season %d %s\n", sched.Season.Year, sched.Season.Label)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, w := range sched.Weeks {
		fmt.Fprintf(tw, "\nWeek %d\t\t\t\t\n", w.WeekNumber)
		if len(w.Games) == 0 {
			fmt.Fprintln(tw, "  no games\t\t\t\t")
			continue
		}
		for _, g := range w.Games {
			tie := ""
			if g.TieAllowed {
				tie = "tie ok"
			}
			fmt.Fprintf(tw, "  %s\t%s @ %s\t%s\t%s\t%s\n",
				g.ID, g.Away.ShortName, g.Home.ShortName, g.KickoffAt.Format(time.RFC1123), g.Status, tie)
		}
	}
	return tw.Flush()
}

// pick saves picks through a board so the command exercises the same
// optimistic path as an interactive client, then reports each game's outcome.
func pick(ctx context.Context, c *client.Client, debounce time.Duration, args []string, out io.Writer) error {
	poolID, err := argID(args, 0, "pool-id")
	if err != nil {
		return err
	}
	entries, err := parsePickArgs(args[1:])
	if err != nil {
		return err
	}

	stored, err := c.Picks(ctx, poolID)
	if err != nil {
		return err
	}
	b := board.New(poolID, c, stored, board.Options{Debounce: debounce})
	defer b.Close()

	for _, e := range entries {
		b.Set(e.GameID, e.Prediction)
	}
	if err := b.Flush(ctx); err != nil {
		return err
	}

	failed := 0
	for _, e := range entries {
		st := b.Get(e.GameID)
		switch st.Status {
		case board.RolledBack:
			failed++
			fmt.Fprintf(out, "%s\tnot saved (%v), kept %q\n", e.GameID, st.Err, st.Value)
		default:
			fmt.Fprintf(out, "%s\t%s\t%s\n", e.GameID, st.Value, st.Status)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d pick(s) not saved", failed)
	}
	return nil
}

func argID(args []string, i int, name string) (uuid.UUID, error) {
	if len(args) <= i {
		return uuid.Nil, fmt.Errorf("missing <%s>", name)
	}
	id, err := uuid.Parse(args[i])
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s %q", name, args[i])
	}
	return id, nil
}

var _ board.Saver = (*client.Client)(nil)
