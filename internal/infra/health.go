package infra

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const checkTimeout = 3 * time.Second

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check probes one dependency.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// DatabaseCheck pings Postgres.
func DatabaseCheck(db Pinger) Check {
	return Check{Name: "database", Probe: db.Ping}
}

// RedisCheck pings the schedule cache.
func RedisCheck(client *redis.Client) Check {
	return Check{Name: "cache", Probe: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}}
}

// CheckReport is the outcome of RunChecks, keyed by check name.
type CheckReport struct {
	Healthy bool              `json:"-"`
	Checks  map[string]string `json:"checks"`
	Err     error             `json:"-"`
}

// RunChecks runs every check concurrently, each bounded by its own timeout.
// Err is the first failure in check order.
func RunChecks(ctx context.Context, checks ...Check) CheckReport {
	errs := make([]error, len(checks))
	var g errgroup.Group
	for i, c := range checks {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()
			errs[i] = c.Probe(cctx)
			return nil
		})
	}
	_ = g.Wait()

	report := CheckReport{Healthy: true, Checks: make(map[string]string, len(checks))}
	for i, c := range checks {
		if errs[i] != nil {
			report.Checks[c.Name] = errs[i].Error()
			if report.Healthy {
				report.Healthy = false
				report.Err = errs[i]
			}
			continue
		}
		report.Checks[c.Name] = "ok"
	}
	return report
}

