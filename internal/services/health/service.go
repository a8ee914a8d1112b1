package health

import (
	"context"
	"time"
)

// Pinger is satisfied by *sql.DB and *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Service encapsulates health-related checks.
type Service struct {
	checks  map[string]Pinger
	timeout time.Duration
}

// NewService constructs a new health service. Nil checks are skipped.
func NewService(checks map[string]Pinger) *Service {
	live := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			live[name] = p
		}
	}
	return &Service{checks: live, timeout: 2 * time.Second}
}

// Status pings every dependency. ok is false when any of them fails.
func (s *Service) Status(ctx context.Context) (map[string]string, bool) {
	out := map[string]string{}
	ok := true
	for name, p := range s.checks {
		pctx, cancel := context.WithTimeout(ctx, s.timeout)
		err := p.Ping(pctx)
		cancel()
		if err != nil {
			out[name] = err.Error()
			ok = false
			continue
		}
		out[name] = "ok"
	}
	return out, ok
}
