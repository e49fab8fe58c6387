package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"jobsvc/internal/app/pkg/logger"
)

func TestProbe_Check(t *testing.T) {
	ok := CheckerFunc(func(ctx context.Context) error { return nil })
	down := CheckerFunc(func(ctx context.Context) error { return errors.New("connection refused") })
	slow := CheckerFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	tests := []struct {
		name     string
		checkers map[string]Checker
		healthy  bool
	}{
		{"no services", map[string]Checker{}, true},
		{"all healthy", map[string]Checker{"db": ok, "queue": ok}, true},
		{"one down", map[string]Checker{"db": ok, "queue": down}, false},
		{"timeout", map[string]Checker{"db": slow}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProbe(50*time.Millisecond, logger.NewNopLogger())
			for name, c := range tt.checkers {
				p.Register(name, c)
			}
			report := p.Check(context.Background())
			if report.Healthy != tt.healthy {
				t.Errorf("healthy = %v, want %v (%+v)", report.Healthy, tt.healthy, report.Report)
			}
			if len(report.Report) != len(tt.checkers) {
				t.Errorf("report has %d entries, want %d", len(report.Report), len(tt.checkers))
			}
			for _, r := range report.Report {
				if !r.Healthy && r.Error == "" {
					t.Errorf("%s unhealthy without error", r.Name)
				}
			}
		})
	}
}

func TestProbe_Registration(t *testing.T) {
	p := NewProbe(0, logger.NewNopLogger())
	ok := CheckerFunc(func(ctx context.Context) error { return nil })

	if !p.Register("db", ok) {
		t.Fatal("first Register returned false")
	}
	if p.Register("db", ok) {
		t.Error("duplicate Register returned true")
	}
	if !p.Unregister("db") {
		t.Error("Unregister returned false")
	}
	if p.Unregister("db") {
		t.Error("second Unregister returned true")
	}
}
