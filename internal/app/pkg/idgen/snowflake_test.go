package idgen

import (
	"strconv"
	"testing"
	"time"
)

func TestGeneratorMonotonic(t *testing.T) {
	g := New(7)
	prev := int64(-1)
	seen := make(map[string]struct{})
	for i := 0; i < 5000; i++ {
		id := g.Next()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %s at iteration %d", id, i)
		}
		seen[id] = struct{}{}

		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			t.Fatalf("id %q is not numeric: %v", id, err)
		}
		if n <= prev {
			t.Fatalf("id %d not greater than previous %d", n, prev)
		}
		prev = n
	}
}

func TestGeneratorClockRollback(t *testing.T) {
	g := New(1)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	current := base
	g.now = func() time.Time { return current }

	first := g.Next()
	current = base.Add(-time.Second)
	second := g.Next()

	a, _ := strconv.ParseInt(first, 10, 64)
	b, _ := strconv.ParseInt(second, 10, 64)
	if b <= a {
		t.Fatalf("expected id after rollback to keep increasing: %d <= %d", b, a)
	}
}

func TestNewClampsNodeID(t *testing.T) {
	tests := []struct {
		name string
		in   int64
		want int64
	}{
		{"in range", 42, 42},
		{"negative", -1, 0},
		{"too large", 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New(tt.in).nodeID; got != tt.want {
				t.Errorf("nodeID = %d, want %d", got, tt.want)
			}
		})
	}
}
