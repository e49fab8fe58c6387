package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"jobsvc/internal/app/domains/entity/etjoborder"
	"jobsvc/internal/app/domains/entity/etprimitive"
	"jobsvc/internal/app/domains/modules/mdnotify"
	"jobsvc/internal/app/domains/modules/mdqueue"
	"jobsvc/internal/app/domains/repo/rpjoborder"
	"jobsvc/internal/app/domains/services/svjoborder"
	"jobsvc/internal/app/pkg/logger"
)

var sweepNow = time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*svjoborder.JobOrderService, *mdqueue.MemoryQueuer) {
	t.Helper()
	queuer := mdqueue.NewMemoryQueuer()
	svc := svjoborder.NewJobOrderService(
		rpjoborder.NewMemoryJobOrderRepository(nil),
		queuer,
		mdnotify.NewLogNotifier(logger.NewNopLogger()),
	)
	return svc, queuer
}

func request(t *testing.T, svc *svjoborder.JobOrderService, expiresAt *time.Time) *etjoborder.JobOrder {
	t.Helper()
	order, err := svc.RequestOrder(context.Background(), "build", etprimitive.Payload{}, etjoborder.JobParamsInput{ExpiresAt: expiresAt})
	if err != nil {
		t.Fatalf("RequestOrder: %v", err)
	}
	return order
}

func TestSweeper_SweepOnce(t *testing.T) {
	svc, queuer := newService(t)
	past := sweepNow.Add(-time.Minute)
	future := sweepNow.Add(time.Hour)

	expired1 := request(t, svc, &past)
	expired2 := request(t, svc, &sweepNow)
	alive := request(t, svc, &future)
	noExpiry := request(t, svc, nil)

	s := NewSweeper(svc, Config{Interval: time.Second, BatchSize: 10}, logger.NewNopLogger())
	s.now = func() time.Time { return sweepNow }

	n, err := s.SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if n != 2 {
		t.Errorf("expired = %d, want 2", n)
	}

	tests := []struct {
		id   string
		want etjoborder.JobStatus
	}{
		{expired1.ID, etjoborder.JobStatusCancelled},
		{expired2.ID, etjoborder.JobStatusCancelled},
		{alive.ID, etjoborder.JobStatusPending},
		{noExpiry.ID, etjoborder.JobStatusPending},
	}
	for _, tt := range tests {
		order, err := svc.GetOrder(context.Background(), tt.id)
		if err != nil {
			t.Fatalf("GetOrder(%s): %v", tt.id, err)
		}
		if order.Status != tt.want {
			t.Errorf("order %s status = %s, want %s", tt.id, order.Status, tt.want)
		}
	}
	if queuer.Has(expired1.ID) || !queuer.Has(alive.ID) {
		t.Error("expired orders must leave the queue, alive ones stay")
	}

	n, err = s.SweepOnce(context.Background())
	if err != nil || n != 0 {
		t.Errorf("second sweep = %d, %v", n, err)
	}
}

func TestSweeper_BatchSize(t *testing.T) {
	svc, _ := newService(t)
	past := sweepNow.Add(-time.Minute)
	for i := 0; i < 3; i++ {
		request(t, svc, &past)
	}

	s := NewSweeper(svc, Config{BatchSize: 2}, logger.NewNopLogger())
	s.now = func() time.Time { return sweepNow }

	for _, want := range []int{2, 1, 0} {
		n, err := s.SweepOnce(context.Background())
		if err != nil {
			t.Fatalf("SweepOnce: %v", err)
		}
		if n != want {
			t.Errorf("expired = %d, want %d", n, want)
		}
	}
}

type stubService struct {
	orders    []*etjoborder.JobOrder
	listErr   error
	expireErr map[string]error
}

func (s *stubService) ListExpiredOrders(ctx context.Context, asOf time.Time, limit int) ([]*etjoborder.JobOrder, error) {
	return s.orders, s.listErr
}

func (s *stubService) ExpireOrder(ctx context.Context, id string, asOf time.Time) (*etjoborder.JobOrder, bool, error) {
	if err := s.expireErr[id]; err != nil {
		return nil, false, err
	}
	return &etjoborder.JobOrder{ID: id}, true, nil
}

func TestSweeper_Errors(t *testing.T) {
	conflict := &etjoborder.InvalidTransitionError{From: etjoborder.JobStatusProcessing, To: etjoborder.JobStatusCancelled}
	tests := []struct {
		name    string
		svc     *stubService
		want    int
		wantErr bool
	}{
		{
			name:    "list failure",
			svc:     &stubService{listErr: errors.New("db down")},
			wantErr: true,
		},
		{
			name: "per order failures are skipped",
			svc: &stubService{
				orders: []*etjoborder.JobOrder{{ID: "1"}, {ID: "2"}, {ID: "3"}},
				expireErr: map[string]error{
					"1": conflict,
					"2": errors.New("notify down"),
				},
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSweeper(tt.svc, Config{}, logger.NewNopLogger())
			n, err := s.SweepOnce(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if n != tt.want {
				t.Errorf("expired = %d, want %d", n, tt.want)
			}
		})
	}
}

func TestSweeper_StartStop(t *testing.T) {
	s := NewSweeper(&stubService{}, Config{Interval: 5 * time.Millisecond}, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	deadline := time.Now().Add(time.Second)
	for !s.Running() {
		if time.Now().After(deadline) {
			t.Fatal("sweeper did not start")
		}
		time.Sleep(time.Millisecond)
	}
	if err := s.Start(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start = %v, want ErrAlreadyRunning", err)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Start returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
	if s.Running() {
		t.Error("running flag not cleared")
	}
}
