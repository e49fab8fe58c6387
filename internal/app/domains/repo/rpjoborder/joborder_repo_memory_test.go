package rpjoborder

import (
	"context"
	"errors"
	"testing"
	"time"

	"jobsvc/internal/app/domains/entity/etjoborder"
	"jobsvc/internal/app/domains/entity/etprimitive"
	"jobsvc/internal/app/pkg/idgen"
)

func newOrder(t *testing.T, jobType string) *etjoborder.JobOrder {
	t.Helper()
	order, err := etjoborder.NewJobOrder(jobType, etprimitive.Payload{"k": "v"}, etjoborder.DefaultParams())
	if err != nil {
		t.Fatalf("NewJobOrder: %v", err)
	}
	return order
}

func TestMemoryRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryJobOrderRepository(idgen.New(1))

	created, err := repo.Create(ctx, newOrder(t, "build"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected id to be assigned")
	}

	found, err := repo.Find(ctx, created.ID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if found.Type != "build" || found.Status != etjoborder.JobStatusCreating {
		t.Errorf("unexpected order: %+v", found)
	}

	// 返回值是副本
	found.Payload["k"] = "mutated"
	again, _ := repo.Find(ctx, created.ID)
	if again.Payload["k"] != "v" {
		t.Errorf("repository state aliased by caller: %v", again.Payload)
	}

	if _, err := repo.Find(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepository_NestedDataNotShared(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryJobOrderRepository(nil)

	order, err := etjoborder.NewJobOrder("build", etprimitive.Payload{
		"cfg":  map[string]interface{}{"k": "orig"},
		"tags": []interface{}{"a"},
	}, etjoborder.DefaultParams())
	if err != nil {
		t.Fatalf("NewJobOrder: %v", err)
	}
	created, err := repo.Create(ctx, order)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	result := etprimitive.Payload{"out": map[string]interface{}{"ok": true}}
	if _, err := repo.SetStatus(ctx, created.ID, etjoborder.JobStatusCreating, etjoborder.JobStatusPending, etjoborder.JobRun{Result: result}); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	result["out"].(map[string]interface{})["ok"] = false

	got, err := repo.Find(ctx, created.ID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	got.Payload["cfg"].(map[string]interface{})["k"] = "mutated"
	got.Payload["tags"].([]interface{})[0] = "z"
	got.Runs[0].Result["out"].(map[string]interface{})["ok"] = "mutated"

	again, err := repo.Find(ctx, created.ID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if v := again.Payload["cfg"].(map[string]interface{})["k"]; v != "orig" {
		t.Errorf("stored payload.cfg.k = %v, want orig", v)
	}
	if v := again.Payload["tags"].([]interface{})[0]; v != "a" {
		t.Errorf("stored payload.tags[0] = %v, want a", v)
	}
	if v := again.Runs[0].Result["out"].(map[string]interface{})["ok"]; v != true {
		t.Errorf("stored run result = %v, want true", v)
	}
}

func TestMemoryRepository_SetStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryJobOrderRepository(nil)
	created, _ := repo.Create(ctx, newOrder(t, "build"))

	run := etjoborder.JobRun{Result: etprimitive.Payload{"ok": true}}

	tests := []struct {
		name    string
		from    etjoborder.JobStatus
		to      etjoborder.JobStatus
		runs    []etjoborder.JobRun
		wantErr error
		want    etjoborder.JobStatus
		runsLen int
	}{
		{"creating to pending", etjoborder.JobStatusCreating, etjoborder.JobStatusPending, nil, nil, etjoborder.JobStatusPending, 0},
		{"stale from", etjoborder.JobStatusCreating, etjoborder.JobStatusPending, nil, ErrStatusConflict, etjoborder.JobStatusPending, 0},
		{"pending to processing", etjoborder.JobStatusPending, etjoborder.JobStatusProcessing, nil, nil, etjoborder.JobStatusProcessing, 0},
		{"complete with run", etjoborder.JobStatusProcessing, etjoborder.JobStatusCompleted, []etjoborder.JobRun{run}, nil, etjoborder.JobStatusCompleted, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.SetStatus(ctx, created.ID, tt.from, tt.to, tt.runs...)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SetStatus err = %v, want %v", err, tt.wantErr)
			}
			got, _ := repo.Find(ctx, created.ID)
			if got.Status != tt.want {
				t.Errorf("status = %s, want %s", got.Status, tt.want)
			}
			if len(got.Runs) != tt.runsLen {
				t.Errorf("runs = %d, want %d", len(got.Runs), tt.runsLen)
			}
		})
	}

	if _, err := repo.SetStatus(ctx, "missing", etjoborder.JobStatusPending, etjoborder.JobStatusProcessing); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepository_SetStatusRejectsInvalidRun(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryJobOrderRepository(nil)
	created, _ := repo.Create(ctx, newOrder(t, "build"))

	tests := []struct {
		name    string
		run     etjoborder.JobRun
		wantErr error
	}{
		{"empty run", etjoborder.JobRun{}, etjoborder.ErrInvalidRun},
		{"result and error", etjoborder.JobRun{
			Result: etprimitive.Payload{},
			Error:  &etjoborder.JobError{Type: etjoborder.JobErrorTypeError},
		}, etjoborder.ErrInvalidRun},
		{"unknown error type", etjoborder.JobRun{Error: &etjoborder.JobError{Type: "bogus"}}, etjoborder.ErrInvalidErrorType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.SetStatus(ctx, created.ID, etjoborder.JobStatusCreating, etjoborder.JobStatusPending, tt.run)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			got, _ := repo.Find(ctx, created.ID)
			if got.Status != etjoborder.JobStatusCreating || got.Attempts() != 0 {
				t.Errorf("order changed: status=%s runs=%d", got.Status, got.Attempts())
			}
		})
	}
}

func TestMemoryRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryJobOrderRepository(nil)
	created, _ := repo.Create(ctx, newOrder(t, "build"))

	deleted, err := repo.Delete(ctx, created.ID)
	if err != nil || !deleted {
		t.Fatalf("Delete = %v, %v", deleted, err)
	}
	deleted, err = repo.Delete(ctx, created.ID)
	if err != nil || deleted {
		t.Errorf("second Delete = %v, %v, want false, nil", deleted, err)
	}
}

func TestMemoryRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryJobOrderRepository(nil)
	for _, jobType := range []string{"build", "build", "deploy"} {
		created, _ := repo.Create(ctx, newOrder(t, jobType))
		_, _ = repo.SetStatus(ctx, created.ID, etjoborder.JobStatusCreating, etjoborder.JobStatusPending)
	}

	tests := []struct {
		name      string
		filter    ListFilter
		wantLen   int
		wantTotal int64
	}{
		{"all", ListFilter{}, 3, 3},
		{"by type", ListFilter{Type: "build"}, 2, 2},
		{"by status", ListFilter{Status: etjoborder.JobStatusProcessing}, 0, 0},
		{"first page", ListFilter{Pagination: etprimitive.Pagination{Page: 1, Limit: 2}}, 2, 3},
		{"second page", ListFilter{Pagination: etprimitive.Pagination{Page: 2, Limit: 2}}, 1, 3},
		{"past the end", ListFilter{Pagination: etprimitive.Pagination{Page: 5, Limit: 2}}, 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders, total, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(orders) != tt.wantLen || total != tt.wantTotal {
				t.Errorf("got %d orders (total %d), want %d (total %d)", len(orders), total, tt.wantLen, tt.wantTotal)
			}
		})
	}
}

func TestMemoryRepository_ListExpired(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryJobOrderRepository(nil)
	now := time.Now().UTC()

	mk := func(expiresAt *time.Time, status etjoborder.JobStatus) string {
		order := newOrder(t, "build")
		order.Params.ExpiresAt = expiresAt
		created, _ := repo.Create(ctx, order)
		if status != etjoborder.JobStatusCreating {
			_, _ = repo.SetStatus(ctx, created.ID, etjoborder.JobStatusCreating, status)
		}
		return created.ID
	}

	past := now.Add(-time.Minute)
	older := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	expiredID := mk(&past, etjoborder.JobStatusPending)
	olderID := mk(&older, etjoborder.JobStatusPending)
	mk(&future, etjoborder.JobStatusPending)
	mk(nil, etjoborder.JobStatusPending)
	mk(&past, etjoborder.JobStatusCreating)

	orders, err := repo.ListExpired(ctx, now, 0)
	if err != nil {
		t.Fatalf("ListExpired: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("got %d expired orders, want 2", len(orders))
	}
	if orders[0].ID != olderID || orders[1].ID != expiredID {
		t.Errorf("unexpected order: %s, %s", orders[0].ID, orders[1].ID)
	}

	limited, _ := repo.ListExpired(ctx, now, 1)
	if len(limited) != 1 {
		t.Errorf("limit not applied: %d", len(limited))
	}
}
