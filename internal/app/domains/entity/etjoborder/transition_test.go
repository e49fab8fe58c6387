package etjoborder

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		op   string
		from []JobStatus
		to   []JobStatus
	}{
		{"request", FromForRequest, []JobStatus{JobStatusPending}},
		{"start", FromForStart, []JobStatus{JobStatusProcessing}},
		{"cancel", FromForCancel, []JobStatus{JobStatusCancelled}},
		{"expire", FromForExpire, []JobStatus{JobStatusCancelled}},
		{"error", FromForError, []JobStatus{JobStatusPending, JobStatusFailed}},
		{"complete", FromForComplete, []JobStatus{JobStatusCompleted}},
		{"resume", FromForResume, []JobStatus{JobStatusPending}},
	}
	for _, tt := range tests {
		for _, from := range tt.from {
			for _, to := range tt.to {
				if !CanTransition(from, to) {
					t.Errorf("%s: %s -> %s rejected", tt.op, from, to)
				}
			}
		}
	}

	rejected := []struct{ from, to JobStatus }{
		{JobStatusCompleted, JobStatusPending},
		{JobStatusCompleted, JobStatusProcessing},
		{JobStatusCreating, JobStatusProcessing},
		{JobStatusPending, JobStatusCompleted},
		{JobStatusCancelled, JobStatusProcessing},
	}
	for _, tt := range rejected {
		if CanTransition(tt.from, tt.to) {
			t.Errorf("%s -> %s accepted", tt.from, tt.to)
		}
	}
}

func TestClassifyError(t *testing.T) {
	order := func(maxRetry, runs int) *JobOrder {
		o := &JobOrder{Params: JobParams{MaxRetry: maxRetry}}
		for i := 0; i < runs; i++ {
			o.Runs = append(o.Runs, JobRun{Error: &JobError{Type: JobErrorTypeError}})
		}
		return o
	}
	tests := []struct {
		name      string
		order     *JobOrder
		errType   JobErrorType
		wantTo    JobStatus
		wantEvent JobEvent
	}{
		{"unprocessable", order(10, 0), JobErrorTypeUnprocessable, JobStatusFailed, EventUnprocessable},
		{"retry", order(3, 0), JobErrorTypeError, JobStatusPending, EventError},
		{"timeout retry", order(3, 1), JobErrorTypeTimeout, JobStatusPending, EventError},
		{"last attempt", order(3, 2), JobErrorTypeError, JobStatusFailed, EventMaxErrorReached},
		{"zero retries", order(0, 0), JobErrorTypeError, JobStatusFailed, EventMaxErrorReached},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			to, event := ClassifyError(tt.order, JobError{Type: tt.errType})
			if to != tt.wantTo || event != tt.wantEvent {
				t.Errorf("got %s/%s, want %s/%s", to, event, tt.wantTo, tt.wantEvent)
			}
		})
	}
}
