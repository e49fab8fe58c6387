package mdnotify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"jobsvc/internal/app/domains/entity/etjoborder"
	"jobsvc/internal/app/domains/entity/etprimitive"
	"jobsvc/internal/app/pkg/logger"
)

type fakePublisher struct {
	channel   string
	message   []byte
	receivers int64
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, channel string, message []byte) (int64, error) {
	if p.err != nil {
		return 0, p.err
	}
	p.channel = channel
	p.message = message
	return p.receivers, nil
}

func TestRedisNotifier_Shout(t *testing.T) {
	tests := []struct {
		name              string
		receivers         int64
		publishErr        error
		requireSubscriber bool
		wantErr           error
	}{
		{"delivered", 1, nil, true, nil},
		{"no subscriber allowed", 0, nil, false, nil},
		{"no subscriber rejected", 0, nil, true, ErrNoSubscriber},
		{"publish error", 0, errors.New("redis down"), false, errors.New("redis down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{receivers: tt.receivers, err: tt.publishErr}
			n := NewRedisNotifier(pub, "jobs", tt.requireSubscriber)
			n.now = func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) }

			err := n.Shout(context.Background(), etjoborder.EventStarted, etprimitive.Payload{"id": "1"})
			switch {
			case tt.wantErr == nil && err != nil:
				t.Fatalf("unexpected error: %v", err)
			case tt.wantErr != nil && err == nil:
				t.Fatalf("expected error %v", tt.wantErr)
			case errors.Is(tt.wantErr, ErrNoSubscriber) && !errors.Is(err, ErrNoSubscriber):
				t.Fatalf("expected ErrNoSubscriber, got %v", err)
			}
			if tt.publishErr != nil {
				return
			}

			if pub.channel != "jobs:jobStarted" {
				t.Errorf("channel = %q", pub.channel)
			}
			var msg Message
			if err := json.Unmarshal(pub.message, &msg); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if msg.Type != etjoborder.EventStarted || msg.Payload["id"] != "1" {
				t.Errorf("message = %+v", msg)
			}
		})
	}
}

func TestLogNotifier_Shout(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(logger.NewFromZap(zap.New(core)))

	if err := n.Shout(context.Background(), etjoborder.EventSuccess, etprimitive.Payload{"id": "1"}); err != nil {
		t.Fatalf("Shout: %v", err)
	}
	if logs.Len() != 1 {
		t.Fatalf("got %d log entries", logs.Len())
	}
	if got := logs.All()[0].Message; got != `job event jobSuccess: {"id":"1"}` {
		t.Errorf("message = %q", got)
	}
}
