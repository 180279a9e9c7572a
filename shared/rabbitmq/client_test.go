package rabbitmq

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tradeguard/platform/shared/logging"
)

type fakeAck struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (f *fakeAck) Ack(bool) error { f.acked = true; return nil }

func (f *fakeAck) Nack(_ bool, requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return nil
}

func TestSettle(t *testing.T) {
	failing := func(context.Context, []byte) error { return errors.New("smtp down") }
	ok := func(context.Context, []byte) error { return nil }

	tests := []struct {
		name        string
		handle      Handler
		redelivered bool
		wantAck     bool
		wantRequeue bool
	}{
		{"success acks", ok, false, true, false},
		{"first failure requeues", failing, false, false, true},
		{"second failure drops", failing, true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &fakeAck{}
			settle(context.Background(), a, []byte(`{}`), tt.redelivered, tt.handle, logging.Discard())
			assert.Equal(t, tt.wantAck, a.acked)
			assert.Equal(t, !tt.wantAck, a.nacked)
			assert.Equal(t, tt.wantRequeue, a.requeue)
		})
	}
}
