package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeguard/platform/shared/contracts"
	"github.com/tradeguard/platform/shared/logging"
)

type published struct {
	queue string
	job   Job
}

type fakeQueue struct {
	sent []published
	err  error
}

func (f *fakeQueue) Publish(ctx context.Context, queueName string, body []byte) error {
	if f.err != nil {
		return f.err
	}
	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		return err
	}
	f.sent = append(f.sent, published{queue: queueName, job: job})
	return nil
}

func encode(t *testing.T, event string, status contracts.ComplianceStatus) []byte {
	t.Helper()
	e := contracts.NewConsignmentEvent(event, contracts.Consignment{
		UUID:       uuid.New(),
		ShipmentID: "IN-US-240320-4821",
		Compliant:  status,
		CreatedAt:  time.Now(),
	})
	data, err := json.Marshal(e)
	require.NoError(t, err)
	return data
}

func TestHandleRoutes(t *testing.T) {
	tests := []struct {
		name      string
		event     string
		status    contracts.ComplianceStatus
		wantQueue string
		wantType  string
	}{
		{"created", contracts.EventConsignmentCreated, contracts.CompliancePending, NoticeQueue, JobReceived},
		{"checked compliant", contracts.EventComplianceChecked, contracts.ComplianceCompliant, NoticeQueue, JobCleared},
		{"checked flagged", contracts.EventComplianceChecked, contracts.ComplianceFlagged, AlertQueue, JobReviewRequired},
		{"checked pending", contracts.EventComplianceChecked, contracts.CompliancePending, AlertQueue, JobReviewRequired},
		{"manually flagged", contracts.EventComplianceUpdated, contracts.ComplianceFlagged, AlertQueue, JobReviewRequired},
		{"manually cleared", contracts.EventComplianceUpdated, contracts.ComplianceCompliant, NoticeQueue, JobStatusChanged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &fakeQueue{}
			b := New(q, logging.Discard(), nil)

			require.NoError(t, b.Handle(context.Background(), []byte("k"), encode(t, tt.event, tt.status)))
			require.Len(t, q.sent, 1)
			assert.Equal(t, tt.wantQueue, q.sent[0].queue)
			assert.Equal(t, tt.wantType, q.sent[0].job.Type)
			assert.Equal(t, "IN-US-240320-4821", q.sent[0].job.Payload.ShipmentID)
		})
	}
}

func TestHandleSkipsAndFailures(t *testing.T) {
	q := &fakeQueue{}
	b := New(q, logging.Discard(), nil)

	assert.NoError(t, b.Handle(context.Background(), nil, []byte("{not json")))
	assert.NoError(t, b.Handle(context.Background(), nil, encode(t, "shipment.created", "")))
	assert.Empty(t, q.sent)

	q.err = errors.New("channel closed")
	err := b.Handle(context.Background(), nil, encode(t, contracts.EventConsignmentCreated, contracts.CompliancePending))
	assert.ErrorIs(t, err, q.err, "publish failures keep the offset uncommitted")
}

func TestWorker(t *testing.T) {
	b := New(&fakeQueue{}, logging.Discard(), nil)
	work := b.Worker(AlertQueue)

	score := 55
	body, err := json.Marshal(Job{Type: JobReviewRequired, Payload: contracts.ConsignmentEventPayload{Score: &score}})
	require.NoError(t, err)

	assert.NoError(t, work(context.Background(), body))
	assert.Error(t, work(context.Background(), []byte("garbage")))
}
