package events

import (
	"context"
	"errors"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/fund-ledger/ledger"
)

type fakeAck struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (f *fakeAck) Ack(bool) error { f.acked = true; return nil }

func (f *fakeAck) Nack(_ bool, requeue bool) error {
	f.nacked, f.requeue = true, requeue
	return nil
}

func TestMessage_JSONShape(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	msg := NewMessage(ledger.Change{Kind: ledger.ChangeCreated, ID: "id-1", Date: "2024-03-01", At: at})

	body, err := msg.ToJSON()

	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"created","id":"id-1","date":"2024-03-01","timestamp":"2024-03-01T09:30:00Z"}`, string(body))

	back, err := MessageFromJSON(body)
	require.NoError(t, err)
	assert.Equal(t, ledger.ChangeCreated, back.Change().Kind)
	assert.Equal(t, ledger.CanonicalDate("2024-03-01"), back.Change().Date)
}

func TestMessage_CarryOmitsID(t *testing.T) {
	body, err := NewMessage(ledger.Change{Kind: ledger.ChangeCarry}).ToJSON()
	require.NoError(t, err)
	assert.NotContains(t, string(body), `"id"`)
}

func TestMessageFromJSON_RejectsMissingKind(t *testing.T) {
	_, err := MessageFromJSON([]byte(`{"id":"x"}`))
	assert.Error(t, err)
}

func TestDispatch(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	ctx := context.Background()

	t.Run("success acks", func(t *testing.T) {
		ack := &fakeAck{}
		var got Message
		dispatch(ctx, []byte(`{"kind":"deleted","id":"a"}`), ack, func(_ context.Context, m Message) error {
			got = m
			return nil
		}, logger)

		assert.True(t, ack.acked)
		assert.Equal(t, "a", got.ID)
	})

	t.Run("handler failure requeues", func(t *testing.T) {
		ack := &fakeAck{}
		dispatch(ctx, []byte(`{"kind":"updated","id":"a"}`), ack, func(context.Context, Message) error {
			return errors.New("sheets down")
		}, logger)

		assert.True(t, ack.nacked)
		assert.True(t, ack.requeue)
	})

	t.Run("malformed body is dropped", func(t *testing.T) {
		ack := &fakeAck{}
		called := false
		dispatch(ctx, []byte(`not json`), ack, func(context.Context, Message) error {
			called = true
			return nil
		}, logger)

		assert.False(t, called)
		assert.True(t, ack.nacked)
		assert.False(t, ack.requeue)
	})
}
