package notify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/folio-engine/folio"
	"github.com/warp/folio-engine/notify"
)

var breach = folio.Notice{
	Level:     folio.NoticeWarning,
	Subject:   "Credit Limit Exceeded",
	Message:   "company ACME exposure 1200.00 exceeds credit limit 1000.00",
	CompanyID: "ACME",
	Fields:    map[string]string{"limit": "1000.00"},
}

func TestLog_WritesStructuredRecord(t *testing.T) {
	var buf bytes.Buffer
	sink := notify.NewLog(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, sink.Notify(context.Background(), breach))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, breach.Message, rec["msg"])
	assert.Equal(t, "ACME", rec["company"])
	assert.Equal(t, "1000.00", rec["limit"])
}

type fakeChannel struct {
	exchange, key string
	msgs          []amqp.Publishing
	err           error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.exchange, f.key = exchange, key
	f.msgs = append(f.msgs, msg)
	return nil
}

func TestAMQP_PublishesPersistentJSON(t *testing.T) {
	ch := &fakeChannel{}
	at := time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC)
	sink := &notify.AMQP{Channel: ch, Queue: notify.DefaultQueue, Now: func() time.Time { return at }}

	require.NoError(t, sink.Notify(context.Background(), breach))

	require.Len(t, ch.msgs, 1)
	msg := ch.msgs[0]
	assert.Equal(t, "", ch.exchange)
	assert.Equal(t, notify.DefaultQueue, ch.key)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, at, msg.Timestamp)

	var got folio.Notice
	require.NoError(t, json.Unmarshal(msg.Body, &got))
	assert.Equal(t, breach, got)
}

func TestAMQP_WrapsPublishError(t *testing.T) {
	down := errors.New("connection closed")
	sink := &notify.AMQP{Channel: &fakeChannel{err: down}, Queue: "q"}

	err := sink.Notify(context.Background(), breach)

	assert.ErrorIs(t, err, down)
	assert.Contains(t, err.Error(), breach.Subject)
}

type countingSink struct {
	n   int
	err error
}

func (c *countingSink) Notify(context.Context, folio.Notice) error {
	c.n++
	return c.err
}

func TestMulti_DeliversToEverySink(t *testing.T) {
	failing := &countingSink{err: errors.New("broker down")}
	ok := &countingSink{}

	err := notify.Multi{failing, nil, ok}.Notify(context.Background(), breach)

	assert.ErrorContains(t, err, "broker down")
	assert.Equal(t, 1, failing.n)
	assert.Equal(t, 1, ok.n)
}
