package registry

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/registrar/internal/ir"
	"github.com/roach88/registrar/internal/notify"
)

func receive(t *testing.T, ch <-chan notify.Event[ir.Entry]) notify.Event[ir.Entry] {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		require.Fail(t, "timeout waiting for notification")
		return notify.Event[ir.Entry]{}
	}
}

func TestList_PublishesCommittedEntries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker := notify.NewBroker[ir.Entry]()
	defer broker.Close()
	sub := broker.Subscribe(ctx)

	l, err := NewList("names", "NMS", "NAME", adminGate(t), testOptions(WithBroker(broker))...)
	require.NoError(t, err)

	_, err = l.Add(ctx, admin, "alpha")
	require.NoError(t, err)
	_, err = l.Add(ctx, hacker, "beta") // rejected, not published
	require.Error(t, err)
	require.NoError(t, l.Remove(ctx, admin, "alpha"))

	ev := receive(t, sub)
	assert.Equal(t, notify.AddedEvent, ev.Type)
	assert.Equal(t, "alpha", ev.Payload.Payload.Value)
	assert.Equal(t, int64(1), ev.Payload.Seq)

	ev = receive(t, sub)
	assert.Equal(t, notify.RemovedEvent, ev.Type)
	assert.Equal(t, int64(2), ev.Payload.Seq)

	select {
	case extra := <-sub:
		t.Fatalf("unexpected notification: %+v", extra)
	default:
	}
}

func TestCatalyst_PublishesCommittedEntries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker := notify.NewBroker[ir.Entry]()
	defer broker.Close()
	sub := broker.Subscribe(ctx)

	c := newTestCatalyst(t, WithBroker(broker))
	rec, err := c.Add(ctx, admin, ownerA, domainA)
	require.NoError(t, err)
	require.NoError(t, c.Remove(ctx, admin, rec.ID))

	ev := receive(t, sub)
	assert.Equal(t, notify.AddedEvent, ev.Type)
	assert.Equal(t, ir.OpAddCatalyst, ev.Payload.Op)
	assert.Equal(t, rec.ID, ev.Payload.Payload.ID)

	ev = receive(t, sub)
	assert.Equal(t, notify.RemovedEvent, ev.Type)
	assert.Equal(t, ir.OpRemoveCatalyst, ev.Payload.Op)
	assert.Equal(t, domainA, ev.Payload.Payload.Domain)
}

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	l, err := NewList("names", "NMS", "NAME", adminGate(t), testOptions(WithMetrics(m))...)
	require.NoError(t, err)

	_, err = l.Add(ctx, admin, "alpha")
	require.NoError(t, err)
	_, err = l.Add(ctx, admin, "beta")
	require.NoError(t, err)
	_, err = l.Add(ctx, admin, "alpha")
	require.Error(t, err)
	_, err = l.Add(ctx, hacker, "gamma")
	require.Error(t, err)

	assert.Equal(t, 2.0, promtest.ToFloat64(m.committed.WithLabelValues("names", "add")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.rejected.WithLabelValues("names", "add", "conflict")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.rejected.WithLabelValues("names", "add", "auth")))
	assert.Equal(t, 2.0, promtest.ToFloat64(m.size.WithLabelValues("names")))

	_, err = NewMetrics(reg)
	assert.Error(t, err, "collectors register once per registry")
}

func TestMetrics_DroppedNotificationsPerRegistry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	broker := notify.NewBrokerWithBuffer[ir.Entry](1)
	defer broker.Close()
	_ = broker.Subscribe(ctx) // never drained

	names, err := NewList("names", "NMS", "NAME", adminGate(t), testOptions(WithBroker(broker), WithMetrics(m))...)
	require.NoError(t, err)
	places, err := NewList("places", "PLC", "NAME", adminGate(t), testOptions(WithBroker(broker), WithMetrics(m))...)
	require.NoError(t, err)

	_, err = names.Add(ctx, admin, "alpha")
	require.NoError(t, err)
	_, err = places.Add(ctx, admin, "beta")
	require.NoError(t, err)
	_, err = places.Add(ctx, admin, "gamma")
	require.NoError(t, err)

	assert.Equal(t, 0.0, promtest.ToFloat64(m.dropped.WithLabelValues("names")))
	assert.Equal(t, 2.0, promtest.ToFloat64(m.dropped.WithLabelValues("places")))
	assert.Equal(t, int64(2), broker.Dropped())
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.observeCommit("x", ir.OpAdd, 1)
	m.observeReject("x", ir.OpAdd, ir.ErrAuthFailed)
	m.observeSize("x", 1)
	m.observeDropped("x", 1)
}
