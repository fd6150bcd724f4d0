package registry

import (
	"context"
	"log/slog"

	"github.com/roach88/registrar/internal/ir"
	"github.com/roach88/registrar/internal/notify"
)

// Journal persists committed entries. *store.Store implements it.
type Journal interface {
	AppendEntry(ctx context.Context, e ir.Entry) error
}

// Broker is the notification channel committed entries are published to.
// *notify.Broker[ir.Entry] implements it.
type Broker interface {
	notify.Publisher[ir.Entry]
}

type options struct {
	journal  Journal
	broker   Broker
	now      WallClock
	seqStart int64
	txids    TxIDGenerator
	logger   *slog.Logger
	metrics  *Metrics
}

// Option configures a registry.
type Option func(*options)

func defaultOptions() options {
	return options{
		now:    SystemTime,
		txids:  UUIDv7Generator{},
		logger: slog.Default(),
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithJournal appends every committed entry to j before state changes.
// A journal failure aborts the mutation.
func WithJournal(j Journal) Option {
	return func(o *options) { o.journal = j }
}

// WithBroker publishes every committed entry to b.
func WithBroker(b Broker) Option {
	return func(o *options) { o.broker = b }
}

// WithClock sets the wall clock used for timestamps.
func WithClock(now WallClock) Option {
	return func(o *options) { o.now = now }
}

// WithSeqStart starts the logical clock at seq, so the first entry gets seq+1.
func WithSeqStart(seq int64) Option {
	return func(o *options) { o.seqStart = seq }
}

// WithTxIDs sets the transaction id generator.
func WithTxIDs(g TxIDGenerator) Option {
	return func(o *options) { o.txids = g }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records activity in m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}
