package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/registrar/internal/config"
	"github.com/roach88/registrar/internal/ir"
	"github.com/roach88/registrar/internal/manifest"
	"github.com/roach88/registrar/internal/notify"
	"github.com/roach88/registrar/internal/registry"
	"github.com/roach88/registrar/internal/store"
)

// notificationWait bounds how long a command waits for the notification of
// its own committed entry. Publish is synchronous, so it is normally
// already buffered.
const notificationWait = 100 * time.Millisecond

// env is the opened journal and manifest shared by registry commands.
type env struct {
	cfg      config.Config
	logger   *slog.Logger
	store    *store.Store
	manifest *manifest.Manifest
	broker   *notify.Broker[ir.Entry]
	events   <-chan notify.Event[ir.Entry]
	metrics  *registry.Metrics
	gatherer prometheus.Gatherer
	cancel   context.CancelFunc
}

// openEnv loads the manifest and opens the journal.
func openEnv(ctx context.Context, opts *RootOptions) (*env, error) {
	cfg := opts.settings()

	m, err := manifest.Load(cfg.Manifest)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load manifest", err)
	}

	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	promReg := prometheus.NewRegistry()
	metrics, err := registry.NewMetrics(promReg)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to register metrics", err)
	}

	broker := notify.NewBroker[ir.Entry]()
	subCtx, cancel := context.WithCancel(ctx)

	return &env{
		cfg:      cfg,
		logger:   opts.logger(),
		store:    st,
		manifest: m,
		broker:   broker,
		events:   broker.Subscribe(subCtx),
		metrics:  metrics,
		gatherer: promReg,
		cancel:   cancel,
	}, nil
}

// Close logs the collected metrics and releases the journal.
func (e *env) Close() error {
	e.logMetrics()
	e.cancel()
	e.broker.Close()
	return e.store.Close()
}

func (e *env) options() []registry.Option {
	return []registry.Option{
		registry.WithJournal(e.store),
		registry.WithBroker(e.broker),
		registry.WithMetrics(e.metrics),
		registry.WithLogger(e.logger),
	}
}

// declared returns the manifest entry for name, registering its definition
// in the journal on first use.
func (e *env) declared(ctx context.Context, name string, variants ...ir.Variant) (manifest.Registry, error) {
	def, ok := e.manifest.Lookup(name)
	if !ok {
		return manifest.Registry{}, NewExitError(ExitCommandError,
			fmt.Sprintf("registry %q is not declared in %s", name, e.cfg.Manifest))
	}

	allowed := false
	for _, v := range variants {
		if def.Variant == v {
			allowed = true
		}
	}
	if !allowed {
		return manifest.Registry{}, NewExitError(ExitCommandError,
			fmt.Sprintf("registry %q is a %s registry", name, def.Variant))
	}

	if err := e.store.CreateRegistry(ctx, def.Definition(registry.SystemTime())); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return manifest.Registry{}, WrapExitError(ExitCommandError,
				fmt.Sprintf("registry %q in %s does not match the journal", name, e.cfg.Manifest), err)
		}
		return manifest.Registry{}, WrapExitError(ExitCommandError, "failed to register definition", err)
	}
	return def, nil
}

// openList replays a list or string list from the journal.
func (e *env) openList(ctx context.Context, name string) (*registry.List, error) {
	def, err := e.declared(ctx, name, ir.VariantList, ir.VariantString)
	if err != nil {
		return nil, err
	}
	gate, err := def.Gate()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to build access gate", err)
	}
	l, err := registry.ReplayList(ctx, e.store, name, gate, e.options()...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to replay journal", err)
	}
	return l, nil
}

// openCatalyst replays a catalyst registry from the journal.
func (e *env) openCatalyst(ctx context.Context, name string) (*registry.Catalyst, error) {
	def, err := e.declared(ctx, name, ir.VariantCatalyst)
	if err != nil {
		return nil, err
	}
	gate, err := def.Gate()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to build access gate", err)
	}
	c, err := registry.ReplayCatalyst(ctx, e.store, name, gate, e.options()...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to replay journal", err)
	}
	return c, nil
}

// caller returns the configured principal for mutations.
func (e *env) caller() (string, error) {
	if e.cfg.Caller == "" {
		return "", NewExitError(ExitCommandError, "no caller: pass --caller or set caller in the config")
	}
	return e.cfg.Caller, nil
}

// committed returns the notification for the entry just committed.
func (e *env) committed() (ir.Entry, bool) {
	select {
	case ev := <-e.events:
		return ev.Payload, true
	case <-time.After(notificationWait):
		return ir.Entry{}, false
	}
}

// logMetrics writes every collected sample at debug level.
func (e *env) logMetrics() {
	families, err := e.gatherer.Gather()
	if err != nil {
		e.logger.Warn("gather metrics", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			attrs := []any{"metric", mf.GetName()}
			for _, lp := range m.GetLabel() {
				attrs = append(attrs, lp.GetName(), lp.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				attrs = append(attrs, "value", m.GetCounter().GetValue())
			case m.GetGauge() != nil:
				attrs = append(attrs, "value", m.GetGauge().GetValue())
			}
			e.logger.Debug("metric", attrs...)
		}
	}
}
