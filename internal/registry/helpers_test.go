package registry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/registrar/internal/access"
	"github.com/roach88/registrar/internal/ir"
	"github.com/roach88/registrar/internal/testutil"
)

const (
	admin  = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	hacker = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"

	ownerA  = "0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB"
	ownerB  = "0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb"
	domainA = "http://a.example"
	domainB = "http://b.example"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// adminGate grants both capabilities to admin only.
func adminGate(t *testing.T) *access.RoleTable {
	t.Helper()
	rt := access.NewRoleTable()
	require.NoError(t, rt.Grant(ir.CapAdd, admin))
	require.NoError(t, rt.Grant(ir.CapRemove, admin))
	return rt
}

// testOptions returns deterministic options for a test registry.
func testOptions(extra ...Option) []Option {
	opts := []Option{
		WithClock(testutil.NewDeterministicClock().Now),
		WithTxIDs(testutil.NewSequentialTxIDs("tx")),
		WithLogger(discardLogger()),
	}
	return append(opts, extra...)
}

// memJournal collects entries in memory and can be told to fail.
type memJournal struct {
	entries []ir.Entry
	fail    bool
}

var errJournalDown = errors.New("journal down")

func (j *memJournal) AppendEntry(_ context.Context, e ir.Entry) error {
	if j.fail {
		return errJournalDown
	}
	j.entries = append(j.entries, e)
	return nil
}
