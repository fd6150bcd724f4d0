package recordstore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/roach88/registrar/internal/ir"
)

const (
	ownerA  = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	ownerB  = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
	domainA = "http://a.example"
	domainB = "http://b.example"
)

func TestLifecycleStore_AddRemoveReAdd(t *testing.T) {
	s := NewLifecycleStore()

	x, err := s.Add(ownerA, domainA, 100)
	require.NoError(t, err)
	assert.Equal(t, ir.MustCatalystID(ownerA, domainA, 1), x.ID)
	assert.Equal(t, int64(100), x.StartedAt)
	assert.True(t, x.Active())

	ended, err := s.Remove(x.ID, 200)
	require.NoError(t, err)
	assert.Equal(t, int64(200), ended.EndedAt)

	y, err := s.Add(ownerA, domainA, 300)
	require.NoError(t, err)
	assert.NotEqual(t, x.ID, y.ID)

	// History of x is preserved.
	old := s.ByID(x.ID)
	assert.Equal(t, ownerA, old.Owner)
	assert.Equal(t, domainA, old.Domain)
	assert.Equal(t, int64(100), old.StartedAt)
	assert.Equal(t, int64(200), old.EndedAt)

	assert.Equal(t, 1, s.Count())
	assert.Equal(t, 2, s.History())
	assert.Equal(t, int64(2), s.Nonce())
}

func TestLifecycleStore_RemoveErrors(t *testing.T) {
	s := NewLifecycleStore()

	err := s.CheckRemove("0x" + fmt.Sprintf("%064x", 42))
	assert.True(t, errors.Is(err, ir.ErrCatalystNotFound))

	_, err = s.Remove(ir.ZeroID, 1)
	assert.True(t, errors.Is(err, ir.ErrCatalystAlreadyRemoved))

	rec, err := s.Add(ownerA, domainA, 1)
	require.NoError(t, err)
	_, err = s.Remove(rec.ID, 2)
	require.NoError(t, err)

	_, err = s.Remove(rec.ID, 3)
	assert.True(t, errors.Is(err, ir.ErrCatalystAlreadyRemoved))
	assert.Equal(t, int64(2), s.ByID(rec.ID).EndedAt, "second remove must not touch EndedAt")
}

func TestLifecycleStore_AddErrorsInOrder(t *testing.T) {
	s := NewLifecycleStore()
	_, err := s.Add(ownerA, domainA, 1)
	require.NoError(t, err)

	tests := []struct {
		name   string
		owner  string
		domain string
		want   error
	}{
		{"empty owner wins over empty domain", "", "", ir.ErrOwnerEmpty},
		{"zero owner", ir.ZeroAddress, domainB, ir.ErrOwnerEmpty},
		{"empty domain wins over owner in use", ownerA, "", ir.ErrDomainEmpty},
		{"owner in use wins over domain in use", ownerA, domainA, ir.ErrOwnerInUse},
		{"domain in use", ownerB, domainA, ir.ErrDomainInUse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Add(tt.owner, tt.domain, 2)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, 1, s.Count())
			assert.Equal(t, int64(1), s.Nonce(), "rejected add must not consume a nonce")
		})
	}
}

func TestLifecycleStore_DomainIsByteExact(t *testing.T) {
	s := NewLifecycleStore()
	_, err := s.Add(ownerA, domainA, 1)
	require.NoError(t, err)

	_, err = s.Add(ownerB, "HTTP://A.EXAMPLE", 1)
	assert.NoError(t, err)
}

func TestLifecycleStore_UnknownIDReadsZero(t *testing.T) {
	s := NewLifecycleStore()
	assert.True(t, s.ByID("0xdead").IsZero())
	assert.True(t, s.ByID(ir.ZeroID).IsZero())

	_, err := s.IDAt(0)
	assert.True(t, errors.Is(err, ir.ErrInvalidIndex))
}

func TestLifecycleStore_RemoveCompactsActive(t *testing.T) {
	s := NewLifecycleStore()
	a, _ := s.Add(ownerA, domainA, 1)
	b, _ := s.Add(ownerB, domainB, 1)
	c, _ := s.Add("0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB", "http://c.example", 1)

	_, err := s.Remove(a.ID, 2)
	require.NoError(t, err)

	assert.Equal(t, []string{c.ID, b.ID}, s.Active())
	id, err := s.IDAt(0)
	require.NoError(t, err)
	assert.Equal(t, c.ID, id)

	i, ok := s.IndexOf(c.ID)
	assert.True(t, ok)
	assert.Equal(t, 0, i)
	_, ok = s.IndexOf(a.ID)
	assert.False(t, ok)

	_, ok = s.OwnerInUse(ownerA)
	assert.False(t, ok)
	_, ok = s.DomainInUse(domainA)
	assert.False(t, ok)
	got, ok := s.DomainInUse(domainB)
	assert.True(t, ok)
	assert.Equal(t, b.ID, got)
}

func TestLifecycleStore_NextIDMatchesAdd(t *testing.T) {
	s := NewLifecycleStore()
	next, err := s.NextID(ownerA, domainA)
	require.NoError(t, err)

	rec, err := s.Add(ownerA, domainA, 1)
	require.NoError(t, err)
	assert.Equal(t, next, rec.ID)
}

// TestLifecycleStore_Model checks active uniqueness and history immutability
// over random add/remove sequences.
func TestLifecycleStore_Model(t *testing.T) {
	owners := []string{ownerA, ownerB, "0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB"}
	domains := []string{domainA, domainB, "http://c.example"}

	rapid.Check(t, func(r *rapid.T) {
		s := NewLifecycleStore()
		created := make(map[string]ir.Record)
		var ids []string

		steps := rapid.IntRange(1, 40).Draw(r, "steps")
		for now := int64(1); now <= int64(steps); now++ {
			if len(ids) == 0 || rapid.Bool().Draw(r, "add") {
				owner := rapid.SampledFrom(owners).Draw(r, "owner")
				domain := rapid.SampledFrom(domains).Draw(r, "domain")
				rec, err := s.Add(owner, domain, now)
				if err == nil {
					created[rec.ID] = rec
					ids = append(ids, rec.ID)
				} else {
					require.Equal(r, ir.KindConflict, ir.KindOf(err))
				}
			} else {
				id := rapid.SampledFrom(ids).Draw(r, "id")
				_, err := s.Remove(id, now)
				if err == nil {
					rec := created[id]
					rec.EndedAt = now
					created[id] = rec
				} else {
					require.True(r, errors.Is(err, ir.ErrCatalystAlreadyRemoved))
				}
			}

			activeOwners := make(map[string]bool)
			activeDomains := make(map[string]bool)
			for p, id := range s.Active() {
				rec := s.ByID(id)
				require.True(r, rec.Active())
				require.False(r, activeOwners[rec.Owner], "duplicate active owner")
				require.False(r, activeDomains[rec.Domain], "duplicate active domain")
				activeOwners[rec.Owner] = true
				activeDomains[rec.Domain] = true

				idx, ok := s.IndexOf(id)
				require.True(r, ok)
				require.Equal(r, p, idx)
			}
			for id, want := range created {
				require.Equal(r, want, s.ByID(id))
			}
		}
	})
}
