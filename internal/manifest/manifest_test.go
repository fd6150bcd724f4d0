package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/registrar/internal/access"
	"github.com/roach88/registrar/internal/ir"
)

const (
	admin   = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	remover = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
	hacker  = "0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB"
)

const validManifest = `
registries: {
	parcels: {
		variant: "list"
		symbol:  "LND"
		kind:    "COORDINATES"
		roles: {
			ADD:    ["0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"]
			REMOVE: ["0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"]
		}
	}
	banners: {
		variant: "string"
		owner:   "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	}
	catalysts: {
		variant: "catalyst"
		owner:   "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	}
}
`

func TestParse_Valid(t *testing.T) {
	m, err := Parse([]byte(validManifest), "registrar.cue")
	require.NoError(t, err)
	require.Len(t, m.Registries, 3)

	names := []string{m.Registries[0].Name, m.Registries[1].Name, m.Registries[2].Name}
	assert.Equal(t, []string{"banners", "catalysts", "parcels"}, names, "sorted by name")

	parcels, ok := m.Lookup("parcels")
	require.True(t, ok)
	assert.Equal(t, ir.VariantList, parcels.Variant)
	assert.Equal(t, "LND", parcels.Symbol)
	assert.Equal(t, ir.KindCoordinates, parcels.Kind)
	assert.Equal(t, []string{admin}, parcels.Roles["ADD"])

	banners, ok := m.Lookup("banners")
	require.True(t, ok)
	assert.Equal(t, "", banners.Symbol, "defaults fill unset fields")
	assert.Empty(t, banners.Roles["ADD"])

	_, ok = m.Lookup("missing")
	assert.False(t, ok)
}

func TestParse_Empty(t *testing.T) {
	m, err := Parse([]byte(""), "empty.cue")
	require.NoError(t, err)
	assert.Empty(t, m.Registries)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", `registries: {`},
		{"unknown variant", `registries: x: variant: "map"`},
		{"unknown kind", `registries: x: {variant: "list", kind: "FLOAT"}`},
		{"unknown field", `registries: x: {variant: "list", kind: "NAME", colour: "red"}`},
		{"unknown capability", `registries: x: {variant: "list", kind: "NAME", roles: MODIFY: ["a"]}`},
		{"list without kind", `registries: x: variant: "list"`},
		{"string without owner", `registries: x: variant: "string"`},
		{"string with kind", `registries: x: {variant: "string", owner: "a", kind: "NAME"}`},
		{"catalyst with symbol", `registries: x: {variant: "catalyst", symbol: "CAT"}`},
		{"missing variant", `registries: x: symbol: "X"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "bad.cue")
			assert.Error(t, err)
		})
	}
}

func TestParse_ErrorCarriesPosition(t *testing.T) {
	_, err := Parse([]byte("registries: x: {\n\tvariant: \"list\"\n"), "bad.cue")
	require.Error(t, err)

	var merr *Error
	require.ErrorAs(t, err, &merr)
	assert.True(t, merr.Pos.IsValid())
	assert.Contains(t, err.Error(), "bad.cue")
}

func TestError_Format(t *testing.T) {
	err := &Error{Field: "registries.x", Message: "boom"}
	assert.Equal(t, "registries.x: boom", err.Error())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registrar.cue")
	require.NoError(t, os.WriteFile(path, []byte(validManifest), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, m.Registries, 3)

	_, err = Load(filepath.Join(dir, "missing.cue"))
	assert.Error(t, err)
}

func TestRegistry_Gate(t *testing.T) {
	m, err := Parse([]byte(validManifest), "registrar.cue")
	require.NoError(t, err)

	t.Run("role table", func(t *testing.T) {
		r, _ := m.Lookup("parcels")
		gate, err := r.Gate()
		require.NoError(t, err)

		assert.NoError(t, gate.Check(admin, ir.CapAdd))
		assert.ErrorIs(t, gate.Check(admin, ir.CapRemove), ir.ErrAuthFailed)
		assert.NoError(t, gate.Check(remover, ir.CapRemove))
		assert.Error(t, gate.Check(hacker, ir.CapAdd))
	})

	t.Run("owner holds every capability", func(t *testing.T) {
		r, _ := m.Lookup("catalysts")
		gate, err := r.Gate()
		require.NoError(t, err)

		assert.NoError(t, gate.Check(admin, ir.CapAdd))
		assert.NoError(t, gate.Check(admin, ir.CapRemove))
		assert.Error(t, gate.Check(hacker, ir.CapRemove))
	})

	t.Run("string list is owned", func(t *testing.T) {
		r, _ := m.Lookup("banners")
		gate, err := r.Gate()
		require.NoError(t, err)

		og, ok := gate.(*access.OwnerGate)
		require.True(t, ok)
		assert.Equal(t, admin, og.Owner())
		assert.Error(t, gate.Check(hacker, ir.CapAdd))
	})
}

func TestRegistry_Definition(t *testing.T) {
	m, err := Parse([]byte(validManifest), "registrar.cue")
	require.NoError(t, err)

	r, _ := m.Lookup("parcels")
	def := r.Definition(42)
	assert.Equal(t, "parcels", def.Name)
	assert.Equal(t, ir.VariantList, def.Variant)
	assert.Equal(t, ir.KindCoordinates, def.Kind)
	assert.Equal(t, int64(42), def.CreatedAt)
}
