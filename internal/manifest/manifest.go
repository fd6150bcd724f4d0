// Package manifest loads registry declarations from CUE.
//
// A manifest declares each registry with its variant, list kind, owner and
// role grants:
//
//	registries: parcels: {
//		variant: "list"
//		symbol:  "LND"
//		kind:    "COORDINATES"
//		roles: ADD: ["0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"]
//	}
//
// The file is unified with an embedded schema, validated to be concrete and
// decoded into Go values.
package manifest

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/registrar/internal/access"
	"github.com/roach88/registrar/internal/ir"
	"github.com/roach88/registrar/internal/store"
)

//go:embed schema.cue
var schemaCUE string

// Manifest is a decoded set of registry declarations.
type Manifest struct {
	// Registries sorted by name.
	Registries []Registry
}

// Registry is one declared registry.
type Registry struct {
	Name    string              `json:"-"`
	Variant ir.Variant          `json:"variant"`
	Symbol  string              `json:"symbol"`
	Kind    ir.ListKind         `json:"kind"`
	Owner   string              `json:"owner"`
	Roles   map[string][]string `json:"roles"`
}

// Error reports an invalid manifest, with the CUE position when known.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load reads and decodes the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(data, path)
}

// Parse decodes manifest source. filename is used in error positions.
func Parse(data []byte, filename string) (*Manifest, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile manifest schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v = schema.Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	regsVal := v.LookupPath(cue.ParsePath("registries"))
	m := &Manifest{}
	if !regsVal.Exists() {
		return m, nil
	}

	iter, err := regsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		var r Registry
		if err := iter.Value().Decode(&r); err != nil {
			return nil, formatCUEError(err)
		}
		r.Name = iter.Selector().Unquoted()
		if err := r.Validate(); err != nil {
			return nil, &Error{Field: "registries." + r.Name, Message: err.Error(), Pos: iter.Value().Pos()}
		}
		m.Registries = append(m.Registries, r)
	}

	sort.Slice(m.Registries, func(i, j int) bool {
		return m.Registries[i].Name < m.Registries[j].Name
	})
	return m, nil
}

// Lookup returns the registry declared under name.
func (m *Manifest) Lookup(name string) (Registry, bool) {
	for _, r := range m.Registries {
		if r.Name == name {
			return r, true
		}
	}
	return Registry{}, false
}

// Validate checks variant-specific fields and role capabilities.
func (r Registry) Validate() error {
	switch r.Variant {
	case ir.VariantList:
		if _, err := ir.ParseListKind(string(r.Kind)); err != nil {
			return err
		}
	case ir.VariantString:
		if r.Owner == "" {
			return fmt.Errorf("string list requires an owner")
		}
		if r.Kind != "" {
			return fmt.Errorf("string list has no kind")
		}
	case ir.VariantCatalyst:
		if r.Kind != "" || r.Symbol != "" {
			return fmt.Errorf("catalyst registry has no kind or symbol")
		}
	default:
		return fmt.Errorf("unknown variant %q", r.Variant)
	}
	for capability := range r.Roles {
		if !ir.ValidCapabilities[ir.Capability(capability)] {
			return fmt.Errorf("unknown capability %q", capability)
		}
	}
	return nil
}

// Gate builds the access gate for the registry.
//
// String lists are owned: the owner holds every capability and roles are
// ignored. Other registries use a role table seeded from roles; a declared
// owner holds every capability there too.
func (r Registry) Gate() (access.Gate, error) {
	if r.Variant == ir.VariantString {
		return access.NewOwnerGate(r.Owner), nil
	}

	rt := access.NewRoleTable()
	if r.Owner != "" {
		for capability := range ir.ValidCapabilities {
			if err := rt.Grant(capability, r.Owner); err != nil {
				return nil, err
			}
		}
	}
	for capability, principals := range r.Roles {
		for _, p := range principals {
			if err := rt.Grant(ir.Capability(capability), p); err != nil {
				return nil, fmt.Errorf("registry %s: %w", r.Name, err)
			}
		}
	}
	return rt, nil
}

// Definition returns the stored definition row for the registry.
func (r Registry) Definition(createdAt int64) store.Registry {
	return store.Registry{
		Name:      r.Name,
		Variant:   r.Variant,
		Symbol:    r.Symbol,
		Kind:      r.Kind,
		Owner:     r.Owner,
		CreatedAt: createdAt,
	}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &Error{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
