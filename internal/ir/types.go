package ir

import "fmt"

// ListKind tags the kind of values a list registry accepts.
type ListKind string

const (
	// KindString is the untyped kind used by string lists.
	KindString ListKind = "STRING"
	// KindCoordinates accepts "x,y" parcel coordinates.
	KindCoordinates ListKind = "COORDINATES"
	// KindAddress accepts hex addresses, stored checksummed.
	KindAddress ListKind = "ADDRESS"
	// KindName accepts validated names.
	KindName ListKind = "NAME"
)

// InitKinds are the tags accepted when a typed list is initialized.
// KindString is reserved for string lists and is not a valid init tag.
var InitKinds = map[ListKind]bool{
	KindCoordinates: true,
	KindAddress:     true,
	KindName:        true,
}

// ParseListKind resolves an init tag. Unknown tags fail with ERROR_INVALID_TYPE.
func ParseListKind(tag string) (ListKind, error) {
	k := ListKind(tag)
	if !InitKinds[k] {
		return "", NewError(CodeInvalidType, fmt.Sprintf("unsupported list type %q", tag))
	}
	return k, nil
}

// Variant identifies the registry flavor.
type Variant string

const (
	VariantList     Variant = "list"
	VariantString   Variant = "string"
	VariantCatalyst Variant = "catalyst"
)

// ValidVariants defines allowed registry variants.
var ValidVariants = map[Variant]bool{
	VariantList:     true,
	VariantString:   true,
	VariantCatalyst: true,
}

// Capability is a named permission required by a mutating operation.
type Capability string

const (
	CapAdd    Capability = "ADD"
	CapRemove Capability = "REMOVE"
)

// ValidCapabilities is the closed capability set.
var ValidCapabilities = map[Capability]bool{
	CapAdd:    true,
	CapRemove: true,
}

// ZeroAddress is returned by non-failing address probes for unparseable input.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// ZeroID is the all-zero catalyst id. It is never assigned.
const ZeroID = "0x0000000000000000000000000000000000000000000000000000000000000000"

// Record is a catalyst entry owned by a LifecycleStore.
//
// ID, Owner, Domain and StartedAt never change once set. EndedAt is 0 while
// the record is active and the removal time afterwards.
type Record struct {
	ID        string `json:"id"`
	Owner     string `json:"owner"`
	Domain    string `json:"domain"`
	StartedAt int64  `json:"started_at"`
	EndedAt   int64  `json:"ended_at"`
}

// Active reports whether the record exists and has not been removed.
func (r Record) Active() bool {
	return r.ID != "" && r.EndedAt == 0
}

// IsZero reports whether r is the zero record returned for unknown ids.
func (r Record) IsZero() bool {
	return r == Record{}
}

// Op names a committed mutation.
type Op string

const (
	OpAdd            Op = "add"
	OpRemove         Op = "remove"
	OpAddCatalyst    Op = "add_catalyst"
	OpRemoveCatalyst Op = "remove_catalyst"
)

// Payload carries the operation arguments of a journal entry.
// List ops fill Value; catalyst ops fill ID, Owner and Domain.
type Payload struct {
	Value  string `json:"value,omitempty"`
	ID     string `json:"id,omitempty"`
	Owner  string `json:"owner,omitempty"`
	Domain string `json:"domain,omitempty"`
}

// Entry is a committed mutation. It is the durable journal record and the
// notification delivered to observers.
type Entry struct {
	Seq      int64   `json:"seq"`      // Per-registry logical clock
	TxID     string  `json:"tx_id"`    // UUIDv7 correlation id
	Registry string  `json:"registry"` // Registry name
	Op       Op      `json:"op"`
	Caller   string  `json:"caller"`
	Payload  Payload `json:"payload"`
	At       int64   `json:"at"` // Unix seconds when the mutation committed
}
