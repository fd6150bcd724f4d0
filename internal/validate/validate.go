// Package validate normalizes registry values per list kind.
//
// Every function is pure: the same input always yields the same output or
// the same *ir.Error, and nothing here reads registry state.
package validate

import (
	"encoding/hex"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/roach88/registrar/internal/ir"
)

// Placeholder is the reserved sentinel that is never a valid value.
const Placeholder = "____INVALID_PLACE_HOLER"

// CoordinateLimit bounds each parcel coordinate to [-CoordinateLimit, CoordinateLimit].
const CoordinateLimit = 150

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_]*([- ]*[A-Za-z0-9_])*$`)

// Normalize returns the canonical form of raw for the given list kind.
func Normalize(raw string, kind ir.ListKind) (string, error) {
	if raw == Placeholder {
		return "", ir.NewError(ir.CodeInvalidValue, "reserved placeholder value")
	}

	switch kind {
	case ir.KindString:
		if raw == "" {
			return "", ir.NewError(ir.CodeInvalidValue, "empty value")
		}
		return raw, nil
	case ir.KindAddress:
		return NormalizeAddress(raw)
	case ir.KindCoordinates:
		x, y, ok := strings.Cut(raw, ",")
		if !ok || strings.Contains(y, ",") {
			return "", ir.NewErrorWithDetails(ir.CodeInvalidValue, "coordinates must be \"x,y\"", "value", raw)
		}
		return NormalizeCoordinates(x, y)
	case ir.KindName:
		return NormalizeName(raw)
	default:
		return "", ir.NewError(ir.CodeInvalidType, fmt.Sprintf("unsupported list type %q", kind))
	}
}

// NormalizeCoordinates validates both components and joins them as "x,y"
// using the shortest decimal form of each.
func NormalizeCoordinates(x, y string) (string, error) {
	nx, err := coordinate("x", x)
	if err != nil {
		return "", err
	}
	ny, err := coordinate("y", y)
	if err != nil {
		return "", err
	}
	return nx + "," + ny, nil
}

func coordinate(axis, raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ir.NewErrorWithDetails(ir.CodeInvalidValue,
			fmt.Sprintf("%s coordinate is empty", axis), axis, raw)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f < -CoordinateLimit || f > CoordinateLimit {
		return "", ir.NewErrorWithDetails(ir.CodeInvalidValue,
			fmt.Sprintf("%s must be a number between -%d and %d, got %q", axis, CoordinateLimit, CoordinateLimit, raw),
			axis, raw)
	}
	if f == 0 {
		f = 0 // fold -0
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

// NormalizeName accepts words of letters, digits and underscores separated
// by runs of spaces or hyphens.
func NormalizeName(raw string) (string, error) {
	if raw == "" {
		return "", ir.NewError(ir.CodeInvalidValue, "empty name")
	}
	if !namePattern.MatchString(raw) {
		return "", ir.NewErrorWithDetails(ir.CodeInvalidValue, "invalid name", "value", raw)
	}
	return raw, nil
}

// NormalizeAddress parses a 40-hex-digit address with optional 0x prefix and
// returns its EIP-55 checksummed form. Mixed-case input with a wrong
// checksum is accepted and re-checksummed.
func NormalizeAddress(raw string) (string, error) {
	b, ok := parseAddress(raw)
	if !ok {
		return "", ir.NewErrorWithDetails(ir.CodeInvalidAddress, "not a 20-byte hex address", "value", raw)
	}
	return checksum(b), nil
}

// ToAddress never fails: it returns the checksummed address or ir.ZeroAddress.
func ToAddress(raw string) string {
	b, ok := parseAddress(raw)
	if !ok {
		return ir.ZeroAddress
	}
	return checksum(b)
}

// IsAddress reports whether raw parses as an address.
func IsAddress(raw string) bool {
	_, ok := parseAddress(raw)
	return ok
}

// NormalizeOwner validates a catalyst owner. Empty input and the zero
// address fail with ERROR_OWNER_EMPTY.
func NormalizeOwner(raw string) (string, error) {
	if raw == "" {
		return "", ir.NewError(ir.CodeOwnerEmpty, "owner is empty")
	}
	addr, err := NormalizeAddress(raw)
	if err != nil {
		return "", err
	}
	if addr == ir.ZeroAddress {
		return "", ir.NewError(ir.CodeOwnerEmpty, "owner is the zero address")
	}
	return addr, nil
}

// NormalizeDomain validates a catalyst domain. Domains compare byte-exact,
// so no case folding or trimming happens here.
func NormalizeDomain(raw string) (string, error) {
	if raw == "" {
		return "", ir.NewError(ir.CodeDomainEmpty, "domain is empty")
	}
	return raw, nil
}

func parseAddress(raw string) ([]byte, bool) {
	s := raw
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	}
	if len(s) != 40 {
		return nil, false
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, false
	}
	return b, true
}

// checksum renders b per EIP-55: a hex letter is upper-cased when the
// matching nibble of keccak256(lowercase hex) is 8 or more.
func checksum(b []byte) string {
	lower := hex.EncodeToString(b)

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	digest := h.Sum(nil)

	out := []byte(lower)
	for i, c := range out {
		if c < 'a' {
			continue
		}
		nibble := digest[i/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 0x0f
		}
		if nibble >= 8 {
			out[i] = c - 'a' + 'A'
		}
	}
	return "0x" + string(out)
}
