package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/registrar/internal/ir"
	"github.com/roach88/registrar/internal/manifest"
)

// Scenario defines a conformance test scenario.
// A scenario declares one registry, drives it through a sequence of steps
// and asserts on the final state.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are keyed by it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Registry declares the registry under test.
	Registry RegistryDef `yaml:"registry"`

	// Steps are executed in order against the registry.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	// Supported types: size, values, contains, index, record, entry_count
	Assertions []Assertion `yaml:"assertions"`
}

// RegistryDef mirrors a manifest registry declaration.
type RegistryDef struct {
	Name    string              `yaml:"name"`
	Variant string              `yaml:"variant"`
	Symbol  string              `yaml:"symbol,omitempty"`
	Kind    string              `yaml:"kind,omitempty"`
	Owner   string              `yaml:"owner,omitempty"`
	Roles   map[string][]string `yaml:"roles,omitempty"`
}

// Manifest converts the definition into a manifest registry.
func (d RegistryDef) Manifest() manifest.Registry {
	return manifest.Registry{
		Name:    d.Name,
		Variant: ir.Variant(d.Variant),
		Symbol:  d.Symbol,
		Kind:    ir.ListKind(d.Kind),
		Owner:   d.Owner,
		Roles:   d.Roles,
	}
}

// Step is one operation against the registry.
type Step struct {
	// Op is the operation name, e.g. "add" or "remove_catalyst".
	Op string `yaml:"op"`

	// Caller is the principal performing the operation.
	Caller string `yaml:"caller,omitempty"`

	// Args are positional string arguments. An argument of the form
	// "$name" is replaced by the result saved under name.
	Args []string `yaml:"args"`

	// SaveAs stores the step result for later "$name" references.
	SaveAs string `yaml:"save_as,omitempty"`

	// Expect specifies the expected outcome. If nil the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the outcome of a step.
type Expect struct {
	// Error is the expected error code, e.g. "ERROR_INVALID_INDEX".
	// Empty means the step succeeds.
	Error string `yaml:"error,omitempty"`

	// Result is the expected step result. Empty means unchecked.
	Result string `yaml:"result,omitempty"`
}

// Step operation names.
const (
	OpAdd               = "add"
	OpAddCoordinates    = "add_coordinates"
	OpRemove            = "remove"
	OpGet               = "get"
	OpAddCatalyst       = "add_catalyst"
	OpRemoveCatalyst    = "remove_catalyst"
	OpTransferOwnership = "transfer_ownership"
)

// stepArity is the number of arguments each operation takes.
var stepArity = map[string]int{
	OpAdd:               1,
	OpAddCoordinates:    2,
	OpRemove:            1,
	OpGet:               1,
	OpAddCatalyst:       2,
	OpRemoveCatalyst:    1,
	OpTransferOwnership: 1,
}

// stepVariants lists the registry variants each operation applies to.
var stepVariants = map[string][]ir.Variant{
	OpAdd:               {ir.VariantList, ir.VariantString},
	OpAddCoordinates:    {ir.VariantList},
	OpRemove:            {ir.VariantList, ir.VariantString},
	OpGet:               {ir.VariantList, ir.VariantString, ir.VariantCatalyst},
	OpAddCatalyst:       {ir.VariantCatalyst},
	OpRemoveCatalyst:    {ir.VariantCatalyst},
	OpTransferOwnership: {ir.VariantString},
}

// Assertion validates final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "size": active record count equals Count
	// - "values": active values (or catalyst ids) equal Values, in order
	// - "contains": Value is present, or absent when Absent is set
	// - "index": position Index holds Value, or fails with Error
	// - "record": catalyst ID has Owner, Domain and Active
	// - "entry_count": journal holds Count entries, filtered by Op if set
	Type string `yaml:"type"`

	Count  int      `yaml:"count,omitempty"`
	Op     string   `yaml:"op,omitempty"`
	Values []string `yaml:"values,omitempty"`
	Value  string   `yaml:"value,omitempty"`
	Absent bool     `yaml:"absent,omitempty"`
	Index  int      `yaml:"index,omitempty"`
	Error  string   `yaml:"error,omitempty"`
	ID     string   `yaml:"id,omitempty"`
	Owner  string   `yaml:"owner,omitempty"`
	Domain string   `yaml:"domain,omitempty"`
	Active *bool    `yaml:"active,omitempty"`
}

// Assertion type constants.
const (
	AssertSize       = "size"
	AssertValues     = "values"
	AssertContains   = "contains"
	AssertIndex      = "index"
	AssertRecord     = "record"
	AssertEntryCount = "entry_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field checking.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Registry.Name == "" {
		return fmt.Errorf("registry.name is required")
	}
	if err := s.Registry.Manifest().Validate(); err != nil {
		return fmt.Errorf("registry: %w", err)
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	variant := ir.Variant(s.Registry.Variant)
	saved := make(map[string]bool)
	for i, step := range s.Steps {
		arity, ok := stepArity[step.Op]
		if !ok {
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		if !appliesTo(step.Op, variant) {
			return fmt.Errorf("steps[%d]: op %s does not apply to %s registries", i, step.Op, variant)
		}
		if len(step.Args) != arity {
			return fmt.Errorf("steps[%d]: %s takes %d args, got %d", i, step.Op, arity, len(step.Args))
		}
		for _, arg := range step.Args {
			if ref, ok := strings.CutPrefix(arg, "$"); ok && !saved[ref] {
				return fmt.Errorf("steps[%d]: %s is not saved by an earlier step", i, arg)
			}
		}
		if step.Expect != nil && step.Expect.Error != "" && ir.ErrorCode(step.Expect.Error).Kind() == ir.KindUnknown {
			return fmt.Errorf("steps[%d].expect: unknown error code %q", i, step.Expect.Error)
		}
		if step.SaveAs != "" {
			saved[step.SaveAs] = true
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, variant); err != nil {
			return err
		}
	}

	return nil
}

func appliesTo(op string, v ir.Variant) bool {
	for _, allowed := range stepVariants[op] {
		if allowed == v {
			return true
		}
	}
	return false
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, variant ir.Variant) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertSize, AssertEntryCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertValues:
	case AssertContains:
		if a.Value == "" {
			return fmt.Errorf("assertions[%d]: value is required for contains", index)
		}
	case AssertIndex:
		if a.Index < 0 {
			return fmt.Errorf("assertions[%d]: index must be non-negative", index)
		}
		if (a.Value == "") == (a.Error == "") {
			return fmt.Errorf("assertions[%d]: index needs exactly one of value or error", index)
		}
	case AssertRecord:
		if variant != ir.VariantCatalyst {
			return fmt.Errorf("assertions[%d]: record applies to catalyst registries", index)
		}
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: id is required for record", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
