package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	admin  = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	hacker = "0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB"
	ownerA = "0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb"
)

const minimalScenario = `
name: minimal
description: "One add"
registry:
  name: names
  variant: list
  kind: NAME
  roles:
    ADD: ["0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"]
steps:
  - op: add
    caller: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
    args: ["alpha"]
    save_as: pos
assertions:
  - type: size
    count: 1
`

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "minimal", scenario.Name)
	assert.Equal(t, "names", scenario.Registry.Name)
	assert.Equal(t, "NAME", scenario.Registry.Kind)
	assert.Equal(t, []string{admin}, scenario.Registry.Roles["ADD"])
	require.Len(t, scenario.Steps, 1)
	assert.Equal(t, OpAdd, scenario.Steps[0].Op)
	assert.Equal(t, []string{"alpha"}, scenario.Steps[0].Args)
	assert.Equal(t, "pos", scenario.Steps[0].SaveAs)
	assert.Nil(t, scenario.Steps[0].Expect)
	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, AssertSize, scenario.Assertions[0].Type)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_TestdataScenariosParse(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		_, err := LoadScenario(path)
		assert.NoError(t, err, path)
	}
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name:    "unknown field",
			src:     minimalScenario + "flow_token: x\n",
			wantErr: "failed to parse YAML",
		},
		{
			name: "missing name",
			src: `
description: d
registry: {name: r, variant: list, kind: NAME}
steps: [{op: get, args: ["0"]}]
assertions: [{type: size}]
`,
			wantErr: "name is required",
		},
		{
			name: "missing registry name",
			src: `
name: n
description: d
registry: {variant: list, kind: NAME}
steps: [{op: get, args: ["0"]}]
assertions: [{type: size}]
`,
			wantErr: "registry.name is required",
		},
		{
			name: "list without kind",
			src: `
name: n
description: d
registry: {name: r, variant: list}
steps: [{op: get, args: ["0"]}]
assertions: [{type: size}]
`,
			wantErr: "registry",
		},
		{
			name: "no steps",
			src: `
name: n
description: d
registry: {name: r, variant: list, kind: NAME}
assertions: [{type: size}]
`,
			wantErr: "steps list is required",
		},
		{
			name: "unknown op",
			src: `
name: n
description: d
registry: {name: r, variant: list, kind: NAME}
steps: [{op: burn, args: ["0"]}]
assertions: [{type: size}]
`,
			wantErr: "unknown op",
		},
		{
			name: "op for other variant",
			src: `
name: n
description: d
registry: {name: r, variant: list, kind: NAME}
steps: [{op: add_catalyst, args: ["a", "b"]}]
assertions: [{type: size}]
`,
			wantErr: "does not apply",
		},
		{
			name: "wrong arity",
			src: `
name: n
description: d
registry: {name: r, variant: list, kind: NAME}
steps: [{op: add, args: ["a", "b"]}]
assertions: [{type: size}]
`,
			wantErr: "takes 1 args",
		},
		{
			name: "unsaved reference",
			src: `
name: n
description: d
registry: {name: r, variant: list, kind: NAME}
steps: [{op: remove, args: ["$x"]}]
assertions: [{type: size}]
`,
			wantErr: "$x is not saved",
		},
		{
			name: "unknown error code",
			src: `
name: n
description: d
registry: {name: r, variant: list, kind: NAME}
steps: [{op: get, args: ["0"], expect: {error: ERROR_OOPS}}]
assertions: [{type: size}]
`,
			wantErr: "unknown error code",
		},
		{
			name: "no assertions",
			src: `
name: n
description: d
registry: {name: r, variant: list, kind: NAME}
steps: [{op: get, args: ["0"]}]
`,
			wantErr: "assertions list is required",
		},
		{
			name: "unknown assertion",
			src: `
name: n
description: d
registry: {name: r, variant: list, kind: NAME}
steps: [{op: get, args: ["0"]}]
assertions: [{type: trace_order}]
`,
			wantErr: "unknown assertion type",
		},
		{
			name: "index with value and error",
			src: `
name: n
description: d
registry: {name: r, variant: list, kind: NAME}
steps: [{op: get, args: ["0"]}]
assertions: [{type: index, index: 0, value: a, error: ERROR_INVALID_INDEX}]
`,
			wantErr: "exactly one of value or error",
		},
		{
			name: "record on list",
			src: `
name: n
description: d
registry: {name: r, variant: list, kind: NAME}
steps: [{op: get, args: ["0"]}]
assertions: [{type: record, id: "0x01"}]
`,
			wantErr: "record applies to catalyst",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
