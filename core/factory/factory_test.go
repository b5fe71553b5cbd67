package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Port    int
	Enabled bool
}

type sampleConf struct {
	Port    int  `json:"port"`
	Enabled bool `json:"enabled"`
}

func newSample(conf map[string]any) (*sample, error) {
	var c sampleConf
	if err := Decode(conf, &c); err != nil {
		return nil, err
	}
	return &sample{Port: c.Port, Enabled: c.Enabled}, nil
}

func TestRegistryCreate(t *testing.T) {
	reg := NewRegistry[*sample]()
	require.NoError(t, reg.Register("s", newSample))

	inst, err := reg.Create(ModuleConfig{Type: "s", Conf: map[string]any{"port": 3, "enabled": true}})
	require.NoError(t, err)
	assert.Equal(t, 3, inst.Port)
	assert.True(t, inst.Enabled)
}

// Values coming from environment overrides arrive as strings.
func TestRegistryCreateWeakTypes(t *testing.T) {
	reg := NewRegistry[*sample]()
	require.NoError(t, reg.Register("s", newSample))

	inst, err := reg.Create(ModuleConfig{Type: "s", Conf: map[string]any{"port": "8080", "enabled": "true"}})
	require.NoError(t, err)
	assert.Equal(t, 8080, inst.Port)
	assert.True(t, inst.Enabled)
}

func TestRegistryErrors(t *testing.T) {
	reg := NewRegistry[int]()
	require.NoError(t, reg.Register("x", func(map[string]any) (int, error) { return 1, nil }))
	assert.Error(t, reg.Register("x", func(map[string]any) (int, error) { return 2, nil }), "duplicate")
	assert.Error(t, reg.Register("y", nil), "nil factory")

	_, err := reg.Create(ModuleConfig{Type: "y"})
	assert.ErrorContains(t, err, `unknown module type "y"`)
	assert.Equal(t, []string{"x"}, reg.Names())
}
