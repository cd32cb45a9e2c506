package chatroom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryEnsureMintsID(t *testing.T) {
	reg := NewRegistry()

	p, created := reg.Ensure("")
	require.True(t, created)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Alex", p.Name)

	again, created := reg.Ensure(p.ID)
	assert.False(t, created)
	assert.Equal(t, p, again)
}

func TestRegistryEnsureKeepsProvidedID(t *testing.T) {
	reg := NewRegistry()

	p, created := reg.Ensure("custom-id")
	require.True(t, created)
	assert.Equal(t, "custom-id", p.ID)
}

func TestRegistryNamePoolOrder(t *testing.T) {
	reg := NewRegistry()

	var names []string
	for i := 0; i < len(namePool); i++ {
		p, _ := reg.Ensure("")
		names = append(names, p.Name)
	}
	assert.Equal(t, namePool, names)
}

func TestRegistryNamePoolExhaustion(t *testing.T) {
	reg := NewRegistry()

	for i := 0; i < len(namePool); i++ {
		reg.Ensure("")
	}

	p, _ := reg.Ensure("")
	assert.Contains(t, p.Name, "-", "exhausted pool falls back to suffixed names")
	base := p.Name[:strings.Index(p.Name, "-")]
	assert.Contains(t, namePool, base)
}

func TestRegistryName(t *testing.T) {
	reg := NewRegistry()
	p, _ := reg.Ensure("")

	assert.Equal(t, p.Name, reg.Name(p.ID))
	assert.Equal(t, "unknown-id", reg.Name("unknown-id"))
}

func TestRegistryLookupMissing(t *testing.T) {
	reg := NewRegistry()
	_, ok := reg.Lookup("nope")
	assert.False(t, ok)
}
