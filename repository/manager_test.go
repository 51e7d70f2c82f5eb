package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndGet(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	d := &Deployment{
		Address:  "0x0101",
		Name:     "HelloWorld",
		Kind:     KindNative,
		CodeHash: "0xabcd",
	}
	require.NoError(t, m.Register(d))
	assert.False(t, d.DeployTime.IsZero(), "Register must stamp the deploy time")

	got, err := m.Get("0x0101")
	require.NoError(t, err)
	assert.Equal(t, "HelloWorld", got.Name)
	assert.Equal(t, KindNative, got.Kind)
	assert.Equal(t, "0xabcd", got.CodeHash)

	assert.True(t, m.Has("0x0101"))
	assert.False(t, m.Has("0x0202"))
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	d := &Deployment{Address: "0x0101", Name: "HelloWorld", Kind: KindNative}
	require.NoError(t, m.Register(d))

	err = m.Register(&Deployment{Address: "0x0101", Name: "HelloWorld", Kind: KindNative})
	assert.ErrorIs(t, err, ErrAlreadyDeployed)
}

func TestRegisterRequiresAddress(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, m.Register(&Deployment{Name: "HelloWorld"}))
}

func TestListSortsByDeployTime(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, m.Register(&Deployment{
		Address: "0x0202", Name: "B", Kind: KindWasm, DeployTime: base.Add(time.Hour),
	}))
	require.NoError(t, m.Register(&Deployment{
		Address: "0x0101", Name: "A", Kind: KindNative, DeployTime: base,
	}))

	list, err := m.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].Name)
	assert.Equal(t, "B", list[1].Name)
}

func TestGetMissing(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	_, err = m.Get("0x0404")
	assert.Error(t, err)
}
