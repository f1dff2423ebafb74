package state

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewInstallsOwnSentinel(t *testing.T) {
	st := New()
	require.NotNil(t, st.VM)
	require.NotNil(t, st.Interrupt)

	v, ok := st.Registry(RegistryInterruptError)
	require.True(t, ok)
	require.Same(t, st.Sentinel(), v)
}

func TestDistinctStatesHaveDistinctSentinels(t *testing.T) {
	a, b := New(), New()
	require.NotSame(t, a.Sentinel(), b.Sentinel())
}

func TestRegistrySetAndGet(t *testing.T) {
	st := New()
	_, ok := st.Registry("missing")
	require.False(t, ok)

	st.SetRegistry(RegistryThis, "payload")
	v, ok := st.Registry(RegistryThis)
	require.True(t, ok)
	require.Equal(t, "payload", v)

	st.SetRegistry(RegistryThis, "overwritten")
	v, _ = st.Registry(RegistryThis)
	require.Equal(t, "overwritten", v)
}
