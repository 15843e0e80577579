package cl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type stubDriver struct {
	Driver
	name string
}

func (s stubDriver) Name() string { return s.name }

func TestRegistry(t *testing.T) {
	defer func() {
		Unregister("stub-a")
		Unregister("stub-b")
	}()

	_, err := Get("stub-a")
	require.Error(t, err)

	Register(stubDriver{name: "stub-a"}, 10)
	Register(stubDriver{name: "stub-b"}, 100)

	d, err := Get("stub-a")
	require.NoError(t, err)
	require.Equal(t, "stub-a", d.Name())

	def, err := Default()
	require.NoError(t, err)
	require.Equal(t, "stub-b", def.Name())
	require.Equal(t, "stub-b", MustDefault().Name())

	names := Available()
	require.Contains(t, names, "stub-a")
	require.Contains(t, names, "stub-b")
	require.Less(t, indexOf(names, "stub-b"), indexOf(names, "stub-a"))

	Unregister("stub-b")
	def, err = Default()
	require.NoError(t, err)
	require.Equal(t, "stub-a", def.Name())
}

func indexOf(names []string, want string) int {
	for i, name := range names {
		if name == want {
			return i
		}
	}
	return -1
}
