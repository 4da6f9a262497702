package features

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flatsurf/flatci/internal/env"
)

type fakeRunner struct {
	args [][]string
	err  error
}

func (r *fakeRunner) Run(_ context.Context, c env.Command) error {
	r.args = append(r.args, c.Args)
	return r.err
}

func TestLookup(t *testing.T) {
	f, ok := Lookup("eantic")
	require.True(t, ok)
	assert.Equal(t, "pyeantic", f.Module)

	f, ok = Lookup("sage")
	require.True(t, ok)
	assert.Equal(t, "sage.all", f.Module)

	_, ok = Lookup("gmpxxyy")
	assert.False(t, ok)
}

func TestUnknown(t *testing.T) {
	got := Unknown([]string{"sage", "zeta", "flipper", "alpha", "zeta"})
	assert.Equal(t, []string{"alpha", "zeta"}, got)
	assert.Empty(t, Unknown([]string{"pyflatsurf", "cppyy"}))
}

func TestAll_isCopy(t *testing.T) {
	all := All()
	all[0].Tag = "mutated"
	_, ok := Lookup("sage")
	assert.True(t, ok)
}

func TestProbe(t *testing.T) {
	f, _ := Lookup("exactreal")

	r := &fakeRunner{}
	require.NoError(t, Probe(context.Background(), r, "", f))
	assert.Equal(t, []string{"python3", "-c", "import pyexactreal"}, r.args[0])

	r = &fakeRunner{err: errors.New("exit status 1")}
	err := Probe(context.Background(), r, "/env/bin/python", f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "github.com/flatsurf/exact-real")
	assert.Equal(t, "/env/bin/python", r.args[0][0])
}
