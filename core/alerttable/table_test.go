package alerttable

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarkActiveResolvedCycle(t *testing.T) {
	tbl := New()
	require.False(t, tbl.IsActive("UPS33"))
	tbl.MarkActive("UPS33")
	require.True(t, tbl.IsActive("UPS33"))
	tbl.MarkResolved("UPS33")
	require.False(t, tbl.IsActive("UPS33"))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	tbl := New()
	for _, name := range []string{"DEVICE1", "DEVICE2", "DEVICE3", "DEVICE WITH SPACE"} {
		tbl.MarkActive(name)
	}
	path := filepath.Join(t.TempDir(), "state.zpl")
	require.NoError(t, tbl.Save(path))

	tbl2 := New()
	require.NoError(t, tbl2.Load(path))
	require.Equal(t, 4, tbl2.Len())
	for _, name := range []string{"DEVICE1", "DEVICE2", "DEVICE3", "DEVICE WITH SPACE"} {
		require.True(t, tbl2.IsActive(name))
	}
	require.False(t, tbl2.IsActive("DEVICE4"))
}

func TestLoadMissingFileErrors(t *testing.T) {
	tbl := New()
	err := tbl.Load(filepath.Join(t.TempDir(), "missing.zpl"))
	require.Error(t, err)
}
