package edition

import (
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/traitforge/pkg/types"
)

func testConfig() types.EditionConfig {
	return types.EditionConfig{Layers: []types.Layer{
		{ID: 1, Name: "background", Traits: []string{"Red", "Blue"}},
		{ID: 2, Name: "hat", Traits: []string{types.NoneTrait, "Cap"}},
	}}
}

func testEdition(name string, n int) *types.Edition {
	all := []types.AssetRecord{
		{Traits: []string{"Red", "Cap"}, Assets: []string{"background/Red.png", "hat/Cap.png"}},
		{Traits: []string{"Blue", "none"}, Assets: []string{"background/Blue.png"}},
		{Traits: []string{"Red", "none"}, Assets: []string{"background/Red.png"}},
		{Traits: []string{"Blue", "Cap"}, Assets: []string{"background/Blue.png", "hat/Cap.png"}},
	}
	return &types.Edition{Name: name, Config: testConfig(), Records: all[:n]}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	ed := testEdition("genesis", 4)

	require.NoError(t, store.Save(ed, NewRun(42, 0, 4, "abc")))
	assert.True(t, store.Exists("genesis"))

	got, err := store.Load("genesis", testConfig())
	require.NoError(t, err)
	assert.Equal(t, ed.Records, got.Records)
	assert.Equal(t, "genesis", got.Name)
}

func TestTableExportShape(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	require.NoError(t, store.Save(testEdition("genesis", 2), Run{}))

	data, err := os.ReadFile(store.Paths("genesis").Table)
	require.NoError(t, err)
	assert.Equal(t, ",Background,Hat\n1,Red,Cap\n2,Blue,none\n", string(data))

	raw, err := os.ReadFile(store.Paths("genesis").Manifest)
	require.NoError(t, err)
	assert.Equal(t, `{"1": ["background/Red.png","hat/Cap.png"], "2": ["background/Blue.png"]}`, string(raw))
}

func TestExtensionPreservesPriorRecords(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	require.NoError(t, store.Save(testEdition("genesis", 2), NewRun(1, 0, 2, "f1")))

	before, err := store.Load("genesis", testConfig())
	require.NoError(t, err)

	extended := testEdition("genesis", 4)
	require.NoError(t, store.Save(extended, NewRun(2, 2, 4, "f1")))

	after, err := store.Load("genesis", testConfig())
	require.NoError(t, err)
	require.Equal(t, 4, after.Len())
	assert.Equal(t, before.Records, after.Records[:2])

	desc, err := ReadDescriptor(store.Paths("genesis").Descriptor)
	require.NoError(t, err)
	assert.Equal(t, 4, desc.Size)
	assert.Equal(t, []string{"background", "hat"}, desc.Layers)
	require.Len(t, desc.Runs, 2)
	assert.Equal(t, 2, desc.Runs[1].From)
	assert.Equal(t, 4, desc.Runs[1].To)
	assert.NotEqual(t, desc.Runs[0].ID, desc.Runs[1].ID)
}

func TestManifestOrdersKeysNumerically(t *testing.T) {
	m := types.Manifest{}
	for i := 1; i <= 11; i++ {
		m[strconv.Itoa(i)] = []string{"x.png"}
	}
	data, err := MarshalManifest(m)
	require.NoError(t, err)
	s := string(data)
	assert.Less(t, strings.Index(s, `"2"`), strings.Index(s, `"10"`))

	path := t.TempDir() + "/assets.json"
	require.NoError(t, WriteManifest(path, m))
	back, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, m, back)
}

func TestLoadDetectsInconsistency(t *testing.T) {
	t.Run("layer mismatch", func(t *testing.T) {
		store := NewStore(t.TempDir(), nil)
		require.NoError(t, store.Save(testEdition("e", 2), Run{}))

		cfg := testConfig()
		cfg.Layers[1].Name = "eyes"
		_, err := store.Load("e", cfg)
		assert.ErrorIs(t, err, types.ErrState)
	})

	t.Run("manifest shorter than table", func(t *testing.T) {
		store := NewStore(t.TempDir(), nil)
		require.NoError(t, store.Save(testEdition("e", 2), Run{}))
		require.NoError(t, WriteManifest(store.Paths("e").Manifest, types.Manifest{"1": {"background/Red.png"}}))

		_, err := store.Load("e", testConfig())
		assert.ErrorIs(t, err, types.ErrState)
	})

	t.Run("manifest keys off by one", func(t *testing.T) {
		store := NewStore(t.TempDir(), nil)
		require.NoError(t, store.Save(testEdition("e", 2), Run{}))
		require.NoError(t, WriteManifest(store.Paths("e").Manifest, types.Manifest{"2": {}, "3": {}}))

		_, err := store.Load("e", testConfig())
		assert.ErrorIs(t, err, types.ErrState)
	})

	t.Run("missing edition", func(t *testing.T) {
		store := NewStore(t.TempDir(), nil)
		_, err := store.Load("nope", testConfig())
		assert.ErrorIs(t, err, types.ErrState)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestListAndErase(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	names, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, store.Save(testEdition("b", 1), Run{}))
	require.NoError(t, store.Save(testEdition("a", 1), Run{}))

	names, err = store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	require.NoError(t, store.Erase("a"))
	assert.False(t, store.Exists("a"))
	assert.True(t, store.Exists("b"))
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("table"))
	assert.Len(t, a, 64)
	assert.Equal(t, a, Fingerprint([]byte("table")))
	assert.NotEqual(t, a, Fingerprint([]byte("table2")))
}
