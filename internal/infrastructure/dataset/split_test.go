package dataset

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "ds")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	for _, name := range []string{"a", "b", "c", "d"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), []byte("{}"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".jpg"), []byte(name), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orphan.json"), []byte("{}"), 0o644))

	result, err := Split(dir, 0.5, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Equal(t, 4, result.Train+result.Test)
	require.Equal(t, 1, result.Skipped)

	countPairs := func(d string) int {
		entries, err := os.ReadDir(d)
		require.NoError(t, err)
		require.Zero(t, len(entries)%2)
		return len(entries) / 2
	}
	require.Equal(t, result.Train, countPairs(dir+"-train"))
	require.Equal(t, result.Test, countPairs(dir+"-test"))
	require.NoFileExists(t, filepath.Join(dir+"-train", "orphan.json"))
	require.NoFileExists(t, filepath.Join(dir+"-test", "orphan.json"))
}

func TestSplit_AllTrain(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ds")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("a"), 0o644))

	result, err := Split(dir, 0, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	require.Equal(t, SplitResult{Train: 1}, result)

	data, err := os.ReadFile(filepath.Join(dir+"-train", "a.jpg"))
	require.NoError(t, err)
	require.Equal(t, "a", string(data))
}
