package tokenstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pribylovaa/go-storefront/internal/config"
	"github.com/stretchr/testify/require"
)

var testPair = Pair{AccessToken: "acc-1", RefreshToken: "ref-1"}

// storeContract — общий набор проверок для любой реализации Store с состоянием.
func storeContract(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()

	got, err := st.Get(ctx)
	require.NoError(t, err)
	require.True(t, got.Empty())

	require.NoError(t, st.Set(ctx, testPair))
	got, err = st.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, testPair, got)

	// Перезапись целиком.
	next := Pair{AccessToken: "acc-2", RefreshToken: "ref-2"}
	require.NoError(t, st.Set(ctx, next))
	got, err = st.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, next, got)

	// Половинчатая пара отклоняется, старая не трогается.
	err = st.Set(ctx, Pair{AccessToken: "only-access"})
	require.ErrorIs(t, err, ErrIncompletePair)
	err = st.Set(ctx, Pair{RefreshToken: "only-refresh"})
	require.ErrorIs(t, err, ErrIncompletePair)
	got, err = st.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, next, got)

	require.NoError(t, st.Clear(ctx))
	got, err = st.Get(ctx)
	require.NoError(t, err)
	require.True(t, got.Empty())

	// Повторный Clear — не ошибка.
	require.NoError(t, st.Clear(ctx))
}

func TestMemoryStore_Contract(t *testing.T) {
	t.Parallel()
	storeContract(t, NewMemoryStore())
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	st := NewMemoryStore()
	ctx := context.Background()

	var (
		wg   sync.WaitGroup
		torn atomic.Bool
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = st.Set(ctx, testPair)
			p, _ := st.Get(ctx)
			// Видим либо пустую пару, либо целую — никогда половину.
			if !p.Empty() && p != testPair {
				torn.Store(true)
			}
			_ = st.Clear(ctx)
		}()
	}
	wg.Wait()
	require.False(t, torn.Load())
}

func TestNopStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var st Store = NopStore{}

	require.NoError(t, st.Set(ctx, testPair))
	got, err := st.Get(ctx)
	require.NoError(t, err)
	require.True(t, got.Empty())
	require.NoError(t, st.Clear(ctx))
}

func TestFileStore_Contract(t *testing.T) {
	t.Parallel()
	storeContract(t, NewFileStore(filepath.Join(t.TempDir(), "nested", "credentials.json")))
}

func TestFileStore_PermissionsAndFormat(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "credentials.json")
	st := NewFileStore(path)
	require.Equal(t, path, st.Path())

	require.NoError(t, st.Set(context.Background(), testPair))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]string
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Equal(t, map[string]string{
		KeyAccessToken:  "acc-1",
		KeyRefreshToken: "ref-1",
	}, raw)

	// Временных файлов после записи не остаётся.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestFileStore_SurvivesNewInstance(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, NewFileStore(path).Set(context.Background(), testPair))

	got, err := NewFileStore(path).Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, testPair, got)
}

func TestFileStore_CorruptedAndPartialFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("{not json"), 0o600))
	_, err := NewFileStore(broken).Get(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "tokenstore.file.Get")

	partial := filepath.Join(dir, "partial.json")
	require.NoError(t, os.WriteFile(partial, []byte(`{"accessToken":"a"}`), 0o600))
	got, err := NewFileStore(partial).Get(context.Background())
	require.NoError(t, err)
	require.True(t, got.Empty())

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	got, err = NewFileStore(empty).Get(context.Background())
	require.NoError(t, err)
	require.True(t, got.Empty())
}

func TestNew_ByKind(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	st, err := New(ctx, config.StoreConfig{Kind: config.StoreMemory})
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, st)

	st, err = New(ctx, config.StoreConfig{Kind: config.StoreNone})
	require.NoError(t, err)
	require.IsType(t, NopStore{}, st)

	path := filepath.Join(t.TempDir(), "c.json")
	st, err = New(ctx, config.StoreConfig{Kind: config.StoreFile, FilePath: path})
	require.NoError(t, err)
	fs, ok := st.(*FileStore)
	require.True(t, ok)
	require.Equal(t, path, fs.Path())

	_, err = New(ctx, config.StoreConfig{Kind: "cookie"})
	require.ErrorIs(t, err, config.ErrUnknownStoreKind)
}

func TestNew_RedisBadURL(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), config.StoreConfig{Kind: config.StoreRedis, RedisURL: "not-a-url://"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "tokenstore.New")
}
