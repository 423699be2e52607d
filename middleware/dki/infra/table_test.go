package infra

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableHolder_EmptyIsUnavailable(t *testing.T) {
	var h TableHolder
	assert.Nil(t, h.Current())

	var nilHolder *TableHolder
	assert.Nil(t, nilHolder.Current())
}

func TestTableHolder_StoreAndSwap(t *testing.T) {
	h := NewTableHolder(map[string]string{" RM1 ": " Romford ", "": "x"})

	tbl := h.Current()
	require.NotNil(t, tbl)
	name, ok := tbl.Lookup("RM1")
	assert.True(t, ok)
	assert.Equal(t, "Romford", name)
	assert.Equal(t, 1, h.Len())

	h.Store(map[string]string{"IG1": "Ilford"})
	_, ok = h.Current().Lookup("RM1")
	assert.False(t, ok)

	// a tabela antiga continua válida para quem já a tinha
	name, _ = tbl.Lookup("RM1")
	assert.Equal(t, "Romford", name)

	h.Clear()
	assert.Nil(t, h.Current())
}

func TestTableHolder_EmptyMapIsStillAvailable(t *testing.T) {
	h := NewTableHolder(map[string]string{})
	assert.NotNil(t, h.Current())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestFileTableSource_LoadYAMLAndJSON(t *testing.T) {
	dir := t.TempDir()

	yml := filepath.Join(dir, "locations.yml")
	writeFile(t, yml, "RM1: Romford\nIG1: Ilford\n")
	h := &TableHolder{}
	require.NoError(t, NewFileTableSource(yml, h, nil).Load())
	name, ok := h.Current().Lookup("IG1")
	assert.True(t, ok)
	assert.Equal(t, "Ilford", name)

	js := filepath.Join(dir, "locations.json")
	writeFile(t, js, `{"W1": "Marylebone"}`)
	require.NoError(t, NewFileTableSource(js, h, nil).Load())
	name, ok = h.Current().Lookup("W1")
	assert.True(t, ok)
	assert.Equal(t, "Marylebone", name)
}

func TestFileTableSource_MissingFileKeepsPrevious(t *testing.T) {
	h := NewTableHolder(map[string]string{"RM1": "Romford"})

	err := NewFileTableSource(filepath.Join(t.TempDir(), "nope.yml"), h, nil).Load()
	require.Error(t, err)

	name, _ := h.Current().Lookup("RM1")
	assert.Equal(t, "Romford", name)
}

func TestFileTableSource_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	writeFile(t, path, "- just\n- a list\n")

	_, err := ReadTableFile(path)
	assert.Error(t, err)
}

func TestFileTableSource_WatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locations.yml")
	writeFile(t, path, "RM1: Romford\n")

	h := &TableHolder{}
	src := NewFileTableSource(path, h, nil)
	require.NoError(t, src.Load())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, src.Watch(ctx))

	writeFile(t, path, "RM1: Romford\nIG1: Ilford\n")

	assert.Eventually(t, func() bool {
		_, ok := h.Current().Lookup("IG1")
		return ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRedisTableSource_Load(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.HSet("dki:locations", "RM1", "Romford")
	mr.HSet("dki:locations", "IG1", "Ilford")

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	h := &TableHolder{}
	src := NewRedisTableSource(rdb, h)
	require.NoError(t, src.Load(context.Background()))

	name, ok := h.Current().Lookup("RM1")
	assert.True(t, ok)
	assert.Equal(t, "Romford", name)
	assert.Equal(t, 2, h.Len())
}

func TestRedisTableSource_MissingKeyIsEmptyTable(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	h := &TableHolder{}
	require.NoError(t, NewRedisTableSource(rdb, h, WithTableKey("custom:key")).Load(context.Background()))

	require.NotNil(t, h.Current())
	assert.Equal(t, 0, h.Len())
}

func TestRedisTableSource_ErrorKeepsPrevious(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	h := NewTableHolder(map[string]string{"RM1": "Romford"})
	mr.Close()

	err = NewRedisTableSource(rdb, h).Load(context.Background())
	require.Error(t, err)
	name, _ := h.Current().Lookup("RM1")
	assert.Equal(t, "Romford", name)
}

func TestRedisTableSource_Refresher(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	h := &TableHolder{}
	src := NewRedisTableSource(rdb, h, WithTableRefresh(10*time.Millisecond))
	require.NoError(t, src.Load(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src.StartRefresher(ctx)

	mr.HSet("dki:locations", "IG1", "Ilford")

	assert.Eventually(t, func() bool {
		_, ok := h.Current().Lookup("IG1")
		return ok
	}, 2*time.Second, 10*time.Millisecond)
}
