package storetest

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/lightwaver/gallerix/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PutGet(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.PutObject(ctx, "data", "g/a.jpg", strings.NewReader("abc"), "image/jpeg"))

	obj, err := s.GetObject(ctx, "data", "g/a.jpg")
	require.NoError(t, err)
	defer obj.Body.Close()
	body, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(body))
	assert.Equal(t, "image/jpeg", obj.ContentType)
	assert.EqualValues(t, 3, obj.ContentLength)

	_, err = s.GetObject(ctx, "thumbs", "g/a.jpg")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestStore_ListDirectChildren(t *testing.T) {
	s := New()
	s.Seed("data", "g/", "", nil)
	s.Seed("data", "g/b.png", "image/png", []byte("b"))
	s.Seed("data", "g/a.jpg", "image/jpeg", []byte("a"))
	s.Seed("data", "g/sub/c.jpg", "image/jpeg", []byte("c"))
	s.Seed("data", "other/d.jpg", "image/jpeg", []byte("d"))

	items, err := s.ListObjects(context.Background(), "data", "g/")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "g/a.jpg", items[0].Key)
	assert.Equal(t, "g/b.png", items[1].Key)
	assert.Equal(t, "image/png", items[1].ContentType)

	keys, err := s.ListKeys(context.Background(), "data", "g/")
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Empty(t, keys[0].ContentType)

	head, err := s.HeadObject(context.Background(), "data", "g/b.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", head.ContentType)
	assert.Equal(t, int64(1), head.ContentLength)

	_, err = s.HeadObject(context.Background(), "data", "g/missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestStore_FailedBodyStoresNothing(t *testing.T) {
	s := New()
	boom := errors.New("boom")
	err := s.PutObject(context.Background(), "data", "g/x", io.MultiReader(strings.NewReader("part"), errReader{boom}), "image/png")
	assert.ErrorIs(t, err, boom)

	_, _, ok := s.Object("data", "g/x")
	assert.False(t, ok)
}

func TestStore_FailAndCalls(t *testing.T) {
	s := New()
	boom := errors.New("boom")
	s.Fail(OpGet, "thumbs", "g/a.jpg", boom)

	_, err := s.GetObject(context.Background(), "thumbs", "g/a.jpg")
	assert.ErrorIs(t, err, boom)
	assert.Len(t, s.Calls(OpGet), 1)
	assert.Equal(t, 1, s.ContainerCalls("thumbs"))

	s.ResetCalls()
	assert.Empty(t, s.Calls(""))
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }
