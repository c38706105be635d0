package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeObjectStore is an in-memory ObjectStorage backend.
type fakeObjectStore struct {
	bucket  string
	objects map[string][]byte
	ensured bool
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{bucket: "codeclash-catalog", objects: make(map[string][]byte)}
}

func (f *fakeObjectStore) EnsureBucket(ctx context.Context) error {
	f.ensured = true
	return nil
}

func (f *fakeObjectStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeObjectStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found: " + key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeObjectStore) Delete(ctx context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeObjectStore) Bucket() string {
	return f.bucket
}

func TestStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := newFakeObjectStore()
	st := NewStorage(backend)

	require.NoError(t, st.EnsureBucket(ctx))
	assert.True(t, backend.ensured)
	assert.Equal(t, "codeclash-catalog", st.Bucket())

	payload := []byte(`[{"id": 1}]`)
	require.NoError(t, st.Put(ctx, "challenges.json", bytes.NewReader(payload), int64(len(payload)), "application/json"))

	reader, err := st.Get(ctx, "challenges.json")
	require.NoError(t, err)
	defer reader.Close()
	got, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	require.NoError(t, st.Delete(ctx, "challenges.json"))
	_, err = st.Get(ctx, "challenges.json")
	assert.Error(t, err)
}
