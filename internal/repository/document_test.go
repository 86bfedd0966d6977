package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietanh2810/encore-api/internal/domain"
)

func newTestReconciling(t *testing.T, remote *fakeRemote) (*ReconcilingRepository, *memMirrorDAO) {
	t.Helper()

	mirror := newMemMirrorDAO()
	var r *ReconcilingRepository
	if remote == nil {
		r = NewReconcilingRepository(NewLocalMirror(mirror), nil, 0)
	} else {
		r = NewReconcilingRepository(NewLocalMirror(mirror), remote, 0)
	}
	t.Cleanup(r.Close)

	return r, mirror
}

func TestReconcilingRepository_SaveWritesBothTiers(t *testing.T) {
	remote := newFakeRemote()
	r, mirror := newTestReconciling(t, remote)
	ctx := context.Background()

	_, err := r.Save(ctx, domain.Document{Key: "roster", Body: []byte(`[]`)})
	require.NoError(t, err)

	_, ok := mirror.docs["roster"]
	assert.True(t, ok, "local write must be synchronous")

	r.Flush()
	got, err := remote.Get(ctx, "roster")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got.Body))
}

func TestReconcilingRepository_RemoteFailureKeepsLocal(t *testing.T) {
	remote := newFakeRemote()
	remote.putErr = errRemoteDown
	r, _ := newTestReconciling(t, remote)
	ctx := context.Background()

	_, err := r.Save(ctx, domain.Document{Key: "event", Body: []byte(`{"a":1}`)})
	require.NoError(t, err)
	r.Flush()

	remote.getErr = errRemoteDown
	got, err := r.Load(ctx, "event")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got.Body))
}

func TestReconcilingRepository_FailedRemoteWriteKeepsMirrorAhead(t *testing.T) {
	remote := newFakeRemote()
	remote.docs["event"] = domain.Document{Key: "event", Body: []byte(`{"a":0}`), Version: 3}
	remote.putErr = errRemoteDown
	r, _ := newTestReconciling(t, remote)
	ctx := context.Background()

	_, err := r.Save(ctx, domain.Document{Key: "event", Body: []byte(`{"a":1}`)})
	require.NoError(t, err)
	r.Flush()

	// Remote reads work again but the remote copy is stale.
	remote.mu.Lock()
	remote.putErr = nil
	remote.mu.Unlock()

	got, err := r.Load(ctx, "event")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got.Body))

	listed, err := r.List(ctx, "ev")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, `{"a":1}`, string(listed[0].Body))

	r.Flush()
	healed, err := remote.Get(ctx, "event")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(healed.Body), "load must retry the failed remote write")

	// Once the remote caught up it is preferred again.
	remote.mu.Lock()
	remote.docs["event"] = domain.Document{Key: "event", Body: []byte(`{"a":2}`), Version: 9}
	remote.mu.Unlock()
	got, err = r.Load(ctx, "event")
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(got.Body))
}

func TestReconcilingRepository_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("remote hit is mirrored locally", func(t *testing.T) {
		remote := newFakeRemote()
		remote.docs["games"] = domain.Document{Key: "games", Body: []byte(`{"x":2}`), Version: 4}
		r, mirror := newTestReconciling(t, remote)

		got, err := r.Load(ctx, "games")
		require.NoError(t, err)
		assert.Equal(t, int64(4), got.Version)
		assert.Equal(t, `{"x":2}`, string(mirror.docs["games"].Body))
	})

	t.Run("remote miss falls back to local and seeds remote", func(t *testing.T) {
		remote := newFakeRemote()
		r, mirror := newTestReconciling(t, remote)
		mirror.docs["roster"] = toDAO(domain.Document{Key: "roster", Body: []byte(`[{"name":"a"}]`), Version: 1})

		got, err := r.Load(ctx, "roster")
		require.NoError(t, err)
		assert.Equal(t, `[{"name":"a"}]`, string(got.Body))

		r.Flush()
		seeded, err := remote.Get(ctx, "roster")
		require.NoError(t, err)
		assert.Equal(t, `[{"name":"a"}]`, string(seeded.Body))
	})

	t.Run("remote error falls back to local", func(t *testing.T) {
		remote := newFakeRemote()
		remote.getErr = errRemoteDown
		r, mirror := newTestReconciling(t, remote)
		mirror.docs["chat"] = toDAO(domain.Document{Key: "chat", Body: []byte(`[]`)})

		got, err := r.Load(ctx, "chat")
		require.NoError(t, err)
		assert.Equal(t, `[]`, string(got.Body))
	})

	t.Run("both empty", func(t *testing.T) {
		r, _ := newTestReconciling(t, newFakeRemote())

		_, err := r.Load(ctx, "missing")
		assert.ErrorIs(t, err, ErrDocumentNotFound)
	})

	t.Run("queued write makes local win", func(t *testing.T) {
		remote := newFakeRemote()
		remote.docs["roster"] = domain.Document{Key: "roster", Body: []byte(`"old"`), Version: 1}
		remote.release = make(chan struct{})
		r, _ := newTestReconciling(t, remote)

		_, err := r.Save(ctx, domain.Document{Key: "roster", Body: []byte(`"new"`)})
		require.NoError(t, err)

		got, err := r.Load(ctx, "roster")
		require.NoError(t, err)
		assert.Equal(t, `"new"`, string(got.Body))

		close(remote.release)
		r.Flush()
	})
}

func TestReconcilingRepository_CompareAndSave(t *testing.T) {
	ctx := context.Background()

	t.Run("remote decides", func(t *testing.T) {
		remote := newFakeRemote()
		remote.docs["roster"] = domain.Document{Key: "roster", Body: []byte(`[]`), Version: 2}
		r, mirror := newTestReconciling(t, remote)

		_, err := r.CompareAndSave(ctx, domain.Document{Key: "roster", Body: []byte(`[1]`)}, 1)
		assert.ErrorIs(t, err, ErrStaleDocument)

		saved, err := r.CompareAndSave(ctx, domain.Document{Key: "roster", Body: []byte(`[1]`)}, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(3), saved.Version)
		assert.Equal(t, int64(3), mirror.docs["roster"].Version)
	})

	t.Run("local only", func(t *testing.T) {
		r, _ := newTestReconciling(t, nil)

		saved, err := r.CompareAndSave(ctx, domain.Document{Key: "roster", Body: []byte(`[]`)}, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), saved.Version)

		_, err = r.CompareAndSave(ctx, domain.Document{Key: "roster", Body: []byte(`[]`)}, 0)
		assert.ErrorIs(t, err, ErrStaleDocument)
	})
}

func TestReconcilingRepository_List(t *testing.T) {
	remote := newFakeRemote()
	remote.getErr = errRemoteDown
	r, mirror := newTestReconciling(t, remote)
	mirror.docs["profile:a_1"] = toDAO(domain.Document{Key: "profile:a_1", Body: []byte(`{}`)})
	mirror.docs["profile:b_2"] = toDAO(domain.Document{Key: "profile:b_2", Body: []byte(`{}`)})
	mirror.docs["roster"] = toDAO(domain.Document{Key: "roster", Body: []byte(`[]`)})

	docs, err := r.List(context.Background(), "profile:")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "profile:a_1", docs[0].Key)
}

func TestReconcilingRepository_SaveAfterClose(t *testing.T) {
	remote := newFakeRemote()
	r, mirror := newTestReconciling(t, remote)
	r.Close()

	_, err := r.Save(context.Background(), domain.Document{Key: "games", Body: []byte(`{}`)})
	require.NoError(t, err)
	assert.Contains(t, mirror.docs, "games")
	assert.Empty(t, remote.puts)
}
