package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vietanh2810/encore-api/internal/domain"
	"github.com/vietanh2810/encore-api/internal/repository/dao"
)

var (
	ErrDocumentNotFound = dao.ErrDocumentNotFound
	ErrStaleDocument    = dao.ErrStaleDocument
)

// DocumentStore is the read/write contract shared by the local mirror and the
// remote store.
type DocumentStore interface {
	Get(ctx context.Context, key string) (domain.Document, error)
	Put(ctx context.Context, doc domain.Document) (domain.Document, error)
	List(ctx context.Context, prefix string) ([]domain.Document, error)
}

type ConditionalStore interface {
	DocumentStore
	CompareAndPut(ctx context.Context, doc domain.Document, expected int64) (domain.Document, error)
}

type RemoteDAO interface {
	FindByKey(ctx context.Context, key string) (dao.Document, error)
	FindByPrefix(ctx context.Context, prefix string) ([]dao.Document, error)
	Upsert(ctx context.Context, key string, body []byte) (dao.Document, error)
	CompareAndSwap(ctx context.Context, key string, body []byte, expected int64) (dao.Document, error)
}

type MirrorDAO interface {
	FindByKey(ctx context.Context, key string) (dao.Document, error)
	FindByPrefix(ctx context.Context, prefix string) ([]dao.Document, error)
	Put(ctx context.Context, doc dao.Document) error
	Delete(ctx context.Context, key string) error
}

// RemoteStore adapts the postgres document DAO.
type RemoteStore struct {
	dao RemoteDAO
}

func NewRemoteStore(dao RemoteDAO) *RemoteStore {
	return &RemoteStore{
		dao: dao,
	}
}

func (s *RemoteStore) Get(ctx context.Context, key string) (domain.Document, error) {
	found, err := s.dao.FindByKey(ctx, key)
	if err != nil {
		return domain.Document{}, fmt.Errorf("s.dao.FindByKey -> %w", err)
	}

	return daoToDomain(found), nil
}

func (s *RemoteStore) Put(ctx context.Context, doc domain.Document) (domain.Document, error) {
	saved, err := s.dao.Upsert(ctx, doc.Key, doc.Body)
	if err != nil {
		return domain.Document{}, fmt.Errorf("s.dao.Upsert -> %w", err)
	}

	return daoToDomain(saved), nil
}

func (s *RemoteStore) CompareAndPut(ctx context.Context, doc domain.Document, expected int64) (domain.Document, error) {
	saved, err := s.dao.CompareAndSwap(ctx, doc.Key, doc.Body, expected)
	if err != nil {
		return domain.Document{}, fmt.Errorf("s.dao.CompareAndSwap -> %w", err)
	}

	return daoToDomain(saved), nil
}

func (s *RemoteStore) List(ctx context.Context, prefix string) ([]domain.Document, error) {
	found, err := s.dao.FindByPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("s.dao.FindByPrefix -> %w", err)
	}

	return daosToDomain(found), nil
}

// LocalMirror adapts the sqlite mirror DAO.
type LocalMirror struct {
	dao MirrorDAO
}

func NewLocalMirror(dao MirrorDAO) *LocalMirror {
	return &LocalMirror{
		dao: dao,
	}
}

func (m *LocalMirror) Get(ctx context.Context, key string) (domain.Document, error) {
	found, err := m.dao.FindByKey(ctx, key)
	if err != nil {
		return domain.Document{}, fmt.Errorf("m.dao.FindByKey -> %w", err)
	}

	return daoToDomain(found), nil
}

func (m *LocalMirror) Put(ctx context.Context, doc domain.Document) (domain.Document, error) {
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = time.Now().UTC()
	}
	if err := m.dao.Put(ctx, dao.Document(doc)); err != nil {
		return domain.Document{}, fmt.Errorf("m.dao.Put -> %w", err)
	}

	return doc, nil
}

func (m *LocalMirror) List(ctx context.Context, prefix string) ([]domain.Document, error) {
	found, err := m.dao.FindByPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("m.dao.FindByPrefix -> %w", err)
	}

	return daosToDomain(found), nil
}

func (m *LocalMirror) Delete(ctx context.Context, key string) error {
	if err := m.dao.Delete(ctx, key); err != nil {
		return fmt.Errorf("m.dao.Delete -> %w", err)
	}

	return nil
}

// CompareAndPut gives the mirror conditional-write semantics when it runs
// without a remote store.
func (m *LocalMirror) CompareAndPut(ctx context.Context, doc domain.Document, expected int64) (domain.Document, error) {
	current, err := m.Get(ctx, doc.Key)
	switch {
	case errors.Is(err, ErrDocumentNotFound):
		current.Version = 0
	case err != nil:
		return domain.Document{}, err
	}
	if current.Version != expected {
		return domain.Document{}, ErrStaleDocument
	}
	doc.Version = expected + 1
	doc.UpdatedAt = time.Now().UTC()

	return m.Put(ctx, doc)
}

// ReconcilingRepository writes to both tiers and reads remote-preferred with
// the local mirror as fallback. Local writes are synchronous; remote writes
// go through a single background writer so they reach the remote store in the
// order they were made.
type ReconcilingRepository struct {
	local   *LocalMirror
	remote  ConditionalStore
	timeout time.Duration

	mu      sync.RWMutex
	closed  bool
	queue   chan domain.Document
	pending sync.WaitGroup
	done    chan struct{}

	inflightMu sync.Mutex
	inflight   map[string]int
	// behind holds keys whose last remote write failed; the mirror is the
	// copy of record for them until a retry succeeds.
	behind map[string]bool
}

// NewReconcilingRepository starts the remote writer. remote may be nil, in
// which case the repository runs on the local mirror alone.
func NewReconcilingRepository(local *LocalMirror, remote ConditionalStore, remoteTimeout time.Duration) *ReconcilingRepository {
	if remoteTimeout <= 0 {
		remoteTimeout = 5 * time.Second
	}
	r := &ReconcilingRepository{
		local:    local,
		remote:   remote,
		timeout:  remoteTimeout,
		queue:    make(chan domain.Document, 256),
		done:     make(chan struct{}),
		inflight: make(map[string]int),
		behind:   make(map[string]bool),
	}
	go r.run()

	return r
}

func (r *ReconcilingRepository) Load(ctx context.Context, key string) (domain.Document, error) {
	// A queued or failed write means the mirror is ahead of the remote store.
	inflight, behind := r.pendingState(key)
	if r.remote != nil && behind && !inflight {
		local, err := r.local.Get(ctx, key)
		if err != nil {
			return domain.Document{}, fmt.Errorf("r.local.Get -> %w", err)
		}
		r.enqueue(local)
		return local, nil
	}
	if r.remote != nil && !inflight && !behind {
		rctx, cancel := context.WithTimeout(ctx, r.timeout)
		doc, err := r.remote.Get(rctx, key)
		cancel()

		switch {
		case err == nil:
			if _, err := r.local.Put(ctx, doc); err != nil {
				zap.L().Warn("failed to mirror remote document locally", zap.String("key", key), zap.Error(err))
			}
			return doc, nil
		case errors.Is(err, ErrDocumentNotFound):
			local, err := r.local.Get(ctx, key)
			if err != nil {
				return domain.Document{}, fmt.Errorf("r.local.Get -> %w", err)
			}
			// Remote is empty but we have a copy: seed it.
			r.enqueue(local)
			return local, nil
		default:
			zap.L().Warn("remote read failed, falling back to local mirror",
				zap.String("key", key),
				zap.Bool("transient", dao.IsTransient(err)),
				zap.Error(err))
		}
	}

	doc, err := r.local.Get(ctx, key)
	if err != nil {
		return domain.Document{}, fmt.Errorf("r.local.Get -> %w", err)
	}

	return doc, nil
}

// Save writes the local mirror and queues the remote write. A remote failure
// is logged and never rolls back the local write.
func (r *ReconcilingRepository) Save(ctx context.Context, doc domain.Document) (domain.Document, error) {
	saved, err := r.local.Put(ctx, doc)
	if err != nil {
		return domain.Document{}, fmt.Errorf("r.local.Put -> %w", err)
	}
	r.enqueue(saved)

	return saved, nil
}

// CompareAndSave is the conditional path: the remote store decides, then the
// mirror follows.
func (r *ReconcilingRepository) CompareAndSave(ctx context.Context, doc domain.Document, expected int64) (domain.Document, error) {
	if r.remote == nil {
		return r.local.CompareAndPut(ctx, doc, expected)
	}

	rctx, cancel := context.WithTimeout(ctx, r.timeout)
	saved, err := r.remote.CompareAndPut(rctx, doc, expected)
	cancel()
	if err != nil {
		return domain.Document{}, fmt.Errorf("r.remote.CompareAndPut -> %w", err)
	}
	if _, err := r.local.Put(ctx, saved); err != nil {
		zap.L().Warn("failed to mirror document locally", zap.String("key", doc.Key), zap.Error(err))
	}
	r.inflightMu.Lock()
	delete(r.behind, doc.Key)
	r.inflightMu.Unlock()

	return saved, nil
}

func (r *ReconcilingRepository) List(ctx context.Context, prefix string) ([]domain.Document, error) {
	if r.remote != nil && !r.pendingPrefix(prefix) {
		rctx, cancel := context.WithTimeout(ctx, r.timeout)
		docs, err := r.remote.List(rctx, prefix)
		cancel()
		if err == nil {
			return docs, nil
		}
		zap.L().Warn("remote list failed, falling back to local mirror", zap.String("prefix", prefix), zap.Error(err))
	}

	docs, err := r.local.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("r.local.List -> %w", err)
	}

	return docs, nil
}

// Flush blocks until every queued remote write has been attempted.
func (r *ReconcilingRepository) Flush() {
	r.pending.Wait()
}

// Close drains the remote queue and stops the writer.
func (r *ReconcilingRepository) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	<-r.done
}

func (r *ReconcilingRepository) enqueue(doc domain.Document) {
	if r.remote == nil {
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		zap.L().Warn("repository closed, dropping remote write", zap.String("key", doc.Key))
		return
	}
	r.pending.Add(1)
	r.inflightMu.Lock()
	r.inflight[doc.Key]++
	r.inflightMu.Unlock()
	r.queue <- doc
}

// pendingPrefix reports whether any key under prefix is ahead locally.
func (r *ReconcilingRepository) pendingPrefix(prefix string) bool {
	r.inflightMu.Lock()
	defer r.inflightMu.Unlock()

	for key := range r.inflight {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	for key := range r.behind {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}

	return false
}

func (r *ReconcilingRepository) pendingState(key string) (inflight, behind bool) {
	r.inflightMu.Lock()
	defer r.inflightMu.Unlock()

	return r.inflight[key] > 0, r.behind[key]
}

func (r *ReconcilingRepository) run() {
	defer close(r.done)

	for doc := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		_, err := r.remote.Put(ctx, doc)
		cancel()
		if err != nil {
			zap.L().Error("remote write failed, local mirror stays authoritative",
				zap.String("key", doc.Key),
				zap.Error(err))
		}

		r.inflightMu.Lock()
		if err != nil {
			r.behind[doc.Key] = true
		} else {
			delete(r.behind, doc.Key)
		}
		if r.inflight[doc.Key]--; r.inflight[doc.Key] <= 0 {
			delete(r.inflight, doc.Key)
		}
		r.inflightMu.Unlock()
		r.pending.Done()
	}
}

func daoToDomain(d dao.Document) domain.Document {
	return domain.Document{
		Key:       d.Key,
		Body:      d.Body,
		Version:   d.Version,
		UpdatedAt: d.UpdatedAt,
	}
}

func daosToDomain(docs []dao.Document) []domain.Document {
	out := make([]domain.Document, 0, len(docs))
	for _, d := range docs {
		out = append(out, daoToDomain(d))
	}

	return out
}
