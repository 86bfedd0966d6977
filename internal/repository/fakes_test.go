package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/vietanh2810/encore-api/internal/domain"
	"github.com/vietanh2810/encore-api/internal/repository/dao"
)

type memMirrorDAO struct {
	mu   sync.Mutex
	docs map[string]dao.Document
	err  error
}

func newMemMirrorDAO() *memMirrorDAO {
	return &memMirrorDAO{docs: make(map[string]dao.Document)}
}

func (m *memMirrorDAO) FindByKey(_ context.Context, key string) (dao.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return dao.Document{}, m.err
	}
	d, ok := m.docs[key]
	if !ok {
		return dao.Document{}, dao.ErrDocumentNotFound
	}
	return d, nil
}

func (m *memMirrorDAO) FindByPrefix(_ context.Context, prefix string) ([]dao.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []dao.Document
	for k, d := range m.docs {
		if strings.HasPrefix(k, prefix) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memMirrorDAO) Put(_ context.Context, doc dao.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.docs[doc.Key] = doc
	return nil
}

func (m *memMirrorDAO) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, key)
	return nil
}

type fakeRemote struct {
	mu      sync.Mutex
	docs    map[string]domain.Document
	getErr  error
	putErr  error
	puts    []string
	release chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{docs: make(map[string]domain.Document)}
}

func (f *fakeRemote) Get(_ context.Context, key string) (domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return domain.Document{}, f.getErr
	}
	d, ok := f.docs[key]
	if !ok {
		return domain.Document{}, ErrDocumentNotFound
	}
	return d, nil
}

func (f *fakeRemote) Put(_ context.Context, doc domain.Document) (domain.Document, error) {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return domain.Document{}, f.putErr
	}
	doc.Version = f.docs[doc.Key].Version + 1
	f.docs[doc.Key] = doc
	f.puts = append(f.puts, doc.Key)
	return doc, nil
}

func (f *fakeRemote) CompareAndPut(_ context.Context, doc domain.Document, expected int64) (domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.docs[doc.Key].Version != expected {
		return domain.Document{}, ErrStaleDocument
	}
	doc.Version = expected + 1
	f.docs[doc.Key] = doc
	return doc, nil
}

func (f *fakeRemote) List(_ context.Context, prefix string) ([]domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	var out []domain.Document
	for k, d := range f.docs {
		if strings.HasPrefix(k, prefix) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// memDocs is an in-memory DocumentRepository with versioning.
type memDocs struct {
	mu      sync.Mutex
	docs    map[string]domain.Document
	loadErr error
	// beforeCAS runs once before the next CompareAndSave, simulating another writer.
	beforeCAS func(m *memDocs)
}

func newMemDocs() *memDocs {
	return &memDocs{docs: make(map[string]domain.Document)}
}

func (m *memDocs) Load(_ context.Context, key string) (domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return domain.Document{}, m.loadErr
	}
	d, ok := m.docs[key]
	if !ok {
		return domain.Document{}, ErrDocumentNotFound
	}
	return d, nil
}

func (m *memDocs) Save(_ context.Context, doc domain.Document) (domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putLocked(doc), nil
}

func (m *memDocs) CompareAndSave(_ context.Context, doc domain.Document, expected int64) (domain.Document, error) {
	if hook := m.beforeCAS; hook != nil {
		m.beforeCAS = nil
		hook(m)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs[doc.Key].Version != expected {
		return domain.Document{}, ErrStaleDocument
	}
	return m.putLocked(doc), nil
}

func (m *memDocs) List(_ context.Context, prefix string) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Document
	for k, d := range m.docs {
		if strings.HasPrefix(k, prefix) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memDocs) putLocked(doc domain.Document) domain.Document {
	doc.Version = m.docs[doc.Key].Version + 1
	m.docs[doc.Key] = doc
	return doc
}

var errRemoteDown = errors.New("dial tcp: connection refused")

func toDAO(d domain.Document) dao.Document {
	return dao.Document(d)
}
