package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bigkaa/goartstore/filebot/internal/domain/model"
	"github.com/bigkaa/goartstore/filebot/internal/repository"
)

// memRepo — in-memory FileRecordRepository для unit-тестов сервисов.
// Повторяет контракт PostgreSQL-реализации: порядок created_at DESC, id DESC,
// пустой срез вместо nil, ErrNotFound, ErrInvalidRecord.
type memRepo struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]*model.FileRecord
	// now — источник времени created_at (по умолчанию time.Now)
	now func() time.Time
	// unavailable — все операции возвращают ErrStoreUnavailable
	unavailable bool
}

func newMemRepo() *memRepo {
	return &memRepo{records: make(map[int64]*model.FileRecord), now: time.Now}
}

func (m *memRepo) Create(_ context.Context, rec model.NewFileRecord) (*model.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.unavailable {
		return nil, repository.ErrStoreUnavailable
	}
	if rec.OwnerID == 0 || strings.TrimSpace(rec.RemoteHandle) == "" {
		return nil, repository.ErrInvalidRecord
	}

	m.nextID++
	f := &model.FileRecord{
		ID:           m.nextID,
		OwnerID:      rec.OwnerID,
		RemoteHandle: rec.RemoteHandle,
		DisplayName:  rec.DisplayName,
		ByteSize:     rec.ByteSize,
		ContentType:  rec.ContentType,
		Kind:         rec.Kind,
		CreatedAt:    m.now(),
	}
	m.records[f.ID] = f
	cp := *f
	return &cp, nil
}

func (m *memRepo) ListByOwner(_ context.Context, ownerID int64, offset, limit int) ([]*model.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.unavailable {
		return nil, repository.ErrStoreUnavailable
	}

	all := []*model.FileRecord{}
	for _, f := range m.records {
		if f.OwnerID == ownerID {
			cp := *f
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	if offset >= len(all) || limit <= 0 {
		return []*model.FileRecord{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *memRepo) GetByID(_ context.Context, id int64) (*model.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.unavailable {
		return nil, repository.ErrStoreUnavailable
	}
	f, ok := m.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *memRepo) CountByOwner(_ context.Context, ownerID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.unavailable {
		return 0, repository.ErrStoreUnavailable
	}
	n := 0
	for _, f := range m.records {
		if f.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (m *memRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.unavailable {
		return repository.ErrStoreUnavailable
	}
	if _, ok := m.records[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *memRepo) setUnavailable(v bool) {
	m.mu.Lock()
	m.unavailable = v
	m.mu.Unlock()
}

func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }
