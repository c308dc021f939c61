package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	holdserrors "brokerage/internal/holds/errors"
	"brokerage/pkg/model"

	"github.com/google/uuid"
)

// MemoryHoldRepository keeps holds in process. A single mutex gives it the
// same compare-and-insert and guarded update semantics as the real stores.
type MemoryHoldRepository struct {
	mu     sync.Mutex
	holds  map[string]*model.PropertyHold
	active map[string]string // propertyID -> hold id
}

func NewMemoryHoldRepository() *MemoryHoldRepository {
	return &MemoryHoldRepository{
		holds:  make(map[string]*model.PropertyHold),
		active: make(map[string]string),
	}
}

func (r *MemoryHoldRepository) Insert(_ context.Context, hold *model.PropertyHold) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, held := r.active[hold.PropertyID]; held && hold.Status == model.HoldStatusActive {
		return holdserrors.ErrAlreadyHeld
	}
	if _, exists := r.holds[hold.ID]; exists {
		return holdserrors.ErrStorageConflict
	}

	r.holds[hold.ID] = hold.Clone()
	if hold.Status == model.HoldStatusActive {
		r.active[hold.PropertyID] = hold.ID
	}
	return nil
}

func (r *MemoryHoldRepository) FindByID(_ context.Context, id string) (*model.PropertyHold, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, holdserrors.ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.holds[id]
	if !ok {
		return nil, holdserrors.ErrNotFound
	}
	return h.Clone(), nil
}

func (r *MemoryHoldRepository) FindActiveByProperty(_ context.Context, propertyID string) (*model.PropertyHold, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.active[propertyID]
	if !ok {
		return nil, holdserrors.ErrNotFound
	}
	return r.holds[id].Clone(), nil
}

func (r *MemoryHoldRepository) Find(_ context.Context, filter model.HoldFilter, limit int, offset int64) ([]*model.PropertyHold, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]*model.PropertyHold, 0)
	for _, h := range r.holds {
		if matchesFilter(h, filter) {
			matched = append(matched, h)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if offset >= int64(len(matched)) {
		return []*model.PropertyHold{}, nil
	}
	end := min(int(offset)+limit, len(matched))

	out := make([]*model.PropertyHold, 0, end-int(offset))
	for _, h := range matched[offset:end] {
		out = append(out, h.Clone())
	}
	return out, nil
}

func (r *MemoryHoldRepository) Count(_ context.Context, filter model.HoldFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, h := range r.holds {
		if matchesFilter(h, filter) {
			n++
		}
	}
	return n, nil
}

func (r *MemoryHoldRepository) FindExpired(_ context.Context, now time.Time, afterID string, limit int) ([]*model.PropertyHold, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	due := make([]*model.PropertyHold, 0)
	for _, id := range r.active {
		h := r.holds[id]
		if h.ID > afterID && !h.HoldUntil.After(now) {
			due = append(due, h.Clone())
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })

	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (r *MemoryHoldRepository) Extend(_ context.Context, id string, seenExtendCount int, holdUntil, now time.Time) (*model.PropertyHold, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.holds[id]
	if !ok {
		return nil, holdserrors.ErrNotFound
	}
	if h.Status != model.HoldStatusActive || h.ExtendCount != seenExtendCount {
		return nil, holdserrors.ErrStorageConflict
	}

	h.HoldUntil = holdUntil
	h.ExtendCount++
	h.UpdatedAt = now
	return h.Clone(), nil
}

func (r *MemoryHoldRepository) Transition(_ context.Context, id string, t Transition) (*model.PropertyHold, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.holds[id]
	if !ok {
		return nil, holdserrors.ErrNotFound
	}
	if h.Status != model.HoldStatusActive {
		return nil, holdserrors.ErrStorageConflict
	}
	if t.DueBy != nil && h.HoldUntil.After(*t.DueBy) {
		return nil, holdserrors.ErrStorageConflict
	}

	h.Status = t.To
	h.CancelledBy = t.CancelledBy
	h.CancelledReason = t.CancelledReason
	h.UpdatedAt = t.At
	delete(r.active, h.PropertyID)
	return h.Clone(), nil
}

func (r *MemoryHoldRepository) Ping(context.Context) error {
	return nil
}

// MemoryConfigRepository is the in-process ConfigRepository.
type MemoryConfigRepository struct {
	mu   sync.Mutex
	rows map[string]model.SystemConfig
}

func NewMemoryConfigRepository(rows ...model.SystemConfig) *MemoryConfigRepository {
	r := &MemoryConfigRepository{rows: make(map[string]model.SystemConfig)}
	for _, row := range rows {
		r.rows[row.Key] = row
	}
	return r
}

func (r *MemoryConfigRepository) FindByGroup(_ context.Context, group string) ([]model.SystemConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.SystemConfig, 0)
	for _, row := range r.rows {
		if row.Group == group {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r *MemoryConfigRepository) UpsertMany(_ context.Context, rows []model.SystemConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range rows {
		r.rows[row.Key] = row
	}
	return nil
}

func (r *MemoryConfigRepository) InsertMissing(_ context.Context, rows []model.SystemConfig) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	added := 0
	for _, row := range rows {
		if _, ok := r.rows[row.Key]; ok {
			continue
		}
		r.rows[row.Key] = row
		added++
	}
	return added, nil
}

// MemoryProperties is a PropertyChecker backed by a map.
type MemoryProperties struct {
	mu       sync.RWMutex
	statuses map[string]model.PropertyStatus
}

func NewMemoryProperties() *MemoryProperties {
	return &MemoryProperties{statuses: make(map[string]model.PropertyStatus)}
}

func (p *MemoryProperties) Set(propertyID string, status model.PropertyStatus) {
	p.mu.Lock()
	p.statuses[propertyID] = status
	p.mu.Unlock()
}

func (p *MemoryProperties) Status(_ context.Context, propertyID string) (model.PropertyStatus, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.statuses[propertyID]
	if !ok {
		return "", holdserrors.ErrPropertyNotFound
	}
	return s, nil
}
