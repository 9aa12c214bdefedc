package versioning

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps resources and version records in process memory with
// the same guarded-write semantics as the Postgres store. Reads hand out
// copies so staged changes stay invisible until Save.
type MemoryStore[E Entity[E]] struct {
	name string

	mu         sync.Mutex
	rows       map[int64]E
	records    []*Record[E]
	nextID     int64
	nextRecord int64
}

func NewMemoryStore[E Entity[E]](name string) *MemoryStore[E] {
	return &MemoryStore[E]{name: name, rows: make(map[int64]E)}
}

// Open satisfies Opener.
func (s *MemoryStore[E]) Open(_ context.Context) (Repository[E], error) {
	return &MemoryRepository[E]{store: s}, nil
}

type MemoryRepository[E Entity[E]] struct {
	staging[E]
	store *MemoryStore[E]
}

func (r *MemoryRepository[E]) Close() { r.reset() }

func (r *MemoryRepository[E]) GetByID(_ context.Context, id int64) (E, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.rows[id]
	if !ok {
		var zero E
		return zero, ErrNotFound
	}
	return e.Clone(), nil
}

func (r *MemoryRepository[E]) Exists(_ context.Context, id int64) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rows[id]
	return ok, nil
}

func (r *MemoryRepository[E]) GetLatestRecord(ctx context.Context, id int64) (*Record[E], error) {
	recs, _ := r.ListRecords(ctx, id)
	if len(recs) == 0 {
		return nil, ErrNoRecord
	}
	return recs[0], nil
}

func (r *MemoryRepository[E]) GetRecord(_ context.Context, recordID int64) (*Record[E], error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.RecordID == recordID {
			return rec.clone(), nil
		}
	}
	return nil, ErrNoRecord
}

func (r *MemoryRepository[E]) ListRecords(_ context.Context, id int64) ([]*Record[E], error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Record[E]
	for _, rec := range s.records {
		if rec.ResourceID == id {
			out = append(out, rec.clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].LastModified.Equal(out[j].LastModified) {
			return out[i].LastModified.After(out[j].LastModified)
		}
		return out[i].RecordID > out[j].RecordID
	})
	return out, nil
}

func (r *MemoryRepository[E]) ListAllRecords(_ context.Context, limit, offset int) ([]*Record[E], int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	total := len(s.records)
	if offset >= total {
		return nil, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	out := make([]*Record[E], 0, end-offset)
	for _, rec := range s.records[offset:end] {
		out = append(out, rec.clone())
	}
	return out, total, nil
}

// Save checks every guarded write before applying any of them, which gives
// the same all-or-nothing outcome as the Postgres transaction.
func (r *MemoryRepository[E]) Save(_ context.Context) error {
	defer r.reset()
	if r.empty() {
		return nil
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, op := range r.ops {
		st := op.entity.ResourceState()
		switch op.kind {
		case opInsert:
			if _, taken := s.rows[st.ID]; st.ID != 0 && taken {
				saveConflicts.WithLabelValues(s.name).Inc()
				return ErrConflict
			}
		case opUpdate:
			cur, ok := s.rows[st.ID]
			if !ok {
				saveConflicts.WithLabelValues(s.name).Inc()
				return ErrConflict
			}
			cst := cur.ResourceState()
			if cst.VersionID != op.expectedVersion || cst.IsDeleted != op.expectedDeleted {
				saveConflicts.WithLabelValues(s.name).Inc()
				return ErrConflict
			}
		}
	}

	for _, op := range r.ops {
		st := op.entity.ResourceState()
		if op.kind == opInsert {
			if st.ID == 0 {
				s.nextID++
				st.ID = s.nextID
			} else if st.ID > s.nextID {
				s.nextID = st.ID
			}
		}
		s.rows[st.ID] = op.entity.Clone()
	}
	for _, sr := range r.records {
		sr.bind()
		s.nextRecord++
		sr.record.RecordID = s.nextRecord
		s.records = append(s.records, sr.record.clone())
		recordsWritten.WithLabelValues(s.name, string(sr.record.Action)).Inc()
	}
	return nil
}
