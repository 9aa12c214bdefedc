package versioning

type opKind int

const (
	opInsert opKind = iota
	opUpdate
)

type stagedOp[E Entity[E]] struct {
	kind            opKind
	entity          E
	expectedVersion int
	expectedDeleted bool
}

type stagedRecord[E Entity[E]] struct {
	owner  E
	record *Record[E]
}

// staging holds the unit of work both repository implementations commit.
type staging[E Entity[E]] struct {
	ops     []stagedOp[E]
	records []stagedRecord[E]
}

func (s *staging[E]) Add(e E) {
	e.ResourceState().IsDeleted = false
	s.ops = append(s.ops, stagedOp[E]{kind: opInsert, entity: e})
}

func (s *staging[E]) Update(e E) {
	s.guarded(e)
	e.ResourceState().IsDeleted = false
}

func (s *staging[E]) Delete(e E) {
	s.guarded(e)
	e.ResourceState().IsDeleted = true
}

func (s *staging[E]) guarded(e E) {
	st := e.ResourceState()
	s.ops = append(s.ops, stagedOp[E]{
		kind:            opUpdate,
		entity:          e,
		expectedVersion: st.VersionID,
		expectedDeleted: st.IsDeleted,
	})
}

func (s *staging[E]) AddCreateRecord(e E) *Record[E] {
	return s.attach(e, newRecord[E](0), ActionCreate)
}

func (s *staging[E]) AddUpdateRecord(e E, prior *Record[E]) *Record[E] {
	return s.attach(e, newRecord[E](priorVersion(e, prior)), ActionUpdate)
}

func (s *staging[E]) AddDeleteRecord(e E, prior *Record[E]) *Record[E] {
	return s.attach(e, newRecord[E](priorVersion(e, prior)), ActionDelete)
}

func priorVersion[E Entity[E]](e E, prior *Record[E]) int {
	if prior != nil {
		return prior.VersionID
	}
	return e.ResourceState().VersionID
}

func (s *staging[E]) attach(e E, rec *Record[E], action Action) *Record[E] {
	Stamp(&rec.Meta, action)
	st := e.ResourceState()
	st.VersionID = rec.VersionID
	rec.ResourceID = st.ID
	rec.Snapshot = e.Clone()
	s.records = append(s.records, stagedRecord[E]{owner: e, record: rec})
	return rec
}

// bind copies the store-assigned resource ID into a staged record.
func (sr stagedRecord[E]) bind() {
	id := sr.owner.ResourceState().ID
	sr.record.ResourceID = id
	sr.record.Snapshot.ResourceState().ID = id
}

func (s *staging[E]) empty() bool {
	return len(s.ops) == 0 && len(s.records) == 0
}

func (s *staging[E]) reset() {
	s.ops = nil
	s.records = nil
}
