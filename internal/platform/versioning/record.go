// Package versioning implements the resource/version-record persistence
// pattern: a mutable current-state row per resource plus an append-only
// trail of immutable version records, written together.
package versioning

import "time"

// State is the bookkeeping every versioned entity embeds.
type State struct {
	ID        int64 `db:"id" json:"id"`
	IsDeleted bool  `db:"is_deleted" json:"is_deleted"`
	VersionID int   `db:"version_id" json:"version_id"`
}

func (s *State) ResourceState() *State { return s }

// Entity is satisfied by pointer entity types that embed State and can
// produce a deep copy of themselves.
type Entity[E any] interface {
	ResourceState() *State
	Clone() E
}

type Action string

const (
	ActionCreate     Action = "CREATE"
	ActionUpdate     Action = "UPDATE"
	ActionDelete     Action = "DELETE"
	ActionUnassigned Action = "UNASSIGNED"
)

// Meta is the stamped part of a version record.
type Meta struct {
	VersionID    int       `json:"version_id"`
	LastModified time.Time `json:"last_modified"`
	Action       Action    `json:"action"`
}

// Now is the clock used by Stamp. Postgres keeps microseconds, so the
// in-memory store sees the same precision.
var Now = func() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Stamp is the only place version numbers are assigned. CREATE starts the
// sequence at 1, UPDATE increments it and DELETE keeps it.
func Stamp(m *Meta, action Action) {
	m.LastModified = Now()
	switch action {
	case ActionCreate:
		m.VersionID = 1
	case ActionUpdate:
		m.VersionID++
	}
	m.Action = action
}

// Record is one immutable entry of a resource's version trail. Snapshot is
// a frozen copy of the entity as it was when the record was stamped.
type Record[E Entity[E]] struct {
	RecordID   int64 `json:"record_id"`
	ResourceID int64 `json:"resource_id"`
	Meta
	Snapshot E `json:"resource"`
}

func newRecord[E Entity[E]](versionID int) *Record[E] {
	return &Record[E]{Meta: Meta{VersionID: versionID, Action: ActionUnassigned}}
}

func (r *Record[E]) clone() *Record[E] {
	out := *r
	out.Snapshot = r.Snapshot.Clone()
	return &out
}
