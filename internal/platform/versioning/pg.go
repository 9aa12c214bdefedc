package versioning

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/fhirstore/internal/platform/db"
)

// Table describes how an entity maps onto its current-state table and the
// matching <Table>_record table. Columns lists only the data columns; the
// bookkeeping columns are handled here.
type Table[E Entity[E]] struct {
	Name    string
	Table   string
	Columns []string
	New     func() E
	// Values returns the data column values of e in Columns order.
	Values func(e E) []any
	// Targets returns scan destinations for the data columns of e.
	Targets func(e E) []any
}

func (t Table[E]) recordTable() string { return t.Table + "_record" }

func (t Table[E]) resourceCols() string {
	return "id, is_deleted, version_id, " + strings.Join(t.Columns, ", ")
}

func (t Table[E]) recordCols() string {
	return "record_id, resource_id, version_id, last_modified, action, is_deleted, " + strings.Join(t.Columns, ", ")
}

type queryable interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type beginner interface {
	queryable
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PGRepository is the Postgres Repository. It uses the request-scoped
// connection when one is on the context and otherwise holds its own until
// Close.
type PGRepository[E Entity[E]] struct {
	staging[E]
	table   Table[E]
	conn    beginner
	release func()
}

// PGOpener returns an Opener backed by pool.
func PGOpener[E Entity[E]](pool *pgxpool.Pool, table Table[E]) Opener[E] {
	return func(ctx context.Context) (Repository[E], error) {
		return OpenPG(ctx, pool, table)
	}
}

func OpenPG[E Entity[E]](ctx context.Context, pool *pgxpool.Pool, table Table[E]) (*PGRepository[E], error) {
	if c := db.ConnFromContext(ctx); c != nil {
		return &PGRepository[E]{table: table, conn: c, release: func() {}}, nil
	}
	c, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return &PGRepository[E]{table: table, conn: c, release: c.Release}, nil
}

func (r *PGRepository[E]) Close() {
	r.reset()
	if r.release != nil {
		r.release()
		r.release = nil
	}
}

func (r *PGRepository[E]) scanResource(row pgx.Row) (E, error) {
	e := r.table.New()
	st := e.ResourceState()
	targets := append([]any{&st.ID, &st.IsDeleted, &st.VersionID}, r.table.Targets(e)...)
	if err := row.Scan(targets...); err != nil {
		var zero E
		return zero, err
	}
	return e, nil
}

func (r *PGRepository[E]) scanRecord(row pgx.Row) (*Record[E], error) {
	rec := &Record[E]{Snapshot: r.table.New()}
	st := rec.Snapshot.ResourceState()
	var action string
	targets := append([]any{
		&rec.RecordID, &rec.ResourceID, &rec.VersionID, &rec.LastModified, &action, &st.IsDeleted,
	}, r.table.Targets(rec.Snapshot)...)
	if err := row.Scan(targets...); err != nil {
		return nil, err
	}
	rec.Action = Action(action)
	rec.LastModified = rec.LastModified.UTC()
	st.ID = rec.ResourceID
	st.VersionID = rec.VersionID
	return rec, nil
}

func (r *PGRepository[E]) GetByID(ctx context.Context, id int64) (E, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", r.table.resourceCols(), r.table.Table)
	e, err := r.scanResource(r.conn.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return e, ErrNotFound
	}
	if err != nil {
		return e, fmt.Errorf("get %s %d: %w", r.table.Name, id, err)
	}
	return e, nil
}

func (r *PGRepository[E]) Exists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	q := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)", r.table.Table)
	if err := r.conn.QueryRow(ctx, q, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("exists %s %d: %w", r.table.Name, id, err)
	}
	return ok, nil
}

func (r *PGRepository[E]) GetLatestRecord(ctx context.Context, id int64) (*Record[E], error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE resource_id = $1
		ORDER BY last_modified DESC, record_id DESC LIMIT 1`, r.table.recordCols(), r.table.recordTable())
	rec, err := r.scanRecord(r.conn.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, fmt.Errorf("latest %s record %d: %w", r.table.Name, id, err)
	}
	return rec, nil
}

func (r *PGRepository[E]) GetRecord(ctx context.Context, recordID int64) (*Record[E], error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE record_id = $1", r.table.recordCols(), r.table.recordTable())
	rec, err := r.scanRecord(r.conn.QueryRow(ctx, q, recordID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, fmt.Errorf("get %s record %d: %w", r.table.Name, recordID, err)
	}
	return rec, nil
}

func (r *PGRepository[E]) ListRecords(ctx context.Context, id int64) ([]*Record[E], error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE resource_id = $1
		ORDER BY last_modified DESC, record_id DESC`, r.table.recordCols(), r.table.recordTable())
	rows, err := r.conn.Query(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("list %s records %d: %w", r.table.Name, id, err)
	}
	return r.collect(rows)
}

func (r *PGRepository[E]) ListAllRecords(ctx context.Context, limit, offset int) ([]*Record[E], int, error) {
	var total int
	if err := r.conn.QueryRow(ctx, "SELECT COUNT(*) FROM "+r.table.recordTable()).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s records: %w", r.table.Name, err)
	}
	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY record_id LIMIT $1 OFFSET $2", r.table.recordCols(), r.table.recordTable())
	rows, err := r.conn.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s records: %w", r.table.Name, err)
	}
	recs, err := r.collect(rows)
	return recs, total, err
}

func (r *PGRepository[E]) collect(rows pgx.Rows) ([]*Record[E], error) {
	defer rows.Close()
	var out []*Record[E]
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Save writes the staged resource rows first, so that inserted resources
// have their IDs, and then the version records, all in one transaction.
func (r *PGRepository[E]) Save(ctx context.Context) error {
	defer r.reset()
	if r.empty() {
		return nil
	}

	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, op := range r.ops {
		switch op.kind {
		case opInsert:
			err = r.insert(ctx, tx, op.entity)
		case opUpdate:
			err = r.update(ctx, tx, op)
		}
		if err != nil {
			return r.saveError(err)
		}
	}
	for _, sr := range r.records {
		sr.bind()
		if err := r.insertRecord(ctx, tx, sr.record); err != nil {
			return r.saveError(err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return r.saveError(err)
	}

	for _, sr := range r.records {
		recordsWritten.WithLabelValues(r.table.Name, string(sr.record.Action)).Inc()
	}
	return nil
}

func (r *PGRepository[E]) saveError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		err = ErrConflict
	}
	if errors.Is(err, ErrConflict) {
		saveConflicts.WithLabelValues(r.table.Name).Inc()
		return ErrConflict
	}
	return fmt.Errorf("save %s: %w", r.table.Name, err)
}

func (r *PGRepository[E]) insert(ctx context.Context, q queryable, e E) error {
	st := e.ResourceState()
	args := append([]any{st.IsDeleted, st.VersionID}, r.table.Values(e)...)
	cols := append([]string{"is_deleted", "version_id"}, r.table.Columns...)

	if st.ID == 0 {
		sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
			r.table.Table, strings.Join(cols, ", "), placeholders(1, len(cols)))
		return q.QueryRow(ctx, sql, args...).Scan(&st.ID)
	}

	args = append([]any{st.ID}, args...)
	cols = append([]string{"id"}, cols...)
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		r.table.Table, strings.Join(cols, ", "), placeholders(1, len(cols)))
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return err
	}
	// Keep generated IDs ahead of explicitly chosen ones.
	_, err := q.Exec(ctx, fmt.Sprintf(
		"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), GREATEST((SELECT MAX(id) FROM %[1]s), 1))",
		r.table.Table))
	return err
}

func (r *PGRepository[E]) update(ctx context.Context, q queryable, op stagedOp[E]) error {
	st := op.entity.ResourceState()
	sets := []string{"is_deleted = $2", "version_id = $3"}
	for i, c := range r.table.Columns {
		sets = append(sets, fmt.Sprintf("%s = $%d", c, i+4))
	}
	n := len(r.table.Columns) + 3
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE id = $1 AND version_id = $%d AND is_deleted = $%d",
		r.table.Table, strings.Join(sets, ", "), n+1, n+2)

	args := append([]any{st.ID, st.IsDeleted, st.VersionID}, r.table.Values(op.entity)...)
	args = append(args, op.expectedVersion, op.expectedDeleted)
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func (r *PGRepository[E]) insertRecord(ctx context.Context, q queryable, rec *Record[E]) error {
	snap := rec.Snapshot
	args := append([]any{
		rec.ResourceID, rec.VersionID, rec.LastModified, string(rec.Action), snap.ResourceState().IsDeleted,
	}, r.table.Values(snap)...)
	cols := append([]string{"resource_id", "version_id", "last_modified", "action", "is_deleted"}, r.table.Columns...)
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING record_id",
		r.table.recordTable(), strings.Join(cols, ", "), placeholders(1, len(cols)))
	return q.QueryRow(ctx, sql, args...).Scan(&rec.RecordID)
}

func placeholders(from, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(ps, ", ")
}
