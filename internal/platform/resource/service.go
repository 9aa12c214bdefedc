// Package resource implements the read, create, update and delete protocol
// shared by every versioned FHIR resource type.
package resource

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ehr/fhirstore/internal/platform/fhir"
	"github.com/ehr/fhirstore/internal/platform/versioning"
)

var (
	ErrNotFound = errors.New("not found")
	ErrGone     = errors.New("gone")
	ErrInvalid  = errors.New("invalid request")
	// ErrWrongType is returned when an update body is not of the route's type.
	ErrWrongType = errors.New("wrong resource type")
	ErrConflict  = errors.New("conflicting modification")
	ErrTooLarge  = errors.New("request body too large")
)

// Definition binds a resource type to its mappers.
type Definition[E versioning.Entity[E]] struct {
	Type        string
	MapResource func(fhir.Resource) (E, error)
	MapModel    func(E) (fhir.Resource, error)
}

// Current is an entity together with the version record that describes it.
type Current[E versioning.Entity[E]] struct {
	Entity E
	Record *versioning.Record[E]
}

// DeleteOutcome tells apart the three successful results of Delete.
type DeleteOutcome int

const (
	Absent DeleteOutcome = iota
	AlreadyDeleted
	Deleted
)

type Service[E versioning.Entity[E]] struct {
	def  Definition[E]
	open versioning.Opener[E]
}

func NewService[E versioning.Entity[E]](def Definition[E], open versioning.Opener[E]) *Service[E] {
	return &Service[E]{def: def, open: open}
}

func (s *Service[E]) Type() string { return s.def.Type }

// ParseID parses a logical resource id from a URL.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id %q is not a positive integer", ErrInvalid, raw)
	}
	return id, nil
}

func (s *Service[E]) Read(ctx context.Context, id int64) (*Current[E], error) {
	repo, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer repo.Close()

	e, err := repo.GetByID(ctx, id)
	if errors.Is(err, versioning.ErrNotFound) {
		return nil, s.notFound(id)
	}
	if err != nil {
		return nil, err
	}
	if e.ResourceState().IsDeleted {
		return nil, fmt.Errorf("%w: %s with id %d has been deleted", ErrGone, s.def.Type, id)
	}
	rec, err := s.latest(ctx, repo, id)
	if err != nil {
		return nil, err
	}
	return &Current[E]{Entity: e, Record: rec}, nil
}

// Create stores r as a new resource and returns the assigned id.
func (s *Service[E]) Create(ctx context.Context, r fhir.Resource) (*Current[E], error) {
	if r == nil || r.ResourceType() != s.def.Type {
		return nil, fmt.Errorf("%w: body is not a %s resource", ErrInvalid, s.def.Type)
	}
	if r.ResourceID() != "" {
		return nil, fmt.Errorf("%w: a new %s must not have an id", ErrInvalid, s.def.Type)
	}
	e, err := s.def.MapResource(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	repo, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer repo.Close()

	repo.Add(e)
	rec := repo.AddCreateRecord(e)
	if err := repo.Save(ctx); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("resource", s.def.Type).Int64("id", e.ResourceState().ID).Msg("resource created")
	return &Current[E]{Entity: e, Record: rec}, nil
}

// Update replaces resource id with r, creating it under that id when it does
// not exist yet. created reports which of the two happened.
func (s *Service[E]) Update(ctx context.Context, id int64, r fhir.Resource) (cur *Current[E], created bool, err error) {
	if r == nil || r.ResourceType() != s.def.Type {
		return nil, false, fmt.Errorf("%w: body is not a %s resource", ErrWrongType, s.def.Type)
	}
	if r.ResourceID() == "" {
		return nil, false, fmt.Errorf("%w: %s in body has no id", ErrInvalid, s.def.Type)
	}
	if r.ResourceID() != strconv.FormatInt(id, 10) {
		return nil, false, fmt.Errorf("%w: id in body (%s) does not match id in url (%d)", ErrInvalid, r.ResourceID(), id)
	}
	e, err := s.def.MapResource(r)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	repo, err := s.open(ctx)
	if err != nil {
		return nil, false, err
	}
	defer repo.Close()

	exists, err := repo.Exists(ctx, id)
	if err != nil {
		return nil, false, err
	}

	var rec *versioning.Record[E]
	if exists {
		stored, err := repo.GetByID(ctx, id)
		if err != nil {
			return nil, false, err
		}
		prior, err := s.latest(ctx, repo, id)
		if err != nil {
			return nil, false, err
		}
		*e.ResourceState() = *stored.ResourceState()
		repo.Update(e)
		rec = repo.AddUpdateRecord(e, prior)
	} else {
		e.ResourceState().ID = id
		repo.Add(e)
		rec = repo.AddCreateRecord(e)
		zerolog.Ctx(ctx).Debug().Str("resource", s.def.Type).Int64("id", id).Msg("update of unknown id, creating")
	}

	if err := repo.Save(ctx); err != nil {
		return nil, false, s.saveFailed(ctx, repo, id, err)
	}
	return &Current[E]{Entity: e, Record: rec}, !exists, nil
}

func (s *Service[E]) Delete(ctx context.Context, id int64) (DeleteOutcome, error) {
	repo, err := s.open(ctx)
	if err != nil {
		return Absent, err
	}
	defer repo.Close()

	e, err := repo.GetByID(ctx, id)
	if errors.Is(err, versioning.ErrNotFound) {
		return Absent, nil
	}
	if err != nil {
		return Absent, err
	}
	if e.ResourceState().IsDeleted {
		return AlreadyDeleted, nil
	}
	prior, err := s.latest(ctx, repo, id)
	if err != nil {
		return Absent, err
	}

	repo.Delete(e)
	repo.AddDeleteRecord(e, prior)
	if err := repo.Save(ctx); err != nil {
		return Absent, s.saveFailed(ctx, repo, id, err)
	}
	return Deleted, nil
}

// History returns every version record of id, newest first.
func (s *Service[E]) History(ctx context.Context, id int64) ([]*versioning.Record[E], error) {
	repo, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer repo.Close()

	recs, err := repo.ListRecords(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, s.notFound(id)
	}
	return recs, nil
}

// VRead returns the content of id as of version vid. A delete keeps the
// version number of the state it removed, so the create or update record
// carrying vid wins over a delete record with the same number. ErrGone is
// returned only when delete records are all that carry vid.
func (s *Service[E]) VRead(ctx context.Context, id int64, vid int) (*versioning.Record[E], error) {
	recs, err := s.History(ctx, id)
	if err != nil {
		return nil, err
	}
	deleted := false
	for _, rec := range recs {
		if rec.VersionID != vid {
			continue
		}
		if rec.Action == versioning.ActionDelete {
			deleted = true
			continue
		}
		return rec, nil
	}
	if deleted {
		return nil, fmt.Errorf("%w: %s %d version %d was deleted", ErrGone, s.def.Type, id, vid)
	}
	return nil, fmt.Errorf("%w: %s %d has no version %d", ErrNotFound, s.def.Type, id, vid)
}

func (s *Service[E]) Record(ctx context.Context, recordID int64) (*versioning.Record[E], error) {
	repo, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer repo.Close()

	rec, err := repo.GetRecord(ctx, recordID)
	if errors.Is(err, versioning.ErrNoRecord) {
		return nil, fmt.Errorf("%w: %s record %d", ErrNotFound, s.def.Type, recordID)
	}
	return rec, err
}

func (s *Service[E]) Records(ctx context.Context, limit, offset int) ([]*versioning.Record[E], int, error) {
	repo, err := s.open(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer repo.Close()
	return repo.ListAllRecords(ctx, limit, offset)
}

// Model maps an entity back to its wire resource.
func (s *Service[E]) Model(e E) (fhir.Resource, error) {
	return s.def.MapModel(e)
}

func (s *Service[E]) latest(ctx context.Context, repo versioning.Repository[E], id int64) (*versioning.Record[E], error) {
	rec, err := repo.GetLatestRecord(ctx, id)
	if errors.Is(err, versioning.ErrNoRecord) {
		zerolog.Ctx(ctx).Warn().Str("resource", s.def.Type).Int64("id", id).Msg("resource has no version record")
		return nil, fmt.Errorf("%w: %s with id %d has no version record", ErrNotFound, s.def.Type, id)
	}
	return rec, err
}

// saveFailed checks once whether the resource still exists after a failed
// save and classifies the failure accordingly.
func (s *Service[E]) saveFailed(ctx context.Context, repo versioning.Repository[E], id int64, err error) error {
	if !errors.Is(err, versioning.ErrConflict) {
		return err
	}
	log := zerolog.Ctx(ctx)
	exists, xerr := repo.Exists(ctx, id)
	if xerr != nil {
		return errors.Join(err, xerr)
	}
	if !exists {
		log.Warn().Str("resource", s.def.Type).Int64("id", id).Msg("resource vanished during save")
		return s.notFound(id)
	}
	log.Error().Str("resource", s.def.Type).Int64("id", id).Msg("concurrent modification")
	return fmt.Errorf("%w: %s with id %d was modified concurrently", ErrConflict, s.def.Type, id)
}

func (s *Service[E]) notFound(id int64) error {
	return fmt.Errorf("%w: %s with id %d", ErrNotFound, s.def.Type, id)
}
