package resource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/fhirstore/internal/platform/fhir"
	"github.com/ehr/fhirstore/internal/platform/versioning"
	"github.com/ehr/fhirstore/pkg/pagination"
)

// BasePath is where the FHIR routes are mounted.
const BasePath = "/fhir"

type metaSetter interface {
	SetMeta(*fhir.Meta)
}

type Handler[E versioning.Entity[E]] struct {
	svc *Service[E]
}

func NewHandler[E versioning.Entity[E]](svc *Service[E]) *Handler[E] {
	return &Handler[E]{svc: svc}
}

func (h *Handler[E]) RegisterRoutes(fhirGroup *echo.Group) {
	t := h.svc.Type()
	fhirGroup.GET("/"+t+"/:id", h.Read)
	fhirGroup.POST("/"+t, h.Create)
	fhirGroup.PUT("/"+t+"/:id", h.Update)
	fhirGroup.DELETE("/"+t+"/:id", h.Delete)
	fhirGroup.GET("/"+t+"/:id/_history", h.History)
	fhirGroup.GET("/"+t+"/:id/_history/:vid", h.VRead)

	fhirGroup.GET("/"+t+"Record", h.ListRecords)
	fhirGroup.GET("/"+t+"Record/:recordId", h.GetRecord)
}

func (h *Handler[E]) Read(c echo.Context) error {
	id, err := ParseID(c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	cur, err := h.svc.Read(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return h.writeResource(c, cur.Entity, cur.Record)
}

func (h *Handler[E]) Create(c echo.Context) error {
	r, err := decodeBody(c)
	if err != nil {
		return h.fail(c, err)
	}
	cur, err := h.svc.Create(c.Request().Context(), r)
	if err != nil {
		return h.fail(c, err)
	}
	h.created(c, cur)
	return c.String(http.StatusCreated, h.svc.Type()+" created!")
}

func (h *Handler[E]) Update(c echo.Context) error {
	id, err := ParseID(c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	r, err := decodeBody(c)
	if errors.Is(err, fhir.ErrUnknownResourceType) {
		return h.fail(c, fmt.Errorf("%w: %v", ErrWrongType, err))
	}
	if err != nil {
		return h.fail(c, err)
	}

	cur, created, err := h.svc.Update(c.Request().Context(), id, r)
	if err != nil {
		return h.fail(c, err)
	}
	if created {
		h.created(c, cur)
		return c.String(http.StatusCreated, h.svc.Type()+" created!")
	}
	fhir.SetVersionHeaders(c, cur.Record.VersionID, cur.Record.LastModified)
	return c.String(http.StatusOK, fmt.Sprintf("%s with id %d has been modified!", h.svc.Type(), id))
}

func (h *Handler[E]) Delete(c echo.Context) error {
	id, err := ParseID(c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	outcome, err := h.svc.Delete(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	if outcome == AlreadyDeleted {
		return c.String(http.StatusOK, fmt.Sprintf("%s with id %d is already deleted", h.svc.Type(), id))
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler[E]) History(c echo.Context) error {
	id, err := ParseID(c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	recs, err := h.svc.History(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}

	entries := make([]fhir.HistoryEntry, 0, len(recs))
	for _, rec := range recs {
		entry := fhir.HistoryEntry{
			ResourceType: h.svc.Type(),
			ResourceID:   strconv.FormatInt(id, 10),
			VersionID:    rec.VersionID,
			Action:       string(rec.Action),
			LastModified: rec.LastModified,
		}
		if rec.Action != versioning.ActionDelete {
			r, err := h.model(rec.Snapshot, rec)
			if err != nil {
				return h.fail(c, err)
			}
			entry.Resource = r
		}
		entries = append(entries, entry)
	}
	return h.encode(c, fhir.NewHistoryBundle(entries, BasePath))
}

func (h *Handler[E]) VRead(c echo.Context) error {
	id, err := ParseID(c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	vid, err := strconv.Atoi(c.Param("vid"))
	if err != nil || vid <= 0 {
		return h.fail(c, fmt.Errorf("%w: version %q is not a positive integer", ErrInvalid, c.Param("vid")))
	}
	rec, err := h.svc.VRead(c.Request().Context(), id, vid)
	if err != nil {
		return h.fail(c, err)
	}
	return h.writeResource(c, rec.Snapshot, rec)
}

func (h *Handler[E]) ListRecords(c echo.Context) error {
	pg := pagination.FromContext(c)
	recs, total, err := h.svc.Records(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewPage(c.Request().URL.Path, recs, total, pg))
}

func (h *Handler[E]) GetRecord(c echo.Context) error {
	recordID, err := strconv.ParseInt(c.Param("recordId"), 10, 64)
	if err != nil {
		return h.fail(c, fmt.Errorf("%w: record id %q is not an integer", ErrInvalid, c.Param("recordId")))
	}
	rec, err := h.svc.Record(c.Request().Context(), recordID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler[E]) writeResource(c echo.Context, e E, rec *versioning.Record[E]) error {
	r, err := h.model(e, rec)
	if err != nil {
		return h.fail(c, err)
	}
	fhir.SetVersionHeaders(c, rec.VersionID, rec.LastModified)
	if summary, _ := strconv.ParseBool(c.QueryParam("_summary")); summary {
		r = fhir.Summary(r)
	}
	return h.encode(c, r)
}

func (h *Handler[E]) model(e E, rec *versioning.Record[E]) (fhir.Resource, error) {
	r, err := h.svc.Model(e)
	if err != nil {
		return nil, err
	}
	if ms, ok := r.(metaSetter); ok {
		ms.SetMeta(fhir.NewMeta(rec.VersionID, rec.LastModified))
	}
	return r, nil
}

func (h *Handler[E]) encode(c echo.Context, r fhir.Resource) error {
	codec := fhir.CodecFor(fhir.FormatFromQuery(c.QueryParam("_format")))
	body, err := codec.Encode(r)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Blob(http.StatusOK, codec.MediaType(), body)
}

func (h *Handler[E]) created(c echo.Context, cur *Current[E]) {
	id := cur.Entity.ResourceState().ID
	c.Response().Header().Set(echo.HeaderLocation, fmt.Sprintf("%s/%s/%d", BasePath, h.svc.Type(), id))
	fhir.SetVersionHeaders(c, cur.Record.VersionID, cur.Record.LastModified)
}

// fail writes err as a plain-text response with the matching status.
func (h *Handler[E]) fail(c echo.Context, err error) error {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		zerolog.Ctx(c.Request().Context()).Error().Err(err).Str("resource", h.svc.Type()).Msg("request failed")
		return c.String(status, "internal server error")
	}
	return c.String(status, err.Error())
}

// StatusFor maps protocol errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrWrongType):
		return http.StatusNotFound
	case errors.Is(err, ErrGone):
		return http.StatusGone
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody parses the request body in the format named by Content-Type.
// Failures wrap ErrInvalid, or ErrTooLarge when a body limit cut the read
// short. Unknown resource types also match fhir.ErrUnknownResourceType.
func decodeBody(c echo.Context) (fhir.Resource, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, maxErr.Limit)
		}
		return nil, fmt.Errorf("%w: read body: %v", ErrInvalid, err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: request body is empty", ErrInvalid)
	}
	codec := fhir.CodecFor(fhir.FormatFromContentType(c.Request().Header.Get(echo.HeaderContentType)))
	r, err := codec.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return r, nil
}
