package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(query string) Params {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/"+query, nil)
	return FromContext(e.NewContext(req, httptest.NewRecorder()))
}

func TestFromContext(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		limit  int
		offset int
	}{
		{"defaults", "", DefaultLimit, 0},
		{"plain names", "?limit=50&offset=10", 50, 10},
		{"fhir names", "?_count=25&_offset=5", 25, 5},
		{"fhir names win", "?_count=3&limit=9&_offset=4&offset=8", 3, 4},
		{"capped", "?limit=500", MaxLimit, 0},
		{"negative", "?limit=-1&offset=-5", DefaultLimit, 0},
		{"garbage", "?_count=abc&_offset=x", DefaultLimit, 0},
		{"unusable fhir name falls back", "?_count=0&limit=7", 7, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := paramsFor(tt.query)
			if p.Limit != tt.limit || p.Offset != tt.offset {
				t.Errorf("FromContext(%q) = %+v, want limit %d offset %d", tt.query, p, tt.limit, tt.offset)
			}
		})
	}
}

func TestNewPage_Links(t *testing.T) {
	page := NewPage("/fhir/PatientRecord", []int{4, 5}, 10, Params{Limit: 2, Offset: 3})

	if !page.HasMore {
		t.Error("expected HasMore")
	}
	if page.Links.Next != "/fhir/PatientRecord?_offset=5&_count=2" {
		t.Errorf("next = %q", page.Links.Next)
	}
	if page.Links.Previous != "/fhir/PatientRecord?_offset=1&_count=2" {
		t.Errorf("previous = %q", page.Links.Previous)
	}
}

func TestNewPage_Edges(t *testing.T) {
	first := NewPage("/x", []string{"a"}, 1, Params{Limit: 5})
	if first.HasMore || first.Links.Next != "" || first.Links.Previous != "" {
		t.Errorf("single page = %+v", first)
	}

	clamped := NewPage("/x", []string{"b"}, 3, Params{Limit: 5, Offset: 2})
	if clamped.Links.Previous != "/x?_offset=0&_count=5" {
		t.Errorf("previous = %q", clamped.Links.Previous)
	}

	empty := NewPage[string]("/x", nil, 0, Params{Limit: 5})
	if empty.Data == nil || len(empty.Data) != 0 {
		t.Errorf("nil data should become an empty slice, got %#v", empty.Data)
	}
}
