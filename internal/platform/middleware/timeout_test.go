package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestRequestTimeout_SetsDeadline(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/fhir/Patient/1", nil), rec)

	var deadline time.Time
	var ok bool
	err := RequestTimeout(5*time.Second)(func(c echo.Context) error {
		deadline, ok = c.Request().Context().Deadline()
		return c.String(http.StatusOK, "ok")
	})(c)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || time.Until(deadline) > 5*time.Second {
		t.Errorf("deadline = %v, %v", deadline, ok)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRequestTimeout_Expired(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/fhir/Patient/1", nil), rec)

	RequestTimeout(10*time.Millisecond)(func(c echo.Context) error {
		<-c.Request().Context().Done()
		return c.Request().Context().Err()
	})(c)

	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("expected 504, got %d", rec.Code)
	}
}

func TestRequestTimeout_KeepsWrittenResponse(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/fhir/Patient/1", nil), rec)

	RequestTimeout(10*time.Millisecond)(func(c echo.Context) error {
		<-c.Request().Context().Done()
		return c.String(http.StatusInternalServerError, "internal server error")
	})(c)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected the handler's 500, got %d", rec.Code)
	}
}
