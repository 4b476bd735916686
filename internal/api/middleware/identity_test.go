package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/huygym/membership-system/internal/core/domain"
	"github.com/huygym/membership-system/internal/core/ports"
)

type stubSnapshotter struct {
	snap ports.SessionSnapshot
}

func (s stubSnapshotter) Snapshot() ports.SessionSnapshot { return s.snap }

func TestCurrentIdentity_InjectsIdentity(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	src := stubSnapshotter{snap: ports.SessionSnapshot{
		State:    domain.StateAuthenticated,
		Identity: &domain.Identity{Name: "Anh Huy", Role: domain.RoleAdmin},
	}}

	var got *domain.Identity
	handler := CurrentIdentity(src)(func(c echo.Context) error {
		got = IdentityFrom(c)
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if got == nil || got.Name != "Anh Huy" {
		t.Fatalf("expected identity in context, got %+v", got)
	}
	if c.Get(KeyRole) != domain.RoleAdmin || c.Get(KeyUser) != "Anh Huy" {
		t.Fatalf("unexpected context values: %v %v", c.Get(KeyRole), c.Get(KeyUser))
	}
}

func TestCurrentIdentity_LoggedOutPassesThrough(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := CurrentIdentity(stubSnapshotter{})(func(c echo.Context) error {
		called = true
		if IdentityFrom(c) != nil {
			t.Fatalf("expected no identity")
		}
		return nil
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
}
