package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, query string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/medicines"+query, nil)
	rec := httptest.NewRecorder()
	return FromContext(e.NewContext(req, rec))
}

func TestFromContextDefaults(t *testing.T) {
	p := paramsFor(t, "")
	if p.Limit != DefaultLimit {
		t.Errorf("limit = %d, want %d", p.Limit, DefaultLimit)
	}
	if p.Offset != 0 {
		t.Errorf("offset = %d, want 0", p.Offset)
	}
}

func TestFromContextClampsLimit(t *testing.T) {
	p := paramsFor(t, "?limit=5000")
	if p.Limit != MaxLimit {
		t.Errorf("limit = %d, want %d", p.Limit, MaxLimit)
	}
}

func TestFromContextNegativeValues(t *testing.T) {
	p := paramsFor(t, "?limit=-3&offset=-10")
	if p.Limit != DefaultLimit {
		t.Errorf("limit = %d, want %d", p.Limit, DefaultLimit)
	}
	if p.Offset != 0 {
		t.Errorf("offset = %d, want 0", p.Offset)
	}
}

func TestNewResponseHasMore(t *testing.T) {
	resp := NewResponse([]string{"a", "b"}, 50, 20, 0)
	if !resp.HasMore {
		t.Error("expected HasMore for total 50 at offset 0")
	}
	resp = NewResponse([]string{"a"}, 50, 20, 40)
	if resp.HasMore {
		t.Error("expected no more results at offset 40 of 50")
	}
}

func TestLinks(t *testing.T) {
	p := Params{Limit: 20, Offset: 20}
	links := p.Links("/api/v1/pos/sessions/s1/medicines", 100)

	if len(links) != 3 {
		t.Fatalf("expected self/next/previous links, got %d", len(links))
	}
	if links[0].Relation != "self" {
		t.Errorf("first link relation = %q, want self", links[0].Relation)
	}
	if links[1].URL != "/api/v1/pos/sessions/s1/medicines?offset=40&limit=20" {
		t.Errorf("next url = %q", links[1].URL)
	}
	if links[2].URL != "/api/v1/pos/sessions/s1/medicines?offset=0&limit=20" {
		t.Errorf("previous url = %q", links[2].URL)
	}
}

func TestPreviousOffsetFloorsAtZero(t *testing.T) {
	p := Params{Limit: 20, Offset: 10}
	if got := p.PreviousOffset(); got != 0 {
		t.Errorf("previous offset = %d, want 0", got)
	}
}
