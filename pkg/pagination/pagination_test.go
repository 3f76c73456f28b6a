package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(target string) Params {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return FromContext(e.NewContext(req, rec))
}

func TestFromContext_Defaults(t *testing.T) {
	p := paramsFor("/")
	if p.Limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, p.Limit)
	}
	if p.Offset != 0 {
		t.Errorf("expected offset 0, got %d", p.Offset)
	}
}

func TestFromContext_Explicit(t *testing.T) {
	p := paramsFor("/?limit=5&offset=15")
	if p.Limit != 5 || p.Offset != 15 {
		t.Errorf("unexpected params: %+v", p)
	}
}

func TestFromContext_ClampsLimit(t *testing.T) {
	p := paramsFor("/?limit=5000")
	if p.Limit != MaxLimit {
		t.Errorf("expected limit clamped to %d, got %d", MaxLimit, p.Limit)
	}
}

func TestFromContext_NegativeValues(t *testing.T) {
	p := paramsFor("/?limit=-1&offset=-9")
	if p.Limit != DefaultLimit || p.Offset != 0 {
		t.Errorf("unexpected params: %+v", p)
	}
}

func TestNewPage_HasMore(t *testing.T) {
	page := NewPage([]int{1, 2, 3}, 50, Params{Limit: 3, Offset: 0})
	if !page.HasMore {
		t.Error("expected has_more for partial page")
	}
	page = NewPage([]int{1}, 1, Params{Limit: 20, Offset: 0})
	if page.HasMore {
		t.Error("expected no more results")
	}
}

func TestSlice_Clamps(t *testing.T) {
	cases := []struct {
		p      Params
		n      int
		lo, hi int
	}{
		{Params{Limit: 10, Offset: 0}, 5, 0, 5},
		{Params{Limit: 2, Offset: 2}, 5, 2, 4},
		{Params{Limit: 10, Offset: 50}, 5, 5, 5},
	}
	for _, tc := range cases {
		lo, hi := tc.p.Slice(tc.n)
		if lo != tc.lo || hi != tc.hi {
			t.Errorf("Slice(%d) with %+v = (%d,%d), want (%d,%d)", tc.n, tc.p, lo, hi, tc.lo, tc.hi)
		}
	}
}
