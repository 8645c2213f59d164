package pagination

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, target string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return FromContext(e.NewContext(req, httptest.NewRecorder()))
}

func TestFromContext(t *testing.T) {
	tests := []struct {
		target     string
		wantLimit  int
		wantOffset int
	}{
		{"/", DefaultLimit, 0},
		{"/?limit=50&offset=10", 50, 10},
		{"/?limit=500", MaxLimit, 0},
		{"/?limit=-3&offset=-7", DefaultLimit, 0},
		{"/?limit=10&page=3", 10, 20},
		{"/?limit=10&page=3&offset=5", 10, 5},
		{"/?page=abc", DefaultLimit, 0},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			p := paramsFor(t, tt.target)
			if p.Limit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", p.Limit, tt.wantLimit)
			}
			if p.Offset != tt.wantOffset {
				t.Errorf("offset = %d, want %d", p.Offset, tt.wantOffset)
			}
		})
	}
}

func TestNewResponse_HasMore(t *testing.T) {
	if r := NewResponse([]string{}, 45, 20, 20); !r.HasMore {
		t.Error("expected HasMore on page 2 of 3")
	}
	if r := NewResponse([]string{}, 45, 20, 40); r.HasMore {
		t.Error("expected no more results on the last page")
	}
}

func TestResponse_WithNext(t *testing.T) {
	u, _ := url.Parse("/api/v1/patients?active=true&page=1&limit=20")

	r := NewResponse(nil, 45, 20, 0).WithNext(u)
	want := "/api/v1/patients?active=true&limit=20&offset=20"
	if r.Next != want {
		t.Errorf("Next = %q, want %q", r.Next, want)
	}

	last := NewResponse(nil, 45, 20, 40).WithNext(u)
	if last.Next != "" {
		t.Errorf("expected empty Next on last page, got %q", last.Next)
	}
}

func TestParams_HasNext(t *testing.T) {
	tests := []struct {
		p     Params
		total int
		want  bool
	}{
		{Params{Limit: 10, Offset: 0}, 11, true},
		{Params{Limit: 10, Offset: 0}, 10, false},
		{Params{Limit: 20, Offset: 40}, 45, false},
		{Params{Limit: 20, Offset: 0}, 0, false},
	}
	for _, tt := range tests {
		if got := tt.p.HasNext(tt.total); got != tt.want {
			t.Errorf("%+v.HasNext(%d) = %v, want %v", tt.p, tt.total, got, tt.want)
		}
		if got := NewResponse(nil, tt.total, tt.p.Limit, tt.p.Offset).HasMore; got != tt.want {
			t.Errorf("NewResponse HasMore for %+v total %d = %v, want %v", tt.p, tt.total, got, tt.want)
		}
	}
}
