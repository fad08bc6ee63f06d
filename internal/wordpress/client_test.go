package wordpress

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

type fakeSite struct {
	t        *testing.T
	srv      *httptest.Server
	calls    atomic.Int32
	lastBody atomic.Value
	handler  func(w http.ResponseWriter, r *http.Request)
}

func newFakeSite(t *testing.T, h func(w http.ResponseWriter, r *http.Request)) *fakeSite {
	t.Helper()
	fs := &fakeSite{t: t, handler: h}
	fs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.calls.Add(1)
		if got := r.Header.Get("Authorization"); got != BasicAuth("admin", "abcd efgh") {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		if r.Body != nil {
			b, _ := io.ReadAll(r.Body)
			fs.lastBody.Store(string(b))
		}
		fs.handler(w, r)
	}))
	t.Cleanup(fs.srv.Close)
	return fs
}

func (fs *fakeSite) creds() Credentials {
	// Trailing slash must be stripped once.
	return Credentials{WPURL: fs.srv.URL + "/", Username: "admin", AppPassword: "abcd efgh"}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestBasicAuth(t *testing.T) {
	if got := BasicAuth("admin", "pass"); got != "Basic YWRtaW46cGFzcw==" {
		t.Fatalf("BasicAuth = %q", got)
	}
}

func TestValidateConnection(t *testing.T) {
	ok := newFakeSite(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/wp/v2/users/me" || r.URL.Query().Get("context") != "edit" {
			t.Errorf("unexpected request %s", r.URL)
		}
		writeJSON(w, map[string]any{"id": 1})
	})
	if !New(nil).ValidateConnection(context.Background(), ok.creds()) {
		t.Fatalf("expected valid connection")
	}

	denied := newFakeSite(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"rest_not_logged_in"}`))
	})
	if New(nil).ValidateConnection(context.Background(), denied.creds()) {
		t.Fatalf("expected invalid connection on 401")
	}

	unreachable := Credentials{WPURL: "http://127.0.0.1:1", Username: "admin", AppPassword: "x"}
	if New(nil).ValidateConnection(context.Background(), unreachable) {
		t.Fatalf("expected invalid connection on transport failure")
	}
}

func TestListCategories(t *testing.T) {
	fs := newFakeSite(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/wp-json/wp/v2/product_cat" || q.Get("per_page") != "100" || q.Get("context") != "edit" {
			t.Errorf("unexpected request %s", r.URL)
		}
		writeJSON(w, []map[string]any{
			{"id": 1, "name": "Sacs", "slug": "sacs"},
			{"id": 2, "name": "Chaussures", "slug": "chaussures"},
		})
	})

	cats, err := New(nil).ListCategories(context.Background(), fs.creds())
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(cats) != 2 || cats[0].Name != "Sacs" || cats[1].Slug != "chaussures" {
		t.Fatalf("unexpected categories: %+v", cats)
	}
}

func TestListCategories_APIError(t *testing.T) {
	fs := newFakeSite(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"code":"rest_forbidden"}`))
	})

	_, err := New(nil).ListCategories(context.Background(), fs.creds())
	apiErr, ok := IsAPIError(err)
	if !ok {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusForbidden || apiErr.StatusText != "Forbidden" || !strings.Contains(apiErr.Body, "rest_forbidden") {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
	if !strings.Contains(err.Error(), "Forbidden") {
		t.Fatalf("error text should carry the status text: %q", err.Error())
	}
}

func TestEmptySuccessBody_DecodesToZeroValue(t *testing.T) {
	fs := newFakeSite(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	cats, err := New(nil).ListCategories(context.Background(), fs.creds())
	if err != nil || len(cats) != 0 {
		t.Fatalf("expected empty result, got (%v, %v)", cats, err)
	}
}

func searchSite(t *testing.T, hits []map[string]any, full map[string]any) *fakeSite {
	return newFakeSite(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/wp-json/wp/v2/product_cat" && r.URL.Query().Has("search"):
			writeJSON(w, hits)
		case strings.HasPrefix(r.URL.Path, "/wp-json/wp/v2/product_cat/"):
			if r.URL.Query().Get("context") != "edit" {
				t.Errorf("detail fetch without edit context: %s", r.URL)
			}
			writeJSON(w, full)
		default:
			t.Errorf("unexpected request %s", r.URL)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func TestLookup_CaseInsensitiveExactMatch(t *testing.T) {
	hits := []map[string]any{
		{"id": 7, "name": "Sacs à main"},
		{"id": 3, "name": "Sacs"},
	}
	full := map[string]any{
		"id": 3, "name": "Sacs", "slug": "sacs", "description": "Tous nos sacs",
		"yoast_head_json":      map[string]any{"title": "Sacs - Boutique", "description": "Nos sacs"},
		"_yoast_wpseo_focuskw": "sac cuir",
	}
	fs := searchSite(t, hits, full)

	res := New(nil).Lookup(context.Background(), fs.creds(), "sacs")
	if res.Status != Found || res.Category == nil {
		t.Fatalf("expected Found, got %+v", res)
	}
	c := res.Category
	if c.ID != 3 || c.SEOTitle() != "Sacs - Boutique" || c.SEODescription() != "Nos sacs" || c.YoastFocusKW != "sac cuir" {
		t.Fatalf("unexpected category: %+v", c)
	}
	if n := fs.calls.Load(); n != 2 {
		t.Fatalf("expected search + detail fetch, got %d calls", n)
	}
}

func TestLookup_PartialMatchIsNotFound(t *testing.T) {
	fs := searchSite(t, []map[string]any{{"id": 7, "name": "Sacs à main"}}, nil)

	res := New(nil).Lookup(context.Background(), fs.creds(), "sacs")
	if res.Status != NotFound || res.Category != nil {
		t.Fatalf("expected NotFound, got %+v", res)
	}
	if n := fs.calls.Load(); n != 1 {
		t.Fatalf("no detail fetch expected, got %d calls", n)
	}
}

func TestLookup_SearchIsQueryEscaped(t *testing.T) {
	fs := newFakeSite(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("search"); got != "Sacs & Co" {
			t.Errorf("search = %q", got)
		}
		writeJSON(w, []any{})
	})
	if res := New(nil).Lookup(context.Background(), fs.creds(), "Sacs & Co"); res.Status != NotFound {
		t.Fatalf("expected NotFound, got %+v", res)
	}
}

func TestLookup_FailureIsTyped_AndFindReturnsNil(t *testing.T) {
	fs := newFakeSite(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c := New(nil)

	res := c.Lookup(context.Background(), fs.creds(), "Sacs")
	if res.Status != Failed || res.Err == nil {
		t.Fatalf("expected Failed with error, got %+v", res)
	}
	if got := c.FindCategoryByName(context.Background(), fs.creds(), "Sacs"); got != nil {
		t.Fatalf("expected nil on failure, got %+v", got)
	}
}

func TestUpdateCategory_SendsOnlySetFields(t *testing.T) {
	fs := newFakeSite(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/wp-json/wp/v2/product_cat/3" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
		}
		writeJSON(w, map[string]any{"id": 3, "name": "Sacs", "description": ""})
	})

	empty := ""
	title := "Nouveau titre"
	got, err := New(nil).UpdateCategory(context.Background(), fs.creds(), 3, CategoryUpdate{
		Description: &empty,
		YoastTitle:  &title,
	})
	if err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}
	if got.ID != 3 {
		t.Fatalf("unexpected response: %+v", got)
	}
	body, _ := fs.lastBody.Load().(string)
	want := `{"description":"","_yoast_wpseo_title":"Nouveau titre"}`
	if body != want {
		t.Fatalf("body = %s; want %s", body, want)
	}
}

func TestUpdateCategory_Error(t *testing.T) {
	fs := newFakeSite(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"rest_invalid_param"}`))
	})
	name := "x"
	_, err := New(nil).UpdateCategory(context.Background(), fs.creds(), 3, CategoryUpdate{Name: &name})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 APIError, got %v", err)
	}
}

func TestCategoryUpdate_Empty(t *testing.T) {
	if !(CategoryUpdate{}).Empty() {
		t.Fatalf("zero update must be empty")
	}
	s := ""
	if (CategoryUpdate{Description: &s}).Empty() {
		t.Fatalf("set-but-empty description is a change")
	}
}
