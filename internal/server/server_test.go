package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/modhearth/modhearth/internal/core"
	"github.com/modhearth/modhearth/internal/core/registry"
	"github.com/modhearth/modhearth/internal/server/handlers"
)

type fakeModService struct {
	searchResult *core.SearchResult
	searchErr    error
	mod          *core.Mod
	modErr       error
	categories   []core.Category

	lastQuery registry.SearchQuery
}

func (f *fakeModService) SearchMods(_ context.Context, q registry.SearchQuery) (*core.SearchResult, error) {
	f.lastQuery = q
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResult, nil
}

func (f *fakeModService) GetMod(_ context.Context, id int64) (*core.Mod, error) {
	if f.modErr != nil {
		return nil, f.modErr
	}
	return f.mod, nil
}

func (f *fakeModService) GetCategories(_ context.Context) ([]core.Category, error) {
	return f.categories, nil
}

type fakeRateLimits struct {
	statuses []*core.RateLimitStatus
}

func (f *fakeRateLimits) ListRateLimitStatuses(_ context.Context) ([]*core.RateLimitStatus, error) {
	return f.statuses, nil
}

func newTestServer(mods ModService) *Server {
	return New("127.0.0.1", 0, Options{
		Mods:       mods,
		RateLimits: &fakeRateLimits{},
		Health:     handlers.NewHealthManager("test"),
	})
}

func doRequest(t *testing.T, srv *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestSearchEndpoint(t *testing.T) {
	mods := &fakeModService{searchResult: &core.SearchResult{
		Items:      []core.Mod{{ID: 1, Name: "Botania"}},
		TotalCount: 1,
	}}
	srv := newTestServer(mods)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/mods/search?q=botania&category=420&sort=downloads&order=asc&page=2&pageSize=10")
	require.Equal(t, http.StatusOK, rec.Code)

	var result core.SearchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Items, 1)

	require.Equal(t, "botania", mods.lastQuery.Text)
	require.Equal(t, int64(420), mods.lastQuery.CategoryID)
	require.Equal(t, core.SortFieldDownloads, mods.lastQuery.Sort)
	require.Equal(t, core.SortAsc, mods.lastQuery.Order)
	require.Equal(t, 2, mods.lastQuery.Page)
	require.Equal(t, 10, mods.lastQuery.PageSize)
}

func TestSearchEndpointRejectsBadParams(t *testing.T) {
	srv := newTestServer(&fakeModService{searchResult: &core.SearchResult{}})

	for _, target := range []string{
		"/api/v1/mods/search?category=abc",
		"/api/v1/mods/search?sort=banana",
		"/api/v1/mods/search?order=sideways",
		"/api/v1/mods/search?page=0",
		"/api/v1/mods/search?pageSize=-1",
	} {
		rec := doRequest(t, srv, http.MethodGet, target)
		require.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestGetModEndpoint(t *testing.T) {
	srv := newTestServer(&fakeModService{mod: &core.Mod{ID: 42, Name: "Waystones"}})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/mods/42")
	require.Equal(t, http.StatusOK, rec.Code)

	var mod core.Mod
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mod))
	require.Equal(t, "Waystones", mod.Name)
}

func TestGetModEndpointRejectsBadID(t *testing.T) {
	srv := newTestServer(&fakeModService{})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/mods/banana")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"NotFound", &registry.NotFoundError{Path: "/v1/mods/99"}, http.StatusNotFound, "not_found"},
		{"Auth", &registry.AuthenticationError{Message: "bad key"}, http.StatusBadGateway, "registry_auth"},
		{"Forbidden", &registry.ForbiddenError{Path: "/v1/mods/1"}, http.StatusBadGateway, "registry_forbidden"},
		{"RateLimit", &registry.RateLimitError{RetryAfter: 30 * time.Second}, http.StatusServiceUnavailable, "registry_rate_limited"},
		{"Timeout", &registry.TimeoutError{Attempts: 4}, http.StatusGatewayTimeout, "registry_timeout"},
		{"Network", &registry.NetworkError{Attempts: 4, Err: errors.New("refused")}, http.StatusBadGateway, "registry_unreachable"},
		{"API", &registry.APIError{StatusCode: 500}, http.StatusBadGateway, "registry_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(&fakeModService{modErr: tc.err})

			rec := doRequest(t, srv, http.MethodGet, "/api/v1/mods/42")
			require.Equal(t, tc.wantStatus, rec.Code)

			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tc.wantCode, body.Error.Code)
			require.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestRateLimitErrorSetsRetryAfterHeader(t *testing.T) {
	srv := newTestServer(&fakeModService{modErr: &registry.RateLimitError{RetryAfter: 30 * time.Second}})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/mods/42")
	require.Equal(t, "30", rec.Header().Get("Retry-After"))
}

func TestCredentialGuidanceNeverBlamesCaller(t *testing.T) {
	srv := newTestServer(&fakeModService{modErr: &registry.AuthenticationError{Message: "rejected"}})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/mods/42")
	require.GreaterOrEqual(t, rec.Code, 500, "upstream credential problems are server-side errors")

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Contains(t, body.Error.Message, "reconfigure")
}

func TestCategoriesEndpoint(t *testing.T) {
	srv := newTestServer(&fakeModService{categories: []core.Category{{ID: 420, Name: "Storage"}}})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/categories")
	require.Equal(t, http.StatusOK, rec.Code)

	var categories []core.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &categories))
	require.Len(t, categories, 1)
}

func TestRateLimitEndpointEmpty(t *testing.T) {
	srv := newTestServer(&fakeModService{})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/ratelimit")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "[]", rec.Body.String())
}

func TestUnknownRouteReturnsJSONEnvelope(t *testing.T) {
	srv := newTestServer(&fakeModService{})

	rec := doRequest(t, srv, http.MethodGet, "/nope")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "not_found", body.Error.Code)
}

func TestRequestIDHeaderEchoed(t *testing.T) {
	srv := newTestServer(&fakeModService{searchResult: &core.SearchResult{}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/mods/search", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}
