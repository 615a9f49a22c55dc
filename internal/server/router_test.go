package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/maruel/propertyhub/internal/config"
	"github.com/maruel/propertyhub/internal/listing"
	"github.com/maruel/propertyhub/internal/records"
	"github.com/maruel/propertyhub/internal/remote"
	"github.com/maruel/propertyhub/internal/seed"
	"github.com/maruel/propertyhub/internal/server/dto"
	"github.com/maruel/propertyhub/internal/server/ratelimit"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type testServer struct {
	*httptest.Server
	store records.Store
}

func newTestServer(t *testing.T, mutate func(*config.ServerConfig, *Options)) *testServer {
	t.Helper()
	store := records.NewMemory(listing.Tables(), 0)
	ds, err := seed.Default()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := seed.Populate(context.Background(), store, ds); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.JWTSecret = testSecret
	opts := &Options{Browser: listing.NewBrowser(store), Config: &cfg, Version: "test", StoreName: "memory"}
	if mutate != nil {
		mutate(&cfg, opts)
	}
	srv := httptest.NewServer(NewRouter(opts))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, store: store}
}

func (s *testServer) do(t *testing.T, method, path, body string, hdr map[string]string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(t.Context(), method, s.URL+path, r)
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	resp, err := s.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, b
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
	return v
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t, nil)
	resp, body := s.do(t, "GET", "/api/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	h := decode[dto.HealthResponse](t, body)
	if h.Status != "ok" || h.Version != "test" || h.Store != "memory" {
		t.Errorf("health = %+v", h)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestRouter_Search(t *testing.T) {
	s := newTestServer(t, nil)
	tests := []struct {
		name   string
		query  string
		status int
		count  int
		active int
	}{
		{"all", "", http.StatusOK, 12, 0},
		{"repeated type", "?type=Condo&type=Villa", http.StatusOK, 4, 1},
		{"text and bound", "?q=austin&priceMin=0", http.StatusOK, 1, 1},
		{"sorted", "?sort=size-large&bedroomsMin=4", http.StatusOK, -1, 1},
		{"bad number", "?priceMin=cheap", http.StatusBadRequest, 0, 0},
		{"inverted range", "?priceMin=10&priceMax=1", http.StatusOK, 0, 1},
		{"unknown sort", "?sort=cheapest", http.StatusBadRequest, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := s.do(t, "GET", "/api/properties"+tt.query, "", nil)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d: %s", resp.StatusCode, tt.status, body)
			}
			if tt.status != http.StatusOK {
				e := decode[dto.ErrorResponse](t, body)
				if e.Error.Code == "" {
					t.Errorf("missing error code: %s", body)
				}
				return
			}
			res := decode[dto.SearchResponse](t, body)
			if tt.count >= 0 && len(res.Properties) != tt.count {
				t.Errorf("len = %d, want %d", len(res.Properties), tt.count)
			}
			if res.ActiveFilters != tt.active {
				t.Errorf("ActiveFilters = %d, want %d", res.ActiveFilters, tt.active)
			}
			if res.Total != 12 {
				t.Errorf("Total = %d", res.Total)
			}
		})
	}
}

func TestRouter_UnknownSortCode(t *testing.T) {
	s := newTestServer(t, nil)
	_, body := s.do(t, "GET", "/api/properties?sort=cheapest", "", nil)
	if e := decode[dto.ErrorResponse](t, body); e.Error.Code != dto.ErrorCodeInvalidInput {
		t.Errorf("code = %s", e.Error.Code)
	}
}

func TestRouter_PropertyLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	resp, body := s.do(t, "POST", "/api/properties", `{"title":"Tiny Cabin","price":99000,"squareFeet":300}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create: %d %s", resp.StatusCode, body)
	}
	created := decode[dto.Property](t, body)

	path := "/api/properties/13"
	if created.ID != 13 {
		t.Fatalf("id = %d", created.ID)
	}
	resp, body = s.do(t, "PATCH", path, `{"price":120000}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: %d %s", resp.StatusCode, body)
	}
	if p := decode[dto.Property](t, body); p.Price != 120000 || p.PriceLabel != "$120,000" {
		t.Errorf("updated = %+v", p)
	}
	resp, body = s.do(t, "GET", path, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: %d %s", resp.StatusCode, body)
	}
	if d := decode[dto.PropertyDetailResponse](t, body); d.PricePerSquareFoot != 400 {
		t.Errorf("detail = %+v", d)
	}
	if resp, _ = s.do(t, "DELETE", path, "", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: %d", resp.StatusCode)
	}
	if resp, _ = s.do(t, "GET", path, "", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete: %d", resp.StatusCode)
	}
}

func TestRouter_BadRequests(t *testing.T) {
	s := newTestServer(t, func(cfg *config.ServerConfig, _ *Options) {
		cfg.MaxRequestBodyBytes = 64
	})
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   dto.ErrorCode
	}{
		{"unknown field", "POST", "/api/properties", `{"title":"x","colour":"red"}`, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{"missing title", "POST", "/api/properties", `{"price":1}`, http.StatusBadRequest, dto.ErrorCodeMissingField},
		{"too large", "POST", "/api/properties", `{"title":"` + strings.Repeat("x", 100) + `"}`, http.StatusRequestEntityTooLarge, dto.ErrorCodePayloadTooLarge},
		{"bad id", "GET", "/api/properties/abc", "", http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{"missing listing", "GET", "/api/properties/999", "", http.StatusNotFound, dto.ErrorCodeNotFound},
		{"unknown route", "GET", "/api/nope", "", http.StatusNotFound, dto.ErrorCodeNotFound},
		{"unsave unsaved", "DELETE", "/api/saved/1", "", http.StatusNotFound, dto.ErrorCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := s.do(t, tt.method, tt.path, tt.body, nil)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d: %s", resp.StatusCode, tt.status, body)
			}
			if e := decode[dto.ErrorResponse](t, body); e.Error.Code != tt.code {
				t.Errorf("code = %s, want %s", e.Error.Code, tt.code)
			}
		})
	}
}

func TestRouter_Saved(t *testing.T) {
	s := newTestServer(t, nil)
	resp, body := s.do(t, "POST", "/api/saved/7/toggle", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("toggle: %d %s", resp.StatusCode, body)
	}
	if st := decode[dto.SavedStateResponse](t, body); !st.IsSaved || st.Count != 3 {
		t.Errorf("state = %+v", st)
	}
	_, body = s.do(t, "GET", "/api/saved", "", nil)
	if v := decode[dto.SavedListResponse](t, body); v.Count != 3 {
		t.Errorf("saved = %+v", v)
	}
	_, body = s.do(t, "GET", "/api/map?type=House", "", nil)
	m := decode[dto.MapResponse](t, body)
	saved := 0
	for _, mk := range m.Markers {
		if mk.Saved {
			saved++
		}
	}
	if len(m.Markers) != 3 || saved != 1 {
		t.Errorf("markers = %+v", m.Markers)
	}
}

func TestRouter_RequireAuth(t *testing.T) {
	s := newTestServer(t, func(cfg *config.ServerConfig, _ *Options) {
		cfg.RequireAuth = true
	})
	good, err := NewToken(testSecret, "agent", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	expired, err := NewToken(testSecret, "agent", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	other, err := NewToken([]byte("another secret of at least 32 bytes!"), "agent", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name   string
		header string
		status int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + good, http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong key", "Bearer " + other, http.StatusUnauthorized},
		{"valid", "Bearer " + good, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hdr := map[string]string{}
			if tt.header != "" {
				hdr["Authorization"] = tt.header
			}
			resp, body := s.do(t, "POST", "/api/saved/2", "", hdr)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d: %s", resp.StatusCode, tt.status, body)
			}
		})
	}
	// Reads stay public.
	if resp, _ := s.do(t, "GET", "/api/saved", "", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("read status = %d", resp.StatusCode)
	}
}

func TestRouter_RateLimit(t *testing.T) {
	tiers := ratelimit.NewTiers(config.RateLimits{ReadRatePerMin: 1, WriteRatePerMin: 1})
	defer tiers.Close()
	s := newTestServer(t, func(_ *config.ServerConfig, opts *Options) {
		opts.Tiers = tiers
	})
	resp, _ := s.do(t, "GET", "/api/catalog", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first: %d", resp.StatusCode)
	}
	if resp.Header.Get("X-RateLimit-Limit") != "1" {
		t.Errorf("limit header = %q", resp.Header.Get("X-RateLimit-Limit"))
	}
	resp, body := s.do(t, "GET", "/api/catalog", "", nil)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second: %d", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
	if e := decode[dto.ErrorResponse](t, body); e.Error.Code != dto.ErrorCodeRateLimitExceeded {
		t.Errorf("code = %s", e.Error.Code)
	}
	// Health is never throttled.
	for range 3 {
		if resp, _ := s.do(t, "GET", "/api/health", "", nil); resp.StatusCode != http.StatusOK {
			t.Fatalf("health: %d", resp.StatusCode)
		}
	}
}

func TestRouter_Records(t *testing.T) {
	s := newTestServer(t, func(_ *config.ServerConfig, opts *Options) {
		store := records.NewMemory(listing.Tables(), 0)
		opts.Records = remote.NewHandler(store, "hub", testSecret)
	})
	// The record protocol authenticates every call.
	resp, _ := s.do(t, "POST", "/records/property/fetch", "{}", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d", resp.StatusCode)
	}
	client := remote.NewClient(s.URL, "hub", testSecret, 0)
	res, err := client.Create(t.Context(), listing.TableProperty, []records.Record{{"title": "Remote"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 || !res[0].OK {
		t.Fatalf("results = %+v", res)
	}
}

func TestPopulateQueryParams(t *testing.T) {
	type input struct {
		Name  string   `query:"name"`
		N     *int     `query:"n"`
		F     *float64 `query:"f"`
		Tags  []string `query:"tag"`
		IDs   []int64  `query:"id"`
		On    bool     `query:"on"`
		Plain int
	}
	r := httptest.NewRequest("GET", "/?name=x&n=0&f=1.5&tag=a&tag=b&id=3&id=4&on=true&Plain=9", nil)
	var in input
	if err := populateQueryParams(r, &in); err != nil {
		t.Fatal(err)
	}
	if in.Name != "x" || in.N == nil || *in.N != 0 || in.F == nil || *in.F != 1.5 || !in.On || in.Plain != 0 {
		t.Errorf("in = %+v", in)
	}
	if len(in.Tags) != 2 || in.Tags[1] != "b" || len(in.IDs) != 2 || in.IDs[1] != 4 {
		t.Errorf("slices = %v %v", in.Tags, in.IDs)
	}
	var empty input
	if err := populateQueryParams(httptest.NewRequest("GET", "/?n=", nil), &empty); err != nil || empty.N != nil {
		t.Errorf("empty value: %v %+v", err, empty)
	}
	if err := populateQueryParams(httptest.NewRequest("GET", "/?id=x", nil), &empty); err == nil {
		t.Error("expected parse error")
	}
}

func TestWriteJSONResponse_PlainError(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSONResponse[dto.HealthResponse](context.Background(), w, nil, io.ErrUnexpectedEOF)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(dto.ErrorCodeInternal)) {
		t.Errorf("body = %s", w.Body)
	}
}
