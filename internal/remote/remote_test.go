package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/maruel/propertyhub/internal/records"
)

var testDefs = []records.TableDef{
	{Name: "property"},
	{Name: "saved_property", Unique: []string{"propertyId"}},
}

func newTestClient(t *testing.T, key []byte) (*Client, *records.Memory) {
	t.Helper()
	mem := records.NewMemory(testDefs, 0)
	srv := httptest.NewServer(NewHandler(mem, "proj", key))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "proj", key, 0), mem
}

func TestClient_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, []byte("secret"))

	res, err := c.Create(ctx, "property", []records.Record{
		{"title": "a", "price": 2},
		{"title": "b", "price": 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 2 || !res[0].OK || res[1].Data.ID() != 2 {
		t.Fatalf("unexpected results %+v", res)
	}

	all, err := c.Fetch(ctx, "property", records.Query{OrderBy: []records.Order{{Field: "price", Type: records.Asc}}})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0]["title"] != "b" {
		t.Fatalf("unexpected fetch %v", all)
	}

	got, err := c.Get(ctx, "property", 1, []string{"price"})
	if err != nil {
		t.Fatal(err)
	}
	if got["price"] != 2.0 || got["title"] != nil {
		t.Errorf("unexpected projection %v", got)
	}
	missing, err := c.Get(ctx, "property", 99, nil)
	if err != nil || missing != nil {
		t.Errorf("Get(missing) = %v, %v", missing, err)
	}

	up, err := c.Update(ctx, "property", []records.Record{{"Id": 1, "title": "z"}})
	if err != nil || !up[0].OK {
		t.Fatalf("update: %+v, %v", up, err)
	}
	del, err := c.Delete(ctx, "property", []int64{1, 7})
	if err != nil {
		t.Fatal(err)
	}
	if !del[0].OK || del[1].OK {
		t.Errorf("unexpected delete results %+v", del)
	}
}

func TestClient_Conflict(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, nil)
	res, err := c.Create(ctx, "saved_property", []records.Record{{"propertyId": 1}, {"propertyId": 1}})
	if err != nil {
		t.Fatal(err)
	}
	if !res[1].Conflict {
		t.Errorf("expected conflict, got %+v", res[1])
	}
}

func TestClient_RemoteError(t *testing.T) {
	c, _ := newTestClient(t, nil)
	_, err := c.Fetch(context.Background(), "nope", records.Query{})
	var re *records.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if re.Message != `unknown table "nope"` {
		t.Errorf("message = %q", re.Message)
	}
}

func TestHandler_Auth(t *testing.T) {
	mem := records.NewMemory(testDefs, 0)
	srv := httptest.NewServer(NewHandler(mem, "proj", []byte("secret")))
	defer srv.Close()

	tests := []struct {
		name   string
		client *Client
	}{
		{"no token", NewClient(srv.URL, "proj", nil, 0)},
		{"wrong key", NewClient(srv.URL, "proj", []byte("other"), 0)},
		{"wrong project", NewClient(srv.URL, "other", []byte("secret"), 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.client.Fetch(context.Background(), "property", records.Query{})
			var re *records.RemoteError
			if !errors.As(err, &re) {
				t.Fatalf("expected RemoteError, got %v", err)
			}
		})
	}

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/records/property/1", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestToken_Expired(t *testing.T) {
	key := []byte("k")
	tok, err := signToken("p", key, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if err := verifyToken(tok, "p", key); !errors.Is(err, errInvalidToken) {
		t.Errorf("expected errInvalidToken, got %v", err)
	}
}

func TestClient_Throttle(t *testing.T) {
	mem := records.NewMemory(testDefs, 0)
	srv := httptest.NewServer(NewHandler(mem, "proj", nil))
	defer srv.Close()
	c := NewClient(srv.URL, "proj", nil, 50*time.Millisecond)
	start := time.Now()
	for range 3 {
		if _, err := c.Fetch(context.Background(), "property", records.Query{}); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("3 throttled requests took %v", elapsed)
	}
}
