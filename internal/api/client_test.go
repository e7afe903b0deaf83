package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type seenRequest struct {
	method string
	path   string
	query  string
	auth   string
	body   string
}

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *[]seenRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []seenRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, seenRequest{r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("Authorization"), string(body)})
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/api", StaticToken("t0ken"), WithLogger(zerolog.Nop()))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c, &seen
}

func TestEveryVerbCarriesBearerToken(t *testing.T) {
	c, seen := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": 1}`))
	})
	ctx := context.Background()

	if err := c.Get(ctx, "firms/1/", nil, nil); err != nil {
		t.Fatal(err)
	}
	if err := c.Post(ctx, "firms/", map[string]any{"name": "A"}, nil); err != nil {
		t.Fatal(err)
	}
	if err := c.Put(ctx, "firms/1/", map[string]any{"name": "B"}, nil); err != nil {
		t.Fatal(err)
	}
	if err := c.Patch(ctx, "firms/1/", map[string]any{"name": "C"}, nil); err != nil {
		t.Fatal(err)
	}
	if err := c.Delete(ctx, "firms/1/"); err != nil {
		t.Fatal(err)
	}

	if len(*seen) != 5 {
		t.Fatalf("expected 5 requests, got %d", len(*seen))
	}
	for _, r := range *seen {
		if r.auth != "Bearer t0ken" {
			t.Fatalf("%s %s auth = %q", r.method, r.path, r.auth)
		}
		if !strings.HasPrefix(r.path, "/api/firms/") {
			t.Fatalf("unexpected path %s", r.path)
		}
	}
	if (*seen)[3].method != http.MethodPatch || (*seen)[3].body != `{"name":"C"}` {
		t.Fatalf("patch request = %+v", (*seen)[3])
	}
}

func TestGetCollectionNormalizesEnvelope(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bare array", `[{"id":1,"name":"A"},{"id":2,"name":"B"}]`},
		{"data envelope", `{"data":[{"id":1,"name":"A"},{"id":2,"name":"B"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, seen := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			items, err := c.GetCollection(context.Background(), "documents/", map[string][]string{"type": {"sale"}})
			if err != nil {
				t.Fatalf("get collection: %v", err)
			}
			if len(items) != 2 || items[1]["name"] != "B" {
				t.Fatalf("items = %v", items)
			}
			if (*seen)[0].query != "type=sale" {
				t.Fatalf("query = %q", (*seen)[0].query)
			}
		})
	}
}

func TestGetObjectUnwrapsDataEnvelope(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"id":5,"name":"Shop"}}`))
	})
	obj, err := c.GetObject(context.Background(), "companies/5/", nil)
	if err != nil {
		t.Fatal(err)
	}
	if obj["name"] != "Shop" {
		t.Fatalf("obj = %v", obj)
	}
}

func TestErrorsCarryServerMessage(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"detail", http.StatusNotFound, `{"detail":"Not found."}`, "Not found."},
		{"field errors", http.StatusBadRequest, `{"name":["This field is required."],"vat_type":["Invalid choice."]}`, "name: This field is required.; vat_type: Invalid choice."},
		{"generic", http.StatusInternalServerError, `<html>boom</html>`, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			err := c.Get(context.Background(), "firms/9/", nil, nil)
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if apiErr.Status != tt.status || apiErr.Message != tt.message {
				t.Fatalf("error = %+v", apiErr)
			}
			if got := errors.Is(err, ErrNotFound); got != (tt.status == http.StatusNotFound) {
				t.Fatalf("errors.Is(ErrNotFound) = %v", got)
			}
		})
	}
}

func TestNoRetryOnFailure(t *testing.T) {
	c, seen := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	if err := c.Get(context.Background(), "firms/", nil, nil); err == nil {
		t.Fatal("expected error")
	}
	if len(*seen) != 1 {
		t.Fatalf("expected a single attempt, got %d", len(*seen))
	}
}

func TestUnexpectedShape(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	})
	_, err := c.GetCollection(context.Background(), "firms/", nil)
	if !errors.Is(err, ErrUnexpectedShape) {
		t.Fatalf("err = %v", err)
	}
}

func TestFileTokenRereadsAfterExpiry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("first\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	src := &fileTokenSource{path: path, ttl: time.Minute, now: func() time.Time { return now }}

	tok, err := src.Token()
	if err != nil {
		t.Fatal(err)
	}
	if tok.AccessToken != "first" || !tok.Expiry.Equal(now.Add(time.Minute)) {
		t.Fatalf("token = %+v", tok)
	}

	if err := os.WriteFile(path, []byte("second"), 0o600); err != nil {
		t.Fatal(err)
	}
	tok, err = src.Token()
	if err != nil {
		t.Fatal(err)
	}
	if tok.AccessToken != "second" {
		t.Fatalf("token = %q", tok.AccessToken)
	}

	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := src.Token(); err == nil {
		t.Fatal("expected error for empty token file")
	}
}

func TestNewRequiresTokenSource(t *testing.T) {
	if _, err := New("http://erp.local/api/", nil); err == nil {
		t.Fatal("expected error")
	}
	if _, err := New("erp.local", StaticToken("x")); err == nil {
		t.Fatal("expected error for relative url")
	}
}
