// Package apitest runs an in-memory fake of the ERP backend for tests.
//
// The fake follows the contract the console relies on: collections under
// /api/<resource>/, items under /api/<resource>/<id>/, bearer
// authentication, {"data": [...]} envelopes on some resources, missing
// item endpoints on others, and the out-of-band document action endpoints.
package apitest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mikelcalvo/erp-admin/internal/api"
)

// Token is the bearer token the fake accepts by default.
const Token = "test-token"

// Request is one call the fake received.
type Request struct {
	Method string
	Path   string // relative to /api/, e.g. "customers/5/"
	Query  url.Values
	Body   map[string]any
	Auth   string
}

// IsWrite reports whether the request mutates data.
func (r Request) IsWrite() bool {
	return r.Method != http.MethodGet
}

type collection struct {
	items       []map[string]any
	enveloped   bool
	noItemGet   bool
	emptyWrites bool
	normalize   func(map[string]any)
}

// CollectionOption tweaks how a seeded collection behaves.
type CollectionOption func(*collection)

// Enveloped answers collection GETs with {"data": [...]}.
func Enveloped() CollectionOption {
	return func(c *collection) { c.enveloped = true }
}

// WithoutItemGet makes GET /<resource>/<id>/ answer 404 for every id.
func WithoutItemGet() CollectionOption {
	return func(c *collection) { c.noItemGet = true }
}

// EmptyWrites answers POST, PUT and PATCH with 204 and no body.
func EmptyWrites() CollectionOption {
	return func(c *collection) { c.emptyWrites = true }
}

// Normalize runs fn on every stored record, the way a backend computes
// or cleans fields on write.
func Normalize(fn func(map[string]any)) CollectionOption {
	return func(c *collection) { c.normalize = fn }
}

type failure struct {
	status int
	body   any
}

// Server is the fake backend.
type Server struct {
	Token string

	engine *gin.Engine
	srv    *httptest.Server

	mu          sync.Mutex
	collections map[string]*collection
	failures    map[string]failure
	requests    []Request
	nextID      int64
}

// New starts a fake backend that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &Server{
		Token:       Token,
		collections: map[string]*collection{},
		failures:    map[string]failure{},
		nextID:      1000,
	}
	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), s.record, s.authenticate, s.inject)
	s.registerRoutes()

	s.srv = httptest.NewServer(s.engine)
	t.Cleanup(s.srv.Close)
	return s
}

// URL is the API root, ready for api.New.
func (s *Server) URL() string {
	return s.srv.URL + "/api/"
}

// Client returns an API client authenticated with the fake's token.
func (s *Server) Client(t testing.TB) *api.Client {
	t.Helper()
	c, err := api.New(s.URL(), api.StaticToken(s.Token))
	if err != nil {
		t.Fatalf("api client: %v", err)
	}
	return c
}

// Seed replaces the records of resource (e.g. "customers").
func (s *Server) Seed(resource string, items []map[string]any, opts ...CollectionOption) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &collection{}
	for _, opt := range opts {
		opt(c)
	}
	for _, item := range items {
		c.items = append(c.items, clone(item))
	}
	s.collections[resource] = c
}

// Fail makes every method request to path (relative to /api/, e.g.
// "customers/") answer status with body.
func (s *Server) Fail(method, path string, status int, body any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, body: body}
}

// Recover removes an injected failure.
func (s *Server) Recover(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, method+" "+path)
}

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Writes returns the mutating requests received so far.
func (s *Server) Writes() []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.IsWrite() {
			out = append(out, r)
		}
	}
	return out
}

// Count returns how many requests matched method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Record returns a copy of a stored record.
func (s *Server) Record(resource string, id int64) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[resource]
	if !ok {
		return nil, false
	}
	if i := c.index(id); i >= 0 {
		return clone(c.items[i]), true
	}
	return nil, false
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/:resource/", s.list)
		api.POST("/:resource/", s.create)
		api.GET("/:resource/:id/", s.get)
		api.PUT("/:resource/:id/", s.update)
		api.PATCH("/:resource/:id/", s.update)
		api.DELETE("/:resource/:id/", s.remove)
	}
}

func (s *Server) record(c *gin.Context) {
	req := Request{
		Method: c.Request.Method,
		Path:   strings.TrimPrefix(c.Request.URL.Path, "/api/"),
		Query:  c.Request.URL.Query(),
		Auth:   c.GetHeader("Authorization"),
	}
	if c.Request.Body != nil {
		raw, _ := io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(raw))
		if len(bytes.TrimSpace(raw)) > 0 {
			dec := json.NewDecoder(bytes.NewReader(raw))
			dec.UseNumber()
			_ = dec.Decode(&req.Body)
		}
	}
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	c.Next()
}

func (s *Server) authenticate(c *gin.Context) {
	if s.Token != "" && c.GetHeader("Authorization") != "Bearer "+s.Token {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
		return
	}
	c.Next()
}

func (s *Server) inject(c *gin.Context) {
	key := c.Request.Method + " " + strings.TrimPrefix(c.Request.URL.Path, "/api/")
	s.mu.Lock()
	f, ok := s.failures[key]
	s.mu.Unlock()
	if ok {
		if f.body == nil {
			c.AbortWithStatus(f.status)
			return
		}
		c.AbortWithStatusJSON(f.status, f.body)
		return
	}
	c.Next()
}

func (s *Server) list(c *gin.Context) {
	resource := c.Param("resource")
	if strings.HasSuffix(resource, "-action") {
		s.documentAction(c, "documents", c.Query("action"))
		return
	}
	if resource == "price-settings" && c.Query("action") != "" {
		s.documentAction(c, resource, c.Query("action"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[resource]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	items := make([]map[string]any, 0, len(col.items))
	for _, item := range col.items {
		if matchesQuery(item, c.Request.URL.Query()) {
			items = append(items, item)
		}
	}
	if col.enveloped {
		c.JSON(http.StatusOK, gin.H{"data": items})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) get(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, i := s.lookup(c)
	if col == nil || col.noItemGet || i < 0 {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	c.JSON(http.StatusOK, col.items[i])
}

func (s *Server) create(c *gin.Context) {
	var body map[string]any
	if err := bindJSON(c, &body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid json"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	resource := c.Param("resource")
	col, ok := s.collections[resource]
	if !ok {
		col = &collection{}
		s.collections[resource] = col
	}
	s.nextID++
	body["id"] = s.nextID
	if col.normalize != nil {
		col.normalize(body)
	}
	col.items = append(col.items, body)
	if col.emptyWrites {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusCreated, body)
}

func (s *Server) update(c *gin.Context) {
	var body map[string]any
	if err := bindJSON(c, &body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid json"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	col, i := s.lookup(c)
	if col == nil || i < 0 {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	next := body
	if c.Request.Method == http.MethodPatch {
		next = clone(col.items[i])
		for k, v := range body {
			next[k] = v
		}
	}
	next["id"] = col.items[i]["id"]
	if col.normalize != nil {
		col.normalize(next)
	}
	col.items[i] = next
	if col.emptyWrites {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, next)
}

func (s *Server) remove(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, i := s.lookup(c)
	if col == nil || i < 0 {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	col.items = append(col.items[:i], col.items[i+1:]...)
	c.Status(http.StatusNoContent)
}

// documentAction moves a document along its workflow the way the
// backend's action endpoints do.
func (s *Server) documentAction(c *gin.Context, resource, action string) {
	id, err := strconv.ParseInt(c.Query("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "id is required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[resource]
	if !ok || col.index(id) < 0 {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	doc := col.items[col.index(id)]
	status, _ := doc["status"].(string)

	var next string
	switch {
	case action == "approve" && status == "draft":
		next = "approved"
	case action == "unapprove" && status == "approved":
		next = "draft"
	case action == "progress" && status == "draft":
		next = "posted"
	default:
		c.JSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("cannot %s a %s document", action, status)})
		return
	}
	doc["status"] = next
	if col.normalize != nil {
		col.normalize(doc)
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) lookup(c *gin.Context) (*collection, int) {
	col, ok := s.collections[c.Param("resource")]
	if !ok {
		return nil, -1
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return col, -1
	}
	return col, col.index(id)
}

func (c *collection) index(id int64) int {
	for i, item := range c.items {
		if n, ok := intOf(item["id"]); ok && n == id {
			return i
		}
	}
	return -1
}

func matchesQuery(item map[string]any, q url.Values) bool {
	for k := range q {
		if fmt.Sprint(item[k]) != q.Get(k) {
			return false
		}
	}
	return true
}

func bindJSON(c *gin.Context, out *map[string]any) error {
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return err
	}
	if *out == nil {
		*out = map[string]any{}
	}
	return nil
}

func intOf(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		return int64(t), true
	case json.Number:
		n, err := t.Int64()
		return n, err == nil
	}
	return 0, false
}

func clone(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
