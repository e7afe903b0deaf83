package resource

import (
	"context"
	"net/http"
	"net/url"
)

// Backend is the part of the API client the pipeline uses.
type Backend interface {
	GetCollection(ctx context.Context, path string, query url.Values) ([]map[string]any, error)
	GetObject(ctx context.Context, path string, query url.Values) (map[string]any, error)
	SendObject(ctx context.Context, method, path string, body any) (map[string]any, error)
	Delete(ctx context.Context, path string) error
}

// Mutation is a prepared write. Preparing validates and snapshots the body
// so the request itself can run off the UI loop.
type Mutation struct {
	Method string
	Path   string
	Body   Record
}

// Send performs the mutation and returns the server's copy of the record.
func (m Mutation) Send(ctx context.Context, b Backend) (Record, error) {
	if m.Method == http.MethodDelete {
		return nil, b.Delete(ctx, m.Path)
	}
	obj, err := b.SendObject(ctx, m.Method, m.Path, m.Body)
	if err != nil {
		return nil, err
	}
	return Record(obj), nil
}

func fetchCollection(ctx context.Context, b Backend, path string, query url.Values) ([]Record, error) {
	objs, err := b.GetCollection(ctx, path, query)
	if err != nil {
		return nil, err
	}
	items := make([]Record, len(objs))
	for i, o := range objs {
		items[i] = Record(o)
	}
	return items, nil
}
