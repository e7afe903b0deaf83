package document

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// Kind is a document type. Its value is the backend's type filter.
type Kind string

const (
	Receipt          Kind = "receipt"
	Sale             Kind = "sale"
	ReturnFromClient Kind = "return_from_client"
	ReturnToSupplier Kind = "return_to_supplier"
	PriceSetting     Kind = "price_setting"
)

// Kinds lists every document kind.
var Kinds = []Kind{Receipt, Sale, ReturnFromClient, ReturnToSupplier, PriceSetting}

// ErrUnsupported is returned for an action a document kind does not offer.
var ErrUnsupported = errors.New("action not supported for this document type")

// ParseKind accepts a kind's backend name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown document type %q", s)
}

// ListPath is the collection endpoint holding documents of this kind.
func (k Kind) ListPath() string {
	if k == PriceSetting {
		return "price-settings/"
	}
	return "documents/"
}

// ListQuery filters the shared documents endpoint by type.
func (k Kind) ListQuery() url.Values {
	if k == PriceSetting {
		return nil
	}
	return url.Values{"type": {string(k)}}
}

// HasItemGet reports whether single documents of this kind can be fetched
// directly. Price settings are only available through the collection.
func (k Kind) HasItemGet() bool {
	return k != PriceSetting
}

// Supports reports whether the kind offers action.
func (k Kind) Supports(action Action) bool {
	if k == PriceSetting {
		return action == Process
	}
	return action == Approve || action == Unapprove
}

// Available returns the actions that can be applied to a document of this
// kind in status s.
func (k Kind) Available(s Status) []Action {
	var out []Action
	for _, a := range Actions {
		if !k.Supports(a) {
			continue
		}
		if _, err := Next(s, a); err == nil {
			out = append(out, a)
		}
	}
	return out
}

// Endpoint returns the action endpoint for document id. Each kind has its
// own endpoint and spelling; they are not interchangeable.
func (k Kind) Endpoint(id int64, action Action) (string, url.Values, error) {
	if !k.Supports(action) {
		return "", nil, fmt.Errorf("%s %s: %w", action, k, ErrUnsupported)
	}
	ident := strconv.FormatInt(id, 10)
	switch k {
	case PriceSetting:
		return "price-settings/", url.Values{"action": {"progress"}, "id": {ident}}, nil
	case Receipt:
		return "receipt-action/", url.Values{"id": {ident}, "action": {action.String()}}, nil
	case Sale:
		return "sale-action/", url.Values{"id": {ident}, "action": {action.String()}}, nil
	case ReturnFromClient, ReturnToSupplier:
		return "return-action/", url.Values{"id": {ident}, "action": {action.String()}}, nil
	}
	return "", nil, fmt.Errorf("unknown document type %q", string(k))
}
