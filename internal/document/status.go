// Package document models the workflow of transactional documents:
// receipts, sales, returns and price settings. A document's status decides
// which actions are offered, and actions go through dedicated backend
// endpoints rather than plain updates.
package document

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the workflow state of a document.
type Status int

const (
	Draft Status = iota
	Approved
	Posted
	Cancelled
)

// ParseStatus reads the spellings used by the different document endpoints.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "draft", "new", "":
		return Draft, nil
	case "approved":
		return Approved, nil
	case "posted", "processed", "progress", "done":
		return Posted, nil
	case "cancelled", "canceled":
		return Cancelled, nil
	}
	return Draft, fmt.Errorf("unknown document status %q", s)
}

func (s Status) String() string {
	switch s {
	case Draft:
		return "draft"
	case Approved:
		return "approved"
	case Posted:
		return "posted"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Title is the status as shown to users
func (s Status) Title() string {
	str := s.String()
	return strings.ToUpper(str[:1]) + str[1:]
}

// UnmarshalJSON accepts any backend spelling.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("document status: %w", err)
	}
	if raw == nil {
		*s = Draft
		return nil
	}
	parsed, err := ParseStatus(*raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalJSON writes the canonical spelling.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// LinesEditable reports whether line items may change. Once a document
// leaves draft it and its items are history.
func LinesEditable(s Status) bool {
	return s == Draft
}

// Action is a workflow transition a user can trigger.
type Action int

const (
	Approve Action = iota
	Unapprove
	Process
)

// Actions lists every action in menu order.
var Actions = []Action{Approve, Unapprove, Process}

// ParseAction reads an action name as typed on the command line.
func ParseAction(s string) (Action, error) {
	for _, a := range Actions {
		if strings.EqualFold(a.String(), strings.TrimSpace(s)) {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

func (a Action) String() string {
	switch a {
	case Approve:
		return "approve"
	case Unapprove:
		return "unapprove"
	case Process:
		return "process"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// TransitionError is returned for an action the status does not permit.
type TransitionError struct {
	From   Status
	Action Action
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a %s document", e.Action, e.From)
}

// Next returns the status reached by applying action to s. Only three
// edges exist: draft→approved, approved→draft and draft→posted.
func Next(s Status, action Action) (Status, error) {
	switch {
	case s == Draft && action == Approve:
		return Approved, nil
	case s == Approved && action == Unapprove:
		return Draft, nil
	case s == Draft && action == Process:
		return Posted, nil
	}
	return s, &TransitionError{From: s, Action: action}
}
