// Package project holds the Specification shared by every agent in a run.
//
// Reads take a shared lock and may overlap. Writes are attempted with a
// non-blocking exclusive lock: if another holder is present the write fails
// with ErrSpecLocked instead of waiting. The pipeline is sequential, so a
// contended write means two writers exist, and that is a bug to surface
// rather than serialise.
//
// Each field is owned by the first role that writes it. The owner may write
// the field again; any other role gets ErrFieldOwned.
package project

import (
	"fmt"
	"sync"

	aerrors "github.com/TheAllen/Acadia/internal/errors"
	"github.com/TheAllen/Acadia/internal/models"
)

type Field string

const (
	FieldProjectDescription Field = "project_description"
	FieldProjectScope       Field = "project_scope"
	FieldExternalURLs       Field = "external_urls"
	FieldBackendCode        Field = "backend_code"
	FieldFrontendCode       Field = "frontend_code"
)

// Snapshot is a point-in-time copy of the specification. Nil means unset.
// ExternalURLs is encoded even when empty so that an empty list, meaning
// every candidate failed validation, survives persistence as [].
type Snapshot struct {
	ProjectDescription *string              `json:"project_description,omitempty"`
	ProjectScope       *models.ProjectScope `json:"project_scope,omitempty"`
	ExternalURLs       []string             `json:"external_urls"`
	BackendCode        *string              `json:"backend_code,omitempty"`
	FrontendCode       *string              `json:"frontend_code,omitempty"`
}

type Specification struct {
	mu     sync.RWMutex
	data   Snapshot
	owners map[Field]string
}

func New() *Specification {
	return &Specification{owners: make(map[Field]string)}
}

// Read returns a copy of the current contents, blocking only behind an
// in-progress write.
func (s *Specification) Read() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.clone()
}

// Owner returns the role that wrote f, if any.
func (s *Specification) Owner(f Field) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owner, ok := s.owners[f]
	return owner, ok
}

// TryWrite runs fn with exclusive access on behalf of owner. It never
// blocks. Writes already made by fn are kept if fn returns an error.
func (s *Specification) TryWrite(owner string, fn func(w *Writer) error) error {
	if !s.mu.TryLock() {
		return fmt.Errorf("%w: writer %q", aerrors.ErrSpecLocked, owner)
	}
	defer s.mu.Unlock()
	return fn(&Writer{spec: s, owner: owner})
}

// Writer mutates the specification while TryWrite holds the lock.
type Writer struct {
	spec  *Specification
	owner string
}

func (w *Writer) claim(f Field) error {
	if cur, ok := w.spec.owners[f]; ok && cur != w.owner {
		return fmt.Errorf("%w: %s is owned by %q, write attempted by %q", aerrors.ErrFieldOwned, f, cur, w.owner)
	}
	w.spec.owners[f] = w.owner
	return nil
}

// Current returns the contents as seen inside the write.
func (w *Writer) Current() Snapshot {
	return w.spec.data.clone()
}

func (w *Writer) SetProjectDescription(v string) error {
	if err := w.claim(FieldProjectDescription); err != nil {
		return err
	}
	w.spec.data.ProjectDescription = &v
	return nil
}

func (w *Writer) SetProjectScope(v models.ProjectScope) error {
	if err := w.claim(FieldProjectScope); err != nil {
		return err
	}
	w.spec.data.ProjectScope = &v
	return nil
}

// SetExternalURLs records the validated URLs. An empty list still marks the
// field as set.
func (w *Writer) SetExternalURLs(urls []string) error {
	if err := w.claim(FieldExternalURLs); err != nil {
		return err
	}
	w.spec.data.ExternalURLs = append(make([]string, 0, len(urls)), urls...)
	return nil
}

func (w *Writer) SetBackendCode(v string) error {
	if err := w.claim(FieldBackendCode); err != nil {
		return err
	}
	w.spec.data.BackendCode = &v
	return nil
}

func (w *Writer) SetFrontendCode(v string) error {
	if err := w.claim(FieldFrontendCode); err != nil {
		return err
	}
	w.spec.data.FrontendCode = &v
	return nil
}

func (s Snapshot) clone() Snapshot {
	out := s
	if s.ProjectScope != nil {
		scope := *s.ProjectScope
		out.ProjectScope = &scope
	}
	if s.ExternalURLs != nil {
		out.ExternalURLs = append(make([]string, 0, len(s.ExternalURLs)), s.ExternalURLs...)
	}
	return out
}

// Description returns the project description or "" when unset.
func (s Snapshot) Description() string {
	if s.ProjectDescription == nil {
		return ""
	}
	return *s.ProjectDescription
}
