// internal/application/draft-store/service.go
package draftstore

import (
	"sync"

	"github.com/google/uuid"

	"applicant-portal/internal/common/logger"
	"applicant-portal/internal/models"
)

// Store holds the draft and its error map. Every mutator clears only the
// error entry for the name it touched. Safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	draft   *models.Draft
	errors  models.ErrorMap
	pending map[models.SlotName]string
	logger  logger.Logger
}

func New(log logger.Logger) *Store {
	return &Store{
		draft:   models.NewDraft(),
		errors:  models.ErrorMap{},
		pending: make(map[models.SlotName]string),
		logger:  logger.ForComponent(log, "draft-store"),
	}
}

func (s *Store) SetField(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.draft.SetField(name, value); err != nil {
		return err
	}
	delete(s.errors, name)
	return nil
}

func (s *Store) SetFlag(name string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.draft.SetFlag(name, value); err != nil {
		return err
	}
	delete(s.errors, name)
	return nil
}

// SetAttachment fills or empties a slot and supersedes any pending selection
// for it. Emptying a slot that holds a stored document marks it removed.
func (s *Store) SetAttachment(slot models.SlotName, att *models.Attachment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pending, slot)
	s.setAttachmentLocked(slot, att)
}

func (s *Store) setAttachmentLocked(slot models.SlotName, att *models.Attachment) {
	if att == nil {
		delete(s.draft.Attachments, slot)
		if _, ok := s.draft.Stored[slot]; ok {
			s.draft.Removed[slot] = true
		}
	} else {
		copied := *att
		s.draft.Attachments[slot] = &copied
		delete(s.draft.Removed, slot)
	}
	delete(s.errors, string(slot))
}

// BeginSelection records a new file pick for slot and returns its handle.
// Any earlier pick for the same slot becomes stale.
func (s *Store) BeginSelection(slot models.SlotName) string {
	handle := uuid.NewString()

	s.mu.Lock()
	s.pending[slot] = handle
	s.mu.Unlock()
	return handle
}

// ApplySelection stores att only if handle is still the slot's latest pick.
func (s *Store) ApplySelection(slot models.SlotName, handle string, att *models.Attachment) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending[slot] != handle {
		s.logger.Debug("discarding stale selection", map[string]interface{}{"slot": slot})
		return false
	}
	delete(s.pending, slot)
	s.setAttachmentLocked(slot, att)
	return true
}

// CancelSelection drops a pick that failed to encode. The slot keeps its
// previous content.
func (s *Store) CancelSelection(slot models.SlotName, handle string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending[slot] == handle {
		delete(s.pending, slot)
	}
}

// CurrentErrors returns a copy of the error map.
func (s *Store) CurrentErrors() models.ErrorMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errors.Clone()
}

// ClearErrorFor drops the error recorded for one field, flag or slot.
func (s *Store) ClearErrorFor(name string) {
	s.mu.Lock()
	delete(s.errors, name)
	s.mu.Unlock()
}

// ReplaceErrors swaps in a freshly computed error map wholesale.
func (s *Store) ReplaceErrors(errs models.ErrorMap) {
	s.mu.Lock()
	s.errors = errs.Clone()
	s.mu.Unlock()
}

// Snapshot returns a deep copy of the draft.
func (s *Store) Snapshot() *models.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone()
}

// Reset empties the draft, the errors and all pending selections.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.draft = models.NewDraft()
	s.errors = models.ErrorMap{}
	s.pending = make(map[models.SlotName]string)
}

// LoadApplication seeds the draft from a fetched application for editing.
// The server's documents become stored slots; no attachments are loaded.
func (s *Store) LoadApplication(app *models.Application) {
	draft := models.NewDraft()
	draft.Personal = app.PersonalDetails
	draft.Agreements = app.Agreements
	for _, doc := range app.Documents {
		draft.Stored[doc.Slot] = doc
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.draft = draft
	s.errors = models.ErrorMap{}
	s.pending = make(map[models.SlotName]string)

	s.logger.Debug("draft loaded from application", map[string]interface{}{
		"applicationId":   app.ID,
		"storedDocuments": len(app.Documents),
	})
}
