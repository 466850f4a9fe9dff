package draft

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/nathanieluriri/omas-portfolio/internal/apiclient"
	"github.com/nathanieluriri/omas-portfolio/internal/content"
	"github.com/nathanieluriri/omas-portfolio/internal/schemas"
	"github.com/nathanieluriri/omas-portfolio/internal/types"
)

// Backend is the part of the API the store persists through.
type Backend interface {
	Me(ctx context.Context) (*types.User, error)
	Portfolio(ctx context.Context, userID string) (content.Value, error)
	CreatePortfolio(ctx context.Context, doc content.Value) (content.Value, error)
	UpdatePortfolio(ctx context.Context, doc content.Value) (content.Value, error)
}

// DocumentValidator checks a draft before it is saved.
type DocumentValidator interface {
	Validate(doc content.Value) error
}

// Options configures a Store.
type Options struct {
	Validator DocumentValidator
	Logger    *zap.Logger
}

// Store holds the authoritative document and the draft being edited. A null
// authoritative document means the user has no portfolio yet; a null draft means
// nothing is loaded.
type Store struct {
	backend   Backend
	validator DocumentValidator
	logger    *zap.Logger

	mu            sync.Mutex
	user          *types.User
	authoritative content.Value
	draft         content.Value
	loadErr       error
	saveErr       error
	saving        bool
}

// NewStore creates an empty Store.
func NewStore(backend Backend, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		backend:       backend,
		validator:     opts.Validator,
		logger:        logger,
		authoritative: content.Null(),
		draft:         content.Null(),
	}
}

// Load fetches the signed-in user and their portfolio. On success both the
// authoritative document and the draft are independent copies of it; on failure
// both are null and LoadError is set.
func (s *Store) Load(ctx context.Context) error {
	user, doc, err := s.fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.authoritative = content.Null()
		s.draft = content.Null()
		s.loadErr = err
		s.logger.Warn("failed to load portfolio", zap.Error(err))
		return err
	}
	s.user = user
	s.authoritative = content.Clone(doc)
	s.draft = content.Clone(doc)
	s.loadErr = nil
	return nil
}

func (s *Store) fetch(ctx context.Context) (*types.User, content.Value, error) {
	user, err := s.backend.Me(ctx)
	if err != nil {
		return nil, content.Null(), &LoadError{Message: userMessage(err, MessageNoUser), Cause: err}
	}
	if user == nil || user.ID == "" {
		return nil, content.Null(), &LoadError{Message: MessageNoUser}
	}
	doc, err := s.backend.Portfolio(ctx, user.ID)
	if err != nil {
		return nil, content.Null(), &LoadError{Message: userMessage(err, MessageLoadFailed), Cause: err}
	}
	return user, doc, nil
}

// SetDraft replaces the draft with a copy of next.
func (s *Store) SetDraft(next content.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = content.Clone(next)
}

// Update replaces the draft with fn(current draft). fn runs under the store's
// lock, so concurrent updates never overwrite each other's fields.
func (s *Store) Update(fn func(content.Value) (content.Value, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draft.IsNull() {
		return ErrNoDraft
	}
	next, err := fn(s.draft)
	if err != nil {
		return err
	}
	s.draft = next
	return nil
}

// SetField writes value at path in the draft.
func (s *Store) SetField(path content.Path, value content.Value) error {
	return s.Update(func(doc content.Value) (content.Value, error) {
		return content.Set(doc, path, value)
	})
}

// Field returns accessors bound to one field of the live draft, in the shape the
// suggestion controller expects.
func (s *Store) Field(path content.Path) (current func() content.Value, apply func(content.Value) error) {
	current = func() content.Value {
		s.mu.Lock()
		defer s.mu.Unlock()
		v, _ := content.Resolve(s.draft, path)
		return content.Clone(v)
	}
	apply = func(v content.Value) error {
		return s.SetField(path, v)
	}
	return current, apply
}

// Save persists the draft, creating the portfolio when none exists yet and
// updating it otherwise. On success the authoritative document and the draft both
// become the saved document. On failure the draft is kept and SaveError is set.
// Save without a draft does nothing.
func (s *Store) Save(ctx context.Context) (content.Value, error) {
	s.mu.Lock()
	if s.draft.IsNull() {
		s.mu.Unlock()
		return content.Null(), nil
	}
	if s.saving {
		s.mu.Unlock()
		return content.Null(), ErrSaveInProgress
	}
	snapshot := content.Clone(s.draft)
	exists := !s.authoritative.IsNull()
	s.saving = true
	s.mu.Unlock()

	saved, err := s.persist(ctx, snapshot, exists)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = false

	if err != nil {
		s.saveErr = err
		s.logger.Warn("failed to save portfolio", zap.Bool("create", !exists), zap.Error(err))
		return content.Null(), err
	}
	if saved.IsNull() {
		saved = snapshot
	}
	// Edits made while the request was in flight stay in the draft.
	if content.Equal(s.draft, snapshot) {
		s.draft = content.Clone(saved)
	}
	s.authoritative = content.Clone(saved)
	s.saveErr = nil
	return content.Clone(saved), nil
}

func (s *Store) persist(ctx context.Context, doc content.Value, exists bool) (content.Value, error) {
	if s.validator != nil {
		if err := s.validator.Validate(doc); err != nil {
			message := "Portfolio is not valid."
			var verr *schemas.ValidationError
			if errors.As(err, &verr) {
				message = "Portfolio is not valid: " + verr.Summary(3)
			}
			return content.Null(), &SaveError{Message: message, Cause: err}
		}
	}

	var (
		saved content.Value
		err   error
	)
	if exists {
		saved, err = s.backend.UpdatePortfolio(ctx, doc)
	} else {
		saved, err = s.backend.CreatePortfolio(ctx, doc)
	}
	if err != nil {
		return content.Null(), &SaveError{Message: userMessage(err, MessageSaveFailed), Cause: err}
	}
	return saved, nil
}

// Discard resets the draft to the authoritative document.
func (s *Store) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = content.Clone(s.authoritative)
}

// HasChanges reports whether the draft differs from the authoritative document.
// Key order and array order are significant.
func (s *Store) HasChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !content.Equal(s.draft, s.authoritative)
}

// Draft returns a copy of the draft.
func (s *Store) Draft() content.Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	return content.Clone(s.draft)
}

// Authoritative returns a copy of the last loaded or saved document.
func (s *Store) Authoritative() content.Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	return content.Clone(s.authoritative)
}

// User returns the user resolved by the last successful Load.
func (s *Store) User() *types.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Saving reports whether a save is in flight.
func (s *Store) Saving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saving
}

// LoadError returns the error of the last Load, cleared by the next successful
// Load.
func (s *Store) LoadError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

// SaveError returns the error of the last Save, cleared by the next successful
// Save.
func (s *Store) SaveError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveErr
}

// ErrorMessage returns the user-facing message of the most relevant sticky error.
func (s *Store) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var saveErr *SaveError
	if errors.As(s.saveErr, &saveErr) {
		return saveErr.Message
	}
	var loadErr *LoadError
	if errors.As(s.loadErr, &loadErr) {
		return loadErr.Message
	}
	return ""
}

func userMessage(err error, fallback string) string {
	var reqFailed *apiclient.RequestFailedError
	if errors.As(err, &reqFailed) && reqFailed.Message != "" {
		return reqFailed.Message
	}
	return fallback
}
