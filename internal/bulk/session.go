// Package bulk implements the whole-resume suggestion workflow: analyze once, pick
// suggestions, apply them as one batch.
package bulk

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/nathanieluriri/omas-portfolio/internal/apiclient"
	"github.com/nathanieluriri/omas-portfolio/internal/types"
	"github.com/nathanieluriri/omas-portfolio/internal/upload"
)

// Backend is the part of the API the workflow talks to.
type Backend interface {
	AnalyzeResume(ctx context.Context, file *upload.File) (*types.AnalyzeResult, error)
	ApplySuggestions(ctx context.Context, updates []types.ApplyUpdate) error
}

// Step is a stage of the workflow. Steps only move forward; Reset is the only way
// back to StepUpload.
type Step int

// Workflow steps
const (
	StepUpload Step = iota
	StepReview
	StepApply
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepUpload:
		return "upload"
	case StepReview:
		return "review"
	case StepApply:
		return "apply"
	case StepDone:
		return "done"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Fallback messages
const (
	MessageAnalyzeFailed = "Failed to analyze resume."
	MessageApplyFailed   = "Failed to apply suggestions."
	MessageNoFile        = "Select a resume to analyze."
	MessageNoSelection   = "Select at least one suggestion to apply."
)

// Options configures a Session.
type Options struct {
	// AfterApply runs once a batch has been applied, e.g. to reload the draft.
	AfterApply func(ctx context.Context, applied []types.Suggestion) error
	Logger     *zap.Logger
}

// Session holds one run of the workflow.
type Session struct {
	backend Backend
	opts    Options
	logger  *zap.Logger

	mu          sync.Mutex
	step        Step
	file        *upload.File
	fileURL     string
	suggestions []types.Suggestion
	selected    map[string]bool
	analyzeErr  string
	applyErr    string
	busy        bool
}

// NewSession creates a Session at StepUpload.
func NewSession(backend Backend, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		backend:  backend,
		opts:     opts,
		logger:   logger,
		selected: map[string]bool{},
	}
}

// SelectFile picks the resume to analyze. A disallowed file is rejected and the
// previous choice is cleared. Earlier results are discarded either way.
func (s *Session) SelectFile(file *upload.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expectLocked(StepUpload); err != nil {
		return err
	}
	s.suggestions = nil
	s.selected = map[string]bool{}
	s.fileURL = ""
	s.applyErr = ""

	if file == nil {
		s.file = nil
		s.analyzeErr = ""
		return nil
	}
	if err := upload.ValidateResume(file); err != nil {
		s.file = nil
		s.analyzeErr = upload.UnsupportedResumeMessage
		var verr *upload.ValidationError
		if errors.As(err, &verr) {
			s.analyzeErr = verr.Message
		}
		return err
	}
	s.file = file
	s.analyzeErr = ""
	return nil
}

// Analyze sends the selected resume for analysis. On success every suggestion is
// selected and the session moves to StepReview; on failure it stays in
// StepUpload with AnalyzeError set.
func (s *Session) Analyze(ctx context.Context) error {
	s.mu.Lock()
	if err := s.expectLocked(StepUpload); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.file == nil {
		s.analyzeErr = MessageNoFile
		s.mu.Unlock()
		return &StateError{Step: StepUpload, Message: MessageNoFile}
	}
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.busy = true
	s.analyzeErr = ""
	file := s.file
	s.mu.Unlock()

	result, err := s.backend.AnalyzeResume(ctx, file)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false

	if s.step != StepUpload || s.file != file {
		// Reset or a new file arrived while analyzing.
		return nil
	}
	if err != nil {
		s.analyzeErr = message(err, MessageAnalyzeFailed)
		s.logger.Info("resume analysis failed", zap.Error(err))
		return err
	}

	s.fileURL = result.FileURL
	s.suggestions = append([]types.Suggestion(nil), result.Suggestions...)
	s.selected = make(map[string]bool, len(s.suggestions))
	for _, sg := range s.suggestions {
		s.selected[sg.ID] = true
	}
	s.step = StepReview
	s.logger.Info("resume analyzed", zap.Int("suggestions", len(s.suggestions)))
	return nil
}

// ToggleSelection flips whether id is selected. Unknown ids are ignored.
func (s *Session) ToggleSelection(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expectLocked(StepReview); err != nil {
		return err
	}
	if !s.knownLocked(id) {
		return nil
	}
	if s.selected[id] {
		delete(s.selected, id)
	} else {
		s.selected[id] = true
	}
	return nil
}

// SelectAll selects every suggestion, or none.
func (s *Session) SelectAll(selected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expectLocked(StepReview); err != nil {
		return err
	}
	s.selected = map[string]bool{}
	if selected {
		for _, sg := range s.suggestions {
			s.selected[sg.ID] = true
		}
	}
	return nil
}

// Proceed moves from StepReview to StepApply. At least one suggestion must be
// selected.
func (s *Session) Proceed() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expectLocked(StepReview); err != nil {
		return err
	}
	if len(s.selectedLocked()) == 0 {
		return &StateError{Step: StepReview, Message: MessageNoSelection}
	}
	s.step = StepApply
	return nil
}

// ApplySelected sends the selected suggestions as one batch. The batch succeeds or
// fails as a whole; a failure keeps the session in StepApply with ApplyError set
// so it can be retried.
func (s *Session) ApplySelected(ctx context.Context) error {
	s.mu.Lock()
	if err := s.expectLocked(StepApply); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	chosen := s.selectedLocked()
	updates := make([]types.ApplyUpdate, 0, len(chosen))
	for _, sg := range chosen {
		updates = append(updates, types.UpdateFrom(sg))
	}
	s.busy = true
	s.applyErr = ""
	s.mu.Unlock()

	err := s.backend.ApplySuggestions(ctx, updates)
	if err == nil && s.opts.AfterApply != nil {
		if hookErr := s.opts.AfterApply(ctx, chosen); hookErr != nil {
			s.logger.Warn("post-apply hook failed", zap.Error(hookErr))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false

	if s.step != StepApply {
		return nil
	}
	if err != nil {
		s.applyErr = message(err, MessageApplyFailed)
		s.logger.Info("applying suggestions failed", zap.Int("updates", len(updates)), zap.Error(err))
		return err
	}
	s.step = StepDone
	s.logger.Info("suggestions applied", zap.Int("updates", len(updates)))
	return nil
}

// Reset clears the file, suggestions, selection and both errors and returns to
// StepUpload.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = StepUpload
	s.file = nil
	s.fileURL = ""
	s.suggestions = nil
	s.selected = map[string]bool{}
	s.analyzeErr = ""
	s.applyErr = ""
}

// Step returns the current step.
func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// File returns the selected resume, if any.
func (s *Session) File() *upload.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file
}

// FileURL returns where the backend stored the analyzed resume.
func (s *Session) FileURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fileURL
}

// Suggestions returns all suggestions from the last analysis.
func (s *Session) Suggestions() []types.Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Suggestion(nil), s.suggestions...)
}

// IsSelected reports whether id is selected.
func (s *Session) IsSelected(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected[id]
}

// SelectedCount returns the number of selected suggestions.
func (s *Session) SelectedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.selected)
}

// SelectedSuggestions returns the selected suggestions in analysis order.
func (s *Session) SelectedSuggestions() []types.Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedLocked()
}

func (s *Session) selectedLocked() []types.Suggestion {
	out := make([]types.Suggestion, 0, len(s.selected))
	for _, sg := range s.suggestions {
		if s.selected[sg.ID] {
			out = append(out, sg)
		}
	}
	return out
}

func (s *Session) knownLocked(id string) bool {
	for _, sg := range s.suggestions {
		if sg.ID == id {
			return true
		}
	}
	return false
}

// AnalyzeError returns the message of the last failed analysis.
func (s *Session) AnalyzeError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analyzeErr
}

// ApplyError returns the message of the last failed apply.
func (s *Session) ApplyError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyErr
}

func (s *Session) expectLocked(step Step) error {
	if s.step != step {
		return &StateError{Step: s.step, Message: fmt.Sprintf("not allowed in %s step, expected %s", s.step, step)}
	}
	return nil
}

func message(err error, fallback string) string {
	var reqFailed *apiclient.RequestFailedError
	if errors.As(err, &reqFailed) && reqFailed.Message != "" {
		return reqFailed.Message
	}
	var verr *upload.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	return fallback
}
