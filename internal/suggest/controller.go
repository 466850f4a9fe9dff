package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/nathanieluriri/omas-portfolio/internal/apiclient"
	"github.com/nathanieluriri/omas-portfolio/internal/content"
	"github.com/nathanieluriri/omas-portfolio/internal/types"
	"github.com/nathanieluriri/omas-portfolio/internal/upload"
)

// Generator produces a suggestion patch for one field.
type Generator interface {
	GenerateSuggestion(ctx context.Context, req apiclient.GenerateRequest) (*types.SuggestionPatchData, error)
}

// Status is the state of a Controller.
type Status int

// Controller states
const (
	StatusIdle Status = iota
	StatusGenerating
	StatusApplied
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusGenerating:
		return "generating"
	case StatusApplied:
		return "applied"
	case StatusErrored:
		return "errored"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Options configures a Controller.
type Options struct {
	// TargetPath is the field the suggestion is for, e.g. "experience[0].highlights".
	TargetPath string
	// Current returns the field's value at the moment it is called. It must read the
	// live document, not a copy captured when the controller was built.
	Current func() content.Value
	// Apply writes a value into the host document.
	Apply func(content.Value) error
	// Coerce optionally converts the suggested value to the field's shape.
	Coerce content.CoerceFunc
	Logger *zap.Logger
}

// Controller is the suggestion state machine for one field. It never owns the
// document; every write goes through Options.Apply. Current and Apply are called
// with the controller's lock held and must not call back into the controller.
type Controller struct {
	gen    Generator
	path   content.Path
	target string
	opts   Options
	logger *zap.Logger

	mu         sync.Mutex
	status     Status
	text       string
	file       *upload.File
	useStored  bool
	undo       *content.Value
	errMessage string
	note       string
	generation uint64
	closed     bool
}

// NewController creates a Controller for opts.TargetPath.
func NewController(gen Generator, opts Options) (*Controller, error) {
	if gen == nil {
		return nil, errors.New("suggestion generator is required")
	}
	target := strings.TrimSpace(opts.TargetPath)
	path, err := content.ParsePath(target)
	if err != nil {
		return nil, fmt.Errorf("invalid target path: %w", err)
	}
	if opts.Current == nil || opts.Apply == nil {
		return nil, errors.New("current and apply callbacks are required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Controller{
		gen:    gen,
		path:   path,
		target: target,
		opts:   opts,
		logger: logger.With(zap.String("field", target)),
	}, nil
}

// TargetPath returns the field this controller serves.
func (c *Controller) TargetPath() string {
	return c.target
}

// SetText sets the free-text context. Non-empty text disables the stored resume.
func (c *Controller) SetText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = strings.TrimSpace(text)
	c.enforceSourcesLocked()
}

// SelectFile picks the resume to send. A file outside the allow-list is rejected,
// recorded as the controller's error, and clears any previously selected file.
// A nil file clears the selection.
func (c *Controller) SelectFile(file *upload.File) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if file == nil {
		c.file = nil
		return nil
	}
	if err := upload.ValidateResume(file); err != nil {
		c.file = nil
		c.errMessage = messageFor(err)
		return err
	}
	c.errMessage = ""
	c.file = file
	c.enforceSourcesLocked()
	return nil
}

// SetUseStoredResume asks for the resume stored server-side. The flag stays false
// while text or a file is present.
func (c *Controller) SetUseStoredResume(use bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.useStored = use
	c.enforceSourcesLocked()
}

// CanUseStoredResume reports whether the stored resume may be chosen.
func (c *Controller) CanUseStoredResume() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canUseStoredLocked()
}

// UseStoredResume reports the effective stored-resume flag.
func (c *Controller) UseStoredResume() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.useStored
}

func (c *Controller) canUseStoredLocked() bool {
	return c.text == "" && c.file == nil
}

func (c *Controller) enforceSourcesLocked() {
	if !c.canUseStoredLocked() {
		c.useStored = false
	}
}

// Ready reports whether Generate would send a request.
func (c *Controller) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readyLocked()
}

func (c *Controller) readyLocked() bool {
	return !c.closed && c.status != StatusGenerating &&
		(c.text != "" || c.file != nil || c.useStored)
}

// Request returns the request Generate would send.
func (c *Controller) Request() apiclient.GenerateRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestLocked()
}

func (c *Controller) requestLocked() apiclient.GenerateRequest {
	return apiclient.GenerateRequest{
		TargetPath:        c.target,
		TextInput:         c.text,
		File:              c.file,
		UseExistingResume: c.useStored && c.canUseStoredLocked(),
	}
}

// Generate requests a suggestion, resolves it at the target path, coerces it and
// applies it. It does nothing when the controller is not ready. Results that arrive
// after Close, or after a newer Generate, are dropped.
func (c *Controller) Generate(ctx context.Context) error {
	c.mu.Lock()
	if !c.readyLocked() {
		c.mu.Unlock()
		return nil
	}
	req := c.requestLocked()
	c.status = StatusGenerating
	c.errMessage = ""
	c.note = ""
	c.generation++
	generation := c.generation
	c.mu.Unlock()

	c.logger.Debug("requesting suggestion",
		zap.Bool("text", req.TextInput != ""),
		zap.Bool("file", req.File != nil),
		zap.Bool("stored_resume", req.UseExistingResume),
	)
	patch, err := c.gen.GenerateSuggestion(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || generation != c.generation {
		c.logger.Debug("dropping late suggestion")
		return nil
	}
	if err != nil {
		return c.failLocked(err)
	}

	value, err := c.extract(patch)
	if err != nil {
		return c.failLocked(err)
	}

	previous := content.Clone(c.opts.Current())
	if err := c.opts.Apply(value); err != nil {
		return c.failLocked(&ApplyError{Path: c.target, Cause: err})
	}
	c.undo = &previous
	c.status = StatusApplied
	c.note = NoteSuggestionApplied
	c.logger.Debug("suggestion applied", zap.String("value", value.Text()))
	return nil
}

func (c *Controller) extract(patch *types.SuggestionPatchData) (content.Value, error) {
	if patch == nil || patch.Patch.IsNull() {
		return content.Value{}, apiclient.ErrEmptyResponse
	}
	value, ok := content.Resolve(patch.Patch, c.path)
	if !ok {
		return content.Value{}, &FieldMismatchError{Path: c.target, Message: MessageFieldMissing}
	}
	if c.opts.Coerce != nil {
		value, ok = c.opts.Coerce(value)
		if !ok {
			return content.Value{}, &FieldMismatchError{Path: c.target, Message: MessageNotApplicable}
		}
	}
	if value.IsNull() {
		return content.Value{}, &FieldMismatchError{Path: c.target, Message: MessageNotApplicable}
	}
	return value, nil
}

func (c *Controller) failLocked(err error) error {
	c.status = StatusErrored
	c.errMessage = messageFor(err)
	c.logger.Debug("suggestion failed", zap.Error(err))
	return err
}

// Undo restores the value the field held before the last applied suggestion. It
// is one-shot: a second call does nothing until another suggestion is applied.
func (c *Controller) Undo() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.undo == nil || c.closed {
		return nil
	}
	if err := c.opts.Apply(*c.undo); err != nil {
		return c.failLocked(&ApplyError{Path: c.target, Cause: err})
	}
	c.undo = nil
	c.status = StatusIdle
	c.errMessage = ""
	c.note = NoteUndoApplied
	c.logger.Debug("undo applied")
	return nil
}

// CanUndo reports whether Undo would restore a value.
func (c *Controller) CanUndo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.undo != nil && !c.closed
}

// Close detaches the controller. In-flight results are dropped and further calls
// do nothing.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.generation++
	if c.status == StatusGenerating {
		c.status = StatusIdle
	}
}

// Status returns the current state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// ErrorMessage returns the message to show for the last failure, if any.
func (c *Controller) ErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMessage
}

// Note returns the confirmation to show after an apply or undo, if any.
func (c *Controller) Note() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.note
}

func messageFor(err error) string {
	var (
		mismatch   *FieldMismatchError
		reqFailed  *apiclient.RequestFailedError
		validation *upload.ValidationError
		invalid    *apiclient.ValidationError
	)
	switch {
	case errors.As(err, &mismatch):
		return mismatch.Message
	case errors.Is(err, apiclient.ErrEmptyResponse):
		return MessageNoData
	case errors.As(err, &reqFailed):
		return reqFailed.Message
	case errors.As(err, &validation):
		return validation.Message
	case errors.As(err, &invalid):
		return invalid.Message
	default:
		return MessageGenerateFailed
	}
}
