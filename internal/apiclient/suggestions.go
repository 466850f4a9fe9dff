package apiclient

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/nathanieluriri/omas-portfolio/internal/types"
	"github.com/nathanieluriri/omas-portfolio/internal/upload"
)

// GenerateRequest asks for a suggested value for one field. The client forwards every
// populated source; choosing exactly one is the caller's job.
type GenerateRequest struct {
	TargetPath        string `validate:"required"`
	TextInput         string
	File              *upload.File
	UseExistingResume bool
}

// Validate validates the GenerateRequest using the validator.
func (r *GenerateRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// GenerateSuggestion posts a suggestion request and returns the patch holding the
// suggested value at the target path.
func (c *Client) GenerateSuggestion(ctx context.Context, req GenerateRequest) (*types.SuggestionPatchData, error) {
	if err := req.Validate(); err != nil {
		return nil, &ValidationError{Field: "target_path", Message: "target path is required", Cause: err}
	}

	f := newForm()
	f.field("target_path", req.TargetPath)
	if req.TextInput != "" {
		f.field("text_input", req.TextInput)
	}
	f.file("file", req.File)
	if req.UseExistingResume {
		f.field("use_existing_resume", "true")
	}
	r, err := f.request("generate suggestion", "/suggestions/generate")
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, failure(r, resp, "Failed to generate suggestion")
	}
	payload, err := decode[types.SuggestionPatchData](r, resp)
	if err != nil {
		return nil, err
	}
	if payload.Data == nil || payload.Data.Patch.IsNull() {
		return nil, ErrEmptyResponse
	}
	return payload.Data, nil
}

// AnalyzeResume sends a whole resume for analysis and returns the proposed field
// suggestions.
func (c *Client) AnalyzeResume(ctx context.Context, file *upload.File) (*types.AnalyzeResult, error) {
	if err := upload.ValidateResume(file); err != nil {
		return nil, err
	}

	f := newForm()
	f.file("file", file)
	r, err := f.request("analyze resume", "/portfolios/analyze")
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, failure(r, resp, "Failed to analyze resume.")
	}
	payload, err := decode[types.AnalyzeResult](r, resp)
	if err != nil {
		return nil, err
	}
	if payload.Data == nil {
		return &types.AnalyzeResult{Suggestions: []types.Suggestion{}}, nil
	}
	if payload.Data.Suggestions == nil {
		payload.Data.Suggestions = []types.Suggestion{}
	}
	return payload.Data, nil
}

// ApplySuggestions writes a batch of field updates. The backend applies the batch
// atomically; any failure fails the whole batch.
func (c *Client) ApplySuggestions(ctx context.Context, updates []types.ApplyUpdate) error {
	body := types.ApplyRequest{Updates: updates}
	if err := body.Validate(); err != nil {
		return &ValidationError{Field: "updates", Message: "no suggestions selected", Cause: err}
	}

	r, err := jsonRequest("apply suggestions", http.MethodPost, "/portfolios/apply", body)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return failure(r, resp, "Failed to apply suggestions.")
	}
	return nil
}
