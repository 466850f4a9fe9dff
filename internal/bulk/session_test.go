package bulk

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathanieluriri/omas-portfolio/internal/apiclient"
	"github.com/nathanieluriri/omas-portfolio/internal/types"
	"github.com/nathanieluriri/omas-portfolio/internal/upload"
)

type fakeBackend struct {
	result     *types.AnalyzeResult
	analyzeErr error
	applyErr   error
	applied    [][]types.ApplyUpdate
}

func (f *fakeBackend) AnalyzeResume(_ context.Context, _ *upload.File) (*types.AnalyzeResult, error) {
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	return f.result, nil
}

func (f *fakeBackend) ApplySuggestions(_ context.Context, updates []types.ApplyUpdate) error {
	f.applied = append(f.applied, updates)
	return f.applyErr
}

func resume() *upload.File {
	return &upload.File{Name: "cv.pdf", ContentType: upload.TypePDF, Data: []byte("%PDF-1.7")}
}

func threeSuggestions() *types.AnalyzeResult {
	return &types.AnalyzeResult{
		FileURL: "https://cdn.example.com/cv.pdf",
		Suggestions: []types.Suggestion{
			{ID: "a", Field: "hero.title", CurrentValue: "Dev", SuggestedValue: "Engineer", Confidence: 0.9},
			{ID: "b", Field: "hero.bio", CurrentValue: "", SuggestedValue: "Builds things", Confidence: 72},
			{ID: "c", Field: "contact.email", CurrentValue: "x@y", SuggestedValue: "me@y", Confidence: 0.4},
		},
	}
}

func analyzed(t *testing.T, backend *fakeBackend) *Session {
	t.Helper()
	s := NewSession(backend, Options{})
	require.NoError(t, s.SelectFile(resume()))
	require.NoError(t, s.Analyze(context.Background()))
	return s
}

func ids(suggestions []types.Suggestion) []string {
	out := make([]string, 0, len(suggestions))
	for _, sg := range suggestions {
		out = append(out, sg.ID)
	}
	return out
}

func TestAnalyze_SelectsAllAndAdvances(t *testing.T) {
	s := analyzed(t, &fakeBackend{result: threeSuggestions()})

	assert.Equal(t, StepReview, s.Step())
	assert.Equal(t, 3, s.SelectedCount())
	assert.Equal(t, []string{"a", "b", "c"}, ids(s.SelectedSuggestions()))
	assert.Equal(t, "https://cdn.example.com/cv.pdf", s.FileURL())
}

func TestSelectionInvariants(t *testing.T) {
	s := analyzed(t, &fakeBackend{result: threeSuggestions()})

	require.NoError(t, s.SelectAll(false))
	assert.Empty(t, s.SelectedSuggestions())

	for _, id := range []string{"a", "b", "c"} {
		before := s.IsSelected(id)
		require.NoError(t, s.ToggleSelection(id))
		require.NoError(t, s.ToggleSelection(id))
		assert.Equal(t, before, s.IsSelected(id))
	}

	require.NoError(t, s.ToggleSelection("c"))
	require.NoError(t, s.ToggleSelection("a"))
	assert.Equal(t, []string{"a", "c"}, ids(s.SelectedSuggestions()), "selection keeps analysis order")

	require.NoError(t, s.ToggleSelection("unknown"))
	assert.Equal(t, 2, s.SelectedCount())

	require.NoError(t, s.SelectAll(true))
	assert.Equal(t, 3, s.SelectedCount())
}

func TestAnalyze_FailureStaysInUpload(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{"body message", &apiclient.RequestFailedError{Status: 422, Message: "could not read pdf"}, "could not read pdf"},
		{"fallback", errors.New("connection reset"), MessageAnalyzeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(&fakeBackend{analyzeErr: tt.err}, Options{})
			require.NoError(t, s.SelectFile(resume()))

			err := s.Analyze(context.Background())
			require.Error(t, err)
			assert.Equal(t, StepUpload, s.Step())
			assert.Equal(t, tt.message, s.AnalyzeError())
			assert.Empty(t, s.ApplyError())
			assert.NotNil(t, s.File())
		})
	}
}

func TestAnalyze_RequiresFile(t *testing.T) {
	s := NewSession(&fakeBackend{result: threeSuggestions()}, Options{})
	err := s.Analyze(context.Background())
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, MessageNoFile, s.AnalyzeError())
	assert.Equal(t, StepUpload, s.Step())
}

func TestSelectFile_RejectsDisallowedType(t *testing.T) {
	s := NewSession(&fakeBackend{}, Options{})
	require.NoError(t, s.SelectFile(resume()))

	err := s.SelectFile(&upload.File{Name: "notes.txt", ContentType: "text/plain", Data: []byte("x")})
	var verr *upload.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Nil(t, s.File())
	assert.Equal(t, upload.UnsupportedResumeMessage, s.AnalyzeError())
}

// Scenario: analyze returns one suggestion; deselect it, reselect it, apply.
func TestApplySelected_EndToEnd(t *testing.T) {
	backend := &fakeBackend{result: &types.AnalyzeResult{Suggestions: []types.Suggestion{
		{ID: "1", Field: "hero.title", CurrentValue: "Old", SuggestedValue: "New", Confidence: 0.91},
	}}}
	var hooked []types.Suggestion
	s := NewSession(backend, Options{AfterApply: func(_ context.Context, applied []types.Suggestion) error {
		hooked = applied
		return nil
	}})
	require.NoError(t, s.SelectFile(resume()))
	require.NoError(t, s.Analyze(context.Background()))

	require.NoError(t, s.SelectAll(false))
	require.NoError(t, s.ToggleSelection("1"))
	require.NoError(t, s.Proceed())
	require.NoError(t, s.ApplySelected(context.Background()))

	require.Len(t, backend.applied, 1)
	assert.Equal(t, []types.ApplyUpdate{{Field: "hero.title", Value: "New", ExpectedCurrent: "Old"}}, backend.applied[0])
	assert.Equal(t, StepDone, s.Step())
	assert.Equal(t, []string{"1"}, ids(hooked))
	assert.Equal(t, 91, types.ConfidencePercent(s.SelectedSuggestions()[0].Confidence))
}

func TestProceed_RequiresSelection(t *testing.T) {
	s := analyzed(t, &fakeBackend{result: threeSuggestions()})
	require.NoError(t, s.SelectAll(false))

	err := s.Proceed()
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, MessageNoSelection, stateErr.Message)
	assert.Equal(t, StepReview, s.Step())
}

func TestApplySelected_FailureIsAtomicAndRetryable(t *testing.T) {
	backend := &fakeBackend{
		result:   threeSuggestions(),
		applyErr: &apiclient.RequestFailedError{Status: 409, Message: "hero.title changed since analysis"},
	}
	hookCalls := 0
	s := NewSession(backend, Options{AfterApply: func(context.Context, []types.Suggestion) error {
		hookCalls++
		return nil
	}})
	require.NoError(t, s.SelectFile(resume()))
	require.NoError(t, s.Analyze(context.Background()))
	require.NoError(t, s.Proceed())

	err := s.ApplySelected(context.Background())
	require.Error(t, err)
	assert.Equal(t, StepApply, s.Step())
	assert.Equal(t, "hero.title changed since analysis", s.ApplyError())
	assert.Empty(t, s.AnalyzeError())
	assert.Zero(t, hookCalls)

	backend.applyErr = nil
	require.NoError(t, s.ApplySelected(context.Background()))
	assert.Equal(t, StepDone, s.Step())
	assert.Empty(t, s.ApplyError())
	assert.Len(t, backend.applied, 2)
	assert.Len(t, backend.applied[1], 3)
	assert.Equal(t, 1, hookCalls)
}

func TestApplySelected_GenericFailureMessage(t *testing.T) {
	backend := &fakeBackend{result: threeSuggestions(), applyErr: errors.New("eof")}
	s := analyzed(t, backend)
	require.NoError(t, s.Proceed())

	require.Error(t, s.ApplySelected(context.Background()))
	assert.Equal(t, MessageApplyFailed, s.ApplyError())
}

func TestSteps_NoBackwardTransitions(t *testing.T) {
	s := analyzed(t, &fakeBackend{result: threeSuggestions()})

	var stateErr *StateError
	assert.ErrorAs(t, s.SelectFile(resume()), &stateErr)
	assert.ErrorAs(t, s.Analyze(context.Background()), &stateErr)
	assert.ErrorAs(t, s.ApplySelected(context.Background()), &stateErr)

	require.NoError(t, s.Proceed())
	assert.ErrorAs(t, s.ToggleSelection("a"), &stateErr)
	assert.ErrorAs(t, s.SelectAll(true), &stateErr)
	assert.Equal(t, StepApply, s.Step())
}

func TestReset_ClearsEverything(t *testing.T) {
	backend := &fakeBackend{result: threeSuggestions(), applyErr: errors.New("nope")}
	s := analyzed(t, backend)
	require.NoError(t, s.Proceed())
	require.Error(t, s.ApplySelected(context.Background()))

	s.Reset()
	assert.Equal(t, StepUpload, s.Step())
	assert.Nil(t, s.File())
	assert.Empty(t, s.Suggestions())
	assert.Zero(t, s.SelectedCount())
	assert.Empty(t, s.AnalyzeError())
	assert.Empty(t, s.ApplyError())
	assert.Empty(t, s.FileURL())
}

func TestStep_String(t *testing.T) {
	assert.Equal(t, "upload", StepUpload.String())
	assert.Equal(t, "review", StepReview.String())
	assert.Equal(t, "apply", StepApply.String())
	assert.Equal(t, "done", StepDone.String())
}
