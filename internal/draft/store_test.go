package draft

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathanieluriri/omas-portfolio/internal/apiclient"
	"github.com/nathanieluriri/omas-portfolio/internal/content"
	"github.com/nathanieluriri/omas-portfolio/internal/schemas"
	"github.com/nathanieluriri/omas-portfolio/internal/suggest"
	"github.com/nathanieluriri/omas-portfolio/internal/types"
)

type fakeBackend struct {
	mu        sync.Mutex
	user      *types.User
	meErr     error
	portfolio content.Value
	loadErr   error
	saveErr   error
	response  *content.Value
	created   []content.Value
	updated   []content.Value
}

func (f *fakeBackend) Me(context.Context) (*types.User, error) {
	return f.user, f.meErr
}

func (f *fakeBackend) Portfolio(_ context.Context, userID string) (content.Value, error) {
	if f.loadErr != nil {
		return content.Null(), f.loadErr
	}
	return f.portfolio, nil
}

func (f *fakeBackend) CreatePortfolio(_ context.Context, doc content.Value) (content.Value, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, doc)
	return f.reply(doc)
}

func (f *fakeBackend) UpdatePortfolio(_ context.Context, doc content.Value) (content.Value, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, doc)
	return f.reply(doc)
}

func (f *fakeBackend) reply(doc content.Value) (content.Value, error) {
	if f.saveErr != nil {
		return content.Null(), f.saveErr
	}
	if f.response != nil {
		return *f.response, nil
	}
	return doc, nil
}

func loadedStore(t *testing.T, backend *fakeBackend, opts Options) *Store {
	t.Helper()
	s := NewStore(backend, opts)
	require.NoError(t, s.Load(context.Background()))
	return s
}

func TestLoad_CopiesDocument(t *testing.T) {
	backend := &fakeBackend{
		user:      &types.User{ID: "u1"},
		portfolio: content.MustParse(`{"hero":{"name":"X"}}`),
	}
	s := loadedStore(t, backend, Options{})

	assert.True(t, content.Equal(backend.portfolio, s.Draft()))
	assert.True(t, content.Equal(backend.portfolio, s.Authoritative()))
	assert.False(t, s.HasChanges())
	assert.Equal(t, "u1", s.User().ID)

	require.NoError(t, s.SetField(content.MustParsePath("hero.name"), content.String("Y")))
	assert.Equal(t, "X", mustLookup(t, s.Authoritative(), "hero.name"))
	assert.True(t, s.HasChanges())
}

func TestLoad_Failures(t *testing.T) {
	tests := []struct {
		name    string
		backend *fakeBackend
		message string
	}{
		{"me fails", &fakeBackend{meErr: errors.New("dial tcp")}, MessageNoUser},
		{"me fails with body", &fakeBackend{meErr: &apiclient.RequestFailedError{Status: 500, Message: "db down"}}, "db down"},
		{"user without id", &fakeBackend{user: &types.User{Email: "a@b"}}, MessageNoUser},
		{"portfolio fails", &fakeBackend{user: &types.User{ID: "u"}, loadErr: errors.New("timeout")}, MessageLoadFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(tt.backend, Options{})
			s.SetDraft(content.MustParse(`{"stale":true}`))

			err := s.Load(context.Background())
			var loadErr *LoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, tt.message, loadErr.Message)
			assert.Equal(t, tt.message, s.ErrorMessage())
			assert.True(t, s.Draft().IsNull())
			assert.True(t, s.Authoritative().IsNull())
			assert.Error(t, s.LoadError())
		})
	}
}

func TestLoad_SuccessClearsStickyError(t *testing.T) {
	backend := &fakeBackend{meErr: errors.New("offline")}
	s := NewStore(backend, Options{})
	require.Error(t, s.Load(context.Background()))

	backend.meErr = nil
	backend.user = &types.User{ID: "u"}
	backend.portfolio = content.MustParse(`{}`)
	require.NoError(t, s.Load(context.Background()))
	assert.NoError(t, s.LoadError())
	assert.Empty(t, s.ErrorMessage())
}

func TestSave_CollapsesToResponse(t *testing.T) {
	z := content.MustParse(`{"hero":{"name":"Z"},"id":"p1"}`)
	backend := &fakeBackend{
		user:      &types.User{ID: "u"},
		portfolio: content.MustParse(`{"hero":{"name":"X"}}`),
		response:  &z,
	}
	s := loadedStore(t, backend, Options{})
	s.SetDraft(content.MustParse(`{"hero":{"name":"Y"}}`))
	require.True(t, s.HasChanges())

	saved, err := s.Save(context.Background())
	require.NoError(t, err)

	assert.True(t, content.Equal(z, saved))
	assert.True(t, content.Equal(z, s.Authoritative()))
	assert.True(t, content.Equal(z, s.Draft()))
	assert.False(t, s.HasChanges())
	assert.Len(t, backend.updated, 1)
	assert.Empty(t, backend.created)
}

func TestSave_FailurePreservesDraft(t *testing.T) {
	backend := &fakeBackend{
		user:      &types.User{ID: "u"},
		portfolio: content.MustParse(`{"hero":{"name":"X"}}`),
		saveErr:   &apiclient.RequestFailedError{Status: 500, Message: "write conflict"},
	}
	s := loadedStore(t, backend, Options{})
	y := content.MustParse(`{"hero":{"name":"Y"}}`)
	s.SetDraft(y)

	_, err := s.Save(context.Background())
	var saveErr *SaveError
	require.ErrorAs(t, err, &saveErr)
	assert.Equal(t, "write conflict", saveErr.Message)

	assert.True(t, content.Equal(y, s.Draft()))
	assert.Equal(t, "X", mustLookup(t, s.Authoritative(), "hero.name"))
	assert.True(t, s.HasChanges())
	assert.Equal(t, "write conflict", s.ErrorMessage())

	backend.saveErr = nil
	_, err = s.Save(context.Background())
	require.NoError(t, err)
	assert.NoError(t, s.SaveError())
	assert.False(t, s.HasChanges())
}

func TestSave_CreatesWhenNoPortfolio(t *testing.T) {
	backend := &fakeBackend{user: &types.User{ID: "u"}, portfolio: content.Null()}
	s := loadedStore(t, backend, Options{})
	assert.True(t, s.Draft().IsNull())

	saved, err := s.Save(context.Background())
	require.NoError(t, err)
	assert.True(t, saved.IsNull(), "saving without a draft does nothing")
	assert.Empty(t, backend.created)

	s.SetDraft(content.EmptyPortfolio())
	_, err = s.Save(context.Background())
	require.NoError(t, err)
	assert.Len(t, backend.created, 1)
	assert.Empty(t, backend.updated)

	_, err = s.Save(context.Background())
	require.NoError(t, err)
	assert.Len(t, backend.updated, 1, "second save updates the created portfolio")
}

func TestSave_SchemaViolationPreservesDraft(t *testing.T) {
	validator, err := schemas.PortfolioValidator()
	require.NoError(t, err)

	backend := &fakeBackend{user: &types.User{ID: "u"}, portfolio: content.MustParse(`{"hero":{"bio":["a"]}}`)}
	s := loadedStore(t, backend, Options{Validator: validator})
	require.NoError(t, s.SetField(content.MustParsePath("hero.bio"), content.String("not a list")))

	_, err = s.Save(context.Background())
	var saveErr *SaveError
	require.ErrorAs(t, err, &saveErr)
	assert.Contains(t, saveErr.Message, "hero.bio")
	assert.Empty(t, backend.updated)
	assert.True(t, s.HasChanges())
}

func TestDiscard(t *testing.T) {
	backend := &fakeBackend{user: &types.User{ID: "u"}, portfolio: content.MustParse(`{"a":1}`)}
	s := loadedStore(t, backend, Options{})

	s.SetDraft(content.MustParse(`{"a":2}`))
	s.Discard()
	assert.False(t, s.HasChanges())
	assert.True(t, content.Equal(content.MustParse(`{"a":1}`), s.Draft()))
}

func TestHasChanges_OrderSensitive(t *testing.T) {
	backend := &fakeBackend{user: &types.User{ID: "u"}, portfolio: content.MustParse(`{"a":1,"b":["x","y"]}`)}
	s := loadedStore(t, backend, Options{})

	s.SetDraft(content.MustParse(`{"b":["x","y"],"a":1}`))
	assert.True(t, s.HasChanges())

	s.SetDraft(content.MustParse(`{"a":1,"b":["y","x"]}`))
	assert.True(t, s.HasChanges())

	s.SetDraft(content.MustParse(`{"a":1,"b":["x","y"]}`))
	assert.False(t, s.HasChanges())
}

func TestUpdate_RequiresDraft(t *testing.T) {
	s := NewStore(&fakeBackend{}, Options{})
	err := s.SetField(content.MustParsePath("hero.name"), content.String("x"))
	assert.ErrorIs(t, err, ErrNoDraft)
}

type patchGenerator struct {
	patch string
}

func (g patchGenerator) GenerateSuggestion(_ context.Context, req apiclient.GenerateRequest) (*types.SuggestionPatchData, error) {
	return &types.SuggestionPatchData{Target: req.TargetPath, Patch: content.MustParse(g.patch)}, nil
}

func TestField_ConcurrentControllersKeepEachOthersWrites(t *testing.T) {
	backend := &fakeBackend{
		user:      &types.User{ID: "u"},
		portfolio: content.MustParse(`{"hero":{"name":"A","title":"T"}}`),
	}
	s := loadedStore(t, backend, Options{})

	controller := func(path, patch string) *suggest.Controller {
		current, apply := s.Field(content.MustParsePath(path))
		c, err := suggest.NewController(patchGenerator{patch: patch}, suggest.Options{
			TargetPath: path,
			Current:    current,
			Apply:      apply,
		})
		require.NoError(t, err)
		c.SetText("context")
		return c
	}
	name := controller("hero.name", `{"hero":{"name":"B"}}`)
	title := controller("hero.title", `{"hero":{"title":"Lead"}}`)

	var wg sync.WaitGroup
	for _, c := range []*suggest.Controller{name, title} {
		wg.Add(1)
		go func(c *suggest.Controller) {
			defer wg.Done()
			assert.NoError(t, c.Generate(context.Background()))
		}(c)
	}
	wg.Wait()

	draft := s.Draft()
	assert.Equal(t, "B", mustLookup(t, draft, "hero.name"))
	assert.Equal(t, "Lead", mustLookup(t, draft, "hero.title"))

	require.NoError(t, name.Undo())
	assert.Equal(t, "A", mustLookup(t, s.Draft(), "hero.name"))
	assert.Equal(t, "Lead", mustLookup(t, s.Draft(), "hero.title"))
}

func mustLookup(t *testing.T, doc content.Value, raw string) string {
	t.Helper()
	v, ok, err := content.Lookup(doc, raw)
	require.NoError(t, err)
	require.True(t, ok, "missing %s", raw)
	return v.Text()
}
