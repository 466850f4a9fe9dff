package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/nathanieluriri/omas-portfolio/internal/config"
	"github.com/nathanieluriri/omas-portfolio/internal/content"
	"github.com/nathanieluriri/omas-portfolio/internal/session"
	"github.com/nathanieluriri/omas-portfolio/internal/types"
)

// validToken is the only access token fakeAPI accepts.
const validToken = "good-token"

// fakeAPI is an in-memory portfolio backend for command tests.
type fakeAPI struct {
	mu sync.Mutex

	user        types.User
	portfolio   content.Value
	patch       string
	suggestions []types.Suggestion
	applyStatus int
	applyBody   string

	methods   []string
	generated []generateCall
	applied   []types.ApplyUpdate
	uploads   []string
}

// generateCall is the part of a generate request the tests inspect.
type generateCall struct {
	target string
	text   string
	stored bool
	file   string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		user:      types.User{ID: "u1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", LoginType: "google"},
		portfolio: content.Null(),
	}
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/v1")
	f.methods = append(f.methods, r.Method+" "+path)

	if path == "/portfolios/"+f.user.ID && r.Method == http.MethodGet {
		if f.portfolio.IsNull() {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeData(w, f.portfolio)
		return
	}
	if r.Header.Get("Authorization") != "Bearer "+validToken {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	switch r.Method + " " + path {
	case "GET /users/me":
		writeData(w, f.user)
	case "POST /portfolios/", "PATCH /portfolios/":
		body, _ := io.ReadAll(r.Body)
		doc, err := content.Parse(body)
		if err != nil {
			http.Error(w, "bad document", http.StatusBadRequest)
			return
		}
		f.portfolio = doc
		writeData(w, doc)
	case "DELETE /portfolios/":
		f.portfolio = content.Null()
		writeData(w, map[string]string{})
	case "POST /suggestions/generate":
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		req := generateCall{
			target: r.FormValue("target_path"),
			text:   r.FormValue("text_input"),
			stored: r.FormValue("use_existing_resume") == "true",
		}
		if _, header, err := r.FormFile("file"); err == nil {
			req.file = header.Filename
		}
		f.generated = append(f.generated, req)
		writeData(w, types.SuggestionPatchData{Target: req.target, Patch: content.MustParse(f.patch)})
	case "POST /portfolios/analyze":
		writeData(w, types.AnalyzeResult{FileURL: "https://cdn.example.com/resume.pdf", Suggestions: f.suggestions})
	case "POST /portfolios/apply":
		if f.applyStatus != 0 {
			http.Error(w, f.applyBody, f.applyStatus)
			return
		}
		var req types.ApplyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		for _, u := range req.Updates {
			doc, err := content.Set(f.portfolio, content.MustParsePath(u.Field), content.String(u.Value))
			if err != nil {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			f.portfolio = doc
		}
		f.applied = append(f.applied, req.Updates...)
		writeData(w, map[string]int{"applied": len(req.Updates)})
	case "POST /portfolios/upload_resume":
		f.uploads = append(f.uploads, "resume")
		writeData(w, content.MustParse(`{"resumeUrl":"https://cdn.example.com/resume.pdf"}`))
	case "POST /portfolios/upload_metadata_images":
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		urls := map[string]string{}
		for field := range r.MultipartForm.File {
			f.uploads = append(f.uploads, field)
			urls[field] = "https://cdn.example.com/" + field
		}
		writeData(w, urls)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeAPI) calls(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.methods {
		if m == method+" "+path {
			n++
		}
	}
	return n
}

func (f *fakeAPI) document() content.Value {
	f.mu.Lock()
	defer f.mu.Unlock()
	return content.Clone(f.portfolio)
}

func writeData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"status_code": http.StatusOK, "data": data})
}

// testEnv runs commands against a fakeAPI with a session file in a temp dir.
type testEnv struct {
	api         *fakeAPI
	server      *httptest.Server
	dir         string
	sessionFile string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv(config.EnvAPIBaseURL, "")
	t.Setenv(config.EnvUserID, "")
	t.Setenv(config.EnvSessionFile, "")

	api := newFakeAPI()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	dir := t.TempDir()
	return &testEnv{api: api, server: server, dir: dir, sessionFile: filepath.Join(dir, "session.json")}
}

// signIn stores tokens as if login had run.
func (e *testEnv) signIn(t *testing.T, access string) {
	t.Helper()
	store, err := session.OpenFileStore(e.sessionFile)
	require.NoError(t, err)
	require.NoError(t, store.Set(session.Tokens{AccessToken: access, RefreshToken: "refresh-token"}))
}

func (e *testEnv) tokens(t *testing.T) session.Tokens {
	t.Helper()
	store, err := session.OpenFileStore(e.sessionFile)
	require.NoError(t, err)
	return store.Get()
}

// file writes data to name in the temp dir and returns its path.
func (e *testEnv) file(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// run executes the CLI with the test server and session file configured.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	full := append([]string{"--api-base-url", e.server.URL, "--session-file", e.sessionFile}, args...)
	return execute(t, full...)
}

// execute runs rootCmd with args and returns everything it printed. Flag values
// persist between executions of the same command tree, so they are reset first.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func pdfBytes() []byte {
	return []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")
}

func pngBytes() []byte {
	return []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")
}
