package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/nathanieluriri/omas-portfolio/internal/content"
	"github.com/nathanieluriri/omas-portfolio/internal/types"
	"github.com/nathanieluriri/omas-portfolio/internal/upload"
)

// Me returns the signed-in admin.
func (c *Client) Me(ctx context.Context) (*types.User, error) {
	r := request{operation: "load user", method: http.MethodGet, path: "/users/me", auth: true}
	resp, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, failure(r, resp, "Failed to load user profile.")
	}
	payload, err := decode[types.User](r, resp)
	if err != nil {
		return nil, err
	}
	if payload.Data == nil {
		return nil, &RequestFailedError{Operation: r.operation, Status: resp.status, Message: "Unable to load user profile."}
	}
	return payload.Data, nil
}

// Portfolio fetches the public portfolio of userID without authentication. A user
// without a portfolio yields a null document and no error.
func (c *Client) Portfolio(ctx context.Context, userID string) (content.Value, error) {
	r := request{operation: "load portfolio", method: http.MethodGet, path: "/portfolios/" + url.PathEscape(userID)}
	resp, err := c.do(ctx, r)
	if err != nil {
		return content.Null(), err
	}
	if resp.status == http.StatusNotFound {
		return content.Null(), nil
	}
	if !resp.ok() {
		return content.Null(), failure(r, resp, "Failed to load portfolio.")
	}
	return documentData(r, resp)
}

// CreatePortfolio creates the admin's portfolio from doc and returns the stored
// document.
func (c *Client) CreatePortfolio(ctx context.Context, doc content.Value) (content.Value, error) {
	return c.writePortfolio(ctx, "create portfolio", http.MethodPost, doc, "Failed to create portfolio")
}

// UpdatePortfolio replaces the admin's portfolio with doc and returns the stored
// document.
func (c *Client) UpdatePortfolio(ctx context.Context, doc content.Value) (content.Value, error) {
	return c.writePortfolio(ctx, "update portfolio", http.MethodPatch, doc, "Failed to update portfolio")
}

func (c *Client) writePortfolio(ctx context.Context, operation, method string, doc content.Value, fallback string) (content.Value, error) {
	r, err := jsonRequest(operation, method, "/portfolios/", doc)
	if err != nil {
		return content.Null(), err
	}
	resp, err := c.do(ctx, r)
	if err != nil {
		return content.Null(), err
	}
	if !resp.ok() {
		return content.Null(), failure(r, resp, fallback)
	}
	return documentData(r, resp)
}

// DeletePortfolio removes the admin's portfolio.
func (c *Client) DeletePortfolio(ctx context.Context) error {
	r := request{operation: "delete portfolio", method: http.MethodDelete, path: "/portfolios/", auth: true}
	resp, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return failure(r, resp, "Failed to delete portfolio")
	}
	return nil
}

// UploadResume stores a resume server-side so later suggestions can reuse it.
func (c *Client) UploadResume(ctx context.Context, file *upload.File) (content.Value, error) {
	if err := upload.ValidateResume(file); err != nil {
		return content.Null(), err
	}
	f := newForm()
	f.file("resume", file)
	r, err := f.request("upload resume", "/portfolios/upload_resume")
	if err != nil {
		return content.Null(), err
	}
	resp, err := c.do(ctx, r)
	if err != nil {
		return content.Null(), err
	}
	if !resp.ok() {
		return content.Null(), failure(r, resp, "Failed to upload resume")
	}
	return documentData(r, resp)
}

// MetadataImages are the optional images shown in link previews and the browser tab.
type MetadataImages struct {
	SocialImage  *upload.File
	AnagramDark  *upload.File
	AnagramLight *upload.File
	Favicon      *upload.File
}

// UploadMetadataImages uploads whichever images are set and returns the stored URLs
// keyed by form field.
func (c *Client) UploadMetadataImages(ctx context.Context, images MetadataImages) (map[string]string, error) {
	parts := []struct {
		name string
		file *upload.File
	}{
		{"social_image", images.SocialImage},
		{"anagram_dark", images.AnagramDark},
		{"anagram_light", images.AnagramLight},
		{"favicon", images.Favicon},
	}

	f := newForm()
	for _, part := range parts {
		if part.file == nil {
			continue
		}
		if err := upload.ValidateImage(part.file); err != nil {
			return nil, err
		}
		f.file(part.name, part.file)
	}
	r, err := f.request("upload metadata images", "/portfolios/upload_metadata_images")
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, failure(r, resp, "Failed to upload metadata images")
	}
	payload, err := decode[map[string]string](r, resp)
	if err != nil {
		return nil, err
	}
	if payload.Data == nil {
		return map[string]string{}, nil
	}
	return *payload.Data, nil
}

func documentData(r request, resp *response) (content.Value, error) {
	payload, err := decode[content.Value](r, resp)
	if err != nil {
		return content.Null(), err
	}
	if payload.Data == nil {
		return content.Null(), nil
	}
	return *payload.Data, nil
}
