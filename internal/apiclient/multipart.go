package apiclient

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/nathanieluriri/omas-portfolio/internal/upload"
)

// form accumulates a multipart body.
type form struct {
	buf    bytes.Buffer
	writer *multipart.Writer
	err    error
}

func newForm() *form {
	f := &form{}
	f.writer = multipart.NewWriter(&f.buf)
	return f
}

func (f *form) field(name, value string) {
	if f.err != nil {
		return
	}
	f.err = f.writer.WriteField(name, value)
}

func (f *form) file(name string, file *upload.File) {
	if f.err != nil || file == nil {
		return
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(name), escapeQuotes(file.Name)))
	header.Set("Content-Type", contentType)

	part, err := f.writer.CreatePart(header)
	if err != nil {
		f.err = err
		return
	}
	_, f.err = part.Write(file.Data)
}

// request finalizes the body into an authenticated POST.
func (f *form) request(operation, path string) (request, error) {
	if f.err != nil {
		return request{}, fmt.Errorf("failed to build %s form: %w", operation, f.err)
	}
	if err := f.writer.Close(); err != nil {
		return request{}, fmt.Errorf("failed to build %s form: %w", operation, err)
	}
	return request{
		operation:   operation,
		method:      "POST",
		path:        path,
		body:        f.buf.Bytes(),
		contentType: f.writer.FormDataContentType(),
		auth:        true,
	}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
