package http

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

type formPart struct {
	name        string
	filename    string
	contentType string
	data        []byte
}

// Form is a multipart/form-data body. Parts are written in insertion order
// with a boundary fixed at construction, so encoding is repeatable across
// retries.
type Form struct {
	parts    []formPart
	boundary string
}

// NewForm creates an empty form.
func NewForm() *Form {
	return &Form{boundary: multipart.NewWriter(io.Discard).Boundary()}
}

// AddField appends a plain text field.
func (f *Form) AddField(name, value string) *Form {
	f.parts = append(f.parts, formPart{name: name, data: []byte(value)})
	return f
}

// AddFile appends a file part. An empty contentType defaults to
// application/octet-stream.
func (f *Form) AddFile(name, filename, contentType string, data []byte) *Form {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	f.parts = append(f.parts, formPart{name: name, filename: filename, contentType: contentType, data: data})
	return f
}

// ContentType returns the multipart content type including the boundary.
func (f *Form) ContentType() string {
	return "multipart/form-data; boundary=" + f.boundary
}

// Encode renders the form body.
func (f *Form) Encode() ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.SetBoundary(f.boundary); err != nil {
		return nil, err
	}

	for _, part := range f.parts {
		if part.filename == "" {
			if err := w.WriteField(part.name, string(part.data)); err != nil {
				return nil, err
			}
			continue
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(part.name), quoteEscaper.Replace(part.filename)))
		h.Set("Content-Type", part.contentType)
		pw, err := w.CreatePart(h)
		if err != nil {
			return nil, err
		}
		if _, err := pw.Write(part.data); err != nil {
			return nil, err
		}
	}

	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
