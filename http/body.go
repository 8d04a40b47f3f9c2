package http

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"strings"
)

const (
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderAccept        = "Accept"

	ContentTypeJSON = "application/json"
)

// encodeBody serializes req.Body according to its content type and sets the
// Content-Type header when the encoding decides it.
//
//   - *Form: sent as multipart, keeping a caller-provided content type.
//   - no content type or a JSON one: JSON-encoded ([]byte is sent as is).
//   - any other content type: []byte, string or io.Reader sent verbatim.
func encodeBody(req *Request) ([]byte, error) {
	if req.Body == nil {
		return nil, nil
	}

	if form, ok := req.Body.(*Form); ok {
		data, err := form.Encode()
		if err != nil {
			return nil, NewValidationError(fmt.Sprintf("failed to encode form: %v", err), "body")
		}
		if req.Headers.Get(HeaderContentType) == "" {
			req.Headers.Set(HeaderContentType, form.ContentType())
		}
		return data, nil
	}

	contentType := req.Headers.Get(HeaderContentType)
	if contentType == "" || isJSONContentType(contentType) {
		if contentType == "" {
			req.Headers.Set(HeaderContentType, ContentTypeJSON)
		}
		// bytes are taken as an already encoded document
		if raw, ok := req.Body.([]byte); ok {
			return raw, nil
		}
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, NewValidationError(fmt.Sprintf("body is not JSON-serializable: %v", err), "body")
		}
		return data, nil
	}

	switch b := req.Body.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	case io.Reader:
		data, err := io.ReadAll(b)
		if err != nil {
			return nil, NewValidationError(fmt.Sprintf("failed to read body: %v", err), "body")
		}
		return data, nil
	default:
		return nil, NewValidationError(
			fmt.Sprintf("body of type %T must be pre-encoded for content type %s", req.Body, contentType), "body")
	}
}

// bufferReaderBody drains an io.Reader body once so that every retry attempt
// sends the same bytes.
func bufferReaderBody(req *Request) error {
	r, ok := req.Body.(io.Reader)
	if !ok {
		return nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return NewValidationError(fmt.Sprintf("failed to read body: %v", err), "body")
	}
	req.Body = data
	return nil
}

func isJSONContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == ContentTypeJSON || strings.HasSuffix(mediaType, "+json")
}
