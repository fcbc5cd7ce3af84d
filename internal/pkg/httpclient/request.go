package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"kasbi-client/internal/dto"
)

// Request describes one logical API call. A logical call may hit the wire
// twice: once, and once more after a token refresh.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   interface{}
	File   *FilePart

	// SkipRefresh keeps a 401 as a plain failure. Used for the auth
	// endpoints where 401 means bad credentials, not an expired token.
	SkipRefresh bool
}

type FilePart struct {
	FieldName string
	FileName  string
	Content   io.Reader
}

// payload is the encoded body, kept as bytes so it can be replayed.
type payload struct {
	data        []byte
	contentType string
}

func (r *Request) encode() (*payload, error) {
	switch {
	case r.File != nil:
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)

		field := r.File.FieldName
		if field == "" {
			field = "file"
		}
		part, err := w.CreateFormFile(field, r.File.FileName)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(part, r.File.Content); err != nil {
			return nil, fmt.Errorf("failed to read upload: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return &payload{data: buf.Bytes(), contentType: w.FormDataContentType()}, nil

	case r.Body != nil:
		data, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		return &payload{data: data, contentType: "application/json"}, nil
	}
	return &payload{}, nil
}

func (p *payload) reader() io.Reader {
	if p.data == nil {
		return http.NoBody
	}
	return bytes.NewReader(p.data)
}

// Response is a successful (2xx) reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode fills v from the body, unwrapping the {"data": ...} envelope when
// the backend used one.
func (r *Response) Decode(v interface{}) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}

	var envelope dto.BaseResponse[json.RawMessage]
	if err := json.Unmarshal(r.Body, &envelope); err == nil {
		if data := bytes.TrimSpace(envelope.Data); len(data) > 0 && !bytes.Equal(data, []byte("null")) {
			if err := json.Unmarshal(data, v); err != nil {
				return fmt.Errorf("failed to decode response data: %w", err)
			}
			return nil
		}
	}

	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
