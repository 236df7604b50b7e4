package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/dmitrijs2005/ragdesk/internal/client/transport"
)

// Form is a multipart/form-data body. Parts are written in the order they
// were added.
type Form struct {
	parts []formPart
}

type formPart struct {
	name     string
	value    string
	filename string
	content  io.Reader
}

// AddField appends a plain text field.
func (f *Form) AddField(name, value string) *Form {
	f.parts = append(f.parts, formPart{name: name, value: value})
	return f
}

// AddFile appends a file part. content is read once, when the form is sent.
func (f *Form) AddFile(name, filename string, content io.Reader) *Form {
	f.parts = append(f.parts, formPart{name: name, filename: filename, content: content})
	return f
}

func (f *Form) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, p := range f.parts {
		if p.content == nil {
			if err := w.WriteField(p.name, p.value); err != nil {
				return nil, "", err
			}
			continue
		}
		part, err := w.CreateFormFile(p.name, p.filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, p.content); err != nil {
			return nil, "", fmt.Errorf("read %s: %w", p.filename, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// Upload posts form to path. onProgress, if not nil, receives the share of
// the body sent so far as a percentage. Values never decrease, including
// across the retry after a token refresh, and the last one is 100 when the
// upload succeeds.
func (c *Client) Upload(ctx context.Context, path string, form *Form, onProgress func(percent int), out any, opts ...RequestOption) error {
	body, contentType, err := form.encode()
	if err != nil {
		return fmt.Errorf("encode form: %w", err)
	}

	req := &transport.Request{
		Method:      http.MethodPost,
		Path:        path,
		Body:        body,
		ContentType: contentType,
	}

	last := -1
	report := func(percent int) {
		if onProgress != nil && percent > last {
			last = percent
			onProgress(percent)
		}
	}
	req.Progress = func(sent, total int64) {
		if total > 0 {
			report(int(sent * 100 / total))
		}
	}

	if err := c.roundTrip(ctx, req, out, opts); err != nil {
		return err
	}
	report(100)
	return nil
}
