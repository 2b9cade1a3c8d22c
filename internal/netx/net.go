// Package netx moves file content to signed storage destinations.
package netx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strings"

	"github.com/dmitrijs2005/marsha-uploader/internal/filex"
)

// maxErrorBody bounds how much of a failed response is kept on TransferError.
const maxErrorBody = 4 << 10

// ProgressFunc receives the number of content bytes sent so far and the file
// size.
type ProgressFunc func(sent, total int64)

// Destination is where file content goes. A POST destination receives a
// multipart form made of Fields followed by a "file" part; a PUT destination
// receives the raw bytes.
type Destination struct {
	URL    string
	Method string
	Fields map[string]string
}

// TransferError is returned when storage answers with a non-2xx status.
type TransferError struct {
	StatusCode int
	Body       string
}

func (e *TransferError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upload failed: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("upload failed: %d %s; body: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// Upload sends file to dst. progress may be nil.
func Upload(ctx context.Context, client *http.Client, dst Destination, file *filex.LocalFile, progress ProgressFunc) error {
	if client == nil {
		client = http.DefaultClient
	}

	content, err := file.Reader()
	if err != nil {
		return fmt.Errorf("open %s: %w", file.Name, err)
	}
	defer content.Close()

	body := &progressReader{r: content, total: file.Size, fn: progress}

	var req *http.Request
	switch strings.ToUpper(dst.Method) {
	case "", http.MethodPost:
		req, err = newMultipartRequest(ctx, dst, file, body)
	case http.MethodPut:
		req, err = newPutRequest(ctx, dst, file, body)
	default:
		return fmt.Errorf("unsupported upload method %q", dst.Method)
	}
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("upload %s: %w", file.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &TransferError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func newPutRequest(ctx context.Context, dst Destination, file *filex.LocalFile, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, dst.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.ContentLength = file.Size
	req.Header.Set("Content-Type", contentType(file))
	return req, nil
}

// newMultipartRequest frames the form around the streamed file so the
// request carries an exact Content-Length; storage endpoints reject chunked
// POST bodies.
func newMultipartRequest(ctx context.Context, dst Destination, file *filex.LocalFile, content io.Reader) (*http.Request, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(dst.Fields))
	for k := range dst.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := mw.WriteField(k, dst.Fields[k]); err != nil {
			return nil, fmt.Errorf("write field %s: %w", k, err)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(file.Name)))
	h.Set("Content-Type", contentType(file))
	if _, err := mw.CreatePart(h); err != nil {
		return nil, fmt.Errorf("create file part: %w", err)
	}
	headLen := buf.Len()
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}
	head := buf.Bytes()[:headLen]
	tail := buf.Bytes()[headLen:]

	body := io.MultiReader(bytes.NewReader(head), content, bytes.NewReader(tail))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, dst.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.ContentLength = int64(len(head)) + file.Size + int64(len(tail))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func contentType(file *filex.LocalFile) string {
	if file.Mimetype == "" {
		return "application/octet-stream"
	}
	return file.Mimetype
}

type progressReader struct {
	r     io.Reader
	sent  int64
	total int64
	fn    ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		if p.fn != nil {
			p.fn(p.sent, p.total)
		}
	}
	return n, err
}
