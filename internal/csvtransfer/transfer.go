// Package csvtransfer moves CSV files to and from the backend. It uses the
// gateway's raw Fetch and never validates rows.
package csvtransfer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/johnwards/dashgate/internal/gateway"
)

// ImportTarget is an upload endpoint.
type ImportTarget string

// Import endpoints.
const (
	ImportAccounts      ImportTarget = "/import/accounts.csv"
	ImportOpportunities ImportTarget = "/import/opportunities.csv"
)

// ExportTarget is a download endpoint.
type ExportTarget string

// Export endpoints.
const (
	ExportAccounts      ExportTarget = "/export/accounts.csv"
	ExportOpportunities ExportTarget = "/export/opportunities.csv"
)

// ParseImportTarget maps "accounts" or "opportunities" to its endpoint.
func ParseImportTarget(entity string) (ImportTarget, error) {
	switch entity {
	case "accounts":
		return ImportAccounts, nil
	case "opportunities":
		return ImportOpportunities, nil
	}
	return "", fmt.Errorf("unknown import entity %q", entity)
}

// ParseExportTarget maps "accounts" or "opportunities" to its endpoint.
func ParseExportTarget(entity string) (ExportTarget, error) {
	switch entity {
	case "accounts":
		return ExportAccounts, nil
	case "opportunities":
		return ExportOpportunities, nil
	}
	return "", fmt.Errorf("unknown export entity %q", entity)
}

// FormField is the multipart field carrying the uploaded file.
const FormField = "file"

// Fetcher is the raw request primitive. *gateway.Gateway satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, req gateway.Request) (*gateway.Response, error)
}

// Option configures a Channel.
type Option func(*Channel)

// WithBlobStore shares a blob store with the caller.
func WithBlobStore(s *BlobStore) Option {
	return func(c *Channel) {
		if s != nil {
			c.blobs = s
		}
	}
}

// WithSaver replaces the default DirSaver{Dir: "."}.
func WithSaver(s Saver) Option {
	return func(c *Channel) {
		if s != nil {
			c.saver = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Channel) {
		if l != nil {
			c.logger = l
		}
	}
}

// Channel uploads and downloads CSV files.
type Channel struct {
	f      Fetcher
	blobs  *BlobStore
	saver  Saver
	logger *slog.Logger
}

// New returns a Channel over f.
func New(f Fetcher, opts ...Option) *Channel {
	c := &Channel{
		f:      f,
		blobs:  NewBlobStore(),
		saver:  DirSaver{Dir: "."},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Blobs returns the channel's blob store.
func (c *Channel) Blobs() *BlobStore {
	return c.blobs
}

// Upload posts r as a multipart form with the single field "file". Success is
// decided by HTTP status alone.
func (c *Channel) Upload(ctx context.Context, target ImportTarget, filename string, r io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(FormField, filename)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("copy %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	_, err = c.f.Fetch(ctx, gateway.Request{
		Method:      http.MethodPost,
		Path:        string(target),
		ContentType: mw.FormDataContentType(),
		Body:        &buf,
	})
	if err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "csv uploaded", "target", string(target), "file", filename, "bytes", buf.Len())
	return nil
}

// Download fetches target and hands it to the saver as filename. The blob ref
// exists only between a successful fetch and return; it is released on every
// path once acquired.
func (c *Channel) Download(ctx context.Context, target ExportTarget, filename string) error {
	resp, err := c.f.Fetch(ctx, gateway.Request{Method: http.MethodGet, Path: string(target)})
	if err != nil {
		return err
	}

	ref := c.blobs.Acquire(Blob{Data: resp.Body, ContentType: resp.Header.Get("Content-Type")})
	defer c.blobs.Release(ref)

	if err := c.saver.Save(ctx, filename, ref, c.blobs); err != nil {
		return fmt.Errorf("save %s: %w", filename, err)
	}
	c.logger.InfoContext(ctx, "csv downloaded", "target", string(target), "file", filename, "bytes", len(resp.Body))
	return nil
}
