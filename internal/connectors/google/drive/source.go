package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/custodia-labs/docpilot/internal/connectors/google"
	"github.com/custodia-labs/docpilot/internal/core/domain"
	"github.com/custodia-labs/docpilot/internal/core/ports/driven"
	"github.com/custodia-labs/docpilot/internal/logger"
)

// Verify interface compliance at compile time.
var _ driven.DocumentSource = (*Source)(nil)

const (
	// SourceName identifies this document source.
	SourceName = "gdrive"

	// DefaultPageSize is the listing page size.
	DefaultPageSize = 100

	// DefaultTimeout bounds each request.
	DefaultTimeout = 60 * time.Second

	rootID = "root"
)

// Source is a Google Drive document source.
type Source struct {
	svc      *drive.Service
	tokens   driven.TokenProvider
	limiter  *google.RateLimiter
	pageSize int64
}

// config collects construction options.
type config struct {
	timeout    time.Duration
	pageSize   int64
	limiter    *google.RateLimiter
	clientOpts []option.ClientOption
}

// Option configures a Source.
type Option func(*config)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithPageSize sets the listing page size.
func WithPageSize(n int64) Option {
	return func(c *config) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithRateLimiter replaces the default limiter.
func WithRateLimiter(l *google.RateLimiter) Option {
	return func(c *config) {
		c.limiter = l
	}
}

// WithClientOptions passes options to the Drive client, such as a test endpoint.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(c *config) {
		c.clientOpts = append(c.clientOpts, opts...)
	}
}

// New creates a Drive source authenticated by tokens.
func New(ctx context.Context, tokens driven.TokenProvider, opts ...Option) (*Source, error) {
	cfg := &config{
		timeout:  DefaultTimeout,
		pageSize: DefaultPageSize,
		limiter:  google.NewRateLimiter(google.DefaultDriveRateLimit),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	svc, err := google.NewDriveService(ctx, google.NewTokenSource(ctx, tokens), cfg.timeout, cfg.clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	return &Source{
		svc:      svc,
		tokens:   tokens,
		limiter:  cfg.limiter,
		pageSize: cfg.pageSize,
	}, nil
}

// Name returns the source identifier.
func (s *Source) Name() string {
	return SourceName
}

// call runs fn under the rate limiter, replaying it once with a fresh
// token after a 401.
func (s *Source) call(ctx context.Context, fn func() error) error {
	for attempt := 0; ; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}

		err := fn()
		switch {
		case err == nil:
			return nil
		case google.IsUnauthorized(err) && attempt == 0:
			logger.Debug("gdrive: 401, refreshing token")
			s.tokens.Invalidate()
			continue
		case google.IsRateLimited(err):
			s.limiter.RecordRateLimitError(0)
		}
		return google.WrapError(err)
	}
}

// List returns the items under folderPath.
func (s *Source) List(ctx context.Context, folderPath string, recursive bool) ([]domain.RemoteItem, error) {
	folderID, err := s.resolveFolder(ctx, folderPath)
	if err != nil {
		return nil, err
	}

	if !recursive {
		files, err := s.children(ctx, folderID)
		if err != nil {
			return nil, err
		}
		items := make([]domain.RemoteItem, 0, len(files))
		for _, f := range files {
			items = append(items, toRemote(f, ""))
		}
		return items, nil
	}

	var items []domain.RemoteItem
	if err := s.walk(ctx, folderID, "", &items); err != nil {
		return nil, err
	}
	return items, nil
}

// walk lists one folder and recurses depth-first into its subfolders.
// Errors below the root are logged and skipped.
func (s *Source) walk(ctx context.Context, folderID, rel string, out *[]domain.RemoteItem) error {
	files, err := s.children(ctx, folderID)
	if err != nil {
		return err
	}

	var folders []*drive.File
	for _, f := range files {
		if f.MimeType == MimeTypeFolder {
			folders = append(folders, f)
			continue
		}
		*out = append(*out, toRemote(f, rel))
	}

	for _, f := range folders {
		sub := path.Join(rel, f.Name)
		logger.Debug("gdrive: listing subfolder %s", sub)
		if err := s.walk(ctx, f.Id, sub, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("gdrive: skipping subfolder %s: %v", sub, err)
		}
	}
	return nil
}

// children returns every non-trashed child of a folder, following nextPageToken.
func (s *Source) children(ctx context.Context, folderID string) ([]*drive.File, error) {
	query := fmt.Sprintf("%s in parents and trashed = false", quote(folderID))

	var all []*drive.File
	pageToken := ""
	for {
		var page *drive.FileList
		err := s.call(ctx, func() error {
			call := s.svc.Files.List().
				Q(query).
				Fields(listFields).
				PageSize(s.pageSize).
				OrderBy("name").
				Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			var err error
			page, err = call.Do()
			return err
		})
		if err != nil {
			return nil, err
		}

		all = append(all, page.Files...)
		if page.NextPageToken == "" {
			return all, nil
		}
		pageToken = page.NextPageToken
	}
}

// findChild returns the first child of parentID with the given name.
// Returns domain.ErrNotFound when there is none.
func (s *Source) findChild(ctx context.Context, parentID, name string, folder bool) (*drive.File, error) {
	query := fmt.Sprintf("name = %s and %s in parents and trashed = false", quote(name), quote(parentID))
	if folder {
		query += " and mimeType = " + quote(MimeTypeFolder)
	}

	var list *drive.FileList
	err := s.call(ctx, func() error {
		var err error
		list, err = s.svc.Files.List().Q(query).Fields(listFields).PageSize(1).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(list.Files) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, name)
	}
	return list.Files[0], nil
}

// resolveFolder walks folderPath from the root and returns its folder ID.
func (s *Source) resolveFolder(ctx context.Context, folderPath string) (string, error) {
	id := rootID
	for _, segment := range splitPath(folderPath) {
		f, err := s.findChild(ctx, id, segment, true)
		if err != nil {
			return "", fmt.Errorf("resolve folder %q: %w", folderPath, err)
		}
		id = f.Id
	}
	return id, nil
}

// ensureFolder resolves folderPath, creating each missing segment in turn.
func (s *Source) ensureFolder(ctx context.Context, folderPath string) (string, error) {
	id := rootID
	for _, segment := range splitPath(folderPath) {
		f, err := s.findChild(ctx, id, segment, true)
		if err == nil {
			id = f.Id
			continue
		}
		if !google.IsNotFound(err) {
			return "", err
		}

		var created *drive.File
		parent := id
		err = s.call(ctx, func() error {
			var err error
			created, err = s.svc.Files.Create(&drive.File{
				Name:     segment,
				MimeType: MimeTypeFolder,
				Parents:  []string{parent},
			}).Fields("id").Context(ctx).Do()
			return err
		})
		if err != nil {
			return "", err
		}
		logger.Debug("gdrive: created folder %s", segment)
		id = created.Id
	}
	return id, nil
}

// Download returns the content of a file item. Workspace files are
// exported to their Office equivalent.
func (s *Source) Download(ctx context.Context, item domain.RemoteItem) ([]byte, error) {
	if item.ID == "" {
		return nil, fmt.Errorf("%w: item has no id", domain.ErrInvalidInput)
	}

	exp, exportable := exports[item.MIMEType]
	if !exportable && isWorkspace(item.MIMEType) {
		return nil, fmt.Errorf("%w: %s has no export format", domain.ErrExtractionUnsupported, item.MIMEType)
	}

	var data []byte
	err := s.call(ctx, func() error {
		var (
			body io.ReadCloser
			err  error
		)
		if exportable {
			resp, derr := s.svc.Files.Export(item.ID, exp.mime).Context(ctx).Download()
			if derr != nil {
				return derr
			}
			body = resp.Body
		} else {
			resp, derr := s.svc.Files.Get(item.ID).Context(ctx).Download()
			if derr != nil {
				return derr
			}
			body = resp.Body
		}
		defer body.Close()

		data, err = io.ReadAll(body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Upload writes data as name inside folderPath, replacing the content of
// an existing file with the same name.
func (s *Source) Upload(ctx context.Context, data []byte, folderPath, name string) (*domain.UploadResult, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: empty upload name", domain.ErrInvalidInput)
	}

	folderID, err := s.ensureFolder(ctx, folderPath)
	if err != nil {
		return nil, fmt.Errorf("%w: ensure folder %q: %w", domain.ErrUploadFailed, folderPath, err)
	}

	existing, err := s.findChild(ctx, folderID, name, false)
	if err != nil && !google.IsNotFound(err) {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrUploadFailed, name, err)
	}

	var uploaded *drive.File
	err = s.call(ctx, func() error {
		var err error
		media := bytes.NewReader(data)
		if existing != nil {
			uploaded, err = s.svc.Files.Update(existing.Id, &drive.File{}).
				Media(media).Fields("id, webViewLink").Context(ctx).Do()
			return err
		}
		uploaded, err = s.svc.Files.Create(&drive.File{Name: name, Parents: []string{folderID}}).
			Media(media).Fields("id, webViewLink").Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrUploadFailed, name, err)
	}

	logger.Info("Uploaded %s to %s", name, folderPath)
	return &domain.UploadResult{ID: uploaded.Id, WebURL: uploaded.WebViewLink}, nil
}

// splitPath returns the non-empty segments of a slash-separated path.
func splitPath(p string) []string {
	var parts []string
	for _, part := range strings.Split(p, "/") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
