package onedrive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/custodia-labs/docpilot/internal/core/domain"
	"github.com/custodia-labs/docpilot/internal/core/ports/driven"
	"github.com/custodia-labs/docpilot/internal/logger"
)

// Verify interface compliance at compile time.
var _ driven.DocumentSource = (*Source)(nil)

// SourceName identifies this document source.
const SourceName = "onedrive"

const (
	contentTypeJSON   = "application/json"
	contentTypeBinary = "application/octet-stream"
	conflictBehavior  = "@microsoft.graph.conflictBehavior"
)

// driveItem is the subset of the Graph driveItem resource in use.
type driveItem struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Size                 int64     `json:"size"`
	LastModifiedDateTime time.Time `json:"lastModifiedDateTime"`
	WebURL               string    `json:"webUrl"`
	Folder               *struct {
		ChildCount int `json:"childCount"`
	} `json:"folder,omitempty"`
}

type itemPage struct {
	Value    []driveItem `json:"value"`
	NextLink string      `json:"@odata.nextLink"`
}

// Source is a OneDrive document source.
type Source struct {
	client *Client
}

// New creates a OneDrive source.
func New(tokens driven.TokenProvider, opts ...Option) *Source {
	return &Source{client: NewClient(tokens, opts...)}
}

// Name returns the source identifier.
func (s *Source) Name() string {
	return SourceName
}

// List returns the items under folderPath.
func (s *Source) List(ctx context.Context, folderPath string, recursive bool) ([]domain.RemoteItem, error) {
	if !recursive {
		children, err := s.children(ctx, folderPath)
		if err != nil {
			return nil, err
		}
		items := make([]domain.RemoteItem, 0, len(children))
		for _, child := range children {
			items = append(items, toRemote(child, ""))
		}
		return items, nil
	}

	var items []domain.RemoteItem
	if err := s.walk(ctx, folderPath, "", &items); err != nil {
		return nil, err
	}
	return items, nil
}

// walk lists one folder and recurses depth-first into its subfolders.
// Errors below the root are logged and skipped.
func (s *Source) walk(ctx context.Context, root, rel string, out *[]domain.RemoteItem) error {
	children, err := s.children(ctx, path.Join(root, rel))
	if err != nil {
		return err
	}

	var folders []driveItem
	for _, child := range children {
		if child.Folder != nil {
			folders = append(folders, child)
			continue
		}
		*out = append(*out, toRemote(child, rel))
	}

	for _, folder := range folders {
		sub := folder.Name
		if rel != "" {
			sub = rel + "/" + folder.Name
		}
		logger.Debug("onedrive: listing subfolder %s", sub)
		if err := s.walk(ctx, root, sub, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("onedrive: skipping subfolder %s: %v", sub, err)
		}
	}
	return nil
}

// children returns every child of a folder, following @odata.nextLink.
func (s *Source) children(ctx context.Context, folderPath string) ([]driveItem, error) {
	var all []driveItem
	next := childrenURL(folderPath)

	for next != "" {
		resp, err := s.client.do(ctx, request{method: http.MethodGet, url: next})
		if err != nil {
			return nil, err
		}
		if resp.status != http.StatusOK {
			return nil, mapStatus(resp)
		}

		var page itemPage
		if err := json.Unmarshal(resp.body, &page); err != nil {
			return nil, fmt.Errorf("%w: decode listing: %w", domain.ErrSourceUnavailable, err)
		}
		all = append(all, page.Value...)
		next = page.NextLink
	}
	return all, nil
}

// Download returns the content of a file item.
func (s *Source) Download(ctx context.Context, item domain.RemoteItem) ([]byte, error) {
	if item.ID == "" {
		return nil, fmt.Errorf("%w: item has no id", domain.ErrInvalidInput)
	}

	resp, err := s.client.do(ctx, request{
		method: http.MethodGet,
		url:    "/me/drive/items/" + item.ID + "/content",
	})
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusOK {
		return nil, mapStatus(resp)
	}
	return resp.body, nil
}

// uploadStrategy is one way of writing a file into a folder.
type uploadStrategy struct {
	name string
	fn   func(ctx context.Context, data []byte, folderPath, name string) (*domain.UploadResult, error)
}

// Upload writes data as name inside folderPath.
func (s *Source) Upload(ctx context.Context, data []byte, folderPath, name string) (*domain.UploadResult, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: empty upload name", domain.ErrInvalidInput)
	}

	if err := s.ensureFolder(ctx, folderPath); err != nil {
		return nil, fmt.Errorf("%w: ensure folder %q: %w", domain.ErrUploadFailed, folderPath, err)
	}

	strategies := []uploadStrategy{
		{name: "path put", fn: s.putByPath},
		{name: "create then fill", fn: s.createThenFill},
		{name: "folder id put", fn: s.putByFolderID},
	}

	var lastErr error
	for _, strategy := range strategies {
		result, err := strategy.fn(ctx, data, folderPath, name)
		if err == nil {
			logger.Info("Uploaded %s to %s using %s", name, folderPath, strategy.name)
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Debug("onedrive: upload strategy %s failed: %v", strategy.name, err)
		lastErr = err
	}

	return nil, fmt.Errorf("%w: %s: %w", domain.ErrUploadFailed, name, lastErr)
}

func (s *Source) putByPath(ctx context.Context, data []byte, folderPath, name string) (*domain.UploadResult, error) {
	return s.putContent(ctx, itemURL(path.Join(folderPath, name))+":/content", data)
}

func (s *Source) createThenFill(ctx context.Context, data []byte, folderPath, name string) (*domain.UploadResult, error) {
	meta, err := json.Marshal(map[string]any{
		"name":           name,
		"file":           map[string]any{},
		conflictBehavior: "replace",
	})
	if err != nil {
		return nil, err
	}

	resp, err := s.client.do(ctx, request{
		method:      http.MethodPost,
		url:         childrenURL(folderPath),
		body:        meta,
		contentType: contentTypeJSON,
	})
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, mapStatus(resp)
	}

	var created driveItem
	if err := json.Unmarshal(resp.body, &created); err != nil || created.ID == "" {
		return nil, fmt.Errorf("%w: create returned no item id", domain.ErrSourceUnavailable)
	}

	return s.putContent(ctx, "/me/drive/items/"+created.ID+"/content", data)
}

func (s *Source) putByFolderID(ctx context.Context, data []byte, folderPath, name string) (*domain.UploadResult, error) {
	folder, err := s.item(ctx, folderPath)
	if err != nil {
		return nil, err
	}
	return s.putContent(ctx, "/me/drive/items/"+folder.ID+":/"+escapePath(name)+":/content", data)
}

func (s *Source) putContent(ctx context.Context, u string, data []byte) (*domain.UploadResult, error) {
	resp, err := s.client.do(ctx, request{
		method:      http.MethodPut,
		url:         u,
		body:        data,
		contentType: contentTypeBinary,
	})
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, mapStatus(resp)
	}

	var uploaded driveItem
	if err := json.Unmarshal(resp.body, &uploaded); err != nil {
		return nil, fmt.Errorf("%w: decode upload response: %w", domain.ErrSourceUnavailable, err)
	}
	return &domain.UploadResult{ID: uploaded.ID, WebURL: uploaded.WebURL}, nil
}

// item fetches a drive item by path.
func (s *Source) item(ctx context.Context, p string) (*driveItem, error) {
	resp, err := s.client.do(ctx, request{method: http.MethodGet, url: itemURL(p)})
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusOK {
		return nil, mapStatus(resp)
	}

	var it driveItem
	if err := json.Unmarshal(resp.body, &it); err != nil {
		return nil, fmt.Errorf("%w: decode item: %w", domain.ErrSourceUnavailable, err)
	}
	return &it, nil
}

// ensureFolder creates each missing segment of folderPath in turn.
func (s *Source) ensureFolder(ctx context.Context, folderPath string) error {
	var current string
	for _, segment := range splitPath(folderPath) {
		parent := current
		current = path.Join(current, segment)

		_, err := s.item(ctx, current)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		body, err := json.Marshal(map[string]any{
			"name":           segment,
			"folder":         map[string]any{},
			conflictBehavior: "rename",
		})
		if err != nil {
			return err
		}

		resp, err := s.client.do(ctx, request{
			method:      http.MethodPost,
			url:         childrenURL(parent),
			body:        body,
			contentType: contentTypeJSON,
		})
		if err != nil {
			return err
		}
		if !resp.ok() {
			return mapStatus(resp)
		}
		logger.Debug("onedrive: created folder %s", current)
	}
	return nil
}

func toRemote(it driveItem, rel string) domain.RemoteItem {
	return domain.RemoteItem{
		ID:           it.ID,
		Name:         it.Name,
		LastModified: it.LastModifiedDateTime,
		IsFolder:     it.Folder != nil,
		RelativePath: rel,
		Size:         it.Size,
	}
}
