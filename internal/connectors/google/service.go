package google

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// NewDriveService creates a Google Drive API service that authenticates
// every request through ts. Extra options such as option.WithEndpoint are
// applied last.
func NewDriveService(
	ctx context.Context, ts oauth2.TokenSource, timeout time.Duration, opts ...option.ClientOption,
) (*drive.Service, error) {
	hc := &http.Client{
		Timeout:   timeout,
		Transport: &oauth2.Transport{Source: ts, Base: http.DefaultTransport},
	}
	all := append([]option.ClientOption{option.WithHTTPClient(hc)}, opts...)
	return drive.NewService(ctx, all...)
}
