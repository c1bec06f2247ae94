// Package google provides shared infrastructure for the Google Drive source.
//
// This package contains:
//   - TokenSource adapter to bridge docpilot's TokenProvider to oauth2.TokenSource
//   - A Drive service factory
//   - Mapping of Google API errors onto domain errors (401, 403, 404, 429)
//   - Rate limiting to respect Drive quotas
//
// # Usage
//
//	ts := google.NewTokenSource(ctx, tokenProvider)
//	svc, err := google.NewDriveService(ctx, ts, timeout)
//
// # OAuth2 Scopes
//
// The Drive source needs https://www.googleapis.com/auth/drive.file to
// upload and https://www.googleapis.com/auth/drive.readonly to list and
// download. For user-created internal apps, restricted scopes don't
// require verification.
package google
