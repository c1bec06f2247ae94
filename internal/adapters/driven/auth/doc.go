// Package auth provides the token providers used by the document sources.
//
// OneDrive uses an OAuth2 device authorization flow against the Microsoft
// identity platform. The resulting token is cached on disk and refreshed
// transparently. Google Drive uses a static bearer token from the
// environment.
package auth
