// Package connectors holds the remote document sources. Each subpackage
// implements driven.DocumentSource for one drive: onedrive talks to
// Microsoft Graph directly, google/drive uses the Drive v3 client.
package connectors
