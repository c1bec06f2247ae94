// Package onedrive implements the document source over Microsoft Graph.
//
// All calls go to the signed-in user's drive (/me/drive). Folder paths
// are slash separated and relative to the drive root. Bearer tokens come
// from a driven.TokenProvider; a 401 invalidates the token and the request
// is replayed once with a fresh one.
//
// # Upload
//
// Graph accepts small uploads through several endpoints and tenants differ
// in which they allow. Upload tries them in order and stops at the first
// 200 or 201:
//
//  1. PUT /me/drive/root:/{folder}/{name}:/content
//  2. POST /me/drive/root:/{folder}:/children, then PUT the content by item id
//  3. PUT /me/drive/items/{folderID}:/{name}:/content
package onedrive
