// Package file provides the TOML configuration store.
//
// Keys are dotted ("azure.endpoint"). On disk each dotted prefix becomes a
// TOML table, so the file stays hand-editable:
//
//	[azure]
//	endpoint = "https://example.openai.azure.com"
package file
