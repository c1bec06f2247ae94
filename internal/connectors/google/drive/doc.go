// Package drive implements the document source over the Google Drive v3 API.
//
// Folder paths are resolved segment by segment from "My Drive". Google
// Docs, Sheets and Slides have no binary content; they are listed with a
// .docx, .xlsx or .pptx suffix and exported to that format on download.
package drive
