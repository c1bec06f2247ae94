// Package integrity detects corrupted or truncated downloads.
//
// Checks are chosen by file extension:
//
//   - PDF: %PDF header, a %%EOF or startxref marker near the end, and no
//     crash in the built-in reader. Layouts the reader does not support,
//     such as AES-256 encryption, pass with a warning.
//   - DOCX, PPTX, XLSX: a valid zip archive containing the main part
//   - Text formats: non-empty with no NUL bytes in the first kilobyte
//   - Anything else: non-empty with a readable first kilobyte
package integrity

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/docpilot/internal/core/domain"
	"github.com/custodia-labs/docpilot/internal/core/ports/driven"
	"github.com/custodia-labs/docpilot/internal/logger"
	"github.com/custodia-labs/docpilot/internal/normalisers/pdf"
)

// Ensure Checker implements the interface.
var _ driven.IntegrityChecker = (*Checker)(nil)

const probeSize = 1024

// mainParts lists the part every well-formed OOXML package must contain.
var mainParts = map[string]string{
	".docx": "word/document.xml",
	".pptx": "ppt/presentation.xml",
	".xlsx": "xl/workbook.xml",
}

var textExts = map[string]bool{
	".txt":  true,
	".csv":  true,
	".html": true,
}

// Checker verifies staged documents.
type Checker struct{}

// New creates a new integrity checker.
func New() *Checker {
	return &Checker{}
}

// Check verifies the file at path.
func (c *Checker) Check(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return corrupted(path, err.Error())
	}
	if info.Size() == 0 {
		return corrupted(path, "empty file")
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".pdf":
		return checkPDF(path)
	case mainParts[ext] != "":
		return checkPackage(path, mainParts[ext])
	default:
		return checkPrefix(path, textExts[ext])
	}
}

func checkPDF(path string) error {
	head, err := readPrefix(path, 5)
	if err != nil {
		return corrupted(path, err.Error())
	}
	if !bytes.HasPrefix(head, []byte("%PDF")) {
		return corrupted(path, "missing %PDF header")
	}
	tail, err := readSuffix(path, probeSize)
	if err != nil {
		return corrupted(path, err.Error())
	}
	if !bytes.Contains(tail, []byte("%%EOF")) && !bytes.Contains(tail, []byte("startxref")) {
		return corrupted(path, "missing %EOF trailer")
	}

	n, err := pdf.PageCount(path)
	switch {
	case errors.Is(err, pdf.ErrReaderPanic):
		return corrupted(path, err.Error())
	case err != nil:
		logger.Warn("integrity: %s: built-in reader cannot parse it: %v", filepath.Base(path), err)
		return nil
	case n == 0:
		return corrupted(path, "no pages")
	}
	return nil
}

func checkPackage(path, part string) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return corrupted(path, err.Error())
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != part {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return corrupted(path, err.Error())
		}
		_, err = io.Copy(io.Discard, rc)
		rc.Close()
		if err != nil {
			return corrupted(path, err.Error())
		}
		return nil
	}
	return corrupted(path, "missing "+part)
}

func checkPrefix(path string, text bool) error {
	head, err := readPrefix(path, probeSize)
	if err != nil {
		return corrupted(path, err.Error())
	}
	if !text {
		return nil
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return corrupted(path, "binary content in text file")
	}
	return nil
}

func readPrefix(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:read], nil
}

func readSuffix(path string, n int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	off := info.Size() - n
	if off < 0 {
		off = 0
	}
	buf := make([]byte, info.Size()-off)
	if _, err := f.ReadAt(buf, off); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf, nil
}

func corrupted(path, reason string) error {
	return fmt.Errorf("%w: %s: %s", domain.ErrDownloadCorrupted, filepath.Base(path), reason)
}
