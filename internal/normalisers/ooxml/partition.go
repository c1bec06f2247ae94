// Package ooxml partitions Office Open XML packages into text elements.
//
// Word documents and presentations share the same shape: paragraphs
// (<w:p>, <a:p>) made of text runs (<w:t>, <a:t>). Partition streams the
// XML parts and emits one element per non-empty paragraph, in part order.
package ooxml

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ErrMissingPart is returned when none of the requested parts exist.
var ErrMissingPart = errors.New("ooxml: required part not found")

// PartFilter selects and orders the parts to read from a package.
type PartFilter func(files []*zip.File) []*zip.File

// Exact selects parts by exact name, in the given order.
func Exact(names ...string) PartFilter {
	return func(files []*zip.File) []*zip.File {
		byName := make(map[string]*zip.File, len(files))
		for _, f := range files {
			byName[f.Name] = f
		}
		var out []*zip.File
		for _, n := range names {
			if f, ok := byName[n]; ok {
				out = append(out, f)
			}
		}
		return out
	}
}

// Numbered selects parts named prefix<N>.xml, ordered by N.
// ppt/slides/slide10.xml sorts after ppt/slides/slide9.xml.
func Numbered(prefix string) PartFilter {
	return func(files []*zip.File) []*zip.File {
		type numbered struct {
			n int
			f *zip.File
		}
		var parts []numbered
		for _, f := range files {
			if !strings.HasPrefix(f.Name, prefix) || !strings.HasSuffix(f.Name, ".xml") {
				continue
			}
			n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(f.Name, prefix), ".xml"))
			if err != nil {
				continue
			}
			parts = append(parts, numbered{n: n, f: f})
		}
		sort.Slice(parts, func(i, j int) bool { return parts[i].n < parts[j].n })
		out := make([]*zip.File, len(parts))
		for i, p := range parts {
			out[i] = p.f
		}
		return out
	}
}

// PartitionFile opens the package at path and partitions it.
func PartitionFile(path string, filter PartFilter) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("ooxml: opening package: %w", err)
	}
	defer r.Close()
	return Partition(&r.Reader, filter)
}

// Partition returns the text of every non-empty paragraph in the
// selected parts.
func Partition(r *zip.Reader, filter PartFilter) ([]string, error) {
	parts := filter(r.File)
	if len(parts) == 0 {
		return nil, ErrMissingPart
	}

	var elements []string
	for _, part := range parts {
		rc, err := part.Open()
		if err != nil {
			return nil, fmt.Errorf("ooxml: opening %s: %w", part.Name, err)
		}
		paras, err := paragraphs(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("ooxml: parsing %s: %w", part.Name, err)
		}
		elements = append(elements, paras...)
	}
	return elements, nil
}

// paragraphs streams one XML part. Namespaces are ignored so the same
// walk serves wordprocessingml and drawingml.
func paragraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		out    []string
		cur    strings.Builder
		inText bool
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				cur.WriteByte('\t')
			case "br", "cr":
				cur.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				flush()
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}
	flush()
	return out, nil
}

// WithAlternate runs extract on path and, if that fails, once more on
// path+suffix when that file exists.
func WithAlternate(path, suffix string, extract func(string) (string, error)) (string, error) {
	text, err := extract(path)
	if err == nil {
		return text, nil
	}

	alt := path + suffix
	if _, statErr := os.Stat(alt); statErr != nil {
		return "", err
	}
	text, altErr := extract(alt)
	if altErr != nil {
		return "", fmt.Errorf("%w (alternate %s: %v)", err, alt, altErr)
	}
	return text, nil
}
