// Package multipart splits raw multipart/form-data bodies into parts.
//
// Decoding is lenient: parts without a header separator are skipped and a
// truncated body yields the parts completed before the truncation.
package multipart

import (
	"bytes"
	"errors"
	"mime"
	"regexp"
	"strings"
)

// DefaultContentType is used when a part has no Content-Type header.
const DefaultContentType = "application/octet-stream"

// ErrNoBoundary is returned when the Content-Type header carries no boundary.
var ErrNoBoundary = errors.New("no multipart boundary found")

var (
	crlf       = []byte("\r\n")
	headerEnd  = []byte("\r\n\r\n")
	nameRe     = regexp.MustCompile(`(?:^|[;\s])name="([^"]*)"`)
	filenameRe = regexp.MustCompile(`filename="([^"]*)"`)
	typeRe     = regexp.MustCompile(`(?im)^content-type:\s*([^\r\n]+)`)
)

// Part is one decoded body part.
type Part struct {
	Name        string
	Filename    string
	ContentType string
	Data        []byte
}

// BoundaryFromContentType extracts the boundary parameter of a multipart Content-Type.
func BoundaryFromContentType(header string) (string, error) {
	_, params, err := mime.ParseMediaType(header)
	if err == nil && params["boundary"] != "" {
		return params["boundary"], nil
	}
	// Some clients send malformed parameters; fall back to a plain split.
	if i := strings.Index(header, "boundary="); i >= 0 {
		b := strings.Trim(strings.TrimSpace(strings.SplitN(header[i+len("boundary="):], ";", 2)[0]), `"`)
		if b != "" {
			return b, nil
		}
	}
	return "", ErrNoBoundary
}

// Decode returns the parts of body in order.
func Decode(body []byte, boundary string) []Part {
	delim := []byte("--" + boundary)
	var parts []Part

	pos := bytes.Index(body, delim)
	for pos >= 0 {
		start := pos + len(delim)
		next := bytes.Index(body[start:], delim)
		if next < 0 {
			break
		}
		next += start

		segment := body[start:next]
		segment = bytes.TrimPrefix(segment, crlf)
		segment = bytes.TrimSuffix(segment, crlf)

		if p, ok := decodePart(segment); ok {
			parts = append(parts, p)
		}
		pos = next
	}
	return parts
}

func decodePart(segment []byte) (Part, bool) {
	i := bytes.Index(segment, headerEnd)
	if i < 0 {
		return Part{}, false
	}
	headers := string(segment[:i])
	data := make([]byte, len(segment)-i-len(headerEnd))
	copy(data, segment[i+len(headerEnd):])

	p := Part{ContentType: DefaultContentType, Data: data}
	if m := nameRe.FindStringSubmatch(headers); m != nil {
		p.Name = m[1]
	}
	if m := filenameRe.FindStringSubmatch(headers); m != nil {
		p.Filename = m[1]
	}
	if m := typeRe.FindStringSubmatch(headers); m != nil {
		p.ContentType = strings.TrimSpace(m[1])
	}
	return p, true
}

// FirstFile returns the first part carrying a filename.
func FirstFile(parts []Part) (Part, bool) {
	for _, p := range parts {
		if p.Filename != "" {
			return p, true
		}
	}
	return Part{}, false
}

// Field returns the value of the first non-file part named name.
func Field(parts []Part, name string) (string, bool) {
	for _, p := range parts {
		if p.Name == name && p.Filename == "" {
			return string(p.Data), true
		}
	}
	return "", false
}
