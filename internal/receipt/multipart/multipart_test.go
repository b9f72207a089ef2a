package multipart_test

import (
	"bytes"
	stdmultipart "mime/multipart"
	"net/textproto"
	"testing"

	"github.com/smartinventory/smartinventory-backend/internal/receipt/multipart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixturePart struct {
	name, filename, contentType string
	data                        []byte
}

func encode(t *testing.T, parts []fixturePart) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	w := stdmultipart.NewWriter(&buf)
	for _, p := range parts {
		h := textproto.MIMEHeader{}
		cd := `form-data; name="` + p.name + `"`
		if p.filename != "" {
			cd += `; filename="` + p.filename + `"`
		}
		h.Set("Content-Disposition", cd)
		if p.contentType != "" {
			h.Set("Content-Type", p.contentType)
		}
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes(), w.Boundary()
}

func TestDecode_RoundTrip(t *testing.T) {
	fixtures := []fixturePart{
		{name: "note", data: []byte("영수증")},
		{name: "receipt", filename: "r.jpg", contentType: "image/jpeg", data: []byte{0xFF, 0xD8, '\r', '\n', 0x00, 0xFF}},
		{name: "empty", filename: "e.bin", data: nil},
		{name: "crlf", data: []byte("line1\r\n\r\nline2\r\n")},
	}
	body, boundary := encode(t, fixtures)

	parts := multipart.Decode(body, boundary)
	require.Len(t, parts, len(fixtures))
	for i, want := range fixtures {
		got := parts[i]
		assert.Equal(t, want.name, got.Name)
		assert.Equal(t, want.filename, got.Filename)
		wantType := want.contentType
		if wantType == "" {
			wantType = multipart.DefaultContentType
		}
		assert.Equal(t, wantType, got.ContentType)
		assert.Equal(t, len(want.data), len(got.Data))
		if len(want.data) > 0 {
			assert.Equal(t, want.data, got.Data)
		}
	}
}

func TestDecode_TruncatedBodyKeepsCompleteParts(t *testing.T) {
	body, boundary := encode(t, []fixturePart{
		{name: "a", data: []byte("first")},
		{name: "b", data: []byte("second")},
	})
	cut := bytes.LastIndex(body, []byte("second")) + 3

	parts := multipart.Decode(body[:cut], boundary)
	require.Len(t, parts, 1)
	assert.Equal(t, "a", parts[0].Name)
}

func TestDecode_SkipsPartWithoutHeaderSeparator(t *testing.T) {
	body := []byte("--xyz\r\nContent-Disposition: form-data; name=\"broken\"\r\n" +
		"--xyz\r\nContent-Disposition: form-data; name=\"ok\"\r\n\r\nvalue\r\n--xyz--\r\n")

	parts := multipart.Decode(body, "xyz")
	require.Len(t, parts, 1)
	assert.Equal(t, "ok", parts[0].Name)
	assert.Equal(t, "value", string(parts[0].Data))
}

func TestDecode_NoBoundaryInBody(t *testing.T) {
	assert.Empty(t, multipart.Decode([]byte("plain text"), "xyz"))
	assert.Empty(t, multipart.Decode(nil, "xyz"))
}

func TestBoundaryFromContentType(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"multipart/form-data; boundary=abc123", "abc123", false},
		{`multipart/form-data; boundary="quoted"`, "quoted", false},
		{"multipart/form-data; charset=utf-8; boundary=x;y", "x", false},
		{"multipart/form-data", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, err := multipart.BoundaryFromContentType(tt.header)
			if tt.wantErr {
				assert.ErrorIs(t, err, multipart.ErrNoBoundary)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirstFileAndField(t *testing.T) {
	body, boundary := encode(t, []fixturePart{
		{name: "itemId", data: []byte("7")},
		{name: "image", filename: "a.png", contentType: "image/png", data: []byte("png")},
	})
	parts := multipart.Decode(body, boundary)

	file, ok := multipart.FirstFile(parts)
	require.True(t, ok)
	assert.Equal(t, "a.png", file.Filename)

	v, ok := multipart.Field(parts, "itemId")
	require.True(t, ok)
	assert.Equal(t, "7", v)

	_, ok = multipart.Field(parts, "image")
	assert.False(t, ok)
}
