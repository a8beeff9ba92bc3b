package security

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avactions/internal/config"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestReadUploadedFile(t *testing.T) {
	f, err := ReadUploadedFile("avatar", "../../etc/Me.PNG", "image/png", strings.NewReader("0123456789"), 4)
	require.NoError(t, err)

	assert.Equal(t, "Me.PNG", f.Filename)
	assert.Equal(t, "png", f.Ext())
	assert.Equal(t, int64(5), f.Size(), "reads one byte past the limit")
	assert.True(t, f.Truncated)

	f, err = ReadUploadedFile("doc", "a.txt", "", strings.NewReader("0123"), 4)
	require.NoError(t, err)
	assert.False(t, f.Truncated)

	f, err = ReadUploadedFile("doc", "a.txt", "", strings.NewReader("0123456789"), 0)
	require.NoError(t, err)
	assert.False(t, f.Truncated)
	assert.Equal(t, int64(10), f.Size())
}

func TestCheckFile_TruncatedUpload(t *testing.T) {
	f, err := ReadUploadedFile("doc", "a.txt", "text/plain", strings.NewReader(strings.Repeat("x", 20)), 10)
	require.NoError(t, err)

	res := checkFile(f, FileRules{MaxSize: 100})

	assert.False(t, res.OK)
	assert.Contains(t, res.String(), "upload limit")
}

func TestCheckFile(t *testing.T) {
	img := pngBytes(t)
	trailing := append(append([]byte(nil), img...), []byte("<?php echo 1; ?>")...)

	tests := []struct {
		name   string
		file   *UploadedFile
		rules  FileRules
		ok     bool
		substr string
	}{
		{name: "nil", file: nil, ok: false, substr: "no file"},
		{name: "empty", file: &UploadedFile{Filename: "a.txt"}, ok: false, substr: "empty"},
		{name: "plain ok", file: &UploadedFile{Filename: "a.txt", Content: []byte("hello")}, ok: true},
		{
			name:   "extension",
			file:   &UploadedFile{Filename: "a.exe", Content: []byte("hello")},
			rules:  FileRules{Extensions: []string{"txt", ".pdf"}},
			substr: "extension",
		},
		{
			name:   "too small",
			file:   &UploadedFile{Filename: "a.txt", Content: []byte("hi")},
			rules:  FileRules{MinSize: 3},
			substr: "smaller",
		},
		{
			name:   "too large",
			file:   &UploadedFile{Filename: "a.txt", Content: []byte("hello")},
			rules:  FileRules{MaxSize: 3},
			substr: "larger",
		},
		{
			name:   "sniffed type",
			file:   &UploadedFile{Filename: "a.png", Declared: "image/png", Content: []byte("not an image")},
			rules:  FileRules{MimeTypes: []string{"image/png"}},
			substr: "text/plain",
		},
		{
			name:   "image required",
			file:   &UploadedFile{Filename: "a.png", Content: []byte("not an image")},
			rules:  FileRules{Image: true},
			substr: "not a supported image",
		},
		{
			name:  "image ok",
			file:  &UploadedFile{Filename: "a.png", Content: img},
			rules: FileRules{Image: true, Extensions: []string{"png"}, MimeTypes: []string{"image/png"}},
			ok:    true,
		},
		{
			name:  "image trailing payload",
			file:  &UploadedFile{Filename: "a.png", Content: trailing},
			rules: FileRules{Image: true},
			ok:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := checkFile(tt.file, tt.rules)
			assert.Equal(t, tt.ok, res.OK, res.String())
			if tt.substr != "" {
				assert.Contains(t, res.String(), tt.substr)
			}
		})
	}
}

func TestCheckFile_ReencodesImage(t *testing.T) {
	img := pngBytes(t)
	f := &UploadedFile{Filename: "a.png", Content: append(append([]byte(nil), img...), []byte("trailer")...)}

	res := checkFile(f, FileRules{Image: true})
	require.True(t, res.OK)
	assert.False(t, bytes.Contains(f.Content, []byte("trailer")))

	_, format, err := image.Decode(bytes.NewReader(f.Content))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
}

func TestGuard_CheckFile_UsesUploadDefaults(t *testing.T) {
	g := newTestGuard(t, &config.SecurityConfig{
		Upload: &config.UploadConfig{MaxSize: 3, AllowedExtensions: []string{"txt"}},
	})

	res := g.CheckFile(&UploadedFile{Filename: "a.csv", Content: []byte("hello")}, FileRules{})
	assert.False(t, res.OK)
	assert.Len(t, res.Violations, 2)

	res = g.CheckFile(&UploadedFile{Filename: "a.csv", Content: []byte("hello")}, FileRules{MaxSize: 10, Extensions: []string{"csv"}})
	assert.True(t, res.OK, res.String())
}
