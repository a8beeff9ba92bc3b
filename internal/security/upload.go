package security

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const jpegQuality = 90

// UploadedFile is one file received by the host transport.
type UploadedFile struct {
	// Field is the form field the file arrived under.
	Field    string
	Filename string
	// Declared is the client supplied content type. It is never trusted.
	Declared string
	Content  []byte
	// Truncated is set when the host stopped reading at its limit. The
	// content is then incomplete and never passes CheckFile.
	Truncated bool
}

// Size returns the content length in bytes.
func (f *UploadedFile) Size() int64 {
	return int64(len(f.Content))
}

// Digest returns the hex encoded SHA256 of the content.
func (f *UploadedFile) Digest() string {
	sum := sha256.Sum256(f.Content)
	return hex.EncodeToString(sum[:])
}

// Ext returns the lower-cased extension without the dot.
func (f *UploadedFile) Ext() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Filename)), ".")
}

// ReadUploadedFile reads at most limit+1 bytes from r. A file longer than
// limit is returned with Truncated set.
func ReadUploadedFile(field, filename, declared string, r io.Reader, limit int64) (*UploadedFile, error) {
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", field, err)
	}
	return &UploadedFile{
		Field:     field,
		Filename:  filepath.Base(filename),
		Declared:  declared,
		Content:   content,
		Truncated: limit > 0 && int64(len(content)) > limit,
	}, nil
}

// FileRules constrain an uploaded file.
type FileRules struct {
	// Extensions lists allowed extensions without the dot. Empty allows any.
	Extensions []string
	// MimeTypes lists allowed sniffed MIME types. Empty allows any.
	MimeTypes []string
	MinSize   int64
	MaxSize   int64
	// Image requires a JPEG, PNG or GIF and re-encodes it in place.
	Image bool
}

// imageMimeTypes are the formats the re-encoding pipeline accepts.
var imageMimeTypes = []string{"image/jpeg", "image/png", "image/gif"}

// checkFile applies rules to f. Image files are replaced by their
// re-encoded form when every other check passes.
func checkFile(f *UploadedFile, rules FileRules) Result {
	if f == nil || f.Filename == "" {
		return Fail("no file uploaded")
	}
	if f.Size() == 0 {
		return Fail("uploaded file is empty")
	}
	if f.Truncated {
		return Fail("file exceeds the upload limit")
	}

	var violations []string

	if len(rules.Extensions) > 0 && !containsFold(rules.Extensions, f.Ext()) {
		violations = append(violations, fmt.Sprintf("extension %q is not allowed", f.Ext()))
	}

	if rules.MinSize > 0 && f.Size() < rules.MinSize {
		violations = append(violations, fmt.Sprintf("file is smaller than %d bytes", rules.MinSize))
	}
	if rules.MaxSize > 0 && f.Size() > rules.MaxSize {
		violations = append(violations, fmt.Sprintf("file is larger than %d bytes", rules.MaxSize))
	}

	detected := mimetype.Detect(f.Content)
	if len(rules.MimeTypes) > 0 && !mimetype.EqualsAny(detected.String(), rules.MimeTypes...) {
		violations = append(violations, fmt.Sprintf("file type %s is not allowed", detected.String()))
	}

	if rules.Image {
		if !mimetype.EqualsAny(detected.String(), imageMimeTypes...) {
			violations = append(violations, fmt.Sprintf("file type %s is not a supported image", detected.String()))
		}
	}

	if len(violations) > 0 {
		return Fail(violations...)
	}

	if rules.Image {
		clean, err := reencodeImage(f.Content)
		if err != nil {
			return Fail(fmt.Sprintf("image could not be processed: %v", err))
		}
		f.Content = clean
	}

	return Pass()
}

// reencodeImage decodes content and encodes it again in the same format,
// dropping metadata and anything appended after the image data.
func reencodeImage(content []byte) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
	case "png":
		err = png.Encode(&buf, img)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		err = fmt.Errorf("format %s is not allowed", format)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimPrefix(v, "."), s) {
			return true
		}
	}
	return false
}
