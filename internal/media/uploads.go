package media

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp"
)

var (
	ErrTooLarge      = errors.New("upload too large")
	ErrEmpty         = errors.New("upload is empty")
	ErrInvalidImage  = errors.New("invalid image")
	ErrInvalidResume = errors.New("resume must be a PDF document")
)

var pdfMagic = []byte("%PDF-")

var avatarExts = map[string]string{
	"jpeg": ".jpg",
	"png":  ".png",
	"gif":  ".gif",
	"webp": ".webp",
}

// Uploader validates profile uploads and writes them to a Storage backend.
// Each user has one avatar and one resume; a new upload replaces the old one.
type Uploader struct {
	storage   Storage
	maxBytes  int64
	maxPixels int
}

func NewUploader(storage Storage, maxBytes int64, maxPixels int) *Uploader {
	return &Uploader{storage: storage, maxBytes: maxBytes, maxPixels: maxPixels}
}

func (u *Uploader) Storage() Storage {
	return u.storage
}

type SaveResult struct {
	Key    string
	URL    string
	SHA256 string
	Bytes  int64
	Mime   string
}

// SaveAvatar stores an image as avatars/<userID><ext>. The extension follows
// the decoded format, not the client filename.
func (u *Uploader) SaveAvatar(ctx context.Context, userID string, r io.Reader) (*SaveResult, error) {
	data, err := u.readLimited(r)
	if err != nil {
		return nil, err
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidImage
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > u.maxPixels {
		return nil, ErrInvalidImage
	}
	ext, ok := avatarExts[format]
	if !ok {
		return nil, ErrInvalidImage
	}
	mimeType := http.DetectContentType(data)
	if format == "webp" {
		mimeType = "image/webp"
	}
	return u.put(ctx, "avatars/"+userID+ext, mimeType, data)
}

// SaveResume stores a PDF as resumes/<userID>.pdf.
func (u *Uploader) SaveResume(ctx context.Context, userID string, r io.Reader) (*SaveResult, error) {
	data, err := u.readLimited(r)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return nil, ErrInvalidResume
	}
	return u.put(ctx, "resumes/"+userID+".pdf", "application/pdf", data)
}

func (u *Uploader) put(ctx context.Context, key, mimeType string, data []byte) (*SaveResult, error) {
	sum := sha256.Sum256(data)
	shaHex := hex.EncodeToString(sum[:])
	if err := u.storage.Put(ctx, key, mimeType, bytes.NewReader(data), int64(len(data))); err != nil {
		return nil, err
	}
	return &SaveResult{
		Key: key,
		// the key is reused across uploads; the version query busts caches
		URL:    u.storage.URL(key) + "?v=" + shaHex[:12],
		SHA256: shaHex,
		Bytes:  int64(len(data)),
		Mime:   mimeType,
	}, nil
}

func (u *Uploader) readLimited(r io.Reader) ([]byte, error) {
	lim := &io.LimitedReader{R: r, N: u.maxBytes + 1}
	data, err := io.ReadAll(lim)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > u.maxBytes {
		return nil, ErrTooLarge
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	return data, nil
}

// ContentTypeForKey guesses a Content-Type from the key's extension.
func ContentTypeForKey(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
