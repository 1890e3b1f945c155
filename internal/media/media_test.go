package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFSStoragePutAndReplace(t *testing.T) {
	root := t.TempDir()
	s := NewFSStorage(root, "/media/")
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "resumes/u1.pdf", "application/pdf", strings.NewReader("first"), 5))
	require.NoError(t, s.Put(ctx, "resumes/u1.pdf", "application/pdf", strings.NewReader("second"), 6))

	data, err := os.ReadFile(filepath.Join(root, "resumes", "u1.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
	assert.Equal(t, "/media/resumes/u1.pdf", s.URL("resumes/u1.pdf"))

	entries, err := os.ReadDir(filepath.Join(root, "resumes"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not linger")
}

func TestFSStorageRejectsTraversal(t *testing.T) {
	s := NewFSStorage(t.TempDir(), "/media")
	err := s.Put(context.Background(), "../escape.txt", "text/plain", strings.NewReader("x"), 1)
	assert.Error(t, err)
	err = s.Put(context.Background(), "", "text/plain", strings.NewReader("x"), 1)
	assert.Error(t, err)
}

func TestFSStorageCheck(t *testing.T) {
	s := NewFSStorage(filepath.Join(t.TempDir(), "nested"), "/media")
	assert.NoError(t, s.Check(context.Background()))
}

func TestS3BaseURL(t *testing.T) {
	assert.Equal(t, "https://uploads.s3.eu-west-1.amazonaws.com", s3BaseURL(S3Options{Bucket: "uploads", Region: "eu-west-1"}))
	assert.Equal(t, "http://minio:9000/uploads", s3BaseURL(S3Options{Bucket: "uploads", Endpoint: "http://minio:9000/"}))
	assert.Equal(t, "https://cdn.example", s3BaseURL(S3Options{Bucket: "uploads", Endpoint: "http://minio:9000", PublicBaseURL: "https://cdn.example/"}))
}

func TestSaveAvatar(t *testing.T) {
	root := t.TempDir()
	u := NewUploader(NewFSStorage(root, "/media"), 1<<20, 10_000)

	res, err := u.SaveAvatar(context.Background(), "u1", bytes.NewReader(pngBytes(t, 10, 10)))
	require.NoError(t, err)
	assert.Equal(t, "avatars/u1.png", res.Key)
	assert.Equal(t, "image/png", res.Mime)
	assert.True(t, strings.HasPrefix(res.URL, "/media/avatars/u1.png?v="))
	assert.Len(t, res.SHA256, 64)

	_, err = os.Stat(filepath.Join(root, "avatars", "u1.png"))
	assert.NoError(t, err)
}

func TestSaveAvatarRejects(t *testing.T) {
	u := NewUploader(NewFSStorage(t.TempDir(), "/media"), 1<<20, 50)
	ctx := context.Background()

	_, err := u.SaveAvatar(ctx, "u1", strings.NewReader("not an image"))
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = u.SaveAvatar(ctx, "u1", bytes.NewReader(pngBytes(t, 10, 10)))
	assert.ErrorIs(t, err, ErrInvalidImage, "100 pixels exceeds the 50 pixel limit")

	_, err = u.SaveAvatar(ctx, "u1", bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrEmpty)

	small := NewUploader(NewFSStorage(t.TempDir(), "/media"), 16, 10_000)
	_, err = small.SaveAvatar(ctx, "u1", bytes.NewReader(pngBytes(t, 10, 10)))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestSaveResume(t *testing.T) {
	u := NewUploader(NewFSStorage(t.TempDir(), "/media"), 1<<20, 10_000)
	ctx := context.Background()

	res, err := u.SaveResume(ctx, "u1", strings.NewReader("%PDF-1.7\n..."))
	require.NoError(t, err)
	assert.Equal(t, "resumes/u1.pdf", res.Key)
	assert.Equal(t, "application/pdf", res.Mime)

	_, err = u.SaveResume(ctx, "u1", strings.NewReader("PK\x03\x04 docx"))
	assert.ErrorIs(t, err, ErrInvalidResume)
}

func TestContentTypeForKey(t *testing.T) {
	assert.Equal(t, "image/webp", ContentTypeForKey("avatars/u.WEBP"))
	assert.Equal(t, "application/pdf", ContentTypeForKey("resumes/u.pdf"))
	assert.Equal(t, "application/octet-stream", ContentTypeForKey("x"))
}
