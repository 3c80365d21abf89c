package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
)

func TestExportKeys(t *testing.T) {
	assert.Equal(t, "exports/7/cv/abc.pdf", ExportPDFKey(7, "cv", "abc"))
	assert.Equal(t, "exports/7/cv/abc.jpg", ExportThumbnailKey(7, "cv", "abc"))
	assert.Equal(t, "templates/cover-letter/modern.jpg", TemplatePreviewKey("cover-letter", "modern"))
	assert.Equal(t, "users/3/photos/", UserPhotoPrefix(3))
}

func TestIsNoSuchKey(t *testing.T) {
	assert.False(t, IsNoSuchKey(nil))
	assert.True(t, IsNoSuchKey(fmt.Errorf("%w: users/1/photos/a.png", ErrObjectNotFound)))
	assert.True(t, IsNoSuchKey(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.False(t, IsNoSuchKey(errors.New("connection refused")))
}
