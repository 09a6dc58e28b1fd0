package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"imagecompare/internal/catalog"
	"imagecompare/internal/envelope"
	"imagecompare/internal/storage"
)

// ImageServer delivers the image at a decoded path relative to the catalog.
type ImageServer interface {
	Serve(c *gin.Context, relPath string)
}

func (h HandlerSet) ServeImage(c *gin.Context) {
	if h.images == nil {
		envelope.Error(c, http.StatusNotFound, msgNotFound)
		return
	}
	h.images.Serve(c, c.Param("filepath"))
}

// FileImages serves images from the catalog root on disk.
type FileImages struct {
	Root string
}

func (f FileImages) Serve(c *gin.Context, relPath string) {
	full, ok := safeJoin(f.Root, relPath)
	if !ok {
		envelope.Error(c, http.StatusNotFound, msgNotFound)
		return
	}
	info, err := os.Stat(full)
	if err != nil || !info.Mode().IsRegular() {
		envelope.Error(c, http.StatusNotFound, msgNotFound)
		return
	}
	c.File(full)
}

// safeJoin resolves relPath under root, refusing anything that would leave it.
func safeJoin(root, relPath string) (string, bool) {
	if strings.ContainsRune(relPath, 0) {
		return "", false
	}
	for _, segment := range strings.Split(relPath, "/") {
		if segment == ".." {
			return "", false
		}
	}
	cleaned := filepath.Clean("/" + filepath.FromSlash(relPath))
	if cleaned == string(filepath.Separator) {
		return "", false
	}
	return filepath.Join(root, cleaned), true
}

type Presigner interface {
	PresignGet(ctx context.Context, key string) (*url.URL, error)
}

// BucketImages redirects to a presigned URL for the object behind relPath.
type BucketImages struct {
	Store  Presigner
	Source *catalog.BucketSource
}

func (b BucketImages) Serve(c *gin.Context, relPath string) {
	if strings.Trim(relPath, "/") == "" {
		envelope.Error(c, http.StatusNotFound, msgNotFound)
		return
	}
	u, err := b.Store.PresignGet(c.Request.Context(), b.Source.ObjectKey(relPath))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			envelope.Error(c, http.StatusNotFound, msgNotFound)
			return
		}
		envelope.Error(c, http.StatusBadGateway, "object storage unavailable")
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, u.String())
}
