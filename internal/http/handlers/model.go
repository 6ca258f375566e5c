package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/motionlib-backend/internal/platform/logger"
	"github.com/yungbote/motionlib-backend/internal/storage"
)

// modelFileTypes maps bundle file extensions to content types. Anything
// else is served as an opaque download.
var modelFileTypes = map[string]string{
	".xml":  "application/xml",
	".stl":  "model/stl",
	".obj":  "text/plain",
	".dae":  "model/vnd.collada+xml",
	".mesh": "application/octet-stream",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
}

type ModelHandler struct {
	log   *logger.Logger
	store *storage.Store
}

func NewModelHandler(log *logger.Logger, store *storage.Store) *ModelHandler {
	return &ModelHandler{log: log.With("handler", "ModelHandler"), store: store}
}

func (mh *ModelHandler) List(c *gin.Context) {
	infos, err := mh.store.ListModels()
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, gin.H{"models": infos})
}

// Download streams the entry document itself; the JSON summary lives
// under /info.
func (mh *ModelHandler) Download(c *gin.Context) {
	abs, err := mh.store.ResolveModel(c.Param("id"))
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	serveAsset(c, abs, "application/xml")
}

func (mh *ModelHandler) Get(c *gin.Context) {
	info, err := mh.store.ModelByID(c.Param("id"))
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, info)
}

func (mh *ModelHandler) Upload(c *gin.Context) {
	content, filename, err := readUpload(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	info, err := mh.store.SaveModel(filename, content, c.PostForm("model_name"))
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, info)
}

func (mh *ModelHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	found, err := mh.store.DeleteModel(id)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	if !found {
		RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("model %s not found", id))
		return
	}
	RespondOK(c, gin.H{"deleted": id})
}

func (mh *ModelHandler) Thumbnail(c *gin.Context) {
	p, err := mh.store.ModelThumbnail(c.Param("id"))
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	serveThumbnail(c, p)
}

func (mh *ModelHandler) Files(c *gin.Context) {
	files, err := mh.store.ModelFiles(c.Param("id"))
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, gin.H{"files": files})
}

// File streams one bundle file. The wildcard sub-path is untrusted; the
// store rejects anything that would escape the bundle directory.
func (mh *ModelHandler) File(c *gin.Context) {
	subPath := strings.TrimPrefix(c.Param("filepath"), "/")
	abs, err := mh.store.ModelFile(c.Param("id"), subPath)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	if ct, ok := modelFileTypes[strings.ToLower(filepath.Ext(abs))]; ok {
		c.Header("Content-Type", ct)
	} else {
		c.Header("Content-Type", "application/octet-stream")
	}
	c.File(abs)
}

// serveThumbnail streams a cached artifact. Thumbnails only change when
// regenerated under the same name, so a short client cache is safe.
func serveThumbnail(c *gin.Context, p string) {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".gif":
		c.Header("Content-Type", "image/gif")
	case ".webp":
		c.Header("Content-Type", "image/webp")
	case ".png":
		c.Header("Content-Type", "image/png")
	default:
		c.Header("Content-Type", "image/jpeg")
	}
	c.Header("Cache-Control", "public, max-age=300")
	c.File(p)
}
