package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/motionlib-backend/internal/platform/logger"
	"github.com/yungbote/motionlib-backend/internal/storage"
)

type TrajectoryHandler struct {
	log   *logger.Logger
	store *storage.Store
}

func NewTrajectoryHandler(log *logger.Logger, store *storage.Store) *TrajectoryHandler {
	return &TrajectoryHandler{log: log.With("handler", "TrajectoryHandler"), store: store}
}

func (th *TrajectoryHandler) List(c *gin.Context) {
	infos, err := th.store.ListTrajectories(c.Query("category"))
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, gin.H{"trajectories": infos})
}

// Download streams the stored array file itself; the JSON summary lives
// under /info.
func (th *TrajectoryHandler) Download(c *gin.Context) {
	abs, err := th.store.ResolveTrajectory(c.Param("id"))
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	serveAsset(c, abs, "application/octet-stream")
}

func (th *TrajectoryHandler) Get(c *gin.Context) {
	info, err := th.store.TrajectoryByID(c.Param("id"))
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, info)
}

func (th *TrajectoryHandler) Upload(c *gin.Context) {
	content, filename, err := readUpload(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	info, err := th.store.SaveTrajectory(filename, content, c.PostForm("category"))
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondOK(c, info)
}

func (th *TrajectoryHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	found, err := th.store.DeleteTrajectory(id)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	if !found {
		RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("trajectory %s not found", id))
		return
	}
	RespondOK(c, gin.H{"deleted": id})
}

func (th *TrajectoryHandler) Thumbnail(c *gin.Context) {
	p, err := th.store.TrajectoryThumbnail(c.Param("id"))
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	serveThumbnail(c, p)
}

// serveAsset streams a stored file as a download with its on-disk name.
func serveAsset(c *gin.Context, abs, contentType string) {
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(abs)))
	c.File(abs)
}

func readUpload(c *gin.Context) ([]byte, string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("multipart field \"file\" required: %w", err)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}
	return content, fh.Filename, nil
}
