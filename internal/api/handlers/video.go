package handlers

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/your-org/tubefetch/internal/common"
	"github.com/your-org/tubefetch/internal/fetcher"
	"github.com/your-org/tubefetch/internal/models"
	"github.com/your-org/tubefetch/pkg/dto"
)

const msgEmptyURL = "Please enter a YouTube URL"

// VideoService is the part of fetcher.Service the video handlers need.
type VideoService interface {
	GetInfo(ctx context.Context, url string) (*models.VideoMetadata, error)
	Download(ctx context.Context, req fetcher.Request) (*fetcher.Result, error)
}

type VideoHandler struct {
	svc VideoService
	log *slog.Logger
}

func NewVideoHandler(svc VideoService, log *slog.Logger) *VideoHandler {
	return &VideoHandler{svc: svc, log: log.With("component", "video_handler")}
}

// Info handles POST /v1/info.
func (h *VideoHandler) Info(c *gin.Context) {
	var req dto.InfoRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: msgEmptyURL})
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: msgEmptyURL})
		return
	}

	meta, err := h.svc.GetInfo(c.Request.Context(), req.URL)
	if err != nil {
		c.JSON(infoStatus(err), dto.ErrorResponse{Error: userMessage(err, fetcher.OpInfo)})
		return
	}

	c.JSON(http.StatusOK, toVideoInfoResponse(meta))
}

// Download handles POST /v1/download and streams the produced file.
func (h *VideoHandler) Download(c *gin.Context) {
	var req dto.DownloadRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid YouTube URL", Retry: true})
		return
	}

	res, err := h.svc.Download(c.Request.Context(), fetcher.Request{
		URL:    req.URL,
		Choice: req.FormatID,
		JobID:  req.JobID,
	})
	if err != nil {
		c.JSON(downloadStatus(err), dto.ErrorResponse{Error: userMessage(err, fetcher.OpDownload), Retry: true})
		return
	}

	stream, err := res.Artifact.Open()
	if err != nil {
		h.log.Error("open artifact", "job_id", res.JobID, "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error: fetcher.UserMessage(fetcher.OpDownload, common.ErrUnexpected),
			Retry: true,
		})
		return
	}
	// Closing the stream removes the workspace.
	defer func() {
		if err := stream.Close(); err != nil {
			h.log.Warn("close artifact", "job_id", res.JobID, "error", err)
		}
	}()

	info, err := stream.Stat()
	if err != nil {
		h.log.Error("stat artifact", "job_id", res.JobID, "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error: fetcher.UserMessage(fetcher.OpDownload, common.ErrUnexpected),
			Retry: true,
		})
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.Filename}))
	c.Header("Content-Type", contentType(res.Filename))
	c.Header("X-Job-ID", res.JobID)
	http.ServeContent(c.Writer, c.Request, res.Filename, info.ModTime(), stream)
}

// The platform's mime table often lacks media types.
var mediaTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".opus": "audio/ogg",
	".ogg":  "audio/ogg",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".3gp":  "video/3gpp",
}

func contentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := mediaTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func userMessage(err error, op string) string {
	var fe *fetcher.Error
	if errors.As(err, &fe) {
		return fe.UserMessage()
	}
	return fetcher.UserMessage(op, common.ErrUnexpected)
}

func infoStatus(err error) int {
	switch kind := fetcher.KindOf(err); {
	case errors.Is(kind, common.ErrInvalidURL), errors.Is(kind, common.ErrExtraction):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func downloadStatus(err error) int {
	switch kind := fetcher.KindOf(err); {
	case errors.Is(kind, common.ErrInvalidURL):
		return http.StatusBadRequest
	case errors.Is(kind, common.ErrExtraction):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func toVideoInfoResponse(meta *models.VideoMetadata) dto.VideoInfoResponse {
	resp := dto.VideoInfoResponse{
		ID:        string(meta.ID),
		Title:     meta.Title,
		Duration:  meta.Duration,
		Thumbnail: meta.Thumbnail,
		Uploader:  meta.Uploader,
		ViewCount: meta.ViewCount,
		Formats:   make([]dto.FormatResponse, 0, len(meta.Formats)),
	}
	for _, f := range meta.Formats {
		resp.Formats = append(resp.Formats, dto.FormatResponse{
			FormatID: f.FormatID,
			Quality:  f.Quality,
			Ext:      f.Ext,
			Filesize: f.Filesize,
			FPS:      f.FPS,
		})
	}
	return resp
}
