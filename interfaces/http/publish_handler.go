package http

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
	"social-publisher/infrastructure/logger"
	"social-publisher/usecase"

	"github.com/gin-gonic/gin"
)

const (
	maxVideoBytes     = 500 << 20
	maxThumbnailBytes = 10 << 20
)

type IPublishHandler interface {
	Publish(c *gin.Context)
}

type PublishHandler struct {
	publishUsecase usecase.IPublishUsecase
}

func NewPublishHandler(publishUsecase usecase.IPublishUsecase) IPublishHandler {
	return &PublishHandler{publishUsecase: publishUsecase}
}

// Publish handles POST /api/publish. Multipart fields: video (required),
// thumbnail (optional), description (required), schedulePost, publishAt
// (RFC3339, required when schedulePost is true), platforms (repeatable or
// comma-separated).
func (h *PublishHandler) Publish(c *gin.Context) {
	userID := c.GetString("user_id")

	videoHeader, err := c.FormFile("video")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: "video file is required"})
		return
	}
	if videoHeader.Size > maxVideoBytes {
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: "video file too large"})
		return
	}
	video, err := readUpload(videoHeader)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("failed reading video upload")
		c.JSON(http.StatusInternalServerError, dto.Res{ResponseCode: "500", ResponseMessage: "could not read video file"})
		return
	}

	asset := &model.MediaAsset{
		Data:        video,
		Size:        videoHeader.Size,
		ContentType: videoHeader.Header.Get("Content-Type"),
	}
	if thumbHeader, err := c.FormFile("thumbnail"); err == nil {
		if thumbHeader.Size > maxThumbnailBytes {
			c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: "thumbnail file too large"})
			return
		}
		thumbnail, err := readUpload(thumbHeader)
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("failed reading thumbnail upload")
			c.JSON(http.StatusInternalServerError, dto.Res{ResponseCode: "500", ResponseMessage: "could not read thumbnail file"})
			return
		}
		asset.Thumbnail = thumbnail
	}

	req := &dto.PublishRequest{
		Description:  c.PostForm("description"),
		SchedulePost: c.PostForm("schedulePost") == "true",
		Platforms:    platformList(c),
	}
	if req.SchedulePost {
		publishAt, err := time.Parse(time.RFC3339, c.PostForm("publishAt"))
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: "publishAt must be RFC3339"})
			return
		}
		req.PublishAt = publishAt
	}

	result, err := h.publishUsecase.Publish(c.Request.Context(), userID, asset, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidInput), errors.Is(err, model.ErrScheduleTooSoon):
			c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: err.Error()})
		default:
			logger.GetLogger().WithField("error", err).Error("publish call failed")
			c.JSON(http.StatusInternalServerError, dto.Res{ResponseCode: "500", ResponseMessage: "publish failed"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.Res{ResponseCode: "200", ResponseMessage: "Success", Data: result})
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// platformList accepts both repeated form fields and a single comma-separated
// value.
func platformList(c *gin.Context) []string {
	values := c.PostFormArray("platforms")
	if len(values) == 1 && strings.Contains(values[0], ",") {
		values = strings.Split(values[0], ",")
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
