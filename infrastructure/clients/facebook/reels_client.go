package facebook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"

	"github.com/google/go-querystring/query"
)

const defaultGraphURL = "https://graph.facebook.com/v19.0"

// Client drives the Reels phased upload protocol against the Graph API:
// start -> binary transfer -> optional thumbnail staging -> finish -> poll.
// Any phase failure after start triggers a best-effort delete of the
// partially created video.
type Client struct {
	httpClient      *http.Client
	graphURL        string
	pollInterval    time.Duration
	pollMaxAttempts int
	strictThumbnail bool
}

type Option func(*Client)

// WithGraphURL overrides the Graph API base URL (tests).
func WithGraphURL(u string) Option { return func(c *Client) { c.graphURL = u } }

// WithPollPolicy overrides the processing poll interval and attempt bound.
func WithPollPolicy(interval time.Duration, attempts int) Option {
	return func(c *Client) {
		c.pollInterval = interval
		c.pollMaxAttempts = attempts
	}
}

// WithStrictThumbnail makes a thumbnail staging failure abort the upload
// instead of proceeding without a thumbnail.
func WithStrictThumbnail(strict bool) Option {
	return func(c *Client) { c.strictThumbnail = strict }
}

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.httpClient = h } }

func NewReelsClient(opts ...Option) repository.IReelsUploader {
	c := &Client{
		httpClient:      http.DefaultClient,
		graphURL:        defaultGraphURL,
		pollInterval:    5 * time.Second,
		pollMaxAttempts: 24,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// remoteVideoHandle tracks the ephemeral server-side video through the
// phases. Never persisted; discarded once the upload reaches a terminal
// state.
type remoteVideoHandle struct {
	videoID   string
	uploadURL string
}

type graphErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

type startParams struct {
	UploadPhase string `url:"upload_phase"`
	AccessToken string `url:"access_token"`
}

type finishParams struct {
	VideoID               string `url:"video_id"`
	UploadPhase           string `url:"upload_phase"`
	Description           string `url:"description"`
	AccessToken           string `url:"access_token"`
	VideoState            string `url:"video_state"`
	ScheduledPublishTime  int64  `url:"scheduled_publish_time,omitempty"`
	ThumbnailFileID       string `url:"thumbnail_file_id,omitempty"`
}

type statusParams struct {
	Fields      string `url:"fields"`
	AccessToken string `url:"access_token"`
}

// UploadReel runs the strict phase sequence and returns the public reel URL
// once remote processing reports ready.
func (c *Client) UploadReel(ctx context.Context, tok *model.OAuthToken, req *dto.ReelUploadRequest) (string, error) {
	if req == nil || len(req.Video) == 0 {
		return "", fmt.Errorf("%w: video payload is required", model.ErrInvalidInput)
	}
	if tok == nil || tok.AccessToken == "" || tok.PageID == nil || *tok.PageID == "" {
		return "", fmt.Errorf("%w: no page credential", model.ErrAuthExpired)
	}
	pageID := *tok.PageID
	accessToken := tok.AccessToken

	handle, err := c.startUpload(ctx, pageID, accessToken)
	if err != nil {
		return "", err
	}

	if err := c.transferVideo(ctx, handle, accessToken, req.Video); err != nil {
		c.cleanup(ctx, handle.videoID, accessToken)
		return "", err
	}

	thumbnailFileID := ""
	if len(req.Thumbnail) > 0 {
		thumbnailFileID, err = c.stageThumbnail(ctx, pageID, accessToken, req.Thumbnail)
		if err != nil {
			if c.strictThumbnail {
				c.cleanup(ctx, handle.videoID, accessToken)
				return "", err
			}
			// The finish phase proceeds without a thumbnail handle.
			logger.GetLogger().WithField("error", err.Error()).Warn("thumbnail staging failed, continuing without thumbnail")
			thumbnailFileID = ""
		}
	}

	if err := c.finishUpload(ctx, pageID, accessToken, handle.videoID, req.Description, req.PublishAt, thumbnailFileID); err != nil {
		c.cleanup(ctx, handle.videoID, accessToken)
		return "", err
	}

	if err := c.waitUntilReady(ctx, handle.videoID, accessToken); err != nil {
		c.cleanup(ctx, handle.videoID, accessToken)
		return "", err
	}

	return fmt.Sprintf("https://www.facebook.com/reel/%s", handle.videoID), nil
}

// startUpload requests an upload session. Both video_id and upload_url are
// required before any binary is sent.
func (c *Client) startUpload(ctx context.Context, pageID, accessToken string) (*remoteVideoHandle, error) {
	v, _ := query.Values(startParams{UploadPhase: "start", AccessToken: accessToken})
	initURL := fmt.Sprintf("%s/%s/video_reels?%s", c.graphURL, pageID, v.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, initURL, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("reels init request: %w", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if authErr := graphAuthError(resp.StatusCode, body); authErr != nil {
			return nil, authErr
		}
		return nil, model.NewRemoteError(model.PlatformFacebook, "init", resp.StatusCode, graphErrorMessage(body))
	}

	var initData struct {
		VideoID   string `json:"video_id"`
		UploadURL string `json:"upload_url"`
	}
	if err := json.Unmarshal(body, &initData); err != nil {
		return nil, model.NewRemoteError(model.PlatformFacebook, "init", resp.StatusCode, "unparseable init response")
	}
	if initData.VideoID == "" || initData.UploadURL == "" {
		return nil, model.NewRemoteError(model.PlatformFacebook, "init", resp.StatusCode, "no video_id or upload_url received")
	}
	return &remoteVideoHandle{videoID: initData.VideoID, uploadURL: initData.UploadURL}, nil
}

// transferVideo streams the whole payload in one request with explicit
// offset-zero and total-size headers.
func (c *Client) transferVideo(ctx context.Context, handle *remoteVideoHandle, accessToken string, video []byte) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, handle.uploadURL, bytes.NewReader(video))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "OAuth "+accessToken)
	httpReq.Header.Set("Offset", "0")
	httpReq.Header.Set("File_Size", strconv.Itoa(len(video)))
	httpReq.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("reels transfer request: %w", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.NewRemoteError(model.PlatformFacebook, "transfer", resp.StatusCode, string(body))
	}
	return nil
}

// stageThumbnail uploads the cover image through the thumbnail session
// endpoint and returns the file id to attach on finish.
func (c *Client) stageThumbnail(ctx context.Context, pageID, accessToken string, thumbnail []byte) (string, error) {
	v, _ := query.Values(startParams{UploadPhase: "start", AccessToken: accessToken})
	initURL := fmt.Sprintf("%s/%s/video_thumbnails?%s", c.graphURL, pageID, v.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, initURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("thumbnail init request: %w", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", model.NewRemoteError(model.PlatformFacebook, "thumbnail", resp.StatusCode, graphErrorMessage(body))
	}
	var initData struct {
		ID        string `json:"id"`
		UploadURL string `json:"upload_url"`
	}
	if err := json.Unmarshal(body, &initData); err != nil || initData.ID == "" || initData.UploadURL == "" {
		return "", model.NewRemoteError(model.PlatformFacebook, "thumbnail", resp.StatusCode, "no thumbnail session received")
	}

	upReq, err := http.NewRequestWithContext(ctx, http.MethodPost, initData.UploadURL, bytes.NewReader(thumbnail))
	if err != nil {
		return "", err
	}
	upReq.Header.Set("Authorization", "OAuth "+accessToken)
	upReq.Header.Set("Offset", "0")
	upReq.Header.Set("File_Size", strconv.Itoa(len(thumbnail)))
	upReq.Header.Set("Content-Type", "application/octet-stream")

	upResp, err := c.httpClient.Do(upReq)
	if err != nil {
		return "", fmt.Errorf("thumbnail transfer request: %w", err)
	}
	upBody, _ := io.ReadAll(upResp.Body)
	upResp.Body.Close()
	if upResp.StatusCode < 200 || upResp.StatusCode >= 300 {
		return "", model.NewRemoteError(model.PlatformFacebook, "thumbnail", upResp.StatusCode, string(upBody))
	}
	return initData.ID, nil
}

// finishUpload publishes (or schedules) the uploaded video. The response must
// carry a success indicator.
func (c *Client) finishUpload(ctx context.Context, pageID, accessToken, videoID, description string, publishAt time.Time, thumbnailFileID string) error {
	params := finishParams{
		VideoID:         videoID,
		UploadPhase:     "finish",
		Description:     description,
		AccessToken:     accessToken,
		VideoState:      "PUBLISHED",
		ThumbnailFileID: thumbnailFileID,
	}
	if !publishAt.IsZero() {
		params.VideoState = "SCHEDULED"
		params.ScheduledPublishTime = publishAt.Unix()
	}
	v, _ := query.Values(params)
	finishURL := fmt.Sprintf("%s/%s/video_reels?%s", c.graphURL, pageID, v.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, finishURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("reels finish request: %w", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if authErr := graphAuthError(resp.StatusCode, body); authErr != nil {
			return authErr
		}
		return model.NewRemoteError(model.PlatformFacebook, "finish", resp.StatusCode, string(body))
	}

	var finishData struct {
		Success bool   `json:"success"`
		PostID  string `json:"post_id"`
	}
	if err := json.Unmarshal(body, &finishData); err != nil {
		return model.NewRemoteError(model.PlatformFacebook, "finish", resp.StatusCode, "unparseable finish response")
	}
	if !finishData.Success && finishData.PostID == "" {
		return model.NewRemoteError(model.PlatformFacebook, "finish", resp.StatusCode, "publish command did not succeed")
	}
	return nil
}

// waitUntilReady polls processing status at a fixed interval for a bounded
// number of attempts. A single failed poll is transient; exhausting the
// attempts is a timeout.
func (c *Client) waitUntilReady(ctx context.Context, videoID, accessToken string) error {
	v, _ := query.Values(statusParams{Fields: "status", AccessToken: accessToken})
	statusURL := fmt.Sprintf("%s/%s?%s", c.graphURL, videoID, v.Encode())

	for attempt := 0; attempt < c.pollMaxAttempts; attempt++ {
		if ready := c.pollOnce(ctx, statusURL); ready {
			return nil
		}
		if attempt == c.pollMaxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
	return model.ErrPollTimeout
}

func (c *Client) pollOnce(ctx context.Context, statusURL string) bool {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.GetLogger().WithField("error", err.Error()).Debug("status poll failed, retrying")
		return false
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false
	}
	var statusData struct {
		Status struct {
			VideoStatus string `json:"video_status"`
		} `json:"status"`
	}
	if err := json.Unmarshal(body, &statusData); err != nil {
		return false
	}
	return statusData.Status.VideoStatus == "ready"
}

// cleanup deletes the partially created remote video. Best-effort: a cleanup
// failure is logged and never replaces the primary error. The primary failure
// may be the caller's own deadline, so the delete runs on a detached context
// with its own short timeout.
func (c *Client) cleanup(ctx context.Context, videoID, accessToken string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()

	v, _ := query.Values(statusParams{Fields: "id", AccessToken: accessToken})
	deleteURL := fmt.Sprintf("%s/%s?%s", c.graphURL, videoID, v.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, deleteURL, nil)
	if err != nil {
		logger.GetLogger().WithField("error", err.Error()).Warn("cleanup request build failed")
		return
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.GetLogger().WithField("video_id", videoID).WithField("error", err.Error()).Warn("cleanup delete failed")
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.GetLogger().WithField("video_id", videoID).WithField("status", resp.StatusCode).Warn("cleanup delete rejected")
	}
}

// graphAuthError maps an expired/invalid credential response (HTTP 401 or
// Graph error code 190) onto the auth taxonomy.
func graphAuthError(statusCode int, body []byte) error {
	var ge graphErrorBody
	_ = json.Unmarshal(body, &ge)
	if statusCode == http.StatusUnauthorized || ge.Error.Code == 190 {
		return fmt.Errorf("%w: %s", model.ErrAuthExpired, ge.Error.Message)
	}
	return nil
}

func graphErrorMessage(body []byte) string {
	var ge graphErrorBody
	if err := json.Unmarshal(body, &ge); err == nil && ge.Error.Message != "" {
		return ge.Error.Message
	}
	return string(body)
}
