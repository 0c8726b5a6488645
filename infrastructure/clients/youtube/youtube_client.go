package youtube

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/configuration"
	"social-publisher/infrastructure/logger"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const defaultCategoryID = "22"

// Client uploads short-form videos on behalf of a connected channel. Each
// call carries its own credential; the client itself holds only the app
// OAuth configuration.
type Client struct {
	oauthConfig     *oauth2.Config
	strictThumbnail bool
}

type Option func(*Client)

// WithStrictThumbnail makes a failed thumbnail set fail the whole upload.
func WithStrictThumbnail(strict bool) Option {
	return func(c *Client) { c.strictThumbnail = strict }
}

// WithOAuthEndpoint overrides the OAuth token endpoint (tests).
func WithOAuthEndpoint(endpoint oauth2.Endpoint) Option {
	return func(c *Client) { c.oauthConfig.Endpoint = endpoint }
}

// NewShortsClient creates the upload driver from the app OAuth credentials.
func NewShortsClient(cfg *configuration.YouTubeConfig, opts ...Option) repository.IShortVideoUploader {
	c := &Client{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				youtube.YoutubeUploadScope,
				youtube.YoutubeScope,
			},
			Endpoint: google.Endpoint,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UploadShort performs the single-shot video insert. The second return value
// is non-nil when the credential was refreshed during the call, so the caller
// can persist the rotated token.
func (c *Client) UploadShort(ctx context.Context, tok *model.OAuthToken, req *dto.ShortUploadRequest) (*dto.ShortUploadResult, *model.OAuthToken, error) {
	if req == nil || len(req.Video) == 0 {
		return nil, nil, fmt.Errorf("%w: video payload is required", model.ErrInvalidInput)
	}
	if tok == nil || tok.AccessToken == "" {
		return nil, nil, fmt.Errorf("%w: no channel credential", model.ErrAuthExpired)
	}

	token, rotated, err := c.freshToken(ctx, tok)
	if err != nil {
		return nil, nil, err
	}

	service, err := youtube.NewService(ctx, option.WithHTTPClient(c.oauthConfig.Client(ctx, token)))
	if err != nil {
		return nil, rotated, fmt.Errorf("failed to create upload service: %w", err)
	}

	categoryID := req.CategoryID
	if categoryID == "" {
		categoryID = defaultCategoryID
	}
	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       req.Title,
			Description: req.Description,
			CategoryId:  categoryID,
		},
		Status: &youtube.VideoStatus{PrivacyStatus: "public"},
	}
	// Scheduled videos must be created private; the platform flips them
	// public at the publish time.
	if !req.PublishAt.IsZero() {
		video.Status.PrivacyStatus = "private"
		video.Status.PublishAt = req.PublishAt.UTC().Format(time.RFC3339)
	}

	call := service.Videos.Insert([]string{"snippet", "status"}, video).
		Media(bytes.NewReader(req.Video))
	response, err := call.Do()
	if err != nil {
		return nil, rotated, classifyUploadError(err)
	}

	if len(req.Thumbnail) > 0 {
		if err := c.setThumbnail(service, response.Id, req.Thumbnail); err != nil {
			if c.strictThumbnail {
				return nil, rotated, err
			}
			logger.GetLogger().
				WithField("video_id", response.Id).
				WithField("error", err.Error()).
				Warn("thumbnail set failed, video published without thumbnail")
		}
	}

	result := &dto.ShortUploadResult{
		VideoID: response.Id,
		URL:     fmt.Sprintf("https://www.youtube.com/shorts/%s", response.Id),
	}
	return result, rotated, nil
}

// freshToken refreshes the credential when it is expired or about to expire.
// The rotated token keeps the stored refresh token when the provider omits
// one in the refresh response.
func (c *Client) freshToken(ctx context.Context, tok *model.OAuthToken) (*oauth2.Token, *model.OAuthToken, error) {
	var expiry time.Time
	if tok.ExpiresAt != nil {
		expiry = *tok.ExpiresAt
	}
	current := &oauth2.Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       expiry,
	}
	// A zero expiry means the stored credential does not expire.
	if current.Expiry.IsZero() || (current.Valid() && time.Until(current.Expiry) >= 5*time.Minute) {
		return current, nil, nil
	}
	if tok.RefreshToken == "" {
		return nil, nil, fmt.Errorf("%w: credential expired and no refresh token stored", model.ErrAuthExpired)
	}

	refreshed, err := c.oauthConfig.TokenSource(ctx, current).Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, nil, fmt.Errorf("%w: token refresh rejected", model.ErrAuthExpired)
		}
		return nil, nil, fmt.Errorf("token refresh failed: %w", err)
	}
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = tok.RefreshToken
	}

	newExpiry := refreshed.Expiry
	rotated := &model.OAuthToken{
		UserID:       tok.UserID,
		Platform:     tok.Platform,
		AccessToken:  refreshed.AccessToken,
		RefreshToken: refreshed.RefreshToken,
		ExpiresAt:    &newExpiry,
		Scopes:       tok.Scopes,
		PageID:       tok.PageID,
		PageName:     tok.PageName,
		TokenType:    tok.TokenType,
	}
	return refreshed, rotated, nil
}

func (c *Client) setThumbnail(service *youtube.Service, videoID string, thumbnail []byte) error {
	_, err := service.Thumbnails.Set(videoID).Media(bytes.NewReader(thumbnail)).Do()
	if err != nil {
		return fmt.Errorf("failed to set thumbnail: %w", err)
	}
	return nil
}

// classifyUploadError maps API failures onto the error taxonomy: revoked or
// expired credentials become ErrAuthExpired, everything else a RemoteError
// carrying the provider status and message.
func classifyUploadError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusUnauthorized || (apiErr.Code == http.StatusForbidden && hasReason(apiErr, "authError")) {
			return fmt.Errorf("%w: %s", model.ErrAuthExpired, apiErr.Message)
		}
		return model.NewRemoteError(model.PlatformYouTube, "upload", apiErr.Code, apiErr.Message)
	}
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: token rejected during upload", model.ErrAuthExpired)
	}
	return fmt.Errorf("failed to upload video: %w", err)
}

func hasReason(apiErr *googleapi.Error, reason string) bool {
	for _, item := range apiErr.Errors {
		if item.Reason == reason {
			return true
		}
	}
	return false
}
