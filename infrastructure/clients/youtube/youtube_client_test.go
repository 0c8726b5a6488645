package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
	"social-publisher/infrastructure/configuration"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

func shortsClient(opts ...Option) *Client {
	cfg := &configuration.YouTubeConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:10001/auth/youtube/callback",
	}
	return NewShortsClient(cfg, opts...).(*Client)
}

func channelToken(expiresIn time.Duration) *model.OAuthToken {
	expiry := time.Now().Add(expiresIn)
	return &model.OAuthToken{
		UserID:       "user-1",
		Platform:     model.PlatformYouTube,
		AccessToken:  "channel-access",
		RefreshToken: "channel-refresh",
		ExpiresAt:    &expiry,
	}
}

func TestUploadShort_InputValidation(t *testing.T) {
	c := shortsClient()

	_, _, err := c.UploadShort(context.Background(), channelToken(time.Hour), &dto.ShortUploadRequest{Title: "t"})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, _, err = c.UploadShort(context.Background(), nil, &dto.ShortUploadRequest{Title: "t", Video: []byte("v")})
	assert.ErrorIs(t, err, model.ErrAuthExpired)

	_, _, err = c.UploadShort(context.Background(), &model.OAuthToken{}, &dto.ShortUploadRequest{Title: "t", Video: []byte("v")})
	assert.ErrorIs(t, err, model.ErrAuthExpired)
}

func TestFreshToken_KeepsValidToken(t *testing.T) {
	c := shortsClient()

	tok, rotated, err := c.freshToken(context.Background(), channelToken(time.Hour))
	require.NoError(t, err)
	assert.Nil(t, rotated)
	assert.Equal(t, "channel-access", tok.AccessToken)
}

func TestFreshToken_NilExpiryNeverTriggersRefresh(t *testing.T) {
	c := shortsClient()

	// A token without a stored expiry is treated as non-expiring; the
	// oauth2 package reports zero expiry as always valid.
	stored := channelToken(0)
	stored.ExpiresAt = nil

	tok, rotated, err := c.freshToken(context.Background(), stored)
	require.NoError(t, err)
	assert.Nil(t, rotated)
	assert.Equal(t, "channel-access", tok.AccessToken)
}

// tokenEndpoint fakes the provider's token endpoint for refresh calls.
func tokenEndpoint(t *testing.T, handler http.HandlerFunc) oauth2.Endpoint {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}
}

func TestFreshToken_RefreshMergesStoredRefreshToken(t *testing.T) {
	// The refresh response omits refresh_token; the stored one must survive
	// into the rotated credential.
	endpoint := tokenEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "channel-refresh", r.Form.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"rotated-access","token_type":"Bearer","expires_in":3600}`)
	})
	c := shortsClient(WithOAuthEndpoint(endpoint))

	stored := channelToken(-time.Hour)
	tok, rotated, err := c.freshToken(context.Background(), stored)
	require.NoError(t, err)
	assert.Equal(t, "rotated-access", tok.AccessToken)

	require.NotNil(t, rotated)
	assert.Equal(t, "rotated-access", rotated.AccessToken)
	assert.Equal(t, "channel-refresh", rotated.RefreshToken)
	assert.Equal(t, stored.UserID, rotated.UserID)
	assert.Equal(t, stored.Platform, rotated.Platform)
	require.NotNil(t, rotated.ExpiresAt)
	assert.True(t, rotated.ExpiresAt.After(time.Now()))
}

func TestFreshToken_RefreshResponseCanRotateRefreshToken(t *testing.T) {
	endpoint := tokenEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"rotated-access","refresh_token":"rotated-refresh","token_type":"Bearer","expires_in":3600}`)
	})
	c := shortsClient(WithOAuthEndpoint(endpoint))

	_, rotated, err := c.freshToken(context.Background(), channelToken(-time.Hour))
	require.NoError(t, err)
	require.NotNil(t, rotated)
	assert.Equal(t, "rotated-refresh", rotated.RefreshToken)
}

func TestFreshToken_RefreshRejectionIsAuthExpired(t *testing.T) {
	endpoint := tokenEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid_grant"}`)
	})
	c := shortsClient(WithOAuthEndpoint(endpoint))

	_, _, err := c.freshToken(context.Background(), channelToken(-time.Hour))
	assert.ErrorIs(t, err, model.ErrAuthExpired)
}

func TestFreshToken_ExpiredWithoutRefreshToken(t *testing.T) {
	c := shortsClient()

	stored := channelToken(-time.Hour)
	stored.RefreshToken = ""

	_, _, err := c.freshToken(context.Background(), stored)
	assert.ErrorIs(t, err, model.ErrAuthExpired)
}

func TestClassifyUploadError(t *testing.T) {
	unauthorized := &googleapi.Error{Code: http.StatusUnauthorized, Message: "Invalid Credentials"}
	assert.ErrorIs(t, classifyUploadError(unauthorized), model.ErrAuthExpired)

	forbiddenAuth := &googleapi.Error{
		Code:    http.StatusForbidden,
		Message: "Access forbidden",
		Errors:  []googleapi.ErrorItem{{Reason: "authError"}},
	}
	assert.ErrorIs(t, classifyUploadError(forbiddenAuth), model.ErrAuthExpired)

	quota := &googleapi.Error{
		Code:    http.StatusForbidden,
		Message: "quotaExceeded",
		Errors:  []googleapi.ErrorItem{{Reason: "quotaExceeded"}},
	}
	var remoteErr *model.RemoteError
	err := classifyUploadError(quota)
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, model.PlatformYouTube, remoteErr.Platform)
	assert.Equal(t, http.StatusForbidden, remoteErr.StatusCode)
	assert.NotErrorIs(t, err, model.ErrAuthExpired)

	serverErr := &googleapi.Error{Code: http.StatusInternalServerError, Message: "backendError"}
	err = classifyUploadError(serverErr)
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusInternalServerError, remoteErr.StatusCode)

	plain := errors.New("connection reset")
	err = classifyUploadError(plain)
	assert.NotErrorIs(t, err, model.ErrAuthExpired)
	assert.Contains(t, err.Error(), "connection reset")
}
