package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
)

type mockTokenRepo struct{ mock.Mock }

func (m *mockTokenRepo) UpsertToken(ctx context.Context, t *model.OAuthToken) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockTokenRepo) GetToken(ctx context.Context, userID, platform string) (*model.OAuthToken, error) {
	args := m.Called(ctx, userID, platform)
	tok, _ := args.Get(0).(*model.OAuthToken)
	return tok, args.Error(1)
}

func (m *mockTokenRepo) DeleteToken(ctx context.Context, userID, platform string) error {
	args := m.Called(ctx, userID, platform)
	return args.Error(0)
}

type mockHistory struct{ mock.Mock }

func (m *mockHistory) Append(ctx context.Context, entry *model.PostHistory) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockHistory) List(ctx context.Context, userID string, limit int) ([]*model.PostHistory, error) {
	args := m.Called(ctx, userID, limit)
	list, _ := args.Get(0).([]*model.PostHistory)
	return list, args.Error(1)
}

type mockShorts struct{ mock.Mock }

func (m *mockShorts) UploadShort(ctx context.Context, tok *model.OAuthToken, req *dto.ShortUploadRequest) (*dto.ShortUploadResult, *model.OAuthToken, error) {
	args := m.Called(ctx, tok, req)
	res, _ := args.Get(0).(*dto.ShortUploadResult)
	rotated, _ := args.Get(1).(*model.OAuthToken)
	return res, rotated, args.Error(2)
}

type mockReels struct{ mock.Mock }

func (m *mockReels) UploadReel(ctx context.Context, tok *model.OAuthToken, req *dto.ReelUploadRequest) (string, error) {
	args := m.Called(ctx, tok, req)
	return args.String(0), args.Error(1)
}

func testToken(platform string) *model.OAuthToken {
	tok := &model.OAuthToken{
		UserID:      "user-1",
		Platform:    platform,
		AccessToken: "access-" + platform,
	}
	if platform == model.PlatformFacebook {
		pageID := "page-1"
		tok.PageID = &pageID
	}
	return tok
}

func testAsset() *model.MediaAsset {
	return &model.MediaAsset{Data: []byte("video-bytes"), Size: 11, ContentType: "video/mp4"}
}

func newTestUsecase(tokens *mockTokenRepo, history *mockHistory, shorts *mockShorts, reels *mockReels) IPublishUsecase {
	return NewPublishUsecase(tokens, history, shorts, reels, DefaultPublishConfig())
}

func TestPublish_RequiresAsset(t *testing.T) {
	u := newTestUsecase(&mockTokenRepo{}, &mockHistory{}, &mockShorts{}, &mockReels{})

	_, err := u.Publish(context.Background(), "user-1", nil, &dto.PublishRequest{Description: "hi"})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = u.Publish(context.Background(), "user-1", &model.MediaAsset{}, &dto.PublishRequest{Description: "hi"})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestPublish_RequiresDescription(t *testing.T) {
	u := newTestUsecase(&mockTokenRepo{}, &mockHistory{}, &mockShorts{}, &mockReels{})

	_, err := u.Publish(context.Background(), "user-1", testAsset(), &dto.PublishRequest{})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestPublish_RejectsScheduleInsideLeadTime(t *testing.T) {
	tokens := &mockTokenRepo{}
	shorts := &mockShorts{}
	u := newTestUsecase(tokens, &mockHistory{}, shorts, &mockReels{})

	req := &dto.PublishRequest{
		Description:  "scheduled clip",
		SchedulePost: true,
		PublishAt:    time.Now().Add(5 * time.Minute),
	}
	_, err := u.Publish(context.Background(), "user-1", testAsset(), req)
	assert.ErrorIs(t, err, model.ErrScheduleTooSoon)

	// Validation happens before any credential lookup or driver call.
	tokens.AssertNotCalled(t, "GetToken", mock.Anything, mock.Anything, mock.Anything)
	shorts.AssertNotCalled(t, "UploadShort", mock.Anything, mock.Anything, mock.Anything)
}

func TestPublish_BothPlatformsSucceed(t *testing.T) {
	tokens := &mockTokenRepo{}
	history := &mockHistory{}
	shorts := &mockShorts{}
	reels := &mockReels{}
	u := newTestUsecase(tokens, history, shorts, reels)

	tokens.On("GetToken", mock.Anything, "user-1", model.PlatformYouTube).Return(testToken(model.PlatformYouTube), nil)
	tokens.On("GetToken", mock.Anything, "user-1", model.PlatformFacebook).Return(testToken(model.PlatformFacebook), nil)
	shorts.On("UploadShort", mock.Anything, mock.Anything, mock.Anything).
		Return(&dto.ShortUploadResult{VideoID: "abc", URL: "https://www.youtube.com/shorts/abc"}, nil, nil)
	reels.On("UploadReel", mock.Anything, mock.Anything, mock.Anything).
		Return("https://www.facebook.com/reel/123", nil)
	history.On("Append", mock.Anything, mock.Anything).Return(nil)

	result, err := u.Publish(context.Background(), "user-1", testAsset(), &dto.PublishRequest{Description: "my clip"})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 2)

	// Outcomes keep platform order regardless of which upload finished first.
	assert.Equal(t, model.PlatformYouTube, result.Outcomes[0].Platform)
	assert.Equal(t, model.StatusSuccess, result.Outcomes[0].Status)
	assert.Equal(t, "https://www.youtube.com/shorts/abc", result.Outcomes[0].URL)
	assert.Equal(t, model.PlatformFacebook, result.Outcomes[1].Platform)
	assert.Equal(t, "https://www.facebook.com/reel/123", result.Outcomes[1].URL)
	assert.True(t, result.Succeeded())

	history.AssertNumberOfCalls(t, "Append", 2)
}

func TestPublish_PartialFailureKeepsOtherPlatform(t *testing.T) {
	tokens := &mockTokenRepo{}
	history := &mockHistory{}
	shorts := &mockShorts{}
	reels := &mockReels{}
	u := newTestUsecase(tokens, history, shorts, reels)

	tokens.On("GetToken", mock.Anything, "user-1", model.PlatformYouTube).Return(testToken(model.PlatformYouTube), nil)
	tokens.On("GetToken", mock.Anything, "user-1", model.PlatformFacebook).Return(testToken(model.PlatformFacebook), nil)
	shorts.On("UploadShort", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, nil, model.NewRemoteError(model.PlatformYouTube, "upload", 403, "quota exceeded"))
	reels.On("UploadReel", mock.Anything, mock.Anything, mock.Anything).
		Return("https://www.facebook.com/reel/123", nil)
	history.On("Append", mock.Anything, mock.Anything).Return(nil)

	result, err := u.Publish(context.Background(), "user-1", testAsset(), &dto.PublishRequest{Description: "my clip"})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 2)

	assert.Equal(t, model.StatusError, result.Outcomes[0].Status)
	assert.Contains(t, result.Outcomes[0].ErrorMessage, "quota exceeded")
	assert.Equal(t, model.StatusSuccess, result.Outcomes[1].Status)
	assert.True(t, result.Succeeded())
}

func TestPublish_SkipsDisconnectedPlatformSilently(t *testing.T) {
	tokens := &mockTokenRepo{}
	history := &mockHistory{}
	shorts := &mockShorts{}
	reels := &mockReels{}
	u := newTestUsecase(tokens, history, shorts, reels)

	tokens.On("GetToken", mock.Anything, "user-1", model.PlatformYouTube).Return(testToken(model.PlatformYouTube), nil)
	tokens.On("GetToken", mock.Anything, "user-1", model.PlatformFacebook).Return(nil, nil)
	shorts.On("UploadShort", mock.Anything, mock.Anything, mock.Anything).
		Return(&dto.ShortUploadResult{VideoID: "abc", URL: "https://www.youtube.com/shorts/abc"}, nil, nil)
	history.On("Append", mock.Anything, mock.Anything).Return(nil)

	result, err := u.Publish(context.Background(), "user-1", testAsset(), &dto.PublishRequest{Description: "my clip"})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, model.PlatformYouTube, result.Outcomes[0].Platform)
	reels.AssertNotCalled(t, "UploadReel", mock.Anything, mock.Anything, mock.Anything)
}

func TestPublish_TokenStoreFailureIsAnErrorOutcome(t *testing.T) {
	tokens := &mockTokenRepo{}
	history := &mockHistory{}
	shorts := &mockShorts{}
	reels := &mockReels{}
	u := newTestUsecase(tokens, history, shorts, reels)

	tokens.On("GetToken", mock.Anything, "user-1", model.PlatformYouTube).Return(nil, assert.AnError)
	tokens.On("GetToken", mock.Anything, "user-1", model.PlatformFacebook).Return(testToken(model.PlatformFacebook), nil)
	reels.On("UploadReel", mock.Anything, mock.Anything, mock.Anything).
		Return("https://www.facebook.com/reel/123", nil)
	history.On("Append", mock.Anything, mock.Anything).Return(nil)

	result, err := u.Publish(context.Background(), "user-1", testAsset(), &dto.PublishRequest{Description: "my clip"})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 2)

	assert.Equal(t, model.StatusError, result.Outcomes[0].Status)
	assert.Contains(t, result.Outcomes[0].ErrorMessage, "credential store")
	assert.Equal(t, model.StatusSuccess, result.Outcomes[1].Status)
	shorts.AssertNotCalled(t, "UploadShort", mock.Anything, mock.Anything, mock.Anything)
}

func TestPublish_NoPlatformsConnected(t *testing.T) {
	tokens := &mockTokenRepo{}
	history := &mockHistory{}
	u := newTestUsecase(tokens, history, &mockShorts{}, &mockReels{})

	tokens.On("GetToken", mock.Anything, "user-1", mock.Anything).Return(nil, nil)

	result, err := u.Publish(context.Background(), "user-1", testAsset(), &dto.PublishRequest{Description: "my clip"})
	require.NoError(t, err)
	assert.Empty(t, result.Outcomes)
	assert.False(t, result.Succeeded())
}

func TestPublish_PersistsRotatedToken(t *testing.T) {
	tokens := &mockTokenRepo{}
	history := &mockHistory{}
	shorts := &mockShorts{}
	u := newTestUsecase(tokens, history, shorts, &mockReels{})

	rotated := &model.OAuthToken{
		UserID:      "user-1",
		Platform:    model.PlatformYouTube,
		AccessToken: "fresh-access",
	}

	tokens.On("GetToken", mock.Anything, "user-1", model.PlatformYouTube).Return(testToken(model.PlatformYouTube), nil)
	tokens.On("GetToken", mock.Anything, "user-1", model.PlatformFacebook).Return(nil, nil)
	tokens.On("UpsertToken", mock.Anything, rotated).Return(nil)
	shorts.On("UploadShort", mock.Anything, mock.Anything, mock.Anything).
		Return(&dto.ShortUploadResult{VideoID: "abc", URL: "https://www.youtube.com/shorts/abc"}, rotated, nil)
	history.On("Append", mock.Anything, mock.Anything).Return(nil)

	_, err := u.Publish(context.Background(), "user-1", testAsset(), &dto.PublishRequest{Description: "my clip"})
	require.NoError(t, err)
	tokens.AssertCalled(t, "UpsertToken", mock.Anything, rotated)
}

func TestPublish_AuthExpiredGetsReconnectMessage(t *testing.T) {
	tokens := &mockTokenRepo{}
	history := &mockHistory{}
	shorts := &mockShorts{}
	u := newTestUsecase(tokens, history, shorts, &mockReels{})

	tokens.On("GetToken", mock.Anything, "user-1", model.PlatformYouTube).Return(testToken(model.PlatformYouTube), nil)
	tokens.On("GetToken", mock.Anything, "user-1", model.PlatformFacebook).Return(nil, nil)
	shorts.On("UploadShort", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, nil, model.ErrAuthExpired)
	history.On("Append", mock.Anything, mock.Anything).Return(nil)

	result, err := u.Publish(context.Background(), "user-1", testAsset(), &dto.PublishRequest{Description: "my clip"})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, model.StatusError, result.Outcomes[0].Status)
	assert.Contains(t, result.Outcomes[0].ErrorMessage, "please reconnect")
}

func TestPublish_HistoryFailureDoesNotChangeResult(t *testing.T) {
	tokens := &mockTokenRepo{}
	history := &mockHistory{}
	shorts := &mockShorts{}
	u := newTestUsecase(tokens, history, shorts, &mockReels{})

	tokens.On("GetToken", mock.Anything, "user-1", model.PlatformYouTube).Return(testToken(model.PlatformYouTube), nil)
	tokens.On("GetToken", mock.Anything, "user-1", model.PlatformFacebook).Return(nil, nil)
	shorts.On("UploadShort", mock.Anything, mock.Anything, mock.Anything).
		Return(&dto.ShortUploadResult{VideoID: "abc", URL: "https://www.youtube.com/shorts/abc"}, nil, nil)
	history.On("Append", mock.Anything, mock.Anything).Return(assert.AnError)

	result, err := u.Publish(context.Background(), "user-1", testAsset(), &dto.PublishRequest{Description: "my clip"})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, model.StatusSuccess, result.Outcomes[0].Status)
}

func TestPublish_AppendsPlatformHashtags(t *testing.T) {
	tokens := &mockTokenRepo{}
	history := &mockHistory{}
	shorts := &mockShorts{}
	reels := &mockReels{}
	u := newTestUsecase(tokens, history, shorts, reels)

	tokens.On("GetToken", mock.Anything, "user-1", model.PlatformYouTube).Return(testToken(model.PlatformYouTube), nil)
	tokens.On("GetToken", mock.Anything, "user-1", model.PlatformFacebook).Return(testToken(model.PlatformFacebook), nil)

	var shortDescription, reelDescription string
	shorts.On("UploadShort", mock.Anything, mock.Anything, mock.MatchedBy(func(req *dto.ShortUploadRequest) bool {
		shortDescription = req.Description
		return true
	})).Return(&dto.ShortUploadResult{VideoID: "abc", URL: "u"}, nil, nil)
	reels.On("UploadReel", mock.Anything, mock.Anything, mock.MatchedBy(func(req *dto.ReelUploadRequest) bool {
		reelDescription = req.Description
		return true
	})).Return("u", nil)
	history.On("Append", mock.Anything, mock.Anything).Return(nil)

	_, err := u.Publish(context.Background(), "user-1", testAsset(), &dto.PublishRequest{Description: "my clip"})
	require.NoError(t, err)

	assert.Contains(t, shortDescription, "#shorts")
	assert.NotContains(t, shortDescription, "#reels")
	assert.Contains(t, reelDescription, "#reels")
	assert.NotContains(t, reelDescription, "#shorts")
}
