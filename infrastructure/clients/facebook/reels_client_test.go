package facebook

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
)

// graphStub fakes the Graph API surface the phased upload touches. Handlers
// left nil get a sane default so each test only overrides what it cares about.
type graphStub struct {
	t   *testing.T
	srv *httptest.Server

	startCalls  int
	videoCalls  int
	thumbInit   int
	thumbCalls  int
	finishCalls int
	statusCalls int
	deleteCalls int

	lastFinishQuery map[string]string

	onStart  func(w http.ResponseWriter, r *http.Request)
	onFinish func(w http.ResponseWriter, r *http.Request)
	onStatus func(w http.ResponseWriter, r *http.Request)
	onThumb  func(w http.ResponseWriter, r *http.Request)
	onDelete func(w http.ResponseWriter, r *http.Request)
}

func newGraphStub(t *testing.T) *graphStub {
	g := &graphStub{t: t}
	g.srv = httptest.NewServer(http.HandlerFunc(g.route))
	t.Cleanup(g.srv.Close)
	return g
}

func (g *graphStub) route(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/page-1/video_reels" && r.URL.Query().Get("upload_phase") == "start":
		g.startCalls++
		if g.onStart != nil {
			g.onStart(w, r)
			return
		}
		fmt.Fprintf(w, `{"video_id":"video-1","upload_url":"%s/binary"}`, g.srv.URL)

	case r.Method == http.MethodPost && r.URL.Path == "/binary":
		g.videoCalls++
		body, _ := io.ReadAll(r.Body)
		assert.Equal(g.t, "OAuth page-token", r.Header.Get("Authorization"))
		assert.Equal(g.t, "0", r.Header.Get("Offset"))
		assert.Equal(g.t, strconv.Itoa(len(body)), r.Header.Get("File_Size"))
		fmt.Fprint(w, `{"success":true}`)

	case r.Method == http.MethodPost && r.URL.Path == "/page-1/video_thumbnails":
		g.thumbInit++
		if g.onThumb != nil {
			g.onThumb(w, r)
			return
		}
		fmt.Fprintf(w, `{"id":"thumb-9","upload_url":"%s/thumb-binary"}`, g.srv.URL)

	case r.Method == http.MethodPost && r.URL.Path == "/thumb-binary":
		g.thumbCalls++
		fmt.Fprint(w, `{"success":true}`)

	case r.Method == http.MethodPost && r.URL.Path == "/page-1/video_reels" && r.URL.Query().Get("upload_phase") == "finish":
		g.finishCalls++
		g.lastFinishQuery = map[string]string{}
		for k := range r.URL.Query() {
			g.lastFinishQuery[k] = r.URL.Query().Get(k)
		}
		if g.onFinish != nil {
			g.onFinish(w, r)
			return
		}
		fmt.Fprint(w, `{"success":true,"post_id":"post-1"}`)

	case r.Method == http.MethodGet && r.URL.Path == "/video-1":
		g.statusCalls++
		if g.onStatus != nil {
			g.onStatus(w, r)
			return
		}
		fmt.Fprint(w, `{"status":{"video_status":"ready"}}`)

	case r.Method == http.MethodDelete && r.URL.Path == "/video-1":
		g.deleteCalls++
		if g.onDelete != nil {
			g.onDelete(w, r)
			return
		}
		fmt.Fprint(w, `{"success":true}`)

	default:
		g.t.Errorf("unexpected request: %s %s", r.Method, r.URL)
		w.WriteHeader(http.StatusNotFound)
	}
}

func (g *graphStub) client(opts ...Option) *Client {
	all := append([]Option{
		WithGraphURL(g.srv.URL),
		WithPollPolicy(time.Millisecond, 4),
	}, opts...)
	return NewReelsClient(all...).(*Client)
}

func pageToken() *model.OAuthToken {
	pageID := "page-1"
	return &model.OAuthToken{
		UserID:      "user-1",
		Platform:    model.PlatformFacebook,
		AccessToken: "page-token",
		PageID:      &pageID,
	}
}

func TestUploadReel_HappyPath(t *testing.T) {
	g := newGraphStub(t)
	polls := 0
	g.onStatus = func(w http.ResponseWriter, r *http.Request) {
		polls++
		if polls < 3 {
			fmt.Fprint(w, `{"status":{"video_status":"processing"}}`)
			return
		}
		fmt.Fprint(w, `{"status":{"video_status":"ready"}}`)
	}

	url, err := g.client().UploadReel(context.Background(), pageToken(), &dto.ReelUploadRequest{
		Description: "my reel #reels",
		Video:       []byte("binary-video"),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://www.facebook.com/reel/video-1", url)
	assert.Equal(t, 1, g.startCalls)
	assert.Equal(t, 1, g.videoCalls)
	assert.Equal(t, 1, g.finishCalls)
	assert.Equal(t, 3, g.statusCalls)
	assert.Equal(t, 0, g.deleteCalls)
	assert.Equal(t, "PUBLISHED", g.lastFinishQuery["video_state"])
	assert.Equal(t, "my reel #reels", g.lastFinishQuery["description"])
	assert.Empty(t, g.lastFinishQuery["thumbnail_file_id"])
}

func TestUploadReel_ScheduledWithThumbnail(t *testing.T) {
	g := newGraphStub(t)
	publishAt := time.Now().Add(2 * time.Hour).Truncate(time.Second)

	_, err := g.client().UploadReel(context.Background(), pageToken(), &dto.ReelUploadRequest{
		Description: "scheduled reel",
		Video:       []byte("binary-video"),
		Thumbnail:   []byte("jpeg-bytes"),
		PublishAt:   publishAt,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, g.thumbInit)
	assert.Equal(t, 1, g.thumbCalls)
	assert.Equal(t, "SCHEDULED", g.lastFinishQuery["video_state"])
	assert.Equal(t, strconv.FormatInt(publishAt.Unix(), 10), g.lastFinishQuery["scheduled_publish_time"])
	assert.Equal(t, "thumb-9", g.lastFinishQuery["thumbnail_file_id"])
}

func TestUploadReel_StartWithoutSessionFails(t *testing.T) {
	g := newGraphStub(t)
	g.onStart = func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"video_id":"","upload_url":""}`)
	}

	_, err := g.client().UploadReel(context.Background(), pageToken(), &dto.ReelUploadRequest{
		Description: "reel",
		Video:       []byte("binary-video"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no video_id or upload_url")
	assert.Equal(t, 0, g.videoCalls)
	assert.Equal(t, 0, g.deleteCalls)
}

func TestUploadReel_ExpiredTokenOnStart(t *testing.T) {
	g := newGraphStub(t)
	g.onStart = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"Error validating access token","code":190}}`)
	}

	_, err := g.client().UploadReel(context.Background(), pageToken(), &dto.ReelUploadRequest{
		Description: "reel",
		Video:       []byte("binary-video"),
	})
	assert.ErrorIs(t, err, model.ErrAuthExpired)
}

func TestUploadReel_FinishFailureDeletesVideo(t *testing.T) {
	g := newGraphStub(t)
	g.onFinish = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"invalid state","code":100}}`)
	}

	_, err := g.client().UploadReel(context.Background(), pageToken(), &dto.ReelUploadRequest{
		Description: "reel",
		Video:       []byte("binary-video"),
	})
	require.Error(t, err)
	var remoteErr *model.RemoteError
	assert.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, 1, g.deleteCalls)
	assert.Equal(t, 0, g.statusCalls)
}

func TestUploadReel_PollExhaustionTimesOut(t *testing.T) {
	g := newGraphStub(t)
	g.onStatus = func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":{"video_status":"processing"}}`)
	}

	_, err := g.client().UploadReel(context.Background(), pageToken(), &dto.ReelUploadRequest{
		Description: "reel",
		Video:       []byte("binary-video"),
	})
	assert.ErrorIs(t, err, model.ErrPollTimeout)
	assert.Equal(t, 4, g.statusCalls)
	assert.Equal(t, 1, g.deleteCalls)
}

func TestUploadReel_CleanupRunsAfterCallerDeadline(t *testing.T) {
	g := newGraphStub(t)
	g.onStatus = func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":{"video_status":"processing"}}`)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()

	c := g.client(WithPollPolicy(200*time.Millisecond, 100))
	_, err := c.UploadReel(ctx, pageToken(), &dto.ReelUploadRequest{
		Description: "reel",
		Video:       []byte("binary-video"),
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	// The delete must not die with the caller's context.
	assert.Equal(t, 1, g.deleteCalls)
}

func TestUploadReel_CleanupFailureKeepsPrimaryError(t *testing.T) {
	g := newGraphStub(t)
	g.onStatus = func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":{"video_status":"processing"}}`)
	}
	g.onDelete = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"message":"delete rejected","code":1}}`)
	}

	_, err := g.client().UploadReel(context.Background(), pageToken(), &dto.ReelUploadRequest{
		Description: "reel",
		Video:       []byte("binary-video"),
	})
	assert.ErrorIs(t, err, model.ErrPollTimeout)
	assert.Equal(t, 1, g.deleteCalls)
}

func TestUploadReel_ThumbnailFailureIsNotFatal(t *testing.T) {
	g := newGraphStub(t)
	g.onThumb = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"message":"thumbnail service down","code":1}}`)
	}

	url, err := g.client().UploadReel(context.Background(), pageToken(), &dto.ReelUploadRequest{
		Description: "reel",
		Video:       []byte("binary-video"),
		Thumbnail:   []byte("jpeg-bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://www.facebook.com/reel/video-1", url)
	assert.Empty(t, g.lastFinishQuery["thumbnail_file_id"])
}

func TestUploadReel_StrictThumbnailFailureAborts(t *testing.T) {
	g := newGraphStub(t)
	g.onThumb = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"message":"thumbnail service down","code":1}}`)
	}

	_, err := g.client(WithStrictThumbnail(true)).UploadReel(context.Background(), pageToken(), &dto.ReelUploadRequest{
		Description: "reel",
		Video:       []byte("binary-video"),
		Thumbnail:   []byte("jpeg-bytes"),
	})
	require.Error(t, err)
	assert.Equal(t, 0, g.finishCalls)
	assert.Equal(t, 1, g.deleteCalls)
}

func TestUploadReel_InputValidation(t *testing.T) {
	c := NewReelsClient()

	_, err := c.UploadReel(context.Background(), pageToken(), &dto.ReelUploadRequest{Description: "reel"})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = c.UploadReel(context.Background(), nil, &dto.ReelUploadRequest{Description: "reel", Video: []byte("v")})
	assert.ErrorIs(t, err, model.ErrAuthExpired)

	noPage := pageToken()
	empty := ""
	noPage.PageID = &empty
	_, err = c.UploadReel(context.Background(), noPage, &dto.ReelUploadRequest{Description: "reel", Video: []byte("v")})
	assert.ErrorIs(t, err, model.ErrAuthExpired)
}
