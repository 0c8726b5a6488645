package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"

	"github.com/google/uuid"
)

// PublishConfig carries the orchestration policy: per-platform hashtag
// suffixes, minimum schedule lead times and the wall-clock bound applied to
// each driver call independently.
type PublishConfig struct {
	YouTubeHashtags  string
	FacebookHashtags string
	YouTubeLeadTime  time.Duration
	FacebookLeadTime time.Duration
	DriverTimeout    time.Duration
}

// DefaultPublishConfig mirrors the lead times the platforms enforce remotely.
func DefaultPublishConfig() PublishConfig {
	return PublishConfig{
		YouTubeHashtags:  "#เล่าเรื่อง #คลิปไวรัล #viralvideo #shorts",
		FacebookHashtags: "#เล่าเรื่อง #คลิปไวรัล #reels #viralvideo",
		YouTubeLeadTime:  10 * time.Minute,
		FacebookLeadTime: 15 * time.Minute,
		DriverTimeout:    8 * time.Minute,
	}
}

type IPublishUsecase interface {
	Publish(ctx context.Context, userID string, asset *model.MediaAsset, req *dto.PublishRequest) (*model.PublishResult, error)
	WithBroadcaster(fn func(userID string, outcome model.UploadOutcome)) IPublishUsecase
}

type publishUsecase struct {
	tokenRepo repository.IOAuthToken
	history   repository.IHistory
	shorts    repository.IShortVideoUploader
	reels     repository.IReelsUploader
	events    []repository.IPublishEvents
	cfg       PublishConfig
	now       func() time.Time
	broadcast func(userID string, outcome model.UploadOutcome)
}

func NewPublishUsecase(
	tokenRepo repository.IOAuthToken,
	history repository.IHistory,
	shorts repository.IShortVideoUploader,
	reels repository.IReelsUploader,
	cfg PublishConfig,
	events ...repository.IPublishEvents,
) IPublishUsecase {
	return &publishUsecase{
		tokenRepo: tokenRepo,
		history:   history,
		shorts:    shorts,
		reels:     reels,
		events:    events,
		cfg:       cfg,
		now:       time.Now,
	}
}

// WithBroadcaster attaches a per-outcome callback (SSE hub) and returns the
// usecase for fluent wiring.
func (u *publishUsecase) WithBroadcaster(fn func(userID string, outcome model.UploadOutcome)) IPublishUsecase {
	u.broadcast = fn
	return u
}

// attempt is one platform's unit of work within a publish call.
type attempt struct {
	platform string
	token    *model.OAuthToken
	outcome  model.UploadOutcome
	rotated  *model.OAuthToken
}

// Publish runs the dual-platform orchestration. Platforms without a stored
// credential are skipped silently; a failure on one platform never aborts the
// other's attempt. The returned result always reflects every attempted
// platform, in platform order.
func (u *publishUsecase) Publish(ctx context.Context, userID string, asset *model.MediaAsset, req *dto.PublishRequest) (*model.PublishResult, error) {
	if asset == nil || len(asset.Data) == 0 {
		return nil, fmt.Errorf("%w: video file is required", model.ErrInvalidInput)
	}
	if req == nil || req.Description == "" {
		return nil, fmt.Errorf("%w: description is required", model.ErrInvalidInput)
	}

	requested := u.requestedPlatforms(req)

	// Client clocks are untrusted; re-check the lead-time invariant here even
	// though the UI validates it too. Must happen before any network call.
	if req.Scheduled() {
		if err := u.validateSchedule(req.PublishAt, requested); err != nil {
			return nil, err
		}
	}

	attempts := u.resolveAttempts(ctx, userID, requested)

	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func(a *attempt) {
			defer wg.Done()
			u.runAttempt(ctx, a, asset, req)
		}(&attempts[i])
	}
	wg.Wait()

	result := &model.PublishResult{
		Outcomes:    make([]model.UploadOutcome, 0, len(attempts)),
		IsScheduled: req.Scheduled(),
	}
	if req.Scheduled() {
		result.PublishAt = req.PublishAt.Format(time.RFC3339)
	}
	for i := range attempts {
		a := &attempts[i]
		// Rotated credentials must be durable before the caller sees the
		// result; a dropped rotation bricks the next publish call.
		if a.rotated != nil {
			if err := u.tokenRepo.UpsertToken(ctx, a.rotated); err != nil {
				logger.GetLogger().WithField("error", err).WithField("platform", a.platform).Error("failed persisting rotated token")
			}
		}
		result.Outcomes = append(result.Outcomes, a.outcome)
		if u.broadcast != nil {
			u.broadcast(userID, a.outcome)
		}
	}

	u.report(ctx, userID, req, result)
	return result, nil
}

func (u *publishUsecase) requestedPlatforms(req *dto.PublishRequest) []string {
	all := []string{model.PlatformYouTube, model.PlatformFacebook}
	if len(req.Platforms) == 0 {
		return all
	}
	out := make([]string, 0, 2)
	for _, p := range all {
		for _, r := range req.Platforms {
			if r == p {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func (u *publishUsecase) leadTime(platform string) time.Duration {
	if platform == model.PlatformFacebook {
		return u.cfg.FacebookLeadTime
	}
	return u.cfg.YouTubeLeadTime
}

func (u *publishUsecase) validateSchedule(publishAt time.Time, platforms []string) error {
	now := u.now()
	for _, p := range platforms {
		lead := u.leadTime(p)
		if !publishAt.After(now.Add(lead)) {
			return fmt.Errorf("%w: %s requires at least %s of lead time", model.ErrScheduleTooSoon, p, lead)
		}
	}
	return nil
}

// resolveAttempts turns the requested set into the attempt set. Only the
// no-credential case is skipped without an outcome entry; a failing token
// store is that platform's error, not a silent skip.
func (u *publishUsecase) resolveAttempts(ctx context.Context, userID string, requested []string) []attempt {
	attempts := make([]attempt, 0, len(requested))
	for _, p := range requested {
		tok, err := u.tokenRepo.GetToken(ctx, userID, p)
		if err != nil {
			logger.GetLogger().WithField("platform", p).WithField("error", err.Error()).Error("credential lookup failed")
			attempts = append(attempts, attempt{platform: p, outcome: model.UploadOutcome{
				Platform:     p,
				Status:       model.StatusError,
				ErrorMessage: "credential store unavailable",
			}})
			continue
		}
		if tok == nil || tok.AccessToken == "" {
			logger.GetLogger().WithField("platform", p).WithField("user_id", userID).Debug("platform not connected, skipping")
			continue
		}
		attempts = append(attempts, attempt{platform: p, token: tok})
	}
	return attempts
}

func (u *publishUsecase) runAttempt(ctx context.Context, a *attempt, asset *model.MediaAsset, req *dto.PublishRequest) {
	// Attempts that failed during credential resolution already carry their
	// outcome.
	if a.outcome.Status != "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, u.cfg.DriverTimeout)
	defer cancel()

	var publishAt time.Time
	if req.Scheduled() {
		publishAt = req.PublishAt
	}

	switch a.platform {
	case model.PlatformYouTube:
		if u.shorts == nil {
			a.outcome = model.UploadOutcome{Platform: a.platform, Status: model.StatusError, ErrorMessage: "youtube uploads are not configured"}
			return
		}
		res, rotated, err := u.shorts.UploadShort(ctx, a.token, &dto.ShortUploadRequest{
			Title:       DeriveTitle(req.Description),
			Description: DeriveDescription(req.Description, u.cfg.YouTubeHashtags),
			CategoryID:  "22",
			Video:       asset.Data,
			Thumbnail:   asset.Thumbnail,
			PublishAt:   publishAt,
		})
		a.rotated = rotated
		if err != nil {
			a.outcome = u.failureOutcome(a.platform, err)
			return
		}
		a.outcome = model.UploadOutcome{Platform: a.platform, Status: model.StatusSuccess, URL: res.URL}
	case model.PlatformFacebook:
		if u.reels == nil {
			a.outcome = model.UploadOutcome{Platform: a.platform, Status: model.StatusError, ErrorMessage: "facebook uploads are not configured"}
			return
		}
		url, err := u.reels.UploadReel(ctx, a.token, &dto.ReelUploadRequest{
			Description: DeriveDescription(req.Description, u.cfg.FacebookHashtags),
			Video:       asset.Data,
			Thumbnail:   asset.Thumbnail,
			PublishAt:   publishAt,
		})
		if err != nil {
			a.outcome = u.failureOutcome(a.platform, err)
			return
		}
		a.outcome = model.UploadOutcome{Platform: a.platform, Status: model.StatusSuccess, URL: url}
	}
}

// failureOutcome converts a driver error into that platform's outcome entry.
// Driver errors never escape the orchestrator as call errors.
func (u *publishUsecase) failureOutcome(platform string, err error) model.UploadOutcome {
	msg := err.Error()
	if errors.Is(err, model.ErrAuthExpired) {
		msg = fmt.Sprintf("%s: please reconnect the platform", model.ErrAuthExpired)
	}
	logger.GetLogger().WithField("platform", platform).WithField("error", err.Error()).Warn("platform upload failed")
	return model.UploadOutcome{Platform: platform, Status: model.StatusError, ErrorMessage: msg}
}

// report records history entries and emits result events. All of it is
// fire-and-forget: a reporter failure is logged and the result is returned
// unchanged.
func (u *publishUsecase) report(ctx context.Context, userID string, req *dto.PublishRequest, result *model.PublishResult) {
	if u.history != nil {
		for _, o := range result.Outcomes {
			entry := &model.PostHistory{
				ID:           uuid.NewString(),
				UserID:       userID,
				Platform:     o.Platform,
				Status:       o.Status,
				VideoTitle:   DeriveTitle(req.Description),
				VideoURL:     o.URL,
				ErrorMessage: o.ErrorMessage,
				Scheduled:    req.Scheduled(),
				CreatedAt:    u.now().UTC(),
			}
			if err := u.history.Append(ctx, entry); err != nil {
				logger.GetLogger().WithField("error", err).WithField("platform", o.Platform).Warn("failed appending history entry")
			}
		}
	}
	for _, ev := range u.events {
		if ev == nil {
			continue
		}
		if err := ev.PublishResult(ctx, userID, result); err != nil {
			logger.GetLogger().WithField("error", err).Warn("failed emitting publish result event")
		}
	}
}
