// Package newsletter drives the generate and send flows, per user and in
// scheduled batches.
package newsletter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/creatorpulse/server/internal/delivery"
	"github.com/creatorpulse/server/internal/digest"
	"github.com/creatorpulse/server/internal/logging"
	"github.com/creatorpulse/server/internal/models"
	"github.com/creatorpulse/server/internal/schedule"
)

// poolWindow is how far back the content pool reaches when generating
const poolWindow = 7 * 24 * time.Hour

// batchWorkers bounds the per-user fan-out in batch runs
const batchWorkers = 4

var (
	// ErrNoDraft means the user has no unsent draft to deliver
	ErrNoDraft = errors.New("no unsent draft")

	// ErrNotificationsDisabled means the user has opted out of email delivery
	ErrNotificationsDisabled = errors.New("email notifications disabled")

	// ErrPartialFailure means some recipients got the newsletter and some did
	// not. The draft stays unsent so the send can be retried.
	ErrPartialFailure = errors.New("delivery partially failed")
)

// UserStore is the subset of user persistence the service needs
type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	ListActive(ctx context.Context) ([]models.User, error)
}

// ContentStore reads the scraped content pool
type ContentStore interface {
	ListSince(ctx context.Context, userID string, cutoff time.Time) ([]models.ContentItem, error)
}

// DraftStore reads and finalizes drafts
type DraftStore interface {
	LatestUnsent(ctx context.Context, userID string) (*models.Draft, error)
	MarkSent(ctx context.Context, id, userID string, delivered int, sentAt time.Time) error
}

// ActivityStore records send side effects
type ActivityStore interface {
	Append(ctx context.Context, event models.ActivityEvent) error
}

// Composer turns categorized tiers into a persisted draft
type Composer interface {
	Compose(ctx context.Context, userID string, tiers digest.Tiers, profile *models.VoiceProfile) (*models.Draft, error)
}

// Service orchestrates newsletter generation and delivery
type Service struct {
	users    UserStore
	content  ContentStore
	drafts   DraftStore
	activity ActivityStore
	composer Composer
	sender   delivery.Sender
	logger   *logging.Logger
	now      func() time.Time
}

// New creates a newsletter service
func New(users UserStore, content ContentStore, drafts DraftStore, activity ActivityStore, composer Composer, sender delivery.Sender, logger *logging.Logger) *Service {
	return &Service{
		users:    users,
		content:  content,
		drafts:   drafts,
		activity: activity,
		composer: composer,
		sender:   sender,
		logger:   logger,
		now:      time.Now,
	}
}

// GenerateForUser categorizes the user's recent content pool and composes a
// new draft. digest.ErrInsufficientContent and digest.ErrGenerationFailed
// pass through for the caller to map.
func (s *Service) GenerateForUser(ctx context.Context, userID string) (*models.Draft, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	now := s.now()
	pool, err := s.content.ListSince(ctx, userID, now.Add(-poolWindow))
	if err != nil {
		return nil, fmt.Errorf("load content pool: %w", err)
	}

	tiers, err := digest.Categorize(pool, now)
	if err != nil {
		return nil, err
	}

	return s.composer.Compose(ctx, userID, tiers, user.VoiceProfile)
}

// SendForUser delivers the user's latest unsent draft to every active user
// who has email notifications enabled, at each recipient's delivery email.
// The draft is marked sent only when every recipient succeeded; on any
// failure it stays in draft status for retry.
func (s *Service) SendForUser(ctx context.Context, userID string) (*models.Draft, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.Preferences.EmailNotifications {
		return nil, ErrNotificationsDisabled
	}

	draft, err := s.drafts.LatestUnsent(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	if draft == nil {
		return nil, ErrNoDraft
	}

	body := draft.Body()
	msg := delivery.Message{
		Subject: draft.AITitle,
		HTML:    delivery.RenderHTML(body),
		Text:    body,
	}

	recipients, err := s.recipientList(ctx)
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return nil, ErrNotificationsDisabled
	}

	delivered := 0
	var lastErr error
	for _, to := range recipients {
		msg.To = to
		if err := s.sender.Send(ctx, msg); err != nil {
			lastErr = err
			s.logger.Warn("Newsletter delivery failed", logging.WithFields(map[string]interface{}{
				"user_id":  userID,
				"draft_id": draft.ID,
				"error":    err.Error(),
			}))
			continue
		}
		delivered++
	}

	if lastErr != nil {
		if delivered > 0 {
			return nil, fmt.Errorf("%w: %d of %d delivered", ErrPartialFailure, delivered, len(recipients))
		}
		return nil, fmt.Errorf("deliver newsletter: %w", lastErr)
	}

	sentAt := s.now()
	if err := s.drafts.MarkSent(ctx, draft.ID, userID, delivered, sentAt); err != nil {
		return nil, err
	}
	draft.Status = models.DraftStatusSent
	draft.Delivered = delivered
	draft.SentAt = &sentAt

	s.logger.Info("Newsletter sent", logging.WithFields(map[string]interface{}{
		"user_id":   userID,
		"draft_id":  draft.ID,
		"delivered": delivered,
	}))

	if err := s.activity.Append(ctx, models.ActivityEvent{
		UserID:      userID,
		Type:        models.ActivityNewsletterSent,
		Title:       "Newsletter Sent",
		Description: fmt.Sprintf("Sent: %q", draft.AITitle),
		Metadata: map[string]interface{}{
			"draftId":   draft.ID,
			"delivered": delivered,
		},
	}); err != nil {
		s.logger.Warn("Failed to append activity event", logging.WithField("error", err.Error()))
	}

	return draft, nil
}

// recipientList builds the send list: active users who have email
// notifications on, each at their delivery email (account email when no
// delivery address is set).
func (s *Service) recipientList(ctx context.Context) ([]string, error) {
	subscribers, err := s.users.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}

	recipients := make([]string, 0, len(subscribers))
	for _, sub := range subscribers {
		if sub.Preferences.EmailNotifications {
			recipients = append(recipients, sub.RecipientEmail())
		}
	}
	return recipients, nil
}

// RunGenerateBatch composes drafts for every active user whose delivery slot
// matches the current hour. Per-user failures are logged, never propagated;
// one user's bad content pool must not block the rest.
func (s *Service) RunGenerateBatch(ctx context.Context) error {
	return s.runBatch(ctx, "generate", func(ctx context.Context, user models.User) error {
		_, err := s.GenerateForUser(ctx, user.ID)
		if errors.Is(err, digest.ErrInsufficientContent) {
			return nil
		}
		return err
	})
}

// RunSendBatch delivers unsent drafts for every active user whose delivery
// slot matches the current hour.
func (s *Service) RunSendBatch(ctx context.Context) error {
	return s.runBatch(ctx, "send", func(ctx context.Context, user models.User) error {
		_, err := s.SendForUser(ctx, user.ID)
		if errors.Is(err, ErrNoDraft) || errors.Is(err, ErrNotificationsDisabled) {
			return nil
		}
		return err
	})
}

func (s *Service) runBatch(ctx context.Context, name string, run func(ctx context.Context, user models.User) error) error {
	users, err := s.users.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active users: %w", err)
	}

	now := s.now()
	due := make([]models.User, 0, len(users))
	for _, user := range users {
		if schedule.Due(user.Preferences, now) {
			due = append(due, user)
		}
	}

	s.logger.Info("Batch run starting", logging.WithFields(map[string]interface{}{
		"job":   name,
		"users": len(due),
		"total": len(users),
	}))

	if len(due) == 0 {
		return nil
	}

	jobs := make(chan models.User)
	var wg sync.WaitGroup

	workers := batchWorkers
	if workers > len(due) {
		workers = len(due)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for user := range jobs {
				if err := run(ctx, user); err != nil {
					s.logger.Warn("Batch user failed", logging.WithFields(map[string]interface{}{
						"job":     name,
						"user_id": user.ID,
						"error":   err.Error(),
					}))
				}
			}
		}()
	}

	for _, user := range due {
		jobs <- user
	}
	close(jobs)
	wg.Wait()

	return nil
}
