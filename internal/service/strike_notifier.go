package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/client-attendance-api/internal/dto"
	"github.com/noah-isme/client-attendance-api/internal/models"
	appErrors "github.com/noah-isme/client-attendance-api/pkg/errors"
	"github.com/noah-isme/client-attendance-api/pkg/jobs"
	"github.com/noah-isme/client-attendance-api/pkg/mailer"
)

// JobTypeParentEmail routes queued strike e-mails.
const JobTypeParentEmail = "parent_email"

const missingContactMessage = "no parent email on file"

// minParentNoticeStrikes is the fewest unexcused absences a parent e-mail may report.
const minParentNoticeStrikes = 2

type mailQueue interface {
	Enqueue(job jobs.Job) (string, error)
}

type mailSender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

type strikeKey struct {
	session string
	client  string
	month   string
}

type strikeEntry struct {
	count  int
	seenAt time.Time
}

// StrikeNotifier remembers the last unexcused count seen per session, client and
// month, and raises a notice only when that count changes to 2 or 3.
type StrikeNotifier struct {
	mu     sync.Mutex
	seen   map[strikeKey]strikeEntry
	ttl    time.Duration
	now    func() time.Time
	queue  mailQueue
	logger *zap.Logger
}

// NewStrikeNotifier builds a notifier. A nil queue disables e-mail delivery;
// ttl bounds how long an idle session's counts are remembered.
func NewStrikeNotifier(queue mailQueue, ttl time.Duration, logger *zap.Logger) *StrikeNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &StrikeNotifier{
		seen:   make(map[strikeKey]strikeEntry),
		ttl:    ttl,
		now:    time.Now,
		queue:  queue,
		logger: logger,
	}
}

// Evaluate records count and returns a notice when it transitions to exactly 2 or 3.
func (n *StrikeNotifier) Evaluate(sessionKey string, client models.Client, monthLabel string, count int) *dto.StrikeNotice {
	now := n.now()
	key := strikeKey{session: sessionKey, client: client.ID, month: monthLabel}

	n.mu.Lock()
	n.pruneLocked(now)
	prev, known := n.seen[key]
	n.seen[key] = strikeEntry{count: count, seenAt: now}
	n.mu.Unlock()

	if known && prev.count == count {
		return nil
	}
	if count != 2 && count != 3 {
		return nil
	}
	notice := ComposeStrikeNotice(client, count, monthLabel)
	return &notice
}

// Forget drops everything remembered for a session, e.g. at logout.
func (n *StrikeNotifier) Forget(sessionKey string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for key := range n.seen {
		if key.session == sessionKey {
			delete(n.seen, key)
		}
	}
}

// SendParentEmail queues the strike e-mail for delivery. Delivery is best effort.
// Counts below two are rejected with ErrNoStrikeNotice.
func (n *StrikeNotifier) SendParentEmail(ctx context.Context, client models.Client, count int, monthLabel string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if count < minParentNoticeStrikes {
		return "", appErrors.Clone(appErrors.ErrNoStrikeNotice,
			fmt.Sprintf("%s has %d unexcused absences in %s; no notice is due", client.Name, count, monthLabel))
	}
	notice := ComposeStrikeNotice(client, count, monthLabel)
	if notice.ContactError != "" {
		return "", appErrors.Clone(appErrors.ErrMissingContact, notice.ContactError)
	}
	if n.queue == nil {
		return "", appErrors.ErrMailDisabled
	}
	jobID, err := n.queue.Enqueue(jobs.Job{
		Type:    JobTypeParentEmail,
		Payload: mailer.Message{To: notice.ParentEmail, Subject: notice.Subject, Body: notice.Body},
	})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue parent email")
	}
	n.logger.Info("parent email queued", zap.String("client_id", client.ID), zap.Int("strikes", count), zap.String("job_id", jobID))
	return jobID, nil
}

// ComposeStrikeNotice fills the warning text and the parent e-mail draft.
func ComposeStrikeNotice(client models.Client, count int, monthLabel string) dto.StrikeNotice {
	monthName := monthLabel
	if fields := strings.Fields(monthLabel); len(fields) > 0 {
		monthName = fields[0]
	}
	greeting := strings.TrimSpace(client.ParentName)
	if greeting == "" {
		greeting = "Parent/Guardian"
	}

	notice := dto.StrikeNotice{
		ClientID:    client.ID,
		ClientName:  client.Name,
		Count:       count,
		MonthLabel:  monthLabel,
		Message:     fmt.Sprintf("%s has %d unexcused absences in %s.", client.Name, count, monthName),
		ParentEmail: strings.TrimSpace(client.ParentEmail),
		Subject:     fmt.Sprintf("Attendance notice for %s", client.Name),
		Body: fmt.Sprintf("Dear %s,\n\n%s has %d unexcused absences in %s. Please contact us to discuss attendance.\n\nThank you.",
			greeting, client.Name, count, monthName),
	}
	if notice.ParentEmail == "" {
		notice.ContactError = missingContactMessage
		return notice
	}
	notice.MailtoURL = mailer.MailtoURL(mailer.Message{To: notice.ParentEmail, Subject: notice.Subject, Body: notice.Body})
	return notice
}

// ParentEmailHandler delivers queued strike e-mails through sender.
func ParentEmailHandler(sender mailSender) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		msg, ok := job.Payload.(mailer.Message)
		if !ok {
			return fmt.Errorf("parent email job %s: unexpected payload %T", job.ID, job.Payload)
		}
		return sender.Send(ctx, msg)
	}
}

func (n *StrikeNotifier) pruneLocked(now time.Time) {
	for key, entry := range n.seen {
		if now.Sub(entry.seenAt) > n.ttl {
			delete(n.seen, key)
		}
	}
}
