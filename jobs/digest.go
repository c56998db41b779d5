package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stockroom-app/stockroom/internal/replenish"
)

const (
	// TaskReplenishDigest triggers the daily low-stock summary email.
	TaskReplenishDigest = "replenish:digest"
)

// ReplenishDigestPayload carries scheduling metadata.
type ReplenishDigestPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewReplenishDigestTask constructs an Asynq task for the low-stock digest.
func NewReplenishDigestTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(ReplenishDigestPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReplenishDigest, body, asynq.Queue(QueueDefault)), nil
}

// CandidateSource supplies the current reorder candidates.
type CandidateSource interface {
	LowStockCandidates(ctx context.Context) ([]replenish.Candidate, error)
}

// EmailEnqueuer hands the rendered digest to the mail queue.
type EmailEnqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error)
}

// DigestJob renders the low-stock digest and enqueues it as an email. Days
// with nothing low produce no email.
type DigestJob struct {
	logger     *slog.Logger
	candidates CandidateSource
	mail       EmailEnqueuer
	recipient  string
}

// NewDigestJob constructs the digest job.
func NewDigestJob(logger *slog.Logger, candidates CandidateSource, mail EmailEnqueuer, recipient string) *DigestJob {
	return &DigestJob{logger: logger, candidates: candidates, mail: mail, recipient: recipient}
}

// Handle processes TaskReplenishDigest tasks.
func (j *DigestJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ReplenishDigestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	candidates, err := j.candidates.LowStockCandidates(ctx)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		j.logger.Info("low-stock digest: nothing low, skipping")
		return nil
	}
	subject, body := renderDigest(candidates, time.Now().UTC())
	if _, err := j.mail.EnqueueSendEmail(ctx, SendEmailPayload{
		To:      j.recipient,
		Subject: subject,
		Body:    body,
	}); err != nil {
		return err
	}
	j.logger.Info("low-stock digest queued", slog.Int("candidates", len(candidates)))
	return nil
}

func renderDigest(candidates []replenish.Candidate, now time.Time) (subject, body string) {
	subject = fmt.Sprintf("Low stock digest – %s (%d items)", now.Format("2006-01-02"), len(candidates))
	var b strings.Builder
	b.WriteString("The following items are at or below their reorder level:\n\n")
	for _, c := range candidates {
		fmt.Fprintf(&b, "- %s: %d on hand (level %d), suggest ordering %d",
			c.Item.Name, c.Item.StockOnHand, c.Item.ReorderLevel, c.SuggestedQty)
		if c.Pending {
			b.WriteString(" [already on a pending order]")
		}
		b.WriteString("\n")
	}
	return subject, b.String()
}
