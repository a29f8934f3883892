// Package broadcast delivers operator announcements to every known user,
// paced under the messaging platform's bulk-send limits.
package broadcast

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/plushpepe/instabot/core/logger"
)

// Sender abstracts the two delivery operations the engine uses.
type Sender interface {
	Send(ctx context.Context, userID int64, text string) error
	Forward(ctx context.Context, userID int64, fromChatID int64, messageID int) error
}

// Recipients lists the user ids to deliver to.
type Recipients interface {
	ListUserIDs(ctx context.Context) ([]int64, error)
}

// Result summarizes one broadcast run.
type Result struct {
	Succeeded int
	Failed    int
}

// Total returns the number of attempted deliveries.
func (r Result) Total() int { return r.Succeeded + r.Failed }

// Around 20 messages per second keeps bulk sends under Telegram's limit of
// 30 with headroom for the bot's interactive traffic.
const deliveriesPerSecond = 20

// Engine fans a message out to all recipients. A failed delivery, typically
// a user who blocked the bot, is counted and skipped; the run always visits
// every recipient.
type Engine struct {
	sender     Sender
	recipients Recipients
	limiter    *rate.Limiter
}

// New constructs an Engine over the given sender and recipient source.
func New(sender Sender, recipients Recipients) *Engine {
	return &Engine{
		sender:     sender,
		recipients: recipients,
		limiter:    rate.NewLimiter(rate.Limit(deliveriesPerSecond), deliveriesPerSecond),
	}
}

// Broadcast copies text to every known user.
func (e *Engine) Broadcast(ctx context.Context, text string) (Result, error) {
	return e.run(ctx, "broadcast", func(ctx context.Context, userID int64) error {
		return e.sender.Send(ctx, userID, text)
	})
}

// Forward forwards an existing message to every known user, keeping the
// original attribution.
func (e *Engine) Forward(ctx context.Context, fromChatID int64, messageID int) (Result, error) {
	return e.run(ctx, "forward", func(ctx context.Context, userID int64) error {
		return e.sender.Forward(ctx, userID, fromChatID, messageID)
	})
}

func (e *Engine) run(ctx context.Context, kind string, deliver func(context.Context, int64) error) (Result, error) {
	start := time.Now()

	ids, err := e.recipients.ListUserIDs(ctx)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, id := range ids {
		if err := e.limiter.Wait(ctx); err != nil {
			// Context ended mid-run; report what was delivered so far.
			return res, err
		}
		if err := deliver(ctx, id); err != nil {
			res.Failed++
			logger.Debug(ctx, "broadcast", "delivery failed",
				slog.String("kind", kind),
				slog.Int64("user_id", id),
				slog.String("error", err.Error()),
			)
			continue
		}
		res.Succeeded++
	}

	logger.Info(ctx, "broadcast", "run finished",
		slog.String("kind", kind),
		slog.Int("succeeded", res.Succeeded),
		slog.Int("failed", res.Failed),
		slog.Duration("took", logger.Took(start)),
	)
	return res, nil
}
