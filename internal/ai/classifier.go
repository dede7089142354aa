package ai

import (
	"context"
	"errors"
	"log"
	"strings"

	"go-jobfilter-automation/internal/config"
	"go-jobfilter-automation/internal/scraper"
)

// Limiter throttles outbound model calls.
type Limiter interface {
	BeforeCall(ctx context.Context) error
	Record(tokens int)
}

// Classifier decides whether a listing matches the user's conditions.
type Classifier struct {
	completer Completer
	limiter   Limiter
}

func NewClassifier(completer Completer, limiter Limiter) *Classifier {
	return &Classifier{completer: completer, limiter: limiter}
}

// Classify reports whether l matches rc. With no include keywords every
// listing matches and no call is made. Any failed call is a non-match.
//
// wait guards the rate-limit backoff and ctx bounds the call itself. When
// wait ends before the call is made Classify returns wait's error and the
// listing is left unclassified. The listing description is cleared before
// returning.
func (c *Classifier) Classify(ctx, wait context.Context, l *scraper.Listing, rc config.RunConfig) (bool, error) {
	defer func() { l.Description = "" }()

	if !rc.NeedsClassifier() {
		return true, nil
	}

	if err := c.limiter.BeforeCall(wait); err != nil {
		return false, err
	}
	if err := wait.Err(); err != nil {
		return false, err
	}

	callCtx, cancel := context.WithTimeout(ctx, rc.RequestTimeout)
	defer cancel()

	out, err := c.completer.Complete(callCtx, buildSystemPrompt(rc.AffirmativeToken), buildUserPrompt(l, rc))
	if answered(err) {
		c.limiter.Record(out.Tokens)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Printf("      ⏱️ Classifier timed out for %s", l.ID)
		} else {
			log.Printf("      ⚠️ Classifier error for %s: %v", l.ID, err)
		}
		return false, nil
	}

	return strings.TrimSpace(out.Text) == rc.AffirmativeToken, nil
}

// answered reports whether the provider handled the call, whatever it said.
func answered(err error) bool {
	var apiErr *APIError
	return err == nil || errors.As(err, &apiErr) || errors.Is(err, ErrUnusableResponse)
}
