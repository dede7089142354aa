package orchestrator

import (
	"context"
	"io"

	"go-jobfilter-automation/internal/ai"
	"go-jobfilter-automation/internal/config"
	"go-jobfilter-automation/internal/ratelimit"
)

// AIClassifiers builds a rate-limited LLM classifier per run. Runs without
// include keywords get a classifier that never calls out.
func AIClassifiers(factory ai.Factory, clock ratelimit.Clock) ClassifierBuilder {
	return func(ctx context.Context, rc config.RunConfig) (Classifier, func(), error) {
		if !rc.NeedsClassifier() {
			return ai.NewClassifier(nil, nil), func() {}, nil
		}

		completer, err := factory(ctx, rc.ClassifierAPIKey)
		if err != nil {
			return nil, nil, err
		}
		limiter := ratelimit.New(ratelimit.Config{
			RequestsPerMinute: rc.RequestsPerMinute,
			TokensPerMinute:   rc.TokensPerMinute,
			BaseInterval:      rc.BackoffBase,
		}, clock)

		release := func() {
			if c, ok := completer.(io.Closer); ok {
				_ = c.Close()
			}
		}
		return limitedClassifier{Classifier: ai.NewClassifier(completer, limiter), limiter: limiter}, release, nil
	}
}

// limitedClassifier exposes its limiter's window to Status.
type limitedClassifier struct {
	*ai.Classifier
	limiter *ratelimit.Limiter
}

func (c limitedClassifier) RateWindow() ratelimit.Window {
	return c.limiter.Snapshot()
}
