package cascade

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fan-feed-go/internal/logger"
	"fan-feed-go/internal/metrics"
	"fan-feed-go/internal/model"
	"fan-feed-go/internal/scrape"
	"fan-feed-go/internal/sharetext"
)

type Options struct {
	MinTextLen      int
	StrategyTimeout time.Duration
	Merge           MergeOptions
	Manual          ManualGuide
	Recorder        metrics.Recorder
}

// Orchestrator tries strategies one at a time and stops at the first whose
// text reaches MinTextLen. The manual assistant is its terminal state.
type Orchestrator struct {
	platform   model.Platform
	strategies []Strategy
	opts       Options
}

func New(platform model.Platform, opts Options, strategies ...Strategy) *Orchestrator {
	if opts.MinTextLen <= 0 {
		opts.MinTextLen = 10
	}
	if opts.StrategyTimeout <= 0 {
		opts.StrategyTimeout = 10 * time.Second
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.Nop{}
	}
	list := make([]Strategy, 0, len(strategies))
	for _, s := range strategies {
		if s == nil || s.Name() == StateManualAssistant {
			continue
		}
		list = append(list, s)
	}
	sort.SliceStable(list, func(i, j int) bool { return rank(list[i].Name()) < rank(list[j].Name()) })
	return &Orchestrator{platform: platform, strategies: list, opts: opts}
}

func (o *Orchestrator) Platform() model.Platform { return o.platform }

// States lists the states this pipeline will try, manual assistant last.
func (o *Orchestrator) States() []State {
	out := make([]State, 0, len(o.strategies)+1)
	for _, s := range o.strategies {
		out = append(out, s.Name())
	}
	return append(out, StateManualAssistant)
}

func (o *Orchestrator) Run(ctx context.Context, in Input) Result {
	if in.Platform == "" {
		in.Platform = o.platform
	}
	outcomes := make([]Outcome, 0, len(o.strategies))
	attempts := make([]Attempt, 0, len(o.strategies)+1)
	accepted := -1

	for _, s := range o.strategies {
		if ctx.Err() != nil {
			break
		}
		timeout := o.opts.StrategyTimeout
		if t, ok := s.(Timeouter); ok && t.Timeout() > 0 {
			timeout = t.Timeout()
		}
		actx, cancel := context.WithTimeout(ctx, timeout)
		start := time.Now()
		out := attempt(actx, s, &in)
		cancel()
		elapsed := time.Since(start)

		out.State = s.Name()
		n := sharetext.RuneLen(out.Text)
		result := outcomeRejected
		switch {
		case out.Err != nil:
			result = outcomeError
		case n >= o.opts.MinTextLen:
			result = outcomeAccepted
		}
		a := Attempt{Strategy: s.Name(), Outcome: result, TextLength: n, ElapsedMS: elapsed.Milliseconds()}
		if out.Err != nil {
			a.ErrorKind = string(scrape.KindOf(out.Err))
		}
		logger.Info("cascade attempt",
			"platform", string(o.platform),
			"strategy", string(s.Name()),
			"outcome", result,
			"text_len", n,
			"elapsed_ms", a.ElapsedMS,
			"error_kind", a.ErrorKind,
		)
		o.opts.Recorder.RecordAttempt(string(o.platform), string(s.Name()), result, elapsed)

		attempts = append(attempts, a)
		outcomes = append(outcomes, out)
		if result == outcomeAccepted {
			accepted = len(outcomes) - 1
			break
		}
	}

	merged := Merge(o.opts.Merge, in, outcomes, accepted)
	res := Result{
		Success:     true,
		Platform:    o.platform,
		SourceURL:   merged.SourceURL,
		Text:        merged.Text,
		Media:       merged.Media,
		PublishedAt: merged.PublishedAt,
		Hashtags:    merged.Hashtags,
		Title:       merged.Title,
		Author:      merged.Author,
		ContentType: merged.ContentType,
		Attempts:    attempts,
	}
	if res.Media == nil {
		res.Media = []model.MediaItem{}
	}
	if !merged.Engagement.IsEmpty() {
		c := merged.Engagement.Counts()
		res.Engagement = &c
	}

	if accepted >= 0 {
		won := outcomes[accepted]
		res.ExtractionMethod = string(won.State)
		if won.Method != "" && won.Method != model.ExtractionNone {
			res.ExtractionMethod = string(won.Method)
		}
		res.Message = fmt.Sprintf("extracted %d characters and %d media items via %s", sharetext.RuneLen(res.Text), len(res.Media), won.State)
		return res
	}

	attempts = append(attempts, Attempt{Strategy: StateManualAssistant, Outcome: outcomeAccepted})
	logger.Info("cascade attempt",
		"platform", string(o.platform),
		"strategy", string(StateManualAssistant),
		"outcome", outcomeAccepted,
		"text_len", sharetext.RuneLen(merged.Text),
	)
	o.opts.Recorder.RecordAttempt(string(o.platform), string(StateManualAssistant), outcomeAccepted, 0)
	res.Attempts = attempts
	res.ExtractionMethod = string(StateManualAssistant)
	res.ManualAssistant = manualInstructions(o.opts.Manual, in, merged)
	res.Message = "automatic extraction found no usable text; follow the manual steps"
	return res
}

func attempt(ctx context.Context, s Strategy, in *Input) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Err: fmt.Errorf("strategy %s panicked: %v", s.Name(), r)}
		}
	}()
	return s.Attempt(ctx, in)
}
