package progress

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/joshsmithxrm/ppds-engine/pkg/log"
	"github.com/joshsmithxrm/ppds-engine/pkg/types"
	"github.com/rs/zerolog"
)

// Format selects the Reporter's output rendering, chosen once per run.
type Format string

const (
	FormatHuman Format = "human"
	FormatJSON  Format = "json"
)

// ewmaWindow is the ~5s window §4.8 specifies for the rate used in ETA;
// expressed as the smoothing factor of an exponential moving average
// updated once per received event.
const ewmaWindow = 5 * time.Second

// DefaultMaxErrorSamples is the default truncation length for the
// terminal summary's error list.
const DefaultMaxErrorSamples = 10

// Options configures a Reporter.
type Options struct {
	NoColor         bool
	MaxErrorSamples int
}

// Reporter is the sole writer to the user-visible progress stream. One
// Reporter instance is constructed per run and consumes exactly one
// events channel (§5 "the Progress channel has exactly one consumer").
type Reporter struct {
	format  Format
	out     io.Writer
	opts    Options
	started time.Time
	ewma    map[progressKey]*ewmaState
	logger  zerolog.Logger
}

type progressKey struct {
	phase  types.Phase
	entity string
}

type ewmaState struct {
	rate float64
	last time.Time
}

// NewReporter constructs a Reporter writing format-rendered lines to out.
func NewReporter(format Format, out io.Writer, opts Options) *Reporter {
	if opts.MaxErrorSamples <= 0 {
		opts.MaxErrorSamples = DefaultMaxErrorSamples
	}
	return &Reporter{
		format:  format,
		out:     out,
		opts:    opts,
		started: time.Now(),
		ewma:    make(map[progressKey]*ewmaState),
		logger:  log.WithComponent("progress"),
	}
}

// Run drains events until the channel closes, writing one rendered line
// per event. It never blocks the producer beyond the write itself — there
// is no internal buffering or backpressure logic here because the
// aggregator upstream already rate-limits emission (§4.4 point 5).
func (r *Reporter) Run(events <-chan types.ProgressEvent) {
	for ev := range events {
		r.handle(ev)
	}
}

func (r *Reporter) handle(ev types.ProgressEvent) {
	ev.ETA = r.estimateETA(ev)

	var line string
	switch r.format {
	case FormatJSON:
		line = r.renderJSON(ev)
	default:
		line = r.renderHuman(ev)
	}
	fmt.Fprintln(r.out, line)

	if ev.Phase == types.PhaseComplete || ev.Phase == types.PhaseError {
		r.logger.Info().Str("phase", string(ev.Phase)).Msg("terminal progress event emitted")
	}
}

// estimateETA updates the (phase,entity) EWMA rate from the event's
// instant rate and, if Total is known, returns the remaining-time
// estimate.
func (r *Reporter) estimateETA(ev types.ProgressEvent) time.Duration {
	key := progressKey{phase: ev.Phase, entity: ev.Entity}
	st, ok := r.ewma[key]
	if !ok {
		st = &ewmaState{rate: ev.InstantRate, last: time.Now()}
		r.ewma[key] = st
	} else {
		now := time.Now()
		elapsed := now.Sub(st.last)
		st.last = now
		// alpha grows with elapsed time up to the ~5s window, so a long
		// gap between events weights the new sample more heavily than a
		// rapid-fire one.
		alpha := elapsed.Seconds() / ewmaWindow.Seconds()
		if alpha > 1 {
			alpha = 1
		}
		if alpha < 0.1 {
			alpha = 0.1
		}
		st.rate = st.rate*(1-alpha) + ev.InstantRate*alpha
	}

	if ev.Total <= 0 || st.rate <= 0 {
		return 0
	}
	remaining := ev.Total - ev.Current
	if remaining <= 0 {
		return 0
	}
	return time.Duration(float64(remaining)/st.rate) * time.Second
}

func (r *Reporter) renderJSON(ev types.ProgressEvent) string {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Sprintf(`{"phase":%q,"error":"marshal failed"}`, ev.Phase)
	}
	return string(b)
}

func (r *Reporter) renderHuman(ev types.ProgressEvent) string {
	elapsed := formatElapsed(time.Since(r.started))
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s", elapsed, ev.Phase)
	if ev.Entity != "" {
		fmt.Fprintf(&sb, " %s", ev.Entity)
	}
	if ev.TierIndex > 0 {
		fmt.Fprintf(&sb, " (tier %d)", ev.TierIndex)
	}

	if ev.Overall {
		sb.WriteString(r.renderSummary(ev))
		return sb.String()
	}

	fmt.Fprintf(&sb, ": %d", ev.Current)
	if ev.Total > 0 {
		fmt.Fprintf(&sb, "/%d", ev.Total)
	}
	fmt.Fprintf(&sb, " (%s %d, %s %d)",
		r.colorize("ok", colorGreen), ev.SuccessCount,
		r.colorize("fail", colorRed), ev.FailureCount)
	if ev.InstantRate > 0 {
		fmt.Fprintf(&sb, " %.1f/s", ev.InstantRate)
	}
	if ev.ETA > 0 {
		fmt.Fprintf(&sb, " eta %s", formatETA(ev.ETA))
	}
	return sb.String()
}

func (r *Reporter) renderSummary(ev types.ProgressEvent) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, " complete: %d ok, %d failed", ev.SuccessCount, ev.FailureCount)
	if len(ev.ErrorSamples) == 0 {
		return sb.String()
	}

	max := r.opts.MaxErrorSamples
	shown := ev.ErrorSamples
	if len(shown) > max {
		shown = shown[:max]
	}

	sb.WriteString("\n  errors:")
	for _, s := range shown {
		fmt.Fprintf(&sb, "\n    entity=%s rowRef=%s: %s", s.Entity, s.RowRef, s.Message)
	}
	if omitted := ev.FailureCount - int64(len(shown)); omitted > 0 {
		fmt.Fprintf(&sb, "\n    ... %d more", omitted)
	}

	clusters := clusterErrors(toRecordErrors(ev.ErrorSamples))
	if len(clusters) > 0 {
		sb.WriteString("\n  patterns:")
		for _, c := range clusters {
			fmt.Fprintf(&sb, "\n    [%s] x%d — %s", c.ErrorCode, c.Count, c.Suggestion)
		}
	}
	return sb.String()
}

func toRecordErrors(samples []types.ErrorSample) []types.RecordError {
	out := make([]types.RecordError, len(samples))
	for i, s := range samples {
		out[i] = types.RecordError{RowRef: s.RowRef, Entity: s.Entity, Message: s.Message}
	}
	return out
}

const (
	colorGreen = "32"
	colorRed   = "31"
)

func (r *Reporter) colorize(s, code string) string {
	if r.opts.NoColor {
		return s
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// formatETA renders d as H:MM:SS for durations an hour or longer, else
// M:SS (§4.8).
func formatETA(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
