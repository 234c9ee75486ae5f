// Package throttle implements the Throttle Tracker: process-wide, endpoint
// keyed state that remembers recent remote rate-limit signals and advises
// callers whether to admit or defer new work. Grounded on pkg/health's
// Status.Update consecutive-counter idiom, generalized from a single
// container's liveness state to a per-endpoint sliding window of request
// outcomes. The admission/defer and DOP-cap algorithm is §4.1's own
// sliding-window-plus-exponential-backoff design, not a generic token
// bucket — see DESIGN.md for why golang.org/x/time/rate was dropped
// rather than bent to fit.
package throttle
