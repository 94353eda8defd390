package session

import "time"

// tokenBucket is a refilling counter used to bound inbound audio.
type tokenBucket struct {
	rate   int64
	tokens int64
	burst  int64
}

func (b *tokenBucket) refill(elapsed time.Duration) {
	if b.rate <= 0 || elapsed <= 0 {
		return
	}
	add := (elapsed.Nanoseconds() * b.rate) / int64(time.Second)
	if add <= 0 {
		return
	}
	b.tokens += add
	if maxTokens := b.rate * b.burst; b.tokens > maxTokens {
		b.tokens = maxTokens
	}
}

// inboundAudioLimiter bounds the rate of captured audio frames per second
// and bytes per second so a misbehaving client cannot flood the capture
// buffer. A nil limiter allows everything.
type inboundAudioLimiter struct {
	now        func() time.Time
	frames     tokenBucket
	bytes      tokenBucket
	lastRefill time.Time
}

func newInboundAudioLimiter(now func() time.Time, fps int, bps int64, burstSeconds int) *inboundAudioLimiter {
	if fps <= 0 && bps <= 0 {
		return nil
	}
	if now == nil {
		now = time.Now
	}
	if burstSeconds <= 0 {
		burstSeconds = 1
	}

	l := &inboundAudioLimiter{
		now:        now,
		frames:     tokenBucket{rate: int64(fps), burst: int64(burstSeconds)},
		bytes:      tokenBucket{rate: bps, burst: int64(burstSeconds)},
		lastRefill: now(),
	}
	l.frames.tokens = l.frames.rate * l.frames.burst
	l.bytes.tokens = l.bytes.rate * l.bytes.burst
	return l
}

func (l *inboundAudioLimiter) Allow(frameBytes int) bool {
	if l == nil {
		return true
	}

	now := l.now()
	if !l.lastRefill.IsZero() {
		elapsed := now.Sub(l.lastRefill)
		l.frames.refill(elapsed)
		l.bytes.refill(elapsed)
	}
	l.lastRefill = now

	if frameBytes < 0 {
		frameBytes = 0
	}
	if l.frames.rate > 0 && l.frames.tokens < 1 {
		return false
	}
	if l.bytes.rate > 0 && l.bytes.tokens < int64(frameBytes) {
		return false
	}
	if l.frames.rate > 0 {
		l.frames.tokens--
	}
	if l.bytes.rate > 0 {
		l.bytes.tokens -= int64(frameBytes)
	}
	return true
}
