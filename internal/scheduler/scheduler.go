package scheduler

import (
	"context"
	"time"

	"sibyl/internal/logger"
)

// AlignedScheduler fires a task aligned to candle closes: it wakes at every
// Interval boundary (UTC) plus Offset, so a decision cycle always sees the
// freshly closed candle.
type AlignedScheduler struct {
	Interval       time.Duration
	Offset         time.Duration
	RunImmediately bool

	ctx   context.Context
	nowFn func() time.Time
}

func NewAlignedScheduler(ctx context.Context, interval, offset time.Duration) *AlignedScheduler {
	if ctx == nil {
		ctx = context.Background()
	}
	return &AlignedScheduler{
		Interval: interval,
		Offset:   offset,
		ctx:      ctx,
		nowFn:    time.Now,
	}
}

func (s *AlignedScheduler) Start(task func()) {
	if s == nil {
		return
	}
	if task == nil {
		logger.Warnf("AlignedScheduler: task is nil, exit")
		return
	}
	if s.Interval <= 0 {
		logger.Warnf("AlignedScheduler: invalid interval=%s, exit", s.Interval)
		return
	}
	if s.Offset < 0 {
		logger.Warnf("AlignedScheduler: negative offset=%s, clamp to 0", s.Offset)
		s.Offset = 0
	}
	if s.nowFn == nil {
		s.nowFn = time.Now
	}

	startAt := s.nowFn().UTC()
	logger.Infof("AlignedScheduler: started interval=%s offset=%s run_immediately=%v at=%s",
		s.Interval, s.Offset, s.RunImmediately, startAt.Format(time.RFC3339))

	if s.RunImmediately {
		logger.Infof("AlignedScheduler: RunImmediately=true, execute once before alignment loop")
		task()
	}

	for {
		now := s.nowFn().UTC()
		nextClose, wakeAt, untilClose, wait := s.nextTimes(now)

		logger.Infof("AlignedScheduler: 距离K线收盘=%s (收盘=%s) 将在=%s 执行下一轮 | uptime=%s",
			untilClose.Truncate(time.Second),
			nextClose.Format(time.RFC3339),
			wakeAt.Format(time.RFC3339),
			now.Sub(startAt).Truncate(time.Second),
		)

		if wait <= 0 {
			task()
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-s.ctx.Done():
			timer.Stop()
			logger.Infof("AlignedScheduler: ctx done, exit")
			return
		case <-timer.C:
		}
		task()
	}
}

func (s *AlignedScheduler) nextTimes(now time.Time) (nextClose, wakeAt time.Time, untilClose, wait time.Duration) {
	now = now.UTC()
	nextClose = now.Truncate(s.Interval).Add(s.Interval)
	wakeAt = nextClose.Add(s.Offset)
	untilClose = nextClose.Sub(now)
	wait = wakeAt.Sub(now)
	return nextClose, wakeAt, untilClose, wait
}

// IntervalDuration maps a kline interval token onto its wall duration.
func IntervalDuration(interval string) time.Duration {
	table := map[string]time.Duration{
		"1m": time.Minute, "3m": 3 * time.Minute, "5m": 5 * time.Minute,
		"15m": 15 * time.Minute, "30m": 30 * time.Minute,
		"1h": time.Hour, "2h": 2 * time.Hour, "4h": 4 * time.Hour,
		"6h": 6 * time.Hour, "8h": 8 * time.Hour, "12h": 12 * time.Hour,
		"1d": 24 * time.Hour,
	}
	if d, ok := table[interval]; ok {
		return d
	}
	return time.Hour
}
