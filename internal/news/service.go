package news

import (
	"context"
	"regexp"
	"strings"
	"time"

	"sibyl/internal/gateway/provider"
	"sibyl/internal/logger"
)

const systemPrompt = "Follow the instructions exactly: do not include links or numbered references, " +
	"use the requested sections and the dash line as a separator, " +
	"and finally add the block CURRENT MARKET SENTIMENT."

const reportPrompt = `Prepare a report on Bitcoin covering 5 clearly defined sections:

1) LAST YEAR
2) LAST 5 MONTHS
3) LAST MONTH
4) LAST WEEK
5) LAST 24 HOURS

DESIRED FORMAT (plain text, without links, without references like [1], [2], etc.):
-----------------------------------------------------------------
PERIOD: LAST YEAR
(Detailed text about political decisions, regulations, institutional adoption, macroeconomic events, involvement of key figures, and significant incidents affecting the crypto market that impacted Bitcoin's price.)
-----------------------------------------------------------------
PERIOD: LAST 5 MONTHS
(Detailed text...)
-----------------------------------------------------------------
PERIOD: LAST MONTH
(Detailed text...)
-----------------------------------------------------------------
PERIOD: LAST WEEK
(Detailed text...)
-----------------------------------------------------------------
PERIOD: LAST 24 HOURS
(Detailed text...)
-----------------------------------------------------------------

Finally, after the last section (LAST 24 HOURS), add a block titled:
CURRENT MARKET SENTIMENT

In that block, clearly state whether the overall sentiment is Bullish, Neutral, or Bearish, and briefly justify the main reasons.

Provide everything in plain text without markdown symbols (*, #, etc.).`

// Search-augmented models wrap their reasoning in <think> blocks; the
// digest only wants the final text.
var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>\s*`)

// DigestStore persists fetched digests.
type DigestStore interface {
	SaveNewsDigest(ctx context.Context, source, content string) error
	LatestNewsDigest(ctx context.Context) (string, error)
}

// Service periodically pulls a market-news report from a search-augmented
// model and keeps the latest digest for the decision prompt.
type Service struct {
	client   *provider.Client
	store    DigestStore
	interval time.Duration
	source   string
}

func NewService(client *provider.Client, store DigestStore, interval time.Duration, source string) *Service {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Service{client: client, store: store, interval: interval, source: source}
}

// Run fetches once immediately, then on every interval tick until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	s.fetchAndStore(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.fetchAndStore(ctx)
		}
	}
}

// Latest returns the most recent digest, or "" when none is stored yet.
func (s *Service) Latest(ctx context.Context) string {
	if s == nil || s.store == nil {
		return ""
	}
	digest, err := s.store.LatestNewsDigest(ctx)
	if err != nil {
		logger.Warnf("读取新闻摘要失败: %v", err)
		return ""
	}
	return digest
}

func (s *Service) fetchAndStore(ctx context.Context) {
	digest, err := s.Fetch(ctx)
	if err != nil {
		logger.Errorf("新闻检索失败: %v", err)
		return
	}
	if s.store != nil {
		if err := s.store.SaveNewsDigest(ctx, s.source, digest); err != nil {
			logger.Errorf("保存新闻摘要失败: %v", err)
		}
	}
	logger.Infof("新闻摘要已更新 (%d chars)", len(digest))
}

// Fetch performs one retrieval call.
func (s *Service) Fetch(ctx context.Context) (string, error) {
	reply, err := s.client.Chat(ctx, systemPrompt, reportPrompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(thinkBlock.ReplaceAllString(reply, "")), nil
}
