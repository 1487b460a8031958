package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"sibyl/internal/decision"
	"sibyl/internal/logger"
)

const cycleTimeout = 5 * time.Minute

// runCycle is one full decision round: snapshot every configured pair, ask
// the decision model, execute the returned batch.
func (a *App) runCycle(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, cycleTimeout)
	defer cancel()

	started := time.Now()
	logger.Infof("决策周期开始")

	snapshots := a.collectSnapshots(ctx)
	if snapshots == "" {
		logger.Errorf("决策周期中止：没有任何快照可用")
		return
	}

	statusJSON := ""
	if raw, err := json.Marshal(a.manager.Status()); err == nil {
		statusJSON = string(raw)
	}
	newsDigest := ""
	if a.newsSvc != nil {
		newsDigest = a.newsSvc.Latest(ctx)
	}

	system := a.prompts.System(a.catalog.PromptBlock())
	user := a.prompts.User(snapshots, newsDigest, statusJSON)

	reply, err := a.decider.Chat(ctx, system, user)
	if err != nil {
		logger.Errorf("决策模型调用失败: %v", err)
		return
	}

	entries, err := decision.Parse(reply)
	if err != nil {
		logger.Errorf("决策解析失败: %v", err)
		a.notifier.SendText(fmt.Sprintf("⚠️ 决策解析失败: %v", err))
		return
	}

	batchID := uuid.NewString()
	if err := a.store.SaveDecisionRecord(ctx, batchID, reply, len(entries)); err != nil {
		logger.Warnf("保存决策原文失败: %v", err)
	}

	results := a.router.Execute(ctx, batchID, entries)
	accepted := 0
	for _, res := range results {
		if res.Accepted {
			accepted++
		}
	}
	logger.Infof("决策周期完成: %d 条目, %d 接受, 耗时 %s",
		len(results), accepted, time.Since(started).Truncate(time.Millisecond))
	a.notifySummary(batchID, results)
}

func (a *App) collectSnapshots(ctx context.Context) string {
	var sb strings.Builder
	for _, pair := range a.cfg.Market.NormalizedSymbols() {
		snap, err := a.collector.Snapshot(ctx, pair, a.cfg.Market.Interval, a.cfg.Market.HistoryLimit)
		if err != nil {
			logger.Errorf("采集快照失败 %s: %v", pair, err)
			continue
		}
		sb.WriteString(snap.RawJSON)
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}

func (a *App) notifySummary(batchID string, results []decision.ExecutionResult) {
	if len(results) == 0 {
		return
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("决策批次 `%s`\n", batchID[:8]))
	for _, res := range results {
		mark := "✅"
		detail := string(res.Action)
		if res.OrderID != "" {
			detail += " " + res.OrderID
		}
		if !res.Accepted {
			mark = "❌"
			detail += " " + res.Reason
		}
		sb.WriteString(fmt.Sprintf("%s #%d %s %s\n", mark, res.Index, res.Asset, detail))
	}
	if err := a.notifier.SendText(sb.String()); err != nil {
		logger.Warnf("发送执行摘要失败: %v", err)
	}
}
