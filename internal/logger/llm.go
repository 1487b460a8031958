package logger

import (
	"io"
	"log"
	"strings"
	"sync"
)

// 独立的 LLM 对话日志：请求/响应原文写入单独文件，便于事后复盘提示词。

var (
	llmMu  sync.Mutex
	llmLog *log.Logger
)

func SetLLMWriter(w io.Writer) {
	llmMu.Lock()
	defer llmMu.Unlock()
	if w == nil {
		llmLog = nil
		return
	}
	llmLog = log.New(w, "", log.LstdFlags)
}

func logLLM(kind, provider string, sections map[string]string, order []string) {
	llmMu.Lock()
	l := llmLog
	llmMu.Unlock()
	if l == nil {
		return
	}
	var b strings.Builder
	b.WriteString("[LLM][" + kind + "]")
	if provider != "" {
		b.WriteString("[" + provider + "]")
	}
	b.WriteString("\n")
	for _, title := range order {
		body := sections[title]
		if strings.TrimSpace(body) == "" {
			continue
		}
		b.WriteString("--- " + title + " ---\n")
		b.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString("=====\n")
	l.Print(b.String())
}

func LogLLMRequest(provider, systemPrompt, userPrompt string) {
	logLLM("request", provider, map[string]string{
		"SYSTEM": systemPrompt,
		"USER":   userPrompt,
	}, []string{"SYSTEM", "USER"})
}

func LogLLMResponse(provider, raw string) {
	logLLM("response", provider, map[string]string{"RAW": raw}, []string{"RAW"})
}
