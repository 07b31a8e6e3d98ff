// Package summarizer is the concrete implementation of spec.md §6.3's
// pluggable "summarize(messages, model, target_tokens) -> {text, model,
// tokens}" collaborator: it renders a transcript prefix to plain text and
// asks the Claude API for a natural-language summary, matching the shape
// internal/autocompact.ClaudeSummarizer/CodexSummarizer expect. The core
// never imports this package directly — cmd/evs's autocompact check command
// wires it in as the summarizer, keeping autocompact
// testable against a stub summarizer with no network access.
package summarizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/eversession/evs/internal/model"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "claude-3-5-haiku-latest"

// Config configures the Anthropic-backed summarizer.
type Config struct {
	APIKey string
	Model  string
	// MaxTokens caps the summary response length.
	MaxTokens int64
}

// Client wraps an anthropic-sdk-go client with the prompt shape EVS uses
// to compact a transcript prefix into one synthetic summary message.
type Client struct {
	client anthropic.Client
	model  string
	maxTok int64
}

// New constructs a Client. APIKey may be empty, in which case the
// underlying SDK falls back to the ANTHROPIC_API_KEY environment variable
// the way every other Anthropic-SDK consumer does.
func New(cfg Config) *Client {
	opts := []option.RequestOption{}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTok := cfg.MaxTokens
	if maxTok <= 0 {
		maxTok = 1024
	}
	return &Client{client: anthropic.NewClient(opts...), model: model, maxTok: maxTok}
}

// SummarizeClaude renders chain to plain text and asks the model for a
// summary, matching internal/autocompact.ClaudeSummarizer.
func (c *Client) SummarizeClaude(chain []*model.ClaudeEntry) (string, error) {
	return c.summarize(renderClaudeChain(chain))
}

// SummarizeCodex is SummarizeClaude's Agent-X analogue.
func (c *Client) SummarizeCodex(entries []*model.CodexEntry) (string, error) {
	return c.summarize(renderCodexEntries(entries))
}

// renderClaudeChain flattens a visible-chain prefix to plain text for the
// summary prompt, dropping thinking blocks (internal reasoning has no
// place in a user-visible summary).
func renderClaudeChain(chain []*model.ClaudeEntry) string {
	var b strings.Builder
	for _, e := range chain {
		msg := e.Message()
		if msg == nil {
			continue
		}
		writeRole(&b, msg.Role())
		if msg.IsStringContent() {
			b.WriteString(msg.StringContent())
			b.WriteString("\n")
			continue
		}
		for _, block := range msg.Blocks() {
			if block.Type() == "thinking" || block.Type() == "redacted_thinking" {
				continue
			}
			if t := block.Text(); t != "" {
				b.WriteString(t)
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

// renderCodexEntries is renderClaudeChain's Agent-X analogue.
func renderCodexEntries(entries []*model.CodexEntry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.PayloadType())
		b.WriteString(": ")
		for _, raw := range e.Payload() {
			b.Write(raw)
			b.WriteString(" ")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func writeRole(b *strings.Builder, role string) {
	if role == "" {
		return
	}
	b.WriteString("[")
	b.WriteString(role)
	b.WriteString("] ")
}

const summarizePrompt = "Summarize the following conversation transcript prefix concisely, " +
	"preserving any open tasks, decisions, and file paths mentioned, so the " +
	"summary can replace it as shared context:\n\n"

func (c *Client) summarize(transcriptText string) (string, error) {
	if strings.TrimSpace(transcriptText) == "" {
		return "(nothing to summarize)", nil
	}
	msg, err := c.client.Messages.New(context.Background(), anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTok,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(summarizePrompt + transcriptText)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("summarizing via anthropic api: %w", err)
	}
	var out strings.Builder
	for _, block := range msg.Content {
		out.WriteString(block.Text)
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("summarizing via anthropic api: empty response")
	}
	return out.String(), nil
}
