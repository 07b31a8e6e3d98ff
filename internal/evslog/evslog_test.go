package evslog

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInfoIncludesComponentAndAgentTags(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)

	ctx := WithAgent(WithComponent(context.Background(), "ops"), "claude")
	Info(ctx, "doing a thing", "lines", 3)

	out := buf.String()
	assert.Contains(t, out, "doing a thing")
	assert.Contains(t, out, "component=ops")
	assert.Contains(t, out, "agent=claude")
	assert.Contains(t, out, "lines=3")
}

func TestInfoWithoutTagsOmitsThem(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)

	Info(context.Background(), "bare message")

	out := buf.String()
	assert.Contains(t, out, "bare message")
	assert.False(t, strings.Contains(out, "component="))
	assert.False(t, strings.Contains(out, "agent="))
}

func TestLogDurationAddsDurationAttribute(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)

	LogDuration(context.Background(), slog.LevelInfo, "finished", time.Now())

	assert.Contains(t, buf.String(), "duration_ms=")
}
