// Package audit records every tool execution to a Redis stream.
package audit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/redis/go-redis/v9"
)

// Entry is one tool execution. InputSummary names the arguments used but
// never carries filter values.
type Entry struct {
	RequestID    string    `json:"requestId"`
	UserID       string    `json:"userId"`
	Tool         string    `json:"tool"`
	InputSummary string    `json:"inputSummary"`
	Success      bool      `json:"success"`
	Error        string    `json:"error,omitempty"`
	DurationMs   int64     `json:"durationMs"`
	Timestamp    time.Time `json:"timestamp"`
}

// Recorder is implemented by audit sinks. Record never fails the caller.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}

// Nop discards entries.
type Nop struct{}

func (Nop) Record(context.Context, Entry) {}

const minPageSize = 100

// Log appends entries to a capped Redis stream.
type Log struct {
	rdb    *redis.Client
	stream string
	maxLen int64
	logger hclog.Logger
}

var _ Recorder = (*Log)(nil)

// New returns a stream-backed audit log. maxLen caps the stream length; zero
// leaves it unbounded.
func New(rdb *redis.Client, stream string, maxLen int64, logger hclog.Logger) *Log {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Log{rdb: rdb, stream: stream, maxLen: maxLen, logger: logger}
}

// Record writes e. Failures are logged and swallowed.
func (l *Log) Record(ctx context.Context, e Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	err := l.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: l.stream,
		MaxLen: l.maxLen,
		Approx: true,
		Values: map[string]any{
			"requestId":    e.RequestID,
			"userId":       e.UserID,
			"tool":         e.Tool,
			"inputSummary": e.InputSummary,
			"success":      strconv.FormatBool(e.Success),
			"error":        e.Error,
			"durationMs":   strconv.FormatInt(e.DurationMs, 10),
			"timestamp":    e.Timestamp.UTC().Format(time.RFC3339Nano),
		},
	}).Err()
	if err != nil {
		l.logger.Warn("failed to write audit entry", "tool", e.Tool, "request_id", e.RequestID, "error", err)
	}
}

// Recent returns up to n of the newest entries for userID, newest first.
// An empty userID returns entries of every user. The stream is read
// backwards page by page until n entries match or it is exhausted.
func (l *Log) Recent(ctx context.Context, userID string, n int64) ([]Entry, error) {
	if n <= 0 {
		return []Entry{}, nil
	}
	page := max(n*5, minPageSize)
	out := make([]Entry, 0, n)
	upper := "+"
	for {
		msgs, err := l.rdb.XRevRangeN(ctx, l.stream, upper, "-", page).Result()
		if err != nil {
			return nil, fmt.Errorf("read audit stream: %w", err)
		}
		for _, m := range msgs {
			e := decode(m.Values)
			if userID != "" && e.UserID != userID {
				continue
			}
			out = append(out, e)
			if int64(len(out)) == n {
				return out, nil
			}
		}
		if int64(len(msgs)) < page {
			return out, nil
		}
		upper = "(" + msgs[len(msgs)-1].ID
	}
}

func decode(v map[string]any) Entry {
	str := func(k string) string {
		s, _ := v[k].(string)
		return s
	}
	e := Entry{
		RequestID:    str("requestId"),
		UserID:       str("userId"),
		Tool:         str("tool"),
		InputSummary: str("inputSummary"),
		Error:        str("error"),
	}
	e.Success, _ = strconv.ParseBool(str("success"))
	e.DurationMs, _ = strconv.ParseInt(str("durationMs"), 10, 64)
	e.Timestamp, _ = time.Parse(time.RFC3339Nano, str("timestamp"))
	return e
}
