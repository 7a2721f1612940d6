// Package logs builds the process logger: a text handler on the terminal, an
// optional JSON file, and the systemd journal when one is reachable.
package logs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"
)

var level = new(slog.LevelVar)

// SetLevel accepts debug, info, warn or error.
func SetLevel(name string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return fmt.Errorf("log level %q: %w", name, err)
	}
	level.Set(l)
	return nil
}

func Level() slog.Level { return level.Level() }

type Options struct {
	// Writer receives text output. Nil means stderr.
	Writer io.Writer
	// File, if set, receives JSON records.
	File string
	// Journal also sends records to the systemd journal.
	Journal bool
}

// New returns the logger and a closer for any file it opened.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	var handlers []slog.Handler
	closer := io.Closer(nopCloser{})

	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	// under systemd stderr already lands in the journal
	var terminalHandler slog.Handler
	if !isSystemdService() {
		terminalHandler = slog.NewTextHandler(writer, &slog.HandlerOptions{Level: level})
		handlers = append(handlers, terminalHandler)
	}

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, err
		}
		closer = f
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
	}

	if opts.Journal || terminalHandler == nil {
		journalHandler, err := slogjournal.NewHandler(&slogjournal.Options{
			Level: level,
			ReplaceGroup: func(key string) string {
				return toJournalKey(key)
			},
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				a.Key = toJournalKey(a.Key)
				return a
			},
		})
		if err != nil {
			if terminalHandler != nil {
				record := slog.NewRecord(time.Now(), slog.LevelWarn, "systemd journal unavailable", 0)
				record.Add("error", err)
				_ = terminalHandler.Handle(context.Background(), record)
			}
		} else {
			handlers = append(handlers, journalHandler)
		}
	}

	return slog.New(slogmulti.Fanout(handlers...)), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func toJournalKey(str string) string {
	str = strings.ToUpper(str)
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, str)
}

func isSystemdService() bool {
	content, err := os.ReadFile("/proc/self/cgroup")
	if err != nil {
		return false
	}
	parts := strings.Split(strings.TrimSpace(string(content)), ":")
	if len(parts) < 3 {
		return false
	}
	return strings.HasSuffix(path.Dir(parts[2]), ".service")
}
