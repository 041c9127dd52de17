// Package logroute builds the process logger. Records tagged with an actor
// address are written in a compact actor format, all other records as
// logfmt text. Output goes to a rotating file, a writer, or both.
package logroute

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/natefinch/lumberjack"

	"github.com/codewandler/asys-go/core/actor"
)

const timeFormat = "15:04:05.000"

// Config configures New.
type Config struct {
	// Level is the minimum level written. Default: slog.LevelInfo.
	Level slog.Leveler
	// File, if set, receives all records and is rotated by size.
	File string
	// MaxSizeMB is the size at which File is rotated. Default: 10.
	MaxSizeMB int
	// MaxBackups is the number of rotated files kept. Default: 3.
	MaxBackups int
	// Writer receives all records. Defaults to os.Stderr when File is empty.
	Writer io.Writer
}

// New returns a logger routing by the actor address attribute and a
// function closing the file destination.
func New(cfg Config) (*slog.Logger, func() error) {
	if cfg.Level == nil {
		cfg.Level = slog.LevelInfo
	}
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = 3
	}

	var (
		writers []io.Writer
		closeFn = func() error { return nil }
	)
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
		writers = append(writers, lj)
		closeFn = lj.Close
	}
	if cfg.Writer != nil {
		writers = append(writers, cfg.Writer)
	} else if cfg.File == "" {
		writers = append(writers, os.Stderr)
	}

	var w io.Writer
	if len(writers) == 1 {
		w = writers[0]
	} else {
		w = io.MultiWriter(writers...)
	}

	return slog.New(NewHandler(w, cfg.Level)), closeFn
}

// Handler is a slog.Handler that routes records carrying
// actor.LogKeyAddress to the actor format.
type Handler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Leveler

	normal slog.Handler
	// address bound via WithAttrs, if any
	address string
	// attrs bound via WithAttrs, keys already qualified by their groups
	attrs []slog.Attr
	// prefix is the open group path, e.g. "req.http."
	prefix string
}

// NewHandler returns a Handler writing to w.
func NewHandler(w io.Writer, level slog.Leveler) *Handler {
	if level == nil {
		level = slog.LevelInfo
	}
	mu := &sync.Mutex{}
	return &Handler{
		mu:     mu,
		w:      w,
		level:  level,
		normal: slog.NewTextHandler(&lockedWriter{mu: mu, w: w}, &slog.HandlerOptions{Level: level}),
	}
}

func (h *Handler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	addr := h.address
	var extra []slog.Attr
	r.Attrs(func(a slog.Attr) bool {
		if h.prefix == "" && a.Key == actor.LogKeyAddress && addr == "" {
			addr = a.Value.Resolve().String()
			return true
		}
		extra = append(extra, qualify(h.prefix, a))
		return true
	})
	if addr == "" {
		return h.normal.Handle(ctx, r)
	}
	return h.writeActor(r, addr, append(slices.Clone(h.attrs), extra...))
}

// writeActor writes "<time> <LEVEL> <address> => <message> k=v...".
func (h *Handler) writeActor(r slog.Record, addr string, attrs []slog.Attr) error {
	var buf bytes.Buffer
	t := r.Time
	if t.IsZero() {
		t = time.Now()
	}
	buf.WriteString(t.Format(timeFormat))
	buf.WriteByte(' ')
	buf.WriteString(r.Level.String())
	buf.WriteByte(' ')
	buf.WriteString(addr)
	buf.WriteString(" => ")
	buf.WriteString(r.Message)
	for _, a := range attrs {
		appendAttr(&buf, "", a)
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

// appendAttr writes " key=value", flattening groups into dotted keys.
func appendAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			appendAttr(buf, p, ga)
		}
		return
	}
	buf.WriteByte(' ')
	buf.WriteString(prefix)
	buf.WriteString(a.Key)
	buf.WriteByte('=')
	buf.WriteString(a.Value.String())
}

// qualify nests a under the open group path.
func qualify(prefix string, a slog.Attr) slog.Attr {
	if prefix == "" || a.Equal(slog.Attr{}) {
		return a
	}
	if a.Key == "" && a.Value.Kind() == slog.KindGroup {
		return slog.Attr{Key: prefix[:len(prefix)-1], Value: a.Value}
	}
	a.Key = prefix + a.Key
	return a
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	rest := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		if h.prefix == "" && a.Key == actor.LogKeyAddress {
			c.address = a.Value.Resolve().String()
			continue
		}
		rest = append(rest, qualify(h.prefix, a))
	}
	c.attrs = append(slices.Clone(h.attrs), rest...)
	c.normal = h.normal.WithAttrs(attrs)
	return &c
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	c.normal = h.normal.WithGroup(name)
	return &c
}

type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

var _ slog.Handler = (*Handler)(nil)
