package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	tsLayout = "2006-01-02T15:04:05.000Z07:00"
)

type handlerConfig struct {
	level    slog.Leveler
	writer   *asyncWriter
	format   logFormat
	keyOrder []string
}

// structuredHandler renders flat records with a stable key order.
// Context values (rid, update, user, chat, handler) are merged into every line.
type structuredHandler struct {
	cfg    handlerConfig
	attrs  []slog.Attr
	prefix string
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if len(cfg.keyOrder) == 0 {
		cfg.keyOrder = append([]string(nil), defaultKeyOrder...)
	}
	return &structuredHandler{cfg: cfg}
}

func (h *structuredHandler) Enabled(_ context.Context, lvl slog.Level) bool {
	return lvl >= h.cfg.level.Level()
}

func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.writer == nil {
		return fmt.Errorf("logger: writer not initialized")
	}
	jsonOut := h.cfg.format == formatJSON

	rec := make(record, 16)
	ts := r.Time.UTC()
	rec["ts"] = ts.Truncate(time.Millisecond).Format(tsLayout)
	rec["level"] = normalizeLevel(r.Level.String())
	if jsonOut {
		rec["ts_unix_nano"] = ts.UnixNano()
	}
	for _, a := range h.attrs {
		rec.add(h.prefix, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		rec.add(h.prefix, a)
		return true
	})
	rec.fillFromContext(ctx)

	if rid := rec.str("rid"); rid != "" {
		if short := CompactRID(rid); short != rid {
			if jsonOut {
				rec.setDefault("rid_full", rid)
			}
			rec["rid"] = short
		}
	}
	if rec.str("event") == "" {
		event := r.Message
		if event == "" {
			event = "unknown"
		}
		rec["event"] = event
	}
	rec.setDefault("component", CompApp)
	rec.normalize()

	var line []byte
	if jsonOut {
		var err error
		if line, err = rec.json(h.cfg.keyOrder); err != nil {
			return err
		}
	} else {
		line = rec.kv(h.cfg.keyOrder)
	}
	return h.cfg.writer.Write(append(line, '\n'))
}

func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = joinKey(h.prefix, name)
	return &clone
}

// record is one log line before rendering.
type record map[string]any

func (r record) add(prefix string, a slog.Attr) {
	key := joinKey(prefix, a.Key)
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, child := range v.Group() {
			r.add(key, child)
		}
		return
	}
	if key == "" {
		return
	}
	switch v.Kind() {
	case slog.KindString:
		r[key] = strings.TrimSpace(v.String())
	case slog.KindBool:
		r[key] = v.Bool()
	case slog.KindInt64:
		r[key] = v.Int64()
	case slog.KindUint64:
		r[key] = v.Uint64()
	case slog.KindFloat64:
		r[key] = v.Float64()
	case slog.KindDuration:
		r[msKey(key)] = RoundMS(v.Duration()).Milliseconds()
	case slog.KindTime:
		r[key] = v.Time().UTC().Format(time.RFC3339Nano)
	default:
		switch x := v.Any().(type) {
		case nil:
		case error:
			r[key] = x.Error()
		case time.Duration:
			r[msKey(key)] = RoundMS(x).Milliseconds()
		case fmt.Stringer:
			r[key] = x.String()
		default:
			r[key] = fmt.Sprint(x)
		}
	}
}

func (r record) fillFromContext(ctx context.Context) {
	if ctx == nil {
		return
	}
	if v := RIDFrom(ctx); v != "" {
		r.setDefault("rid", v)
	}
	if v := UpdateIDFrom(ctx); v != 0 {
		r.setDefault("update_id", int64(v))
	}
	if v := UserIDFrom(ctx); v != 0 {
		r.setDefault("user_id", v)
	}
	if v := ChatIDFrom(ctx); v != 0 {
		r.setDefault("chat_id", v)
	}
	if v := HandlerFrom(ctx); v != "" {
		r.setDefault("handler", v)
	}
}

func (r record) setDefault(key string, v any) {
	if cur, ok := r[key]; ok && cur != "" {
		return
	}
	r[key] = v
}

func (r record) str(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func (r record) normalize() {
	r["level"] = normalizeLevel(r.str("level"))
	if s := r.str("status"); s != "" {
		r["status"] = normalizeStatus(s)
	}
	if o := r.str("outcome"); o != "" {
		if v, ok := allowedOutcome[strings.ToLower(o)]; ok {
			r["outcome"] = v
		} else {
			delete(r, "outcome")
		}
	}
	for k, v := range r {
		if s, ok := v.(string); ok && s == "" {
			delete(r, k)
		}
	}
}

// keys returns the configured order first, then the rest alphabetically.
func (r record) keys(order []string) []string {
	out := make([]string, 0, len(r))
	seen := make(map[string]bool, len(r))
	for _, k := range order {
		if _, ok := r[k]; ok && !seen[k] {
			out = append(out, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range r {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func (r record) json(order []string) ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range r.keys(order) {
		data, err := json.Marshal(r[k])
		if err != nil {
			return nil, err
		}
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		b.Write(data)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

func (r record) kv(order []string) []byte {
	var b strings.Builder
	for i, k := range r.keys(order) {
		if i > 0 {
			b.WriteByte(' ')
		}
		s := fmt.Sprint(r[k])
		if strings.IndexFunc(s, needsQuote) >= 0 {
			s = strconv.Quote(s)
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(s)
	}
	return []byte(b.String())
}

func needsQuote(r rune) bool {
	return r <= ' ' || r == '=' || r == '"'
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return prefix + "." + key
}

// msKey renames duration attributes so the unit is visible: duration -> duration_ms.
func msKey(key string) string {
	if strings.HasSuffix(key, "_ms") {
		return key
	}
	return key + "_ms"
}
