package logger

import "strings"

var allowedLevels = map[string]string{
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
}

var allowedOutcome = map[string]string{
	"ok":           "ok",
	"fail":         "fail",
	"invalid":      "invalid",
	"not_found":    "not_found",
	"cancelled":    "cancelled",
	"rate_limited": "rate_limited",
}

func normalizeLevel(lvl string) string {
	if v, ok := allowedLevels[strings.ToLower(lvl)]; ok {
		return v
	}
	if lvl == "" {
		return "INFO"
	}
	return strings.ToUpper(lvl)
}

func normalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"chat_type",
	"handler",
	"op",
	"cb_key",
	"flow",
	"step",
	"phase",
	"kind",
	"outcome",
	"duration_ms",
	"messages",
	"kb",
	"count",
	"gift_id",
	"catalog_id",
	"token",
	"payload",
	"username",
	"mode",
	"listen",
	"public_url",
	"driver",
	"db",
	"err",
	"err_code",
	"cause",
	"attempts",
}
