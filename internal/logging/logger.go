package logging

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"catalog-sync/internal/config"
)

type LoggerService interface {
	Log(msg string, fields ...zap.Field)
	LogWarning(msg string, fields ...zap.Field)
	LogError(msg string, err error, fields ...zap.Field)
	LogSuccess(msg string, fields ...zap.Field)
	Zap() *zap.Logger
}

type Logger struct {
	zap      *zap.Logger
	telegram *telegramSink
}

func NewLogger(cfg *config.Config) (LoggerService, error) {
	var zcfg zap.Config
	if cfg.Environment == "production" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}
	z, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{
		zap:      z,
		telegram: newTelegramSink(cfg.TelegramBot),
	}, nil
}

// New wraps an existing zap logger without a Telegram sink.
func New(z *zap.Logger) LoggerService {
	if z == nil {
		z = zap.NewNop()
	}
	return &Logger{zap: z}
}

func Nop() LoggerService {
	return New(zap.NewNop())
}

func (l *Logger) Zap() *zap.Logger {
	return l.zap
}

func (l *Logger) Log(msg string, fields ...zap.Field) {
	l.zap.Info(msg, fields...)
}

func (l *Logger) LogWarning(msg string, fields ...zap.Field) {
	l.zap.Warn(msg, fields...)
}

func (l *Logger) LogError(msg string, err error, fields ...zap.Field) {
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	l.zap.Error(msg, fields...)
	if l.telegram != nil {
		text := msg
		if err != nil {
			text = msg + ": " + err.Error()
		}
		l.notify(formatMessage(iconError, "ERROR", text))
	}
}

func (l *Logger) LogSuccess(msg string, fields ...zap.Field) {
	l.zap.Info(msg, fields...)
	if l.telegram != nil {
		l.notify(formatMessage(iconSuccess, "SUCCESS", withFields(msg, fields)))
	}
}

func (l *Logger) notify(text string) {
	if err := l.telegram.send(context.Background(), text); err != nil {
		l.zap.Debug("telegram notification failed", zap.Error(err))
	}
}

func withFields(msg string, fields []zap.Field) string {
	if len(fields) == 0 {
		return msg
	}
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}
	keys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(msg)
	for _, k := range keys {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(toString(enc.Fields[k]))
	}
	return b.String()
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
