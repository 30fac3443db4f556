// Package logging adapts zap to the runtime.Logger interface so the
// standalone server and the Nakama module share one logging surface.
package logging

import (
	"github.com/heroiclabs/nakama-common/runtime"
	"go.uber.org/zap"
)

// ZapLogger implements runtime.Logger on top of a zap logger.
type ZapLogger struct {
	base   *zap.Logger
	sugar  *zap.SugaredLogger
	fields map[string]interface{}
}

var _ runtime.Logger = (*ZapLogger)(nil)

// New builds a development logger when debug is set, a production one otherwise.
func New(debug bool) (*ZapLogger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return NewZapLogger(l), nil
}

// NewZapLogger wraps an existing zap logger.
func NewZapLogger(l *zap.Logger) *ZapLogger {
	return &ZapLogger{
		base:   l,
		sugar:  l.Sugar(),
		fields: map[string]interface{}{},
	}
}

func (z *ZapLogger) Debug(format string, v ...interface{}) { z.sugar.Debugf(format, v...) }
func (z *ZapLogger) Info(format string, v ...interface{})  { z.sugar.Infof(format, v...) }
func (z *ZapLogger) Warn(format string, v ...interface{})  { z.sugar.Warnf(format, v...) }
func (z *ZapLogger) Error(format string, v ...interface{}) { z.sugar.Errorf(format, v...) }

func (z *ZapLogger) WithField(key string, v interface{}) runtime.Logger {
	return z.WithFields(map[string]interface{}{key: v})
}

func (z *ZapLogger) WithFields(fields map[string]interface{}) runtime.Logger {
	merged := make(map[string]interface{}, len(z.fields)+len(fields))
	for k, v := range z.fields {
		merged[k] = v
	}
	zf := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		merged[k] = v
		zf = append(zf, zap.Any(k, v))
	}
	l := z.base.With(zf...)
	return &ZapLogger{base: l, sugar: l.Sugar(), fields: merged}
}

func (z *ZapLogger) Fields() map[string]interface{} {
	return z.fields
}

// Sync flushes buffered entries.
func (z *ZapLogger) Sync() error {
	return z.base.Sync()
}
