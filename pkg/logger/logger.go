package logger

import (
	"fmt"

	"go.uber.org/zap"
)

var base = zap.Must(zap.NewProduction(zap.AddCallerSkip(1)))

var (
	serviceName = "default"
)

func SetServiceName(newName string) string {
	oldName := serviceName
	serviceName = newName

	return oldName
}

// Replace подменяет базовый логгер (тесты, кастомный конфиг).
func Replace(l *zap.Logger) {
	if l != nil {
		base = l
	}
}

func Info(format string, args ...interface{}) {
	base.With(
		zap.String("service", serviceName),
	).Info(fmt.Sprintf(format, args...))
}

func Warn(format string, args ...interface{}) {
	base.With(
		zap.String("service", serviceName),
	).Warn(fmt.Sprintf(format, args...))
}

func Error(format string, args ...interface{}) {
	base.With(
		zap.String("service", serviceName),
	).Error(fmt.Sprintf(format, args...))
}

func Fatal(format string, args ...interface{}) {
	base.With(
		zap.String("service", serviceName),
	).Fatal(fmt.Sprintf(format, args...))
}
