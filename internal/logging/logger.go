// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New 按级别与格式（json / text）创建 logrus 日志器，输出到 stderr。
func New(level, format string) (*logrus.Logger, error) {
	return NewWithOutput(level, format, os.Stderr)
}

func NewWithOutput(level, format string, out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(lvl)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	case "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("log format %q: want json or text", format)
	}
	return l, nil
}
