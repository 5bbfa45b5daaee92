package testlib

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

type testingWriter struct {
	tb testing.TB
}

func (w *testingWriter) Write(b []byte) (int, error) {
	w.tb.Log(strings.TrimSpace(string(b)))
	return len(b), nil
}

// MakeLogger creates a logrus logger routed to the test log.
func MakeLogger(tb testing.TB) logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(&testingWriter{tb})
	logger.SetLevel(logrus.DebugLevel)

	return logger
}
