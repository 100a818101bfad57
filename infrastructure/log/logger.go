package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

var logger = logrus.New()

// NewLogger returns a logger scoped to one module of the toolkit.
func NewLogger(module string) logrus.FieldLogger {
	return logger.WithField("module", module)
}

func SetLevel(level string) error {
	l, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logger.SetLevel(l)
	return nil
}

func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}
