package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the JSON logger shared across the application.
func New() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.InfoLevel)
	l.SetOutput(os.Stdout)
	return l
}
