package metadata

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// sqlLogger bridges the gorm logger to logrus.
type sqlLogger struct {
	logger *logrus.Logger
}

func (l *sqlLogger) Printf(format string, args ...interface{}) {
	if strings.Contains(format, "SLOW SQL") {
		l.logger.Warnf(format, args...)
		return
	}
	l.logger.Debugf(format, args...)
}
