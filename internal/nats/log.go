package nats

import (
	"github.com/nats-io/nats-server/v2/server"

	"github.com/drillrun/runwiz/internal/logger"
)

var log = logger.Named("nats")

// serverLogger routes the embedded server's own output into the runwiz
// log file instead of stderr.
type serverLogger struct {
	c *logger.Component
}

var _ server.Logger = serverLogger{}

func (s serverLogger) Noticef(format string, v ...any) { s.c.Info(format, v...) }
func (s serverLogger) Warnf(format string, v ...any)   { s.c.Warn(format, v...) }
func (s serverLogger) Errorf(format string, v ...any)  { s.c.Error(format, v...) }
func (s serverLogger) Debugf(format string, v ...any)  { s.c.Debug(format, v...) }
func (s serverLogger) Tracef(format string, v ...any)  { s.c.Debug(format, v...) }

// Fatalf is logged as an error; the server shuts itself down after a
// fatal condition and Start reports the failure.
func (s serverLogger) Fatalf(format string, v ...any) { s.c.Error(format, v...) }
