package badger

import (
	"fmt"
	"strings"

	badgerdb "github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"
)

const storeLoggerName = "asset-cache"

// storeLogger routes badger's own log output into the wallet logger.
// Badger reports compactions and value log replays at info level; those are demoted to debug
// so an idle asset cache stays quiet.
type storeLogger struct {
	logger *zap.Logger
}

var _ badgerdb.Logger = (*storeLogger)(nil)

func newStoreLogger(logger *zap.Logger) *storeLogger {
	return &storeLogger{logger: logger.Named(storeLoggerName).WithOptions(zap.AddCallerSkip(1))}
}

// badger terminates most messages with a newline
func message(format string, args []interface{}) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}

func (s *storeLogger) Errorf(format string, args ...interface{}) {
	s.logger.Error(message(format, args))
}

func (s *storeLogger) Warningf(format string, args ...interface{}) {
	s.logger.Warn(message(format, args))
}

func (s *storeLogger) Infof(format string, args ...interface{}) {
	s.logger.Debug(message(format, args))
}

func (s *storeLogger) Debugf(format string, args ...interface{}) {
	s.logger.Debug(message(format, args))
}
