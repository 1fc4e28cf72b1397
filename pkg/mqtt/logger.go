package mqtt

import (
	"fmt"
	"strings"

	"github.com/autopeer-io/carbridge/pkg/log"
)

// pahoLogger feeds paho's Println/Printf logging into a log.Logger.
type pahoLogger struct {
	logger log.Logger
	errors bool
}

func (l pahoLogger) Println(v ...any) {
	l.write(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}

func (l pahoLogger) Printf(format string, v ...any) {
	l.write(strings.TrimSuffix(fmt.Sprintf(format, v...), "\n"))
}

func (l pahoLogger) write(msg string) {
	if l.errors {
		l.logger.Warn(msg)
		return
	}
	l.logger.Debug(msg)
}
