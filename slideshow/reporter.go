package slideshow

import (
	"github.com/charmbracelet/log"

	"handsfree-presenter/logger"
)

type logReporter struct {
	logger *log.Logger
}

// NewLogReporter reports through the log: an error while setting up, a
// warning during a show, which goes on without that detector.
func NewLogReporter() Reporter {
	return &logReporter{logger: logger.NewStyledLogger("Sensors")}
}

func (r *logReporter) SourceUnavailable(mode Mode, detector string, err error) {
	if mode == SetupMode {
		r.logger.Error("sensor not found, check that it is connected", "detector", detector, "error", err)
		return
	}

	r.logger.Warn("sensor not found, continuing without hands-free control", "detector", detector, "error", err)
}
