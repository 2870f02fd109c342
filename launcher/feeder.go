package launcher

import (
	"io"

	"github.com/kbukum/flowkit/logger"
)

// feedStdin writes the payload to the subprocess stdin and closes it so the
// subprocess observes EOF. Write errors are logged and swallowed; a task
// that stops reading its stdin is not a launch failure.
func feedStdin(w io.WriteCloser, payload []byte, log *logger.Logger) {
	defer func() {
		if err := w.Close(); err != nil {
			log.Warn("closing stdin pipe", logger.ErrorFields("close", err))
		}
	}()

	if _, err := w.Write(payload); err != nil {
		log.Warn("writing stdin payload", logger.ErrorFields("write", err))
	}
}
