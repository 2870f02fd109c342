package launcher

import (
	"io"

	"github.com/kbukum/flowkit/logger"
)

const drainChunkSize = 32 * 1024

// drainOutput pumps the merged stdout/stderr pipe into the output artifact
// in incremental chunks, optionally mirroring each chunk to echo. It runs
// until the pipe reaches EOF, which happens when every writer end is closed.
func drainOutput(r io.Reader, out io.Writer, echo io.Writer, log *logger.Logger) {
	buf := make([]byte, drainChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				log.Error("writing output artifact", logger.ErrorFields("write", werr))
			}
			if echo != nil {
				if _, werr := echo.Write(buf[:n]); werr != nil {
					log.Warn("echoing output", logger.ErrorFields("write", werr))
				}
			}
		}
		if err != nil {
			if err != io.EOF {
				log.Warn("reading output pipe", logger.ErrorFields("read", err))
			}
			return
		}
	}
}
