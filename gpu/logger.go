package gpu

import (
	"log/slog"

	"github.com/gogpu/ratchet"
)

// slogger returns the shared ratchet logger.
func slogger() *slog.Logger { return ratchet.Logger() }
