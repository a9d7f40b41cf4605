package drift

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// debugStats holds per-compose timing metrics.
// Only populated when Stage.debug is true.
type debugStats struct {
	traverseTime time.Duration
	submitTime   time.Duration
	commandCount int
}

// debugLog writes timing and draw-call stats to the package logger.
func (s *Stage) debugLog(stats debugStats) {
	if !s.debug {
		return
	}
	logger.Debug("stage composed",
		zap.Duration("traverse", stats.traverseTime),
		zap.Duration("submit", stats.submitTime),
		zap.Duration("total", stats.traverseTime+stats.submitTime),
		zap.Int("commands", stats.commandCount),
		zap.Uint64("frame", s.clock.Frame()),
	)
}

// debugCheckDisposed panics with a descriptive message when a disposed node is
// used in a tree operation. Release builds skip the call entirely.
func debugCheckDisposed(n *Node, op string) {
	if n.disposed {
		panic(fmt.Sprintf("drift debug: %s on disposed node %q", op, n.Name))
	}
}

// debugMaxChildCount is the child count above which a warning is logged.
const debugMaxChildCount = 1000

func debugCheckChildCount(n *Node) {
	if len(n.children) > debugMaxChildCount {
		logger.Warn("node has too many children",
			zap.String("node", n.Name),
			zap.Int("children", len(n.children)),
			zap.Int("threshold", debugMaxChildCount),
		)
	}
}
