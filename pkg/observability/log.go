package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event as a debug line. Failures are logged at
// warn level.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log through logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{logger: logger}
}

func (h *LogHooks) OnParseStart(_ context.Context, source string) {
	h.logger.Debug("parse started", "source", source)
}

func (h *LogHooks) OnParseComplete(_ context.Context, source string, nodes, edges, ignored int, d time.Duration) {
	h.logger.Debug("parsed", "source", source, "nodes", nodes, "edges", edges, "ignored", ignored, "took", d)
}

func (h *LogHooks) OnLayoutStart(_ context.Context, engine string, nodeCount int) {
	h.logger.Debug("layout started", "engine", engine, "nodes", nodeCount)
}

func (h *LogHooks) OnLayoutComplete(_ context.Context, engine string, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("layout failed", "engine", engine, "err", err)
		return
	}
	h.logger.Debug("layout done", "engine", engine, "took", d)
}

func (h *LogHooks) OnRenderStart(_ context.Context, format string) {
	h.logger.Debug("render started", "format", format)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("render failed", "format", format, "err", err)
		return
	}
	h.logger.Debug("rendered", "format", format, "bytes", size, "took", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnModeChange(_ context.Context, path, from, to string) {
	h.logger.Debug("mode change", "path", path, "from", from, "to", to)
}

func (h *LogHooks) OnLoad(_ context.Context, path string, size int, err error) {
	if err != nil {
		h.logger.Warn("load failed", "path", path, "err", err)
		return
	}
	h.logger.Debug("loaded", "path", path, "bytes", size)
}

func (h *LogHooks) OnSave(_ context.Context, path string, size int, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("save failed", "path", path, "err", err)
		return
	}
	h.logger.Debug("saved", "path", path, "bytes", size, "took", d)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ EditorHooks   = (*LogHooks)(nil)
)
