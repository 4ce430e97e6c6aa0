package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/accounthub/internal/config"
	"github.com/mrz1836/accounthub/internal/hub"
	"github.com/mrz1836/accounthub/internal/output"
)

type cmdContextKey struct{}

// CommandContext holds dependencies for CLI commands.
type CommandContext struct {
	Cfg *config.Config
	Log config.LogWriter
	Fmt *output.Formatter

	// HubOptions is passed to hub.New when the hub is first opened.
	HubOptions hub.Options

	hub *hub.Hub
}

// NewCommandContext creates a context with the given dependencies.
func NewCommandContext(c *config.Config, log config.LogWriter, f *output.Formatter) *CommandContext {
	return &CommandContext{Cfg: c, Log: log, Fmt: f}
}

// Hub opens the hub on first use and returns it.
func (c *CommandContext) Hub() (*hub.Hub, error) {
	if c.hub != nil {
		return c.hub, nil
	}
	opts := c.HubOptions
	if opts.Log == nil {
		opts.Log = c.Log
	}
	h, err := hub.New(c.Cfg, opts)
	if err != nil {
		return nil, err
	}
	c.hub = h
	return h, nil
}

// Close closes the hub, if opened.
func (c *CommandContext) Close() {
	if c.hub != nil {
		c.hub.Close()
		c.hub = nil
	}
}

// SetCmdContext attaches cc to cmd's context.
func SetCmdContext(cmd *cobra.Command, cc *CommandContext) {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	cmd.SetContext(context.WithValue(base, cmdContextKey{}, cc))
}

// GetCmdContext returns the CommandContext attached to cmd, falling back
// to the global one.
func GetCmdContext(cmd *cobra.Command) *CommandContext {
	if ctx := cmd.Context(); ctx != nil {
		if cc, ok := ctx.Value(cmdContextKey{}).(*CommandContext); ok {
			return cc
		}
	}
	return cmdCtx
}

// contextWithTimeout returns a timeout context rooted in the command context.
// A non-positive d means no timeout.
func contextWithTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	if d <= 0 {
		return context.WithCancel(base)
	}
	return context.WithTimeout(base, d)
}

// openHub opens the hub and waits until its directory is populated.
func openHub(cmd *cobra.Command, cc *CommandContext) (*hub.Hub, error) {
	h, err := cc.Hub()
	if err != nil {
		return nil, err
	}
	ctx, cancel := contextWithTimeout(cmd, cc.Cfg.DiscoveryTimeout())
	defer cancel()
	if err = h.Ready(ctx); err != nil {
		return nil, err
	}
	return h, nil
}
