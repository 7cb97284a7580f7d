package container

import (
	"context"
	"fmt"

	"github.com/moby/moby/client"
	"go.uber.org/zap"
)

// Info describes the container daemon answering a ping.
type Info struct {
	APIVersion string
	OSType     string
}

// Daemon wraps the container daemon operations needed before the
// downstream container step runs.
type Daemon struct {
	client *client.Client
	logger *zap.Logger
}

// NewDaemon creates a new Daemon wrapper.
func NewDaemon(client *client.Client, logger *zap.Logger) *Daemon {
	return &Daemon{
		client: client,
		logger: logger,
	}
}

// Ping checks that the daemon is reachable.
func (d *Daemon) Ping(ctx context.Context) (Info, error) {
	d.logger.Debug("Pinging container daemon")

	result, err := d.client.Ping(ctx, client.PingOptions{})
	if err != nil {
		d.logger.Error("Failed to ping container daemon", zap.Error(err))
		return Info{}, fmt.Errorf("failed to ping container daemon: %w", err)
	}

	info := Info{
		APIVersion: result.APIVersion,
		OSType:     result.OSType,
	}

	d.logger.Debug("Container daemon reachable",
		zap.String("apiVersion", info.APIVersion),
		zap.String("osType", info.OSType),
	)
	return info, nil
}
