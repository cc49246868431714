package backup

import (
	"context"
	"fmt"

	"github.com/ganot/epistles/internal/config"
)

// Open builds the target named in cfg.
func Open(ctx context.Context, cfg config.BackupConfig) (Target, error) {
	switch Driver(cfg.Driver) {
	case DriverFS, "":
		return NewFS(cfg.Root)
	case DriverS3:
		return NewS3(ctx, S3Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
		})
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown backup driver %q", cfg.Driver)
	}
}
