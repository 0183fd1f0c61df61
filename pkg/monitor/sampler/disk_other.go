//go:build !linux

package sampler

import (
	"context"
	"errors"
)

// DiskProbe reports used space on a mount point as a percentage.
// Only implemented on Linux; elsewhere it reports unavailable.
type DiskProbe struct {
	path string
}

// NewDiskProbe creates a disk-usage probe for the given mount point.
func NewDiskProbe(path string) *DiskProbe {
	return &DiskProbe{path: path}
}

func (p *DiskProbe) Component() string { return "disk" }
func (p *DiskProbe) Unit() string      { return "percent" }

func (p *DiskProbe) Probe(_ context.Context) (float64, error) {
	return 0, errors.New("disk probe not supported on this platform")
}
