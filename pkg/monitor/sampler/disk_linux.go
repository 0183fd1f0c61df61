//go:build linux

package sampler

import (
	"context"

	"golang.org/x/sys/unix"
)

// DiskProbe reports used space on a mount point as a percentage.
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
	var st unix.Statfs_t
	if err := unix.Statfs(p.path, &st); err != nil {
		return 0, err
	}

	total := float64(st.Blocks) * float64(st.Bsize)
	if total == 0 {
		return 0, nil
	}
	free := float64(st.Bavail) * float64(st.Bsize)

	return (total - free) / total * 100, nil
}
