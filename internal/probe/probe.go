// Package probe reads the intrinsic duration of uploaded videos with ffprobe.
package probe

import (
	"context"
	"fmt"
	"math"
	"time"

	ffprobe "gopkg.in/vansante/go-ffprobe.v2"
)

// DurationProber returns the playing time of a media file in whole seconds.
type DurationProber interface {
	Duration(ctx context.Context, location string) (int, error)
}

type FFProbe struct {
	timeout time.Duration
}

func NewFFProbe(timeout time.Duration) *FFProbe {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FFProbe{timeout: timeout}
}

// Duration probes location, which may be a local path or a URL.
func (p *FFProbe) Duration(ctx context.Context, location string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	info, err := ffprobe.ProbeURL(ctx, location)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", location, err)
	}
	if info.Format == nil {
		return 0, fmt.Errorf("ffprobe %s: no format information", location)
	}
	return Seconds(info.Format.Duration()), nil
}

// Seconds rounds d up to whole seconds, never below 1.
func Seconds(d time.Duration) int {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}

// Fixed always reports the same duration. It stands in when ffprobe is not
// installed.
type Fixed int

func (f Fixed) Duration(context.Context, string) (int, error) {
	return int(f), nil
}
