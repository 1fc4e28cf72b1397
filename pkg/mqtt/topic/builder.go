package topic

import (
	"strings"
)

// Builder derives every topic of one car from its base status topic.
type Builder struct {
	// base is the status topic with trailing slashes removed (e.g. "/dolphinc").
	base string
}

// NewBuilder creates a Builder for the given base status topic.
func NewBuilder(base string) *Builder {
	return &Builder{base: strings.TrimRight(base, "/")}
}

// Status returns the topic carrying the free-text status push.
func (b *Builder) Status() string {
	return b.base
}

// Sub returns the dedicated subtopic {base}/{segment}.
func (b *Builder) Sub(segment string) string {
	return b.base + "/" + strings.Trim(segment, "/")
}

// Speed returns {base}/speed.
func (b *Builder) Speed() string {
	return b.Sub(SubSpeed)
}

// SOC returns {base}/SOC.
func (b *Builder) SOC() string {
	return b.Sub(SubSOC)
}

// Normalized returns the base without leading or trailing slashes.
// DiLauncher run tasks prepend their own "/".
func (b *Builder) Normalized() string {
	return strings.Trim(b.base, "/")
}
