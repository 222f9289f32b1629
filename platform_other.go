//go:build !linux && !windows && !darwin

package rebinded

import "github.com/hashicorp/go-hclog"

// NewPlatformDriver reports ErrNoDriver on operating systems with no
// Platform Driver implementation.
func NewPlatformDriver(logger hclog.Logger) (Driver, error) {
	return nil, ErrNoDriver
}

// NewPlatformRegistry returns a registry carrying only the
// platform-independent supplementary key table.
func NewPlatformRegistry() *Registry {
	return NewRegistry(SupplementaryKeyTable())
}
