//go:build rp2040 || rp2350

package config

import "parkmeter-go/types"

// No process environment on the device.
func applyEnv(*types.MeterConfig) error { return nil }
