package metrics

import "github.com/kilianp07/virtos/core/factory"

// Config lists the sink modules to build.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
}
