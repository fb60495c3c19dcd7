package config

var (
	// Version of pipe-cutter code.
	Version = "0.1.0"
)

// Config structure is a main config object
type Config struct {
	FlagSeconds     uint64 `mapstructure:"seconds"`
	FlagBytes       uint64 `mapstructure:"bytes"`
	FlagTail        string `mapstructure:"tail"`
	FlagVerbose     bool   `mapstructure:"verbose"`
	FlagMetricsFile string `mapstructure:"metrics-file"`

	// SecondsSet and BytesSet record whether the limits were given explicitly,
	// since zero is a valid limit.
	SecondsSet bool `mapstructure:"-"`
	BytesSet   bool `mapstructure:"-"`
}
