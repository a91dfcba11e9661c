// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the root-level settings struct for a single assembler run. It is
// a mix of settings available in a settings.yaml and those available from
// the command line. All fields are required for a correct assembly.
type Config struct {
	// K is the k-mer length used by the upstream graph builder.
	K int `mapstructure:"k"`

	// MaxEvidenceDistance is the maximum distance from the first position of
	// the first kmer of a read to the last position of the last kmer of a
	// read. Set to read length plus the max-min concordant fragment size.
	MaxEvidenceDistance int `mapstructure:"max-evidence-distance"`

	// MaxAnchorLength is the upper bound on anchor extension bases.
	MaxAnchorLength int `mapstructure:"max-anchor-length"`

	// ReferenceIndex is the chromosome being assembled; tagged on every
	// output record.
	ReferenceIndex int `mapstructure:"reference-index"`

	// MaxExpectedBreakendLengthMultiple is the misassembly trigger
	// threshold, expressed as a multiple of MaxConcordantFragmentSize.
	MaxExpectedBreakendLengthMultiple float64 `mapstructure:"max-expected-breakend-length-multiple"`

	// MaxConcordantFragmentSize is the multiplier base used by the
	// misassembly check above.
	MaxConcordantFragmentSize int `mapstructure:"max-concordant-fragment-size"`

	// ContigName is a debug tag attached to log lines and export file names.
	ContigName string `mapstructure:"contig-name"`

	// WeightScaling is the scale factor for converting an evidence quality
	// score (eg. a log-likelihood ratio) into non-negative integer weight
	// units (see record.ScaledWeight). It is validated but not applied by
	// the ingest or assembler packages, which use evidence Quality and
	// support Weight values as given.
	WeightScaling float64 `mapstructure:"weight-scaling"`

	// Debug promotes sanity-check failures (see the error handling design)
	// from logged recoveries to fatal panics, and enables verbose logging.
	Debug bool `mapstructure:"debug"`

	// Visualisation holds the optional diagnostic side-output settings.
	Visualisation VisualisationConfig `mapstructure:"visualisation"`
}

// VisualisationConfig controls the optional, disabled-by-default diagnostic
// side-outputs. Their absence must never alter assembler results.
type VisualisationConfig struct {
	// Directory is where exported artifacts are written.
	Directory string `mapstructure:"directory"`

	// AssemblyContigMemoization exports per-called-contig memoization state.
	AssemblyContigMemoization bool `mapstructure:"assembly-contig-memoization"`

	// AssemblyGraph exports the assembled subgraph as a DOT file.
	AssemblyGraph bool `mapstructure:"assembly-graph"`

	// AssemblyGraphFullSize exports the full-size graph snapshot as a DOT file.
	AssemblyGraphFullSize bool `mapstructure:"assembly-graph-full-size"`

	// CompressExports zstd-compresses the memoization CSV and the
	// full-size graph DOT export; the contig graph DOT export is always
	// written uncompressed.
	CompressExports bool `mapstructure:"compress-exports"`
}

// Default returns sensible defaults for a k=25..32 positional assembler.
func Default() Config {
	return Config{
		K:                                 25,
		MaxEvidenceDistance:               300,
		MaxAnchorLength:                   300,
		ReferenceIndex:                    0,
		MaxExpectedBreakendLengthMultiple: 10,
		MaxConcordantFragmentSize:         500,
		ContigName:                        "assembly",
		WeightScaling:                     1000.0,
		Debug:                             false,
	}
}

// New returns a new Config populated by Viper settings (either from a local
// settings.yaml or command line arguments), layered over Default().
func New() (Config, error) {
	c := Default()
	if err := viper.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}
	return c, nil
}

// Validate checks that the required fields of Config are set to usable
// values, returning the first violation found.
func (c Config) Validate() error {
	switch {
	case c.K <= 0:
		return fmt.Errorf("config: k must be positive, got %d", c.K)
	case c.K > 32:
		return fmt.Errorf("config: k must be <= 32 to fit a uint64 kmer, got %d", c.K)
	case c.MaxEvidenceDistance < 0:
		return fmt.Errorf("config: max-evidence-distance must be non-negative, got %d", c.MaxEvidenceDistance)
	case c.MaxAnchorLength < 0:
		return fmt.Errorf("config: max-anchor-length must be non-negative, got %d", c.MaxAnchorLength)
	case c.MaxExpectedBreakendLengthMultiple <= 0:
		return fmt.Errorf("config: max-expected-breakend-length-multiple must be positive, got %f", c.MaxExpectedBreakendLengthMultiple)
	case c.MaxConcordantFragmentSize <= 0:
		return fmt.Errorf("config: max-concordant-fragment-size must be positive, got %d", c.MaxConcordantFragmentSize)
	case c.WeightScaling <= 0:
		return fmt.Errorf("config: weight-scaling must be positive, got %f", c.WeightScaling)
	}
	return nil
}
