package config

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the run parameters of the replay.
type Config struct {
	// Input is the path to the CSV event stream.
	Input string
	// Output is the path of the CSV report; empty means stdout.
	Output string
	// Workers is the number of client partitions processed
	// concurrently. 1 replays the stream serially.
	Workers int
	// StrictDisputes fails a dispute that would drive available
	// funds negative instead of applying the bank-side hold.
	StrictDisputes bool
	// JournalDir is the directory of the audit journal; empty
	// disables journaling.
	JournalDir string
}

type configTmp struct {
	Input          string `yaml:"input"`
	Output         string `yaml:"output,omitempty"`
	Workers        int    `yaml:"workers,omitempty"`
	StrictDisputes bool   `yaml:"strict_disputes,omitempty"`
	JournalDir     string `yaml:"journal_dir,omitempty"`
}

// Get reads the configuration from CLI flags, or from a YAML file when
// --config is provided.
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	input := flag.String("input", "", "path to csv event stream")
	output := flag.String("output", "", "path to csv report, empty means stdout")
	workers := flag.Int("workers", 1, "client partitions processed concurrently")
	strict := flag.Bool("strict-disputes", false, "reject disputes not covered by available funds")
	journalDir := flag.String("journal-dir", "", "audit journal directory, empty disables journaling")
	flag.Parse()

	if *configPath != "" {
		return getYaml(*configPath)
	}

	cfg := Config{
		Input:          *input,
		Output:         *output,
		Workers:        *workers,
		StrictDisputes: *strict,
		JournalDir:     *journalDir,
	}

	if flag.NArg() > 0 && cfg.Input == "" {
		cfg.Input = flag.Arg(0)
	}

	return cfg, cfg.validate()
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var tmp configTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, fmt.Errorf("incorrect yaml config: %w", err)
	}

	cfg := Config{
		Input:          tmp.Input,
		Output:         tmp.Output,
		Workers:        tmp.Workers,
		StrictDisputes: tmp.StrictDisputes,
		JournalDir:     tmp.JournalDir,
	}
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Input == "" {
		return fmt.Errorf("no input file provided, use --input or the 'input' yaml param")
	}
	if c.Workers < 1 {
		return fmt.Errorf("invalid workers value %d, must be at least 1", c.Workers)
	}
	return nil
}
