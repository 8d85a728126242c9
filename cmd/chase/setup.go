package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/chase/internal/config"
)

// loadConfig loads the config file and applies every flag the user set.
// Simulation flags only exist on some commands; a flag that was not
// registered or not changed leaves the config value alone.
func loadConfig(cmd *cobra.Command) (config.ChaseConfig, error) {
	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		return cfg, err
	}

	var o config.Overrides
	flags := cmd.Flags()
	if flags.Changed("dir") {
		o.Dir = &flagDir
	}
	if flags.Changed("db") {
		o.DB = &flagDBPath
	}
	if flags.Changed("rounds") {
		n, _ := flags.GetInt("rounds")
		o.MaxRounds = &n
	}
	if flags.Changed("sheep") {
		n, _ := flags.GetInt("sheep")
		o.FlockSize = &n
	}
	if flags.Changed("format") {
		formats, _ := flags.GetStringSlice("format")
		o.Formats = formats
	}
	o.Apply(&cfg)

	return cfg, nil
}

// resolveSeed returns the --seed value, or a clock seed when none was given.
func resolveSeed() int64 {
	if flagSeed != 0 {
		return flagSeed
	}
	return time.Now().UnixNano()
}
