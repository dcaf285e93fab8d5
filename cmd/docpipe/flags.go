package main

import (
	"flag"
)

// AppFlags holds the parsed command line arguments.
type AppFlags struct {
	ConfigFile     string
	ProcessingDate string
	RunOnce        bool
}

// ParseFlags parses the command line arguments, consolidating aliases.
func ParseFlags() AppFlags {
	configFile := flag.String("config", "", "Path to the YAML/JSON configuration file. If not set, searches default locations.")
	configFileAlias := flag.String("c", "", "Alias for -config")

	processingDate := flag.String("date", "", "Processing date override: YYYY-MM-DD or 'today'. Defaults to yesterday.")
	runOnce := flag.Bool("once", false, "Run a single processing cycle and exit instead of scheduling.")

	flag.Parse()

	if *configFile == "" && *configFileAlias != "" {
		*configFile = *configFileAlias
	}

	return AppFlags{
		ConfigFile:     *configFile,
		ProcessingDate: *processingDate,
		RunOnce:        *runOnce,
	}
}
