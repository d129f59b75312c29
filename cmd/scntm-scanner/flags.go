package main

import "flag"

// AppFlags are the CLI entrypoint's resolved arguments, aliases folded in.
type AppFlags struct {
	Target           string
	Mode             string
	GlobalConfigFile string
	DBPath           string
}

func parseFlags() AppFlags {
	target := flag.String("target", "", "Seed URL to scan")
	targetAlias := flag.String("t", "", "Alias for -target")

	mode := flag.String("mode", "quick", "Scan mode: quick or full")
	modeAlias := flag.String("m", "", "Alias for -mode")

	globalConfigFile := flag.String("config", "", "Path to the YAML configuration file. If not set, searches default locations.")
	configAlias := flag.String("c", "", "Alias for -config")

	dbPath := flag.String("db", "scntm-scanner.db", "Path to the sqlite scan-state database")

	flag.Parse()

	flags := AppFlags{Target: *target, Mode: *mode, GlobalConfigFile: *globalConfigFile, DBPath: *dbPath}
	if flags.Target == "" {
		flags.Target = *targetAlias
	}
	if *modeAlias != "" {
		flags.Mode = *modeAlias
	}
	if flags.GlobalConfigFile == "" {
		flags.GlobalConfigFile = *configAlias
	}
	return flags
}
