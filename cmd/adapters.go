package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/compresr/omni-transform/internal/config"
)

// runAdaptersCommand lists the adapters the configuration registers.
func runAdaptersCommand(args []string) int {
	loadEnvFiles()

	fs := flag.NewFlagSet("adapters", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	listConfigs := fs.Bool("configs", false, "list embedded config names instead")
	_ = fs.Parse(args) // ExitOnError handles errors

	if *listConfigs {
		names, err := listEmbeddedConfigs()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return 0
	}

	cfg, source, err := loadConfig(*configPath, (*config.Config).ValidateTransform)
	if err != nil {
		setupLogging(defaultMonitoring(), false, true)
		log.Error().Err(err).Str("config", source).Msg("failed to load configuration")
		return 2
	}
	setupLogging(cfg.Monitoring, false, true)

	a, err := newApp(cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize")
		return 2
	}
	defer a.Close()

	a.printAdapters(os.Stdout)
	return 0
}

// printAdapters writes one line per registered adapter.
func (a *app) printAdapters(w io.Writer) {
	registry := a.engine.Registry()
	fmt.Fprintf(w, "%-24s %-10s %s\n", "KEY", "NAME", "ACTIVE")
	for _, key := range registry.Keys() {
		adapter, _ := registry.Get(key)
		active := "no"
		if string(key.Version) == a.cfg.Engine.AdapterVersion {
			active = "yes"
		}
		fmt.Fprintf(w, "%-24s %-10s %s\n", key.String(), adapter.Name(), active)
	}
}
