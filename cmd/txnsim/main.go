package main

import (
	"encoding/json"
	"flag"
	"io/ioutil"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/elliotcourant/timber"
	"github.com/elliotcourant/txnsim"
	"github.com/elliotcourant/txnsim/options"
)

var (
	configPath   = flag.String("config", "", "toml run configuration, defaults are used when empty")
	outPath      = flag.String("out", "results.json", "file to write experiment results to")
	seed         = flag.Int64("seed", 0, "workload seed, overrides the config file")
	maxDeferTime = flag.Float64("max-defer-time", 0, "deferred policy latency bound in seconds, overrides the config file")
)

func main() {
	flag.Parse()

	opts := options.DefaultOptions()
	if *configPath != "" {
		if _, err := toml.DecodeFile(*configPath, &opts); err != nil {
			timber.Errorf("could not read config %s: %v", *configPath, err)
			os.Exit(1)
		}
	}

	// Flags only override the config file when they were actually passed.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "seed":
			opts.Seed = *seed
		case "max-defer-time":
			opts.MaxDeferTime = *maxDeferTime
		}
	})

	if err := opts.Validate(); err != nil {
		timber.Errorf("invalid configuration: %v", err)
		os.Exit(1)
	}

	results, err := txnsim.RunExperiment(opts)
	if err != nil {
		timber.Errorf("experiment failed: %v", err)
		os.Exit(1)
	}

	encoded, err := json.MarshalIndent(results, "", "    ")
	if err != nil {
		timber.Errorf("could not encode results: %v", err)
		os.Exit(1)
	}

	if err := ioutil.WriteFile(*outPath, encoded, 0644); err != nil {
		timber.Errorf("could not write %s: %v", *outPath, err)
		os.Exit(1)
	}

	timber.Infof("wrote %d transaction result(s) to %s, digest %016x",
		len(results.Transactions), *outPath, results.Digest())
}
