package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/elliotcourant/timber"
	"github.com/elliotcourant/txnsim"
	"github.com/elliotcourant/txnsim/analyze"
)

var (
	inputPath = flag.String("input", "results.json", "experiment results file to analyze")
)

func main() {
	flag.Parse()

	encoded, err := ioutil.ReadFile(*inputPath)
	if err != nil {
		timber.Errorf("could not read %s: %v", *inputPath, err)
		os.Exit(1)
	}

	var results txnsim.Results
	if err := json.Unmarshal(encoded, &results); err != nil {
		timber.Errorf("could not decode %s: %v", *inputPath, err)
		os.Exit(1)
	}

	for _, policy := range []string{"eager", "deferred"} {
		analysis, err := analyze.Policy(&results, policy)
		if err != nil {
			timber.Errorf("could not analyze %s results: %v", policy, err)
			os.Exit(1)
		}

		pretty, err := json.MarshalIndent(analysis, "", "    ")
		if err != nil {
			timber.Errorf("could not encode %s analysis: %v", policy, err)
			os.Exit(1)
		}

		fmt.Printf("%s\n%s\n", policy, pretty)
	}
}
