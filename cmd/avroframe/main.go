package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/tuannm99/avroframe/internal"
)

const usageText = `usage: avroframe [-config file.yaml] <command> [flags]

commands:
  encode -in data.csv -out data.avro   convert a CSV file to an Avro container
  decode -in data.avro [-chunk-size N] print an Avro container as CSV
  schema -in file [-meta]              print the schema of a .avro or .csv file
`

func main() {
	configPath := flag.String("config", "", "YAML config file")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usageText) }
	flag.Parse()

	cfg := internal.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = internal.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()})
	slog.SetDefault(slog.New(handler))

	if err := run(cfg, flag.Args(), os.Stdout); err != nil {
		log.Fatalf("%s: %v", cfg.AppName, err)
	}
}
