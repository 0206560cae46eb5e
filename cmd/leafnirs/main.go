// Package main provides the leafnirs inspection CLI.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/leafnirs/leafnirs/internal/config"
	"github.com/leafnirs/leafnirs/internal/log"
	"github.com/leafnirs/leafnirs/internal/manager"
	"github.com/leafnirs/leafnirs/internal/quality"
	"github.com/leafnirs/leafnirs/internal/recording"
	"github.com/leafnirs/leafnirs/internal/snirf"
)

const version = "v0.1.0-dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		usage()
		return nil
	}
	switch args[0] {
	case "version":
		fmt.Printf("leafnirs %s\n", version)
		return nil
	case "info":
		return inspect(args[1:], false)
	case "quality":
		return inspect(args[1:], true)
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage() {
	fmt.Println("leafnirs - SNIRF recording inspector")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  info    [-loader raw|schema] <file.snirf>   Show recording summary")
	fmt.Println("  quality [-loader raw|schema] <file.snirf>   Show per-channel quality")
	fmt.Println("  version                                     Show version")
}

func inspect(args []string, showQuality bool) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	loaderName := fs.String("loader", "", "loader strategy: raw or schema (default: preference file)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected exactly one SNIRF file")
	}
	path := fs.Arg(0)

	log.Configure(log.Config{})
	logger := log.Logger()

	store := config.Open(configPath(), logger)
	m := manager.New(logger)
	m.UseStrategy(store.PreferredStrategy())
	switch *loaderName {
	case "":
	case "raw":
		m.UseStrategy(manager.StrategyRaw)
	case "schema":
		m.UseStrategy(manager.StrategySchema)
	default:
		return fmt.Errorf("unknown loader %q (want raw or schema)", *loaderName)
	}

	rec, err := m.LoadFile(path)
	if err != nil {
		var lerr *snirf.LoadError
		if errors.As(err, &lerr) && lerr.Field != "" {
			return fmt.Errorf("%s (field %s)", lerr.Kind, lerr.Field)
		}
		return err
	}
	if err := store.AddRecentFile(path); err != nil {
		logger.Warn().Err(err).Msg("could not update recent files")
	}

	if showQuality {
		printQuality(m, rec)
		return nil
	}
	printInfo(rec)
	return nil
}

func printInfo(rec *recording.Recording) {
	fmt.Printf("File:       %s\n", rec.Path)
	fmt.Printf("Channels:   %d\n", rec.NumChannels())
	fmt.Printf("Samples:    %d\n", rec.NumTimepoints())
	fmt.Printf("Duration:   %.2f s\n", rec.DurationSeconds())
	fmt.Printf("Sampling:   %.2f Hz\n", rec.SamplingRate())
	fmt.Printf("Sources:    %d\n", rec.NumSources())
	fmt.Printf("Detectors:  %d\n", rec.NumDetectors())
	fmt.Printf("Wavelengths: %v\n", rec.Probe.Wavelengths)
	if len(rec.Stimuli) > 0 {
		fmt.Printf("Stimuli:    %d conditions\n", len(rec.Stimuli))
	}
	if len(rec.Aux) > 0 {
		fmt.Printf("Aux:        %d channels\n", len(rec.Aux))
	}
	if len(rec.Metadata) > 0 {
		fmt.Println("Metadata:")
		keys := make([]string, 0, len(rec.Metadata))
		for k := range rec.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %-24s %v\n", k, rec.Metadata[k])
		}
	}
}

func printQuality(m *manager.Manager, rec *recording.Recording) {
	qualities := m.ChannelQualities(rec)
	var nOK, nFlat, nNoisy int
	fmt.Printf("%-6s %-6s %-6s %-4s %-8s %s\n", "ch", "src", "det", "wl", "class", "cv")
	for i, q := range qualities {
		ch := rec.Channels[i]
		fmt.Printf("%-6d %-6s %-6s %-4d %-8s %.4f\n",
			q.Channel,
			rec.Probe.SourceLabels[ch.SourceIndex-1],
			rec.Probe.DetectorLabels[ch.DetectorIndex-1],
			ch.WavelengthIndex,
			q.Class, q.CV)
		switch q.Class {
		case quality.OK:
			nOK++
		case quality.Flat:
			nFlat++
		default:
			nNoisy++
		}
	}
	fmt.Printf("\nQuality: %d/%d ok, %d flat, %d noisy\n", nOK, len(qualities), nFlat, nNoisy)
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return config.DefaultFileName
	}
	return filepath.Join(dir, "leafnirs", config.DefaultFileName)
}
