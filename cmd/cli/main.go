package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/nomis52/clubsignup/buildinfo"
	"github.com/nomis52/clubsignup/catalog"
	serverconfig "github.com/nomis52/clubsignup/server/config"
)

type Args struct {
	ConfigPath  string
	ShowVersion bool
	Validate    bool
}

func main() {
	if err := run(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(out io.Writer) error {
	args := parseArgs()

	// Handle version request
	if args.ShowVersion {
		showVersion(out)
		return nil
	}

	cfg := serverconfig.Default()
	if args.ConfigPath != "" {
		loaded, err := serverconfig.LoadConfig(args.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	policy, err := catalog.ParsePolicy(cfg.Catalog.EnrollmentPolicy)
	if err != nil {
		return err
	}

	seed := catalog.DefaultSeed()
	if cfg.Catalog.SeedFile != "" {
		seed, err = catalog.LoadSeedFile(cfg.Catalog.SeedFile)
		if err != nil {
			return err
		}
	}

	registry, err := catalog.New(seed, catalog.WithPolicy(policy))
	if err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}

	// Handle validation-only request
	if args.Validate {
		fmt.Fprintf(out, "Configuration validation successful: %d activities, %s enrollment\n",
			len(registry.List()), policy)
		return nil
	}

	return printCatalog(out, registry.List())
}

func printCatalog(out io.Writer, activities []catalog.Activity) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACTIVITY\tSCHEDULE\tENROLLED\tSPOTS LEFT")
	for _, a := range activities {
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%d\n",
			a.Name, a.Schedule, len(a.Participants), a.MaxParticipants, a.SpotsLeft())
	}
	return tw.Flush()
}

func showVersion(out io.Writer) {
	props := buildinfo.Get()
	fmt.Fprintf(out, "clubsignup %s\n", props.Version)
	fmt.Fprintf(out, "Built: %s\n", props.BuildTime)
	fmt.Fprintf(out, "Commit: %s\n", props.GitCommit)
}

func parseArgs() Args {
	configPath := flag.String("config", "", "Path to server config file")
	configPathShort := flag.String("c", "", "Path to server config file (shorthand)")
	showVersion := flag.Bool("version", false, "Show version information")
	versionShort := flag.Bool("v", false, "Show version information (shorthand)")
	validate := flag.Bool("validate", false, "Validate configuration and catalog, then exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nInspect the clubsignup activity catalog\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --version\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --config server.yaml --validate\n", os.Args[0])
	}

	flag.Parse()

	path := *configPath
	if path == "" && *configPathShort != "" {
		path = *configPathShort
	}

	version := *showVersion || *versionShort

	return Args{
		ConfigPath:  path,
		ShowVersion: version,
		Validate:    *validate,
	}
}
