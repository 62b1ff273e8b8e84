package cli

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ctps/projis-dump/internal/dump"
	"github.com/ctps/projis-dump/internal/logger"
	"github.com/ctps/projis-dump/internal/project"
	"github.com/ctps/projis-dump/internal/scraper"
)

const (
	ExitSuccess = 0
	ExitError   = 1

	// DefaultInputFile is the saved listing page read when neither --input
	// nor --url is given.
	DefaultInputFile = "./boston_mpo.html"
)

var (
	flagInput       string
	flagOutput      string
	flagURL         string
	flagSkipDetails bool
	flagVerbose     bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projis-dump",
		Short: "Dump the MassDOT PROJIS project database to a CSV file",
		Long: `A CLI tool that extracts project records from the HTML of the MassDOT
PROJIS project listing and writes one CSV row per project. The listing is
read from a saved HTML file or fetched from the PROJIS site; each project's
detail page is fetched to fill in the remaining columns unless
--skip-details is given.`,
		RunE: runDump,
	}

	// Define flags
	cmd.Flags().StringVar(&flagInput, "input", "", "Saved listing HTML file (default "+DefaultInputFile+")")
	cmd.Flags().StringVar(&flagOutput, "output", "", "Output CSV file (default ./projis_dump_<month>_<day>_<year>.csv)")
	cmd.Flags().StringVar(&flagURL, "url", "", "Fetch the listing from this URL instead of a local file, e.g. "+scraper.DefaultListingURL)
	cmd.Flags().BoolVar(&flagSkipDetails, "skip-details", false, "Skip fetching each project's detail page")
	cmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")

	return cmd
}

// runDump is the main command logic
func runDump(cmd *cobra.Command, args []string) error {
	if flagInput != "" && flagURL != "" {
		return fmt.Errorf("--input and --url are mutually exclusive")
	}

	if flagVerbose {
		logger.SetDefault(logger.New(logger.LevelDebug, os.Stderr))
	}

	sc := scraper.New()

	// Resolve the output name up front so it can be reported; Generate
	// applies the same default for an empty name.
	outputName := flagOutput
	if outputName == "" {
		outputName = dump.DefaultFileName(time.Now())
	}

	gen := &dump.Generator{
		Fetch: func() ([]*project.Project, error) {
			return fetchProjects(sc)
		},
	}
	if err := gen.Generate(outputName); err != nil {
		return err
	}

	logger.Info("dump written", logger.Fields{"file": outputName})
	return nil
}

// fetchProjects obtains the listing markup, extracts the project records,
// and fills in detail-page columns unless --skip-details is set.
func fetchProjects(sc *scraper.Scraper) ([]*project.Project, error) {
	markup, err := readListing(sc)
	if err != nil {
		return nil, err
	}

	projects, err := scraper.ParseListing(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parsing listing: %w", err)
	}

	logger.Info("listing parsed", logger.Fields{"projects": len(projects)})

	if !flagSkipDetails {
		failed := sc.FetchDetails(projects)
		logger.Info("details processed", logger.Fields{
			"projects": len(projects),
			"failed":   failed,
		})
	}

	return projects, nil
}

// readListing returns the raw listing markup, from --url when given,
// otherwise from the input file.
func readListing(sc *scraper.Scraper) ([]byte, error) {
	if flagURL != "" {
		logger.Debug("fetching listing", logger.Fields{"url": flagURL})
		data, err := sc.FetchListing(flagURL)
		if err != nil {
			return nil, fmt.Errorf("fetching listing: %w", err)
		}
		return data, nil
	}

	path := flagInput
	if path == "" {
		path = DefaultInputFile
	}
	logger.Debug("reading listing", logger.Fields{"file": path})
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading listing file: %w", err)
	}
	return data, nil
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
