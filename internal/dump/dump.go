package dump

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ctps/projis-dump/internal/project"
)

// Generator produces one dump file per call to Generate. Fetch supplies the
// extracted records; how the markup was obtained (network, saved file) is
// the collaborator's business. Now is overridable for tests and defaults to
// time.Now.
type Generator struct {
	Fetch func() ([]*project.Project, error)
	Now   func() time.Time
}

// DefaultFileName returns the dated default output path,
// ./projis_dump_<month>_<day>_<year>.csv. Month and day are not zero-padded.
func DefaultFileName(now time.Time) string {
	return "./projis_dump_" + now.Format("1_2_2006") + ".csv"
}

// Generate resolves the output filename (empty means the dated default),
// fetches the records, and writes them as CSV. Fetch and write failures
// surface to the caller; a fetch or parse failure leaves no file behind.
func (g *Generator) Generate(outputFileName string) error {
	if outputFileName == "" {
		now := time.Now
		if g.Now != nil {
			now = g.Now
		}
		outputFileName = DefaultFileName(now())
	}

	projects, err := g.Fetch()
	if err != nil {
		return fmt.Errorf("fetching projects: %w", err)
	}

	f, err := os.Create(outputFileName)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := Write(f, projects); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}
	return nil
}

// Write emits the header row followed by one row per record, in input
// order. Field values with embedded commas, quotes, or newlines get
// standard CSV quoting.
func Write(w io.Writer, projects []*project.Project) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(project.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, p := range projects {
		if err := cw.Write(p.Row()); err != nil {
			return fmt.Errorf("writing record %s: %w", p.ProjNum, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}
	return nil
}
