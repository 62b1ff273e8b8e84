package dump

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ctps/projis-dump/internal/project"
)

func TestDefaultFileName(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{
			name: "two digit month and day",
			now:  time.Date(2009, time.November, 25, 10, 30, 0, 0, time.UTC),
			want: "./projis_dump_11_25_2009.csv",
		},
		{
			name: "single digit month and day are not padded",
			now:  time.Date(2010, time.January, 5, 0, 0, 0, 0, time.UTC),
			want: "./projis_dump_1_5_2010.csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultFileName(tt.now); got != tt.want {
				t.Errorf("DefaultFileName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteRoundTrip(t *testing.T) {
	projects := []*project.Project{
		{ProjNum: "000101", ProjDesc: "Route 9"},
		{ProjNum: "000102", ProjDesc: "Bridge Repair"},
		{
			ProjNum:  "000103",
			ProjDesc: `Reconstruction of "the circle", phase 2`,
			Towns:    "Boston & Cambridge",
		},
	}

	var buf bytes.Buffer
	if err := Write(&buf, projects); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("re-parsing output failed: %v", err)
	}

	if len(rows) != len(projects)+1 {
		t.Fatalf("expected header plus %d rows, got %d total", len(projects), len(rows))
	}

	header := rows[0]
	if len(header) != len(project.Columns) {
		t.Fatalf("header has %d columns, want %d", len(header), len(project.Columns))
	}
	for i, col := range project.Columns {
		if header[i] != col {
			t.Errorf("header[%d] = %q, want %q", i, header[i], col)
		}
	}

	// Data rows come back in insertion order with field values intact,
	// including the embedded comma and quotes in the third record.
	for i, p := range projects {
		row := rows[i+1]
		want := p.Row()
		if len(row) != len(want) {
			t.Fatalf("row %d has %d fields, want %d", i, len(row), len(want))
		}
		for j := range want {
			if row[j] != want[j] {
				t.Errorf("row %d %s = %q, want %q", i, project.Columns[j], row[j], want[j])
			}
		}
	}
}

func TestWriteNoRecords(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("re-parsing output failed: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected header row only, got %d rows", len(rows))
	}
}

func TestGenerateDefaultName(t *testing.T) {
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("getting working directory failed: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("changing working directory failed: %v", err)
	}
	t.Cleanup(func() { os.Chdir(oldWD) })

	gen := &Generator{
		Fetch: func() ([]*project.Project, error) {
			return []*project.Project{{ProjNum: "000101", ProjDesc: "Route 9"}}, nil
		},
		Now: func() time.Time {
			return time.Date(2009, time.November, 25, 9, 0, 0, 0, time.UTC)
		},
	}

	if err := gen.Generate(""); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	data, err := os.ReadFile("projis_dump_11_25_2009.csv")
	if err != nil {
		t.Fatalf("expected dated default file: %v", err)
	}

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("re-parsing output failed: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("expected header plus one row, got %d rows", len(rows))
	}
}

func TestGenerateExplicitName(t *testing.T) {
	out := filepath.Join(t.TempDir(), "projects.csv")

	gen := &Generator{
		Fetch: func() ([]*project.Project, error) {
			return nil, nil
		},
	}

	if err := gen.Generate(out); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("expected output at %s: %v", out, err)
	}
}

func TestGenerateFetchFailureWritesNothing(t *testing.T) {
	out := filepath.Join(t.TempDir(), "projects.csv")

	gen := &Generator{
		Fetch: func() ([]*project.Project, error) {
			return nil, errors.New("connection refused")
		},
	}

	if err := gen.Generate(out); err == nil {
		t.Fatal("expected fetch error to surface")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("no file should be written when fetching fails")
	}
}

func TestGenerateWriteFailure(t *testing.T) {
	out := filepath.Join(t.TempDir(), "missing", "nested", "projects.csv")

	gen := &Generator{
		Fetch: func() ([]*project.Project, error) {
			return nil, nil
		},
	}

	if err := gen.Generate(out); err == nil {
		t.Fatal("expected error for unwritable output path")
	}
}
