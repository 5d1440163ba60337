package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const fixtureCSV = `Town ,refArea,Percentage of Women,Percentage of Men,Percentage of Eldelry - 65 or more years,Percentage of Youth - 15-24 years,Average family size - 1 to 3 members,Average family size - 4 to 6 members,Average family size - 7 or more members
Achrafieh,http://dbpedia.org/resource/Beirut,52,48,18,12,5,3,1
Baabda,http://dbpedia.org/resource/Mount_Lebanon,50,50,12,0,2,9,1
Jounieh,http://dbpedia.org/resource/Mount_Lebanon,49,51,10,15,5,9,2
Tyre,http://dbpedia.org/resource/South_Governorate,120,-4,abc,130,1,4,4
`

// resetFlags clears values and Changed state left over from a previous run.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd is a helper to execute the root command with args. It returns stdout.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func execCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	cfg = nil
	logger = zap.NewNop()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), err
}

// isolate points HOME at a temp dir and writes the fixture dataset there.
func isolate(t *testing.T) (home, data string) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("HOME", home)
	data = filepath.Join(home, "demograph.csv")
	if err := os.WriteFile(data, []byte(fixtureCSV), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return home, data
}

func TestCLI_PrepareJSON(t *testing.T) {
	home, data := isolate(t)
	out := filepath.Join(home, "out", "prepared.json")
	msg := runCmd(t, "prepare", data, "-o", out)
	if !strings.Contains(msg, "✓ Wrote 3 prepared rows") {
		t.Fatalf("unexpected output: %q", msg)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(b, &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	tyre := rows[2]
	if tyre["region"] != "South Governorate" || tyre["pct_women"] != 100.0 || tyre["pct_elderly_65plus"] != nil {
		t.Fatalf("unexpected Tyre row: %v", tyre)
	}
	if tyre["dominant_family_size"] != "4–6" {
		t.Fatalf("tie should resolve to 4–6, got %v", tyre["dominant_family_size"])
	}
}

func TestCLI_PrepareCSVToStdout(t *testing.T) {
	_, data := isolate(t)
	out := runCmd(t, "prepare", data)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "Town,refArea,") || !strings.HasSuffix(lines[0], "Region,Gender gap (W - M),Abs gender gap,Dominant size") {
		t.Fatalf("unexpected header: %q", lines[0])
	}
}

func TestCLI_PrepareMissingColumnFails(t *testing.T) {
	home, _ := isolate(t)
	bad := filepath.Join(home, "bad.csv")
	if err := os.WriteFile(bad, []byte("Town,refArea\nA,B\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := execCmd(t, "prepare", bad)
	if err == nil || !strings.Contains(err.Error(), "missing required column") {
		t.Fatalf("expected schema error, got %v", err)
	}
}

func TestCLI_FilterFormatsAndEmptyState(t *testing.T) {
	_, data := isolate(t)

	out := runCmd(t, "filter", data, "--region", "Mount Lebanon", "--format", "csv")
	if !strings.Contains(out, "Jounieh") || strings.Contains(out, "Achrafieh") {
		t.Fatalf("unexpected filter output:\n%s", out)
	}

	out = runCmd(t, "filter", data, "--column", "youth", "--min", "10", "--max", "20", "--format", "json")
	var rows []map[string]any
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows in youth range, got %d", len(rows))
	}

	out = runCmd(t, "filter", data, "--no-region")
	if !strings.Contains(out, "No data available for this selection.") {
		t.Fatalf("expected empty-state message, got %q", out)
	}

	out = runCmd(t, "filter", data, "--size", "1-3")
	if !strings.Contains(out, "Achrafieh") || !strings.Contains(out, "Dominant size") {
		t.Fatalf("expected table output, got:\n%s", out)
	}

	if _, err := execCmd(t, "filter", data, "--size", "12+"); err == nil {
		t.Fatalf("expected invalid family size error")
	}
}

func TestCLI_ViewsLifecycle(t *testing.T) {
	_, data := isolate(t)

	msg := runCmd(t, "views", "save", "beirut", "--region", "Beirut", "-d", "capital only")
	if !strings.Contains(msg, "✓ Saved view 'beirut'") {
		t.Fatalf("unexpected save output: %q", msg)
	}
	out := runCmd(t, "views", "list")
	if !strings.Contains(out, "- beirut: regions=Beirut (capital only)") {
		t.Fatalf("unexpected list output: %q", out)
	}
	out = runCmd(t, "views", "show", "beirut")
	if !strings.Contains(out, "name: beirut") || !strings.Contains(out, "- Beirut") {
		t.Fatalf("unexpected show output:\n%s", out)
	}

	out = runCmd(t, "filter", data, "--view", "beirut", "--format", "csv")
	if !strings.Contains(out, "Achrafieh") || strings.Contains(out, "Jounieh") {
		t.Fatalf("view not applied:\n%s", out)
	}

	runCmd(t, "views", "delete", "beirut")
	if _, err := execCmd(t, "views", "show", "beirut"); err == nil {
		t.Fatalf("expected not found after delete")
	}
}

func TestCLI_AnalyzeBatchWritesNumberedSummaries(t *testing.T) {
	home, _ := isolate(t)
	for _, d := range []string{"d1", "d2"} {
		dir := filepath.Join(home, d)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, "towns.csv"), []byte(fixtureCSV), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	outDir := filepath.Join(home, "summaries")
	runCmd(t, "analyze", filepath.Join(home, "d*", "towns.csv"), "--out-dir", outDir, "--quiet")

	for _, name := range []string{"towns.summary.md", "towns__2.summary.md"} {
		b, err := os.ReadFile(filepath.Join(outDir, name))
		if err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
		if !strings.Contains(string(b), "[DATASET SUMMARY]") {
			t.Fatalf("%s lacks summary section", name)
		}
	}
}

func TestCLI_ExportSQLite(t *testing.T) {
	home, data := isolate(t)
	db := filepath.Join(home, "out.db")
	msg := runCmd(t, "export", data, "--sqlite", db)
	if !strings.Contains(msg, "✓ Exported 3 rows") {
		t.Fatalf("unexpected output: %q", msg)
	}
	st, err := os.Stat(db)
	if err != nil || st.Size() == 0 {
		t.Fatalf("expected non-empty database: %v", err)
	}
	if _, err := execCmd(t, "export", data); err == nil {
		t.Fatalf("expected error without --sqlite")
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	home, _ := isolate(t)
	runCmd(t, "config", "set", "listen_addr", ":9999")
	runCmd(t, "config", "set", "default_value_column", "Percentage of Eldelry - 65 or more years")
	if _, err := os.Stat(filepath.Join(home, ".demograph", "config.yaml")); err != nil {
		t.Fatalf("config not saved: %v", err)
	}
	out := runCmd(t, "config", "show")
	if !strings.Contains(out, "listen_addr: :9999") || !strings.Contains(out, "default_value_column: elderly") {
		t.Fatalf("unexpected config output:\n%s", out)
	}
	if _, err := execCmd(t, "config", "set", "watch", "maybe"); err == nil {
		t.Fatalf("expected invalid bool error")
	}
}
