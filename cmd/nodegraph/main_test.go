package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

const pricing = `
name: pricing
nodes:
  - id: price
    kind: Constant
    args: [100]
  - id: qty
    kind: Constant
    args: [3]
  - id: subtotal
    kind: BinaryOp
    args: ["$price", "*", "$qty"]
  - id: total
    kind: BinaryOp
    args: ["$subtotal", "+", 7]
outputs: [total]
`

func writeDef(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	runFlags.sets = nil
	runFlags.tree = false
	runFlags.levels = false
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRun_PrintsOutputs(t *testing.T) {
	out, err := execute(t, "run", writeDef(t, "pricing.yaml", pricing))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var results map[string]any
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("expected JSON output, got %q", out)
	}
	if results["total"] != float64(307) {
		t.Fatalf("expected total 307, got %v", results["total"])
	}
}

func TestRun_Set(t *testing.T) {
	out, err := execute(t, "run", writeDef(t, "pricing.yaml", pricing), "--set", "qty.value=4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `"total": 407`) {
		t.Fatalf("expected updated total, got %q", out)
	}
}

func TestRun_Levels(t *testing.T) {
	out, err := execute(t, "run", writeDef(t, "pricing.yaml", pricing), "--levels")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "0: price qty\n1: subtotal\n2: total\n"
	if out != want {
		t.Fatalf("expected %q, got %q", want, out)
	}
}

func TestRun_MissingFile(t *testing.T) {
	if _, err := execute(t, "run", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing definition")
	}
}

func TestParseSets(t *testing.T) {
	got, err := parseSets([]string{"a.x=1", "a.y=[1, 2]", "b.z=$a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["a"]["x"] != 1 {
		t.Fatalf("expected 1, got %v", got["a"]["x"])
	}
	if ys, ok := got["a"]["y"].([]any); !ok || len(ys) != 2 {
		t.Fatalf("expected two-item list, got %v", got["a"]["y"])
	}
	if got["b"]["z"] != "$a" {
		t.Fatalf("expected reference string, got %v", got["b"]["z"])
	}

	for _, bad := range []string{"novalue", "noid=1", ".x=1", "a.=1"} {
		if _, err := parseSets([]string{bad}); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestKinds(t *testing.T) {
	out, err := execute(t, "kinds")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range []string{"Constant", "BinaryOp", "Conditional", "Batch"} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected %s in kinds output, got %q", name, out)
		}
	}
}
