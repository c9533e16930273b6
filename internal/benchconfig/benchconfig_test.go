package benchconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func writeScenarioFile(t *testing.T, dir, content string) string {
	t.Helper()

	path := filepath.Join(dir, "scenarios.jsonc")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write scenario file: %v", err)
	}

	return path
}

func TestLoad_ParsesJSONCWithCommentsAndTrailingCommas(t *testing.T) {
	t.Parallel()

	path := writeScenarioFile(t, t.TempDir(), `{
		// a sweep over increasing thread counts
		"scenarios": [
			{
				"name": "counter-4",
				"workload": "counter",
				"replicas": 1,
				"threads_per_replica": 4,
				"ops_per_thread": 1000,
			},
			{
				"name": "counter-100",
				"workload": "counter",
				"replicas": 1,
				"threads_per_replica": 100,
				"ops_per_thread": 1000,
			},
		],
	}`)

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(f.Scenarios) != 2 {
		t.Fatalf("got %d scenarios, want 2", len(f.Scenarios))
	}

	if f.Scenarios[0].Name != "counter-4" || f.Scenarios[1].ThreadsPerReplica != 100 {
		t.Fatalf("unexpected scenarios: %+v", f.Scenarios)
	}
}

func TestLoad_RejectsUnknownWorkload(t *testing.T) {
	t.Parallel()

	path := writeScenarioFile(t, t.TempDir(), `{
		"scenarios": [
			{"name": "bad", "workload": "tree", "replicas": 1, "threads_per_replica": 1, "ops_per_thread": 1}
		]
	}`)

	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for an unknown workload")
	}
}

func TestLoad_RejectsNonPositiveFields(t *testing.T) {
	t.Parallel()

	path := writeScenarioFile(t, t.TempDir(), `{
		"scenarios": [
			{"name": "bad", "workload": "counter", "replicas": 0, "threads_per_replica": 1, "ops_per_thread": 1}
		]
	}`)

	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for replicas: 0")
	}
}

func TestLoad_MissingFileIsAnError(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "does-not-exist.jsonc")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}
