package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runCLI executes the root command and returns what it wrote. Call
// isolate first.
func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()

	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// isolate points the config and data directories at a per-test location
// and clears provider credentials.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	for _, key := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		t.Setenv(key, "")
	}
}

// resetFlags restores flag variables between Execute calls; cobra only
// writes a variable when its flag is passed.
func resetFlags() {
	configFile, debugFlag, colorMode, noColor, traceFlag, showStats = "", false, "", false, false, false
	renderChunks, renderReference = chunkFlags{Rate: -1}, false
	askProvider, askSystem, askMaxTokens, askRecord, askRaw = "", "", 0, false, false
	replayChunks, replayRechunk, replayTrace = chunkFlags{Rate: -1}, false, false
	inspectChunks, inspectFormat, inspectCoalesce = chunkFlags{Rate: -1}, "text", false
	checkTrials, checkMaxChunk, checkSeed, checkOracle = 100, 16, 1, false
	languagesResolve = false
	capturesLimit, capturesFragments, capturesFormat = 20, false, "text"
	traceElementsOnly, traceTimestamps = false, false
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}
