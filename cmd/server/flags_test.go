package main

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	oldStdout := os.Stdout
	reader, writer, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() failed: %v", err)
	}
	os.Stdout = writer
	defer func() {
		os.Stdout = oldStdout
	}()

	fn()

	if err := writer.Close(); err != nil {
		t.Fatalf("writer.Close() failed: %v", err)
	}

	var buffer bytes.Buffer
	if _, err := io.Copy(&buffer, reader); err != nil {
		t.Fatalf("io.Copy() failed: %v", err)
	}
	if err := reader.Close(); err != nil {
		t.Fatalf("reader.Close() failed: %v", err)
	}

	return buffer.String()
}

func TestPrintDiagnoseShowsEffectiveLogDir(t *testing.T) {
	output := captureStdout(t, printDiagnose)
	if !strings.Contains(output, "path.effective_log_dir:") {
		t.Fatalf("printDiagnose() output missing effective log dir: %s", output)
	}
}

func TestPrintDiagnoseListsMediaDependencies(t *testing.T) {
	output := captureStdout(t, printDiagnose)
	if !strings.Contains(output, "dependency.ffmpeg:") {
		t.Fatalf("printDiagnose() output missing ffmpeg line: %s", output)
	}
	if !strings.Contains(output, "dependency.ffprobe:") {
		t.Fatalf("printDiagnose() output missing ffprobe line: %s", output)
	}
}

func TestPrintVersionFormat(t *testing.T) {
	output := captureStdout(t, printVersion)
	for _, field := range []string{"version:", "commit:", "date:"} {
		if !strings.Contains(output, field) {
			t.Fatalf("printVersion() output missing %q: %s", field, output)
		}
	}
}

func TestRunDependencyInstallPrintsInventoryReport(t *testing.T) {
	output := captureStdout(t, func() { runDependencyInstall() })
	if !strings.Contains(output, "Dependency status") {
		t.Fatalf("runDependencyInstall() output missing inventory report: %s", output)
	}
	if !strings.Contains(output, "ffmpeg") {
		t.Fatalf("runDependencyInstall() output missing ffmpeg entry: %s", output)
	}
}
