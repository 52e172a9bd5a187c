package metrics

import "testing"

const psFixture = `  PID  %CPU    RSS COMM
    1   0.1  12345 launchd
  501  45.2 204800 Google Chrome
  733  12.0 512000 WindowServer
  900   0.0    800 mdworker
`

func TestParsePSOutput(t *testing.T) {
	processes := parsePSOutput(psFixture)

	if len(processes) != 4 {
		t.Fatalf("Expected 4 processes, got %d", len(processes))
	}

	chrome := processes[1]
	if chrome.PID != 501 {
		t.Errorf("Expected PID 501, got %d", chrome.PID)
	}
	if chrome.Name != "Google Chrome" {
		t.Errorf("Name with spaces should survive, got %q", chrome.Name)
	}
	if chrome.CPU != 45.2 {
		t.Errorf("Expected CPU 45.2, got %v", chrome.CPU)
	}
	if chrome.RSS != 204800*1024 {
		t.Errorf("RSS should convert KB to bytes, got %d", chrome.RSS)
	}
}

func TestParsePSOutputSkipsGarbage(t *testing.T) {
	fixture := `  PID  %CPU    RSS COMM
garbage line here that is long enough
  5   1.0  100 ok
`
	processes := parsePSOutput(fixture)
	if len(processes) != 1 {
		t.Fatalf("Expected 1 process, got %d", len(processes))
	}
	if processes[0].Name != "ok" {
		t.Errorf("Expected name ok, got %q", processes[0].Name)
	}
}

func TestTopCPUProcesses(t *testing.T) {
	processes := parsePSOutput(psFixture)
	top := TopCPUProcesses(processes, 2)

	if len(top) != 2 {
		t.Fatalf("Expected 2 processes, got %d", len(top))
	}
	if top[0].Name != "Google Chrome" || top[1].Name != "WindowServer" {
		t.Errorf("Wrong CPU ordering: %q, %q", top[0].Name, top[1].Name)
	}
	// Input order must not change.
	if processes[0].Name != "launchd" {
		t.Error("TopCPUProcesses should not mutate its input")
	}
}

func TestTopRAMProcesses(t *testing.T) {
	processes := parsePSOutput(psFixture)
	top := TopRAMProcesses(processes, 3)

	if len(top) != 3 {
		t.Fatalf("Expected 3 processes, got %d", len(top))
	}
	if top[0].Name != "WindowServer" {
		t.Errorf("Expected WindowServer first, got %q", top[0].Name)
	}
}
