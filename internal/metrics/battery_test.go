package metrics

import "testing"

func TestParsePmsetBatt(t *testing.T) {
	tests := []struct {
		name        string
		output      string
		wantPercent float64
		wantState   string
	}{
		{
			"Discharging",
			"Now drawing from 'Battery Power'\n -InternalBattery-0 (id=123)\t87%; discharging; 4:32 remaining present: true\n",
			87,
			"On battery",
		},
		{
			"Charging",
			"Now drawing from 'AC Power'\n -InternalBattery-0 (id=123)\t64%; charging; 1:10 remaining present: true\n",
			64,
			"Charging",
		},
		{
			"Charged",
			"Now drawing from 'AC Power'\n -InternalBattery-0 (id=123)\t100%; charged; 0:00 remaining present: true\n",
			100,
			"Charged",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := parsePmsetBatt(tt.output)
			if status.Percent == nil || *status.Percent != tt.wantPercent {
				t.Errorf("Expected percent %v, got %v", tt.wantPercent, status.Percent)
			}
			if status.State != tt.wantState {
				t.Errorf("Expected state %q, got %q", tt.wantState, status.State)
			}
		})
	}
}

func TestParsePmsetBattDesktop(t *testing.T) {
	status := parsePmsetBatt("Now drawing from 'AC Power'\n")
	if status.Percent != nil {
		t.Errorf("Desktop output should have no percent, got %v", status.Percent)
	}
	if status.State != "Charging" {
		t.Errorf("AC power should read as Charging, got %q", status.State)
	}
}
