package config

import (
	"reflect"
	"testing"
)

func TestAgentArguments(t *testing.T) {
	got := agentArguments("/usr/local/bin/macbar", "")
	want := []string{"/usr/local/bin/macbar", "--headless"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestAgentArgumentsWithPrometheusPort(t *testing.T) {
	got := agentArguments("/usr/local/bin/macbar", "9090")
	want := []string{"/usr/local/bin/macbar", "--headless", "--prometheus", "9090"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}
