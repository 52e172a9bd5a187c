package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"howett.net/plist"
)

const LaunchAgentLabel = "com.context-labs.macbar"

type launchAgent struct {
	Label            string   `plist:"Label"`
	ProgramArguments []string `plist:"ProgramArguments"`
	RunAtLoad        bool     `plist:"RunAtLoad"`
	KeepAlive        bool     `plist:"KeepAlive"`
}

func launchAgentPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, "Library", "LaunchAgents", LaunchAgentLabel+".plist"), nil
}

// agentArguments builds the login agent's command line. launchd gives
// the agent no TTY, so it runs headless; when a Prometheus port is
// configured the agent serves the exporter instead of only logging.
func agentArguments(execPath, prometheusPort string) []string {
	args := []string{execPath, "--headless"}
	if prometheusPort != "" {
		args = append(args, "--prometheus", prometheusPort)
	}
	return args
}

// SetStartAtLogin installs or removes the launchd agent that starts macbar in
// headless mode at login. launchctl failures are non-fatal; the plist on disk
// is what matters across reboots.
func SetStartAtLogin(enabled bool) error {
	agentPath, err := launchAgentPath()
	if err != nil {
		return err
	}
	if !enabled {
		if _, err := os.Stat(agentPath); err == nil {
			exec.Command("/bin/launchctl", "unload", "-w", agentPath).Run()
			if err := os.Remove(agentPath); err != nil {
				return fmt.Errorf("failed to remove launch agent: %w", err)
			}
		}
		return nil
	}

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to resolve executable path: %w", err)
	}
	agent := launchAgent{
		Label:            LaunchAgentLabel,
		ProgramArguments: agentArguments(execPath, Load().PrometheusPort),
		RunAtLoad:        true,
		KeepAlive:        false,
	}
	data, err := plist.MarshalIndent(agent, plist.XMLFormat, "  ")
	if err != nil {
		return fmt.Errorf("failed to encode launch agent: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(agentPath), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(agentPath, data, 0644); err != nil {
		return err
	}
	exec.Command("/bin/launchctl", "load", "-w", agentPath).Run()
	return nil
}
