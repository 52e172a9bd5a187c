package smart

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"strings"
	"time"
)

const sudoersFile = "/etc/sudoers.d/macbar"

// FindBrew returns the Homebrew binary path on Apple Silicon, or ""
// when Homebrew is not installed.
func FindBrew() string {
	brew := "/opt/homebrew/bin/brew"
	if _, err := os.Stat(brew); err == nil {
		return brew
	}
	return ""
}

func escapeOsascript(cmd string) string {
	escaped := strings.ReplaceAll(cmd, `\`, `\\`)
	return strings.ReplaceAll(escaped, `"`, `\"`)
}

// runOsascript executes a shell command through osascript, optionally
// with the macOS administrator prompt.
func runOsascript(cmd string, admin bool, timeout time.Duration) (bool, string) {
	script := fmt.Sprintf(`do shell script "%s"`, escapeOsascript(cmd))
	if admin {
		script += " with administrator privileges"
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, "/usr/bin/osascript", "-e", script).CombinedOutput()
	return err == nil, strings.TrimSpace(string(out))
}

// EnsureHomebrew installs Homebrew under /opt/homebrew if missing. The
// install script refuses to run as root, so ownership is granted to
// the invoking user first.
func EnsureHomebrew() error {
	if FindBrew() != "" {
		return nil
	}
	u, err := user.Current()
	if err != nil {
		return fmt.Errorf("failed to resolve current user: %w", err)
	}
	script := fmt.Sprintf(
		`/bin/mkdir -p /opt/homebrew; /usr/sbin/chown -R %s:admin /opt/homebrew; `+
			`/usr/bin/su -l %s -c "NONINTERACTIVE=1 /bin/bash -c '\"$(curl -fsSL https://raw.githubusercontent.com/Homebrew/install/HEAD/install.sh)\"'"`,
		u.Username, u.Username)
	ok, out := runOsascript(script, true, 15*time.Minute)
	if !ok || FindBrew() == "" {
		return fmt.Errorf("homebrew install failed: %s", out)
	}
	return nil
}

// EnsureSmartmontools installs smartmontools via Homebrew if smartctl
// is missing.
func EnsureSmartmontools() error {
	if FindSmartctl() != "" {
		return nil
	}
	brew := FindBrew()
	if brew == "" {
		return fmt.Errorf("homebrew not found")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	cmd := exec.CommandContext(ctx, brew, "install", "smartmontools")
	cmd.Env = append(os.Environ(), "HOMEBREW_NO_AUTO_UPDATE=1")
	out, err := cmd.CombinedOutput()
	if FindSmartctl() != "" {
		return nil
	}
	if strings.Contains(strings.ToLower(string(out)), "already installed") {
		return nil
	}
	if err != nil {
		return fmt.Errorf("smartmontools install failed: %w", err)
	}
	return fmt.Errorf("smartmontools install failed: %s", strings.TrimSpace(string(out)))
}

// SetupPrivilegedAccess writes a sudoers drop-in granting passwordless
// powermetrics and smartctl to the current user. Requires the admin
// prompt once.
func SetupPrivilegedAccess() error {
	u, err := user.Current()
	if err != nil {
		return fmt.Errorf("failed to resolve current user: %w", err)
	}
	smartctlPath := FindSmartctl()
	if smartctlPath == "" {
		return ErrSmartctlNotFound
	}
	sudoersLine := fmt.Sprintf("%s ALL=(root) NOPASSWD: /usr/bin/powermetrics, %s", u.Username, smartctlPath)
	cmd := fmt.Sprintf("mkdir -p /etc/sudoers.d; echo '%s' > %s; chmod 440 %s", sudoersLine, sudoersFile, sudoersFile)
	ok, out := runOsascript(cmd, true, 30*time.Second)
	if !ok {
		return fmt.Errorf("permission setup failed: %s", out)
	}
	return nil
}

// CanRunSmartctl reports whether passwordless smartctl access works
// against the root disk.
func CanRunSmartctl() bool {
	smartctlPath := FindSmartctl()
	if smartctlPath == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, "sudo", "-n", smartctlPath, "-a", "-j", "-d", "nvme", RootDiskDevice())
	out, err := cmd.Output()
	return err == nil || len(out) > 0
}

// Setup walks the full privileged-access bootstrap: Homebrew,
// smartmontools, then the sudoers drop-in.
func Setup() error {
	if err := EnsureHomebrew(); err != nil {
		return err
	}
	if err := EnsureSmartmontools(); err != nil {
		return err
	}
	return SetupPrivilegedAccess()
}
