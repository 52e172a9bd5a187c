package app

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"
)

// detectLightMode figures out whether the terminal has a light
// background, so the theme can avoid unreadable color pairs. The OSC 11
// query is authoritative when the terminal answers it; COLORFGBG and
// the macOS appearance setting are progressively weaker guesses.
func detectLightMode() bool {
	if isLight, err := queryTerminalBackground(); err == nil {
		return isLight
	}
	if isLight, err := lightFromColorFGBG(); err == nil {
		return isLight
	}
	if isLight, err := lightFromSystemAppearance(); err == nil {
		return isLight
	}
	return false
}

// queryTerminalBackground asks the terminal for its background color
// via OSC 11 and judges lightness from the reply's luminance.
func queryTerminalBackground() (bool, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return false, fmt.Errorf("stdin is not a terminal")
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return false, err
	}
	defer term.Restore(fd, oldState)

	if _, err := os.Stdout.Write([]byte("\033]11;?\007")); err != nil {
		return false, err
	}

	responseChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		reader := bufio.NewReader(os.Stdin)
		var response []byte
		for {
			b, err := reader.ReadByte()
			if err != nil {
				errChan <- err
				return
			}
			response = append(response, b)
			// Replies terminate with BEL or ST.
			if b == 0x07 {
				break
			}
			if len(response) >= 2 && response[len(response)-2] == 0x1b && response[len(response)-1] == 0x5c {
				break
			}
			if len(response) > 100 {
				break
			}
		}
		responseChan <- string(response)
	}()

	select {
	case resp := <-responseChan:
		return backgroundIsLight(resp)
	case <-errChan:
		return false, fmt.Errorf("error reading response")
	case <-time.After(100 * time.Millisecond):
		return false, fmt.Errorf("timeout waiting for OSC 11 response")
	}
}

// backgroundIsLight parses an OSC 11 "rgb:RRRR/GGGG/BBBB" reply and
// compares perceived luminance against the midpoint.
func backgroundIsLight(resp string) (bool, error) {
	start := strings.Index(resp, "rgb:")
	if start == -1 {
		return false, fmt.Errorf("invalid response format")
	}

	parts := strings.Split(resp[start+4:], "/")
	if len(parts) < 3 {
		return false, fmt.Errorf("invalid color format")
	}

	channels := make([]float64, 3)
	for i := 0; i < 3; i++ {
		value, err := strconv.ParseUint(hexPrefix(parts[i]), 16, 16)
		if err != nil {
			return false, fmt.Errorf("error parsing hex")
		}
		channels[i] = float64(value)
	}

	luminance := 0.299*channels[0] + 0.587*channels[1] + 0.114*channels[2]
	return luminance > 65535.0*0.5, nil
}

// hexPrefix keeps the leading hex digits and drops whatever trails
// them (BEL, ST, or garbage).
func hexPrefix(s string) string {
	for i, c := range s {
		isHex := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
		if !isHex {
			return s[:i]
		}
	}
	return s
}

func lightFromColorFGBG() (bool, error) {
	colorFGBG := os.Getenv("COLORFGBG")
	if colorFGBG == "" {
		return false, fmt.Errorf("COLORFGBG not set")
	}

	parts := strings.Split(colorFGBG, ";")
	if len(parts) != 2 {
		return false, fmt.Errorf("invalid COLORFGBG format")
	}

	bg, err := strconv.Atoi(parts[1])
	if err != nil {
		return false, err
	}

	switch bg {
	case 7, 11, 14, 15, 231, 255:
		return true, nil
	}
	return false, nil
}

// lightFromSystemAppearance falls back to the macOS global appearance.
// The key is absent entirely in light mode, so a read error means
// light.
func lightFromSystemAppearance() (bool, error) {
	out, err := exec.Command("defaults", "read", "-g", "AppleInterfaceStyle").Output()
	if err != nil {
		return true, nil
	}
	if strings.TrimSpace(string(out)) == "Dark" {
		return false, nil
	}
	return true, nil
}
