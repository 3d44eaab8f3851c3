package util

import (
	"fmt"
	"os/exec"
	"runtime"
)

// MakeHyperlink wraps displayText in an OSC 8 terminal hyperlink so
// meeting and calendar links are clickable without showing the raw URL.
// BEL terminators for compatibility with the widest set of terminals.
func MakeHyperlink(url, displayText string) string {
	return fmt.Sprintf("\033]8;;%s\a%s\033]8;;\a", url, displayText)
}

// TruncateText truncates s to maxLen runes, appending "…" if truncated.
func TruncateText(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return "…"
	}
	return string(runes[:maxLen-1]) + "…"
}

// OpenBrowser opens a URL in the platform's default browser. Used to
// jump from a confirmed booking to its meet or calendar link.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform")
	}
	return cmd.Start()
}
