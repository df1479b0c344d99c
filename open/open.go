// Package open hands URLs to the system's default handler.
package open

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/vidtune-cli/vidtune/constant"
)

// Start opens url without waiting for the handler to exit.
func Start(url string) error {
	cmd, ok := command(runtime.GOOS, url)
	if !ok {
		return fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func command(goos, url string) (*exec.Cmd, bool) {
	switch goos {
	case constant.Windows:
		rundll := filepath.Join(os.Getenv("SYSTEMROOT"), "System32", "rundll32.exe")
		return exec.Command(rundll, "url.dll,FileProtocolHandler", url), true
	case constant.Darwin:
		return exec.Command("open", url), true
	case constant.Linux:
		return exec.Command("xdg-open", url), true
	case constant.Android:
		return exec.Command("termux-open", url), true
	default:
		return nil, false
	}
}
