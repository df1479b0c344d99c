package version

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/viper"
	"github.com/vidtune-cli/vidtune/color"
	"github.com/vidtune-cli/vidtune/constant"
	"github.com/vidtune-cli/vidtune/icon"
	"github.com/vidtune-cli/vidtune/key"
	"github.com/vidtune-cli/vidtune/log"
	"github.com/vidtune-cli/vidtune/style"
	"github.com/vidtune-cli/vidtune/util"
)

// Notify prints a notice to w when a newer release exists. It does nothing
// unless the release check is enabled, and stays silent on any failure.
func Notify(w io.Writer) {
	if !viper.GetBool(key.CliVersionCheck) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	erase := util.PrintErasable(fmt.Sprintf("%s Checking for a newer release...", icon.Get(icon.Progress)))
	latest, err := Latest(ctx)
	erase()
	if err != nil {
		log.Warnf("release check: %v", err)
		return
	}

	if comp, err := Compare(latest, constant.Version); err != nil || comp <= 0 {
		return
	}

	_, _ = fmt.Fprintf(w, `
%s %s %s
%s

`,
		style.Fg(color.Green)("▇▇▇"),
		style.Bold("vidtune "+latest+" is available"),
		style.Faint(fmt.Sprintf("(you are on %s)", constant.Version)),
		style.Faint("https://github.com/vidtune-cli/vidtune/releases/tag/v"+latest),
	)
}
