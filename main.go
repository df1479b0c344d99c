// Package main is the entry point of vidtune.
package main

import (
	"github.com/samber/lo"
	"github.com/vidtune-cli/vidtune/cmd"
	"github.com/vidtune-cli/vidtune/config"
	"github.com/vidtune-cli/vidtune/internal/cache"
	"github.com/vidtune-cli/vidtune/log"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cache.CollectGarbage()

	cmd.Execute()
}
