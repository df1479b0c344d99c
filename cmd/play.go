package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vidtune-cli/vidtune/auth"
	"github.com/vidtune-cli/vidtune/internal/cache"
	"github.com/vidtune-cli/vidtune/key"
	"github.com/vidtune-cli/vidtune/kv"
	"github.com/vidtune-cli/vidtune/lifecycle"
	"github.com/vidtune-cli/vidtune/log"
	"github.com/vidtune-cli/vidtune/metrics"
	"github.com/vidtune-cli/vidtune/playback"
	"github.com/vidtune-cli/vidtune/player"
	"github.com/vidtune-cli/vidtune/position"
	"github.com/vidtune-cli/vidtune/tui"
	"github.com/vidtune-cli/vidtune/util"
	"github.com/vidtune-cli/vidtune/video"
	"github.com/vidtune-cli/vidtune/where"
	"golang.org/x/sync/errgroup"
)

// suspendSettle is how long a pause gets to reach the player before the
// process is stopped on ctrl+z.
const suspendSettle = 300 * time.Millisecond

func registerPlayFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("headless", false, "Play without the terminal UI")
	cmd.Flags().Bool("auto-next", true, "Start the next video when one ends")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")

	cmd.Flags().Bool("strict", false, "Report unconfirmed play and pause commands instead of assuming they worked")
	lo.Must0(viper.BindPFlag(key.PlaybackStrictConfirmation, cmd.Flags().Lookup("strict")))

	cmd.Flags().Bool("background-audio", false, "Keep playing while suspended")
	lo.Must0(viper.BindPFlag(key.PlatformBackgroundAudio, cmd.Flags().Lookup("background-audio")))

	cmd.Flags().StringP("backend", "b", "", "Positions backend (file, sqlite)")
	lo.Must0(cmd.RegisterFlagCompletionFunc("backend", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return kv.Backends(), cobra.ShellCompDirectiveNoFileComp
	}))
	lo.Must0(viper.BindPFlag(key.PositionsBackend, cmd.Flags().Lookup("backend")))
}

// parseVideos turns arguments into normalized videos. Invalid ids are
// rejected up front.
func parseVideos(args []string) ([]video.Video, error) {
	videos := make([]video.Video, 0, len(args))
	for _, arg := range args {
		v := video.Parse(arg)
		id, ok := video.NormalizeID(v.ID)
		if !ok {
			return nil, fmt.Errorf("%q is not a video id or url", arg)
		}
		v.ID = id
		videos = append(videos, v)
	}
	return videos, nil
}

func runPlay(cmd *cobra.Command, args []string) {
	videos, err := parseVideos(args)
	handleErr(err)

	CheckDependencies()
	handleErr(play(cmd, videos))
}

// play owns every resource of a run. It returns instead of exiting so the
// final position flush always happens.
func play(cmd *cobra.Command, videos []video.Video) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for i, v := range videos {
		videos[i] = cache.Resolve(ctx, v)
	}

	store, err := kv.Open(viper.GetString(key.PositionsBackend))
	if err != nil {
		return err
	}
	defer util.Ignore(store.Close)

	opts := playback.OptionsFromConfig()

	metricsAddr := lo.Must(cmd.Flags().GetString("metrics-addr"))
	var registry *prometheus.Registry
	if metricsAddr != "" {
		registry = prometheus.NewRegistry()
		opts.Diagnostics = metrics.NewCollector(registry)
	}

	bridge := player.NewMPV(player.Config{
		Binary:           viper.GetString(key.PlayerBinary),
		BaseURL:          viper.GetString(key.PlayerBaseURL),
		Tokens:           auth.Provider{},
		CommandTimeout:   opts.CommandTimeout,
		TimeQueryTimeout: opts.TimeQueryTimeout,
		SocketDir:        where.Temp(),
	})
	defer util.Ignore(bridge.Close)

	machine := playback.New(bridge, position.New(store), opts)
	defer func() { _ = machine.Close() }()

	adapter := lifecycle.New(machine)
	autoNext := lo.Must(cmd.Flags().GetBool("auto-next"))
	headless := lo.Must(cmd.Flags().GetBool("headless")) || !util.IsTerminal()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if registry != nil {
		g.Go(func() error {
			return metrics.Serve(ctx, metricsAddr, registry)
		})
	}

	var sources []lifecycle.Source
	if viper.GetBool(key.LifecycleSleepSignal) {
		sources = append(sources, lifecycle.SleepSource{})
	}
	// the terminal UI handles ctrl+z itself
	if headless && viper.GetBool(key.LifecycleSuspendSignal) {
		sources = append(sources, lifecycle.SignalSource{Settle: suspendSettle})
	}
	g.Go(func() error {
		return adapter.Run(ctx, sources...)
	})

	g.Go(func() error {
		defer cancel()
		if headless {
			return playHeadless(ctx, machine, videos, autoNext)
		}
		return tui.Run(ctx, &tui.Options{
			Machine:   machine,
			Lifecycle: adapter,
			Videos:    videos,
			Muted:     viper.GetBool(key.PlayerMuted),
			Focus:     viper.GetBool(key.LifecycleFocus),
			AutoNext:  autoNext,
		})
	})

	err = g.Wait()
	rememberLast(machine)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("playback finished")
	return nil
}

// rememberLast caches the duration the player reported for the current video.
func rememberLast(machine *playback.Machine) {
	s := machine.Status().Session
	if s == nil || s.Duration <= 0 {
		return
	}
	v := s.Video
	v.ID = s.VideoID
	v.DurationSeconds = s.Duration
	cache.Remember(v)
}
