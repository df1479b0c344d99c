package cmd

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/vidtune-cli/vidtune/color"
	"github.com/vidtune-cli/vidtune/icon"
	"github.com/vidtune-cli/vidtune/playback"
	"github.com/vidtune-cli/vidtune/style"
	"github.com/vidtune-cli/vidtune/video"
)

// playHeadless plays videos in order without a UI and prints play state
// changes. It returns when the last video ends or ctx is done.
func playHeadless(ctx context.Context, machine *playback.Machine, videos []video.Video, autoNext bool) error {
	ended := make(chan struct{}, 1)
	failed := make(chan error, 1)

	var current atomic.Pointer[video.Video]
	cancel := machine.Subscribe(playback.Listener{
		OnPlayStateChange: func(playing bool) {
			title := current.Load().String()
			if playing {
				fmt.Printf("%s %s\n", style.Fg(color.Green)("▶"), title)
			} else {
				fmt.Printf("%s %s\n", style.Faint("⏸"), style.Faint(title))
			}
		},
		OnUnconfirmed: func(bool) {
			fmt.Printf("%s %s\n", style.Fg(color.Yellow)("?"), style.Faint("the player did not confirm the last command"))
		},
		OnVideoEnd: func(string) {
			select {
			case ended <- struct{}{}:
			default:
			}
		},
		OnError: func(err error) {
			select {
			case failed <- err:
			default:
			}
		},
	})
	defer cancel()

	index := 0
	start := func() {
		v := videos[index]
		current.Store(&v)
		machine.SelectVideo(v)
	}
	start()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ended:
			if !autoNext || index == len(videos)-1 {
				return nil
			}
			index++
			start()
		case err := <-failed:
			fmt.Printf("%s %s\n", style.Fg(color.Red)(icon.Get(icon.Fail)), err)
			if autoNext && index < len(videos)-1 {
				index++
				start()
				continue
			}
			return err
		}
	}
}
