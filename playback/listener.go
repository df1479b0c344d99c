package playback

// Listener receives machine notifications. Callbacks run on the machine
// goroutine and must not block. They may call the methods that only post
// work (SelectVideo, SetDesiredPaused, Toggle, Reload, SetMuted,
// EnterBackground, EnterForeground, Subscribe) but not Status or Close,
// which wait for the machine goroutine. Nil callbacks are skipped.
type Listener struct {
	// OnPlayStateChange fires when the confirmed play state changes.
	OnPlayStateChange func(playing bool)
	OnTimeUpdate      func(current, duration float64)
	OnVideoEnd        func(videoID string)
	OnError           func(err error)
	OnPhaseChange     func(videoID string, phase Phase)
	// OnUnconfirmed fires under strict confirmation when a command timed
	// out and the player may or may not be playing.
	OnUnconfirmed func(playing bool)
}

type subscription struct {
	Listener
	id int
}

// Subscribe registers l and returns a function that removes it.
func (m *Machine) Subscribe(l Listener) (cancel func()) {
	id := make(chan int, 1)
	m.post(func() {
		m.nextSub++
		m.listeners = append(m.listeners, subscription{Listener: l, id: m.nextSub})
		id <- m.nextSub
	})

	return func() {
		m.post(func() {
			var subID int
			select {
			case subID = <-id:
			default:
				return
			}
			for i, sub := range m.listeners {
				if sub.id == subID {
					m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
					return
				}
			}
		})
	}
}
