package notifier

import (
	"io"
	"sync"
)

// Bell is a Chime that rings the terminal bell. Rewind and SetVolume have no
// audible effect on a terminal but are tracked so callers behave the same as
// with a real player.
type Bell struct {
	mu       sync.Mutex
	w        io.Writer
	position int
	volume   float64
	plays    int
}

func NewBell(w io.Writer) *Bell {
	return &Bell{w: w, volume: 1}
}

func (b *Bell) Rewind() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.position = 0
	return nil
}

func (b *Bell) SetVolume(volume float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.volume = volume
	return nil
}

func (b *Bell) Play() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.volume > 0 {
		if _, err := b.w.Write([]byte{'\a'}); err != nil {
			return err
		}
	}
	b.plays++
	b.position = 1
	return nil
}

// Plays returns how many times the bell has been played.
func (b *Bell) Plays() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.plays
}
