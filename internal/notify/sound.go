package notify

import (
	"bytes"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Audio output format.
const (
	SampleRate   = 24000
	ChannelCount = 1
)

// tone is one segment of a cue: a frequency held for a duration. A zero
// frequency is a rest.
type tone struct {
	freq     float64
	duration time.Duration
}

// cueTones maps each cue to its tone sequence.
var cueTones = map[Cue][]tone{
	CueStageChange: {
		{freq: 880, duration: 90 * time.Millisecond},
		{freq: 0, duration: 30 * time.Millisecond},
		{freq: 1175, duration: 120 * time.Millisecond},
	},
	CueWaiting: {
		{freq: 659, duration: 150 * time.Millisecond},
	},
	CueCountdownPip: {
		{freq: 988, duration: 60 * time.Millisecond},
	},
	CueComplete: {
		{freq: 784, duration: 100 * time.Millisecond},
		{freq: 988, duration: 100 * time.Millisecond},
		{freq: 1319, duration: 220 * time.Millisecond},
	},
}

// Player synthesizes cue tones and plays them through the system audio
// device via oto. Playback is fire-and-forget.
type Player struct {
	ctx    *oto.Context
	volume float64

	mu     sync.Mutex
	active []*oto.Player
}

// NewPlayer initializes the system audio context. Returns an error if the
// audio device is unavailable; callers fall back to a silent broadcaster.
func NewPlayer(volume float64) (*Player, error) {
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}

	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: ChannelCount,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}
	<-readyChan

	return &Player{ctx: ctx, volume: volume}, nil
}

// PlayCue starts the cue's tone sequence and returns immediately.
func (p *Player) PlayCue(cue Cue) error {
	tones, ok := cueTones[cue]
	if !ok {
		return fmt.Errorf("unknown cue %q", cue)
	}

	pcm := synthesize(tones, p.volume)
	player := p.ctx.NewPlayer(bytes.NewReader(pcm))

	p.mu.Lock()
	p.active = append(p.active, player)
	p.mu.Unlock()

	player.Play()
	go p.reap(player)
	return nil
}

// reap waits for playback to finish, then closes the player and drops it
// from the active list.
func (p *Player) reap(player *oto.Player) {
	for player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}
	_ = player.Close()

	p.mu.Lock()
	for i, active := range p.active {
		if active == player {
			p.active = append(p.active[:i], p.active[i+1:]...)
			break
		}
	}
	p.mu.Unlock()
}

// Close stops any in-flight cues.
func (p *Player) Close() error {
	p.mu.Lock()
	active := p.active
	p.active = nil
	p.mu.Unlock()

	for _, player := range active {
		player.Pause()
		_ = player.Close()
	}
	return nil
}

// synthesize renders a tone sequence as 16-bit little-endian mono PCM. A
// short linear attack and release envelope on each segment avoids clicks
// at the boundaries.
func synthesize(tones []tone, volume float64) []byte {
	var buf bytes.Buffer
	for _, t := range tones {
		samples := int(float64(SampleRate) * t.duration.Seconds())
		ramp := SampleRate / 100 // 10ms
		if ramp > samples/2 {
			ramp = samples / 2
		}

		for i := 0; i < samples; i++ {
			var value float64
			if t.freq > 0 {
				value = math.Sin(2 * math.Pi * t.freq * float64(i) / SampleRate)
			}

			envelope := 1.0
			if i < ramp {
				envelope = float64(i) / float64(ramp)
			} else if i > samples-ramp {
				envelope = float64(samples-i) / float64(ramp)
			}

			sample := int16(value * envelope * volume * math.MaxInt16)
			buf.WriteByte(byte(sample))
			buf.WriteByte(byte(sample >> 8))
		}
	}
	return buf.Bytes()
}
