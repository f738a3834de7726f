// Package notify turns session transitions into environment feedback:
// synthesized audio cues and terminal-bell haptics. Everything here is
// best-effort; a missing audio device never disturbs the brew.
package notify

import (
	"log/slog"

	"github.com/tmorelle/pourover/internal/brew"
)

// Compile-time interface check.
var _ brew.Notifier = (*Broadcaster)(nil)

// SoundPlayer plays one cue. Implementations must not block on playback.
type SoundPlayer interface {
	PlayCue(cue Cue) error
	Close() error
}

// Haptic produces a short physical-ish pulse.
type Haptic interface {
	Pulse() error
}

// Cue identifies one of the synthesized audio cues.
type Cue string

// Cues, in rough order of urgency.
const (
	CueStageChange  Cue = "stage-change"
	CueWaiting      Cue = "waiting"
	CueCountdownPip Cue = "countdown-pip"
	CueComplete     Cue = "complete"
)

// countdownPipThreshold is the remaining-seconds value at which countdown
// pips start.
const countdownPipThreshold = 3

// Opts holds broadcaster construction options.
type Opts struct {
	Sound          SoundPlayer
	Haptic         Haptic
	SoundEnabled   bool
	HapticsEnabled bool
	Logger         *slog.Logger
}

// Option configures the broadcaster.
type Option func(*Opts)

// WithSound sets the sound player and enables sound.
func WithSound(player SoundPlayer) Option {
	return func(o *Opts) {
		o.Sound = player
		o.SoundEnabled = player != nil
	}
}

// WithHaptic sets the haptic device and enables haptics.
func WithHaptic(h Haptic) Option {
	return func(o *Opts) {
		o.Haptic = h
		o.HapticsEnabled = h != nil
	}
}

// WithSoundEnabled toggles sound without replacing the player.
func WithSoundEnabled(enabled bool) Option {
	return func(o *Opts) { o.SoundEnabled = enabled }
}

// WithHapticsEnabled toggles haptics without replacing the device.
func WithHapticsEnabled(enabled bool) Option {
	return func(o *Opts) { o.HapticsEnabled = enabled }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Opts) { o.Logger = logger }
}

// Broadcaster fans session transitions out to sound and haptics, gated by
// the user's settings. Errors are logged at debug and swallowed.
type Broadcaster struct {
	opts Opts
}

// NewBroadcaster creates a broadcaster. With no options it is silent.
func NewBroadcaster(opts ...Option) *Broadcaster {
	cfg := Opts{Logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Broadcaster{opts: cfg}
}

// StageChanged plays the stage-change cue and pulses once.
func (b *Broadcaster) StageChanged(stageIndex int, label string) {
	b.play(CueStageChange)
	b.pulse(1)
}

// WaitingStarted plays the waiting cue and pulses once.
func (b *Broadcaster) WaitingStarted(stageIndex, remainingSeconds int) {
	b.play(CueWaiting)
	b.pulse(1)
}

// CountdownTick pips during the last few seconds of a countdown. Haptics
// stay quiet here; a pulse per second is more annoying than useful.
func (b *Broadcaster) CountdownTick(phase string, remainingSeconds int) {
	if remainingSeconds > countdownPipThreshold {
		return
	}
	b.play(CueCountdownPip)
}

// Completed plays the completion cue and pulses twice.
func (b *Broadcaster) Completed() {
	b.play(CueComplete)
	b.pulse(2)
}

// Close releases the sound player, if any.
func (b *Broadcaster) Close() error {
	if b.opts.Sound == nil {
		return nil
	}
	return b.opts.Sound.Close()
}

func (b *Broadcaster) play(cue Cue) {
	if !b.opts.SoundEnabled || b.opts.Sound == nil {
		return
	}
	if err := b.opts.Sound.PlayCue(cue); err != nil {
		b.opts.Logger.Debug("sound cue failed", "cue", cue, "error", err)
	}
}

func (b *Broadcaster) pulse(times int) {
	if !b.opts.HapticsEnabled || b.opts.Haptic == nil {
		return
	}
	for i := 0; i < times; i++ {
		if err := b.opts.Haptic.Pulse(); err != nil {
			b.opts.Logger.Debug("haptic pulse failed", "error", err)
			return
		}
	}
}
