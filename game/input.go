package game

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pthm-cable/hillclimb/vehicle"
)

// InputSource supplies player input once per human-play tick.
type InputSource interface {
	Poll() vehicle.HumanInput
}

// Key is a keyboard key code as reported by the presentation layer.
type Key string

// Recognized keys.
const (
	KeyArrowRight Key = "ArrowRight"
	KeyArrowLeft  Key = "ArrowLeft"
	KeyArrowUp    Key = "ArrowUp"
	KeyArrowDown  Key = "ArrowDown"
	KeyD          Key = "KeyD"
	KeyA          Key = "KeyA"
	KeyW          Key = "KeyW"
	KeyS          Key = "KeyS"
)

var knownKeys = map[Key]bool{
	KeyArrowRight: true, KeyArrowLeft: true, KeyArrowUp: true, KeyArrowDown: true,
	KeyD: true, KeyA: true, KeyW: true, KeyS: true,
}

// KeyState tracks held keys. Press and Release may be called from an event
// goroutine while the game polls.
type KeyState struct {
	mu   sync.Mutex
	held map[Key]bool
}

// NewKeyState creates a KeyState with the given keys held.
func NewKeyState(held ...Key) *KeyState {
	ks := &KeyState{held: make(map[Key]bool)}
	for _, k := range held {
		ks.held[k] = true
	}
	return ks
}

// Press marks key as held.
func (ks *KeyState) Press(key Key) {
	ks.mu.Lock()
	ks.held[key] = true
	ks.mu.Unlock()
}

// Release marks key as released.
func (ks *KeyState) Release(key Key) {
	ks.mu.Lock()
	delete(ks.held, key)
	ks.mu.Unlock()
}

// Poll maps held keys onto vehicle input. Opposite lean keys cancel out.
func (ks *KeyState) Poll() vehicle.HumanInput {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	in := vehicle.HumanInput{
		Accelerate: ks.held[KeyArrowRight] || ks.held[KeyD],
		Brake:      ks.held[KeyArrowLeft] || ks.held[KeyA],
	}
	if ks.held[KeyArrowUp] || ks.held[KeyW] {
		in.Lean--
	}
	if ks.held[KeyArrowDown] || ks.held[KeyS] {
		in.Lean++
	}
	return in
}

// ParseKeys parses a comma-separated key list such as "ArrowRight,KeyW".
func ParseKeys(s string) ([]Key, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var keys []Key
	for _, part := range strings.Split(s, ",") {
		k := Key(strings.TrimSpace(part))
		if !knownKeys[k] {
			return nil, fmt.Errorf("unknown key %q", k)
		}
		keys = append(keys, k)
	}
	return keys, nil
}
