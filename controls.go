package facefilter

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Controls exposes the user selected drawing options. It is read once per frame
// by the detection loop, so implementations must be safe for concurrent use.
type Controls interface {
	Mode() DrawMode
	ShowBackground() bool
}

// Settings is the default Controls implementation.
type Settings struct {
	mode atomic.Value
	bg   atomic.Bool
}

// NewSettings returns the settings initialized with the draw mode and background flag.
func NewSettings(mode DrawMode, showBackground bool) *Settings {
	s := &Settings{}
	s.SetMode(mode)
	s.SetBackground(showBackground)
	return s
}

// Mode returns the current draw mode.
func (s *Settings) Mode() DrawMode {
	if m, ok := s.mode.Load().(DrawMode); ok {
		return m
	}
	return ModeNone
}

// ShowBackground reports whether the video frame is drawn under the overlays.
func (s *Settings) ShowBackground() bool {
	return s.bg.Load()
}

// SetMode changes the draw mode.
func (s *Settings) SetMode(m DrawMode) {
	s.mode.Store(m)
}

// SetBackground shows or hides the video frame.
func (s *Settings) SetBackground(show bool) {
	s.bg.Store(show)
}

// ToggleBackground flips the background flag and returns the new value.
func (s *Settings) ToggleBackground() bool {
	for {
		old := s.bg.Load()
		if s.bg.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Apply executes a single control command. The supported commands are:
//
//	mode <mesh|landmarks|fun-filter|none>
//	bg <on|off|toggle>
func (s *Settings) Apply(cmd string) error {
	fields := strings.Fields(strings.ToLower(cmd))
	if len(fields) == 0 {
		return nil
	}
	if len(fields) != 2 {
		return fmt.Errorf("invalid command: %q", cmd)
	}

	switch fields[0] {
	case "mode":
		s.SetMode(ParseDrawMode(fields[1]))
	case "bg", "background":
		switch fields[1] {
		case "on", "true", "1":
			s.SetBackground(true)
		case "off", "false", "0":
			s.SetBackground(false)
		case "toggle":
			s.ToggleBackground()
		default:
			return fmt.Errorf("invalid background value: %q", fields[1])
		}
	default:
		return fmt.Errorf("unknown command: %q", fields[0])
	}
	return nil
}

// ReadCommands applies the commands read line by line from r until EOF.
// Invalid commands are logged and ignored.
func (s *Settings) ReadCommands(r io.Reader, log *logrus.Entry) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := s.Apply(scanner.Text()); err != nil {
			log.Warn(err)
			continue
		}
		log.WithFields(logrus.Fields{
			"mode":       s.Mode(),
			"background": s.ShowBackground(),
		}).Info("controls changed")
	}
	return scanner.Err()
}
