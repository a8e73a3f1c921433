package facefilter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/esimov/facefilter/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DefaultFPS is the frame rate of the detection loop, matching a common display refresh rate.
const DefaultFPS = 60

// Timing holds the duration of each stage of a loop iteration.
type Timing struct {
	Capture   time.Duration
	Detection time.Duration
	Render    time.Duration
	Total     time.Duration
}

// SessionOptions holds the collaborators of a Session.
type SessionOptions struct {
	Capturer Capturer
	Detector Detector
	Renderer *Renderer
	Controls Controls
	// Sink receives a snapshot of every rendered frame. It is optional.
	Sink Sink
	// FPS limits the loop frequency. Zero means DefaultFPS, a negative value disables pacing.
	FPS    float64
	Logger *logrus.Logger
}

// Session runs the detection loop of one video source and drawing surface pair.
//
// At most one loop is live at a time: every started loop is identified by a handle
// and a loop commits a drawing only while its handle is the current one.
// Stop resets the handle, so a detector result arriving after Stop is discarded.
type Session struct {
	ID string

	capturer Capturer
	detector Detector
	renderer *Renderer
	controls Controls
	sink     Sink
	limiter  *rate.Limiter
	log      *logrus.Entry

	mu     sync.Mutex
	gen    uint64
	handle uint64
	cancel context.CancelFunc
	done   chan struct{}
	timing Timing
}

// NewSession creates a stopped session.
func NewSession(opts SessionOptions) (*Session, error) {
	if opts.Capturer == nil {
		return nil, errors.New("session: missing capturer")
	}
	if opts.Detector == nil {
		return nil, errors.New("session: missing detector")
	}
	if opts.Renderer == nil {
		return nil, errors.New("session: missing renderer")
	}
	if opts.Controls == nil {
		opts.Controls = NewSettings(ModeFunFilter, true)
	}

	limit := rate.Limit(DefaultFPS)
	switch {
	case opts.FPS > 0:
		limit = rate.Limit(opts.FPS)
	case opts.FPS < 0:
		limit = rate.Inf
	}

	id := uuid.NewString()
	log := utils.Discard()
	if opts.Logger != nil {
		log = logrus.NewEntry(opts.Logger)
	}

	return &Session{
		ID:       id,
		capturer: opts.Capturer,
		detector: opts.Detector,
		renderer: opts.Renderer,
		controls: opts.Controls,
		sink:     opts.Sink,
		limiter:  rate.NewLimiter(limit, 1),
		log: log.WithFields(logrus.Fields{
			"session":   id[:8],
			"component": "session",
		}),
	}, nil
}

// Start acquires the video stream and launches the detection loop.
// A loop started earlier is stopped first. If the stream cannot be acquired
// Start returns a *PermissionError and no loop is started.
func (s *Session) Start(ctx context.Context) error {
	s.Stop()

	stream, err := s.capturer.Open(ctx)
	if err != nil {
		s.log.Errorf("could not open the video stream: %v", err)
		return &PermissionError{Cause: err}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.mu.Lock()
	// A concurrent Start could have launched a loop meanwhile.
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	handle := s.gen
	s.handle = handle
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	s.log.WithField("handle", handle).Info("detection loop started")
	go s.loop(loopCtx, handle, stream, done)

	return nil
}

// Stop ends the running loop. It does not wait for an in-flight detector call:
// its result is discarded once it arrives. Calling Stop on a stopped session is a no-op.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.handle != 0 {
		s.log.WithField("handle", s.handle).Info("detection loop stopped")
	}
	s.handle = 0
}

// Running reports whether a loop is live.
func (s *Session) Running() bool {
	return s.Handle() != 0
}

// Handle returns the handle of the live loop or 0 if the session is stopped.
func (s *Session) Handle() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.handle
}

// Wait blocks until the last started loop goroutine has returned.
func (s *Session) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done != nil {
		<-done
	}
}

// LastTiming returns the stage durations of the last committed iteration.
func (s *Session) LastTiming() Timing {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.timing
}

func (s *Session) loop(ctx context.Context, handle uint64, stream Stream, done chan struct{}) {
	defer close(done)
	defer func() {
		if err := stream.Close(); err != nil {
			s.log.Warnf("could not close the video stream: %v", err)
		}
	}()
	defer s.release(handle)

	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}
		if !s.current(handle) {
			return
		}

		start := time.Now()
		frame, err := stream.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Info("video stream ended")
				return
			}
			if ctx.Err() != nil {
				return
			}
			s.log.Warnf("could not read frame: %v", err)
			continue
		}
		captured := time.Now()

		res, err := s.detector.Detect(ctx, frame)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Warn(&DetectorFailure{Cause: err})
			continue
		}
		if res.Frame == nil {
			res.Frame = frame
		}
		detected := time.Now()

		timing := Timing{
			Capture:   captured.Sub(start),
			Detection: detected.Sub(captured),
		}
		if !s.commit(handle, res, start, timing) {
			return
		}
	}
}

// commit draws the detection result if the loop is still the live one and
// presents the rendered frame to the sink. It returns false for a stale loop.
func (s *Session) commit(handle uint64, res DetectionResult, start time.Time, timing Timing) bool {
	s.mu.Lock()
	if s.handle != handle {
		s.mu.Unlock()
		return false
	}
	err := s.renderer.Render(res, s.controls.Mode(), s.controls.ShowBackground())

	snapshot := s.renderer.Surface.Snapshot()
	timing.Total = time.Since(start)
	timing.Render = timing.Total - timing.Capture - timing.Detection
	s.timing = timing
	s.mu.Unlock()

	if err != nil {
		return true
	}

	s.log.WithFields(logrus.Fields{
		"faces":   len(res.Faces),
		"capture": utils.FormatTime(timing.Capture),
		"detect":  utils.FormatTime(timing.Detection),
		"render":  utils.FormatTime(timing.Render),
	}).Debug(utils.FormatFPS(timing.Total))

	if s.sink != nil && snapshot != nil {
		if err := s.sink.Present(snapshot); err != nil {
			s.log.Warn(fmt.Errorf("could not present frame: %w", err))
		}
	}
	return true
}

func (s *Session) current(handle uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.handle == handle
}

// release resets the handle when the loop ends by itself.
func (s *Session) release(handle uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == handle {
		s.handle = 0
		if s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
	}
}
