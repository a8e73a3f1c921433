package facefilter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/esimov/facefilter/utils"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrDetectorClosed is returned for the frames submitted to, or pending on, a closed remote detector.
var ErrDetectorClosed = errors.New("remote detector closed")

// RemoteOptions configures the connection to a landmark detection service.
type RemoteOptions struct {
	URL          string
	WriteTimeout time.Duration
	PingInterval time.Duration
	// Quality is the JPEG quality of the submitted frames.
	Quality int
}

// RemoteResult is the detection result of a submitted frame.
type RemoteResult struct {
	Faces []Landmarks
	Err   error
}

// remoteMessage is the wire format of a detection result:
// {"faces":[[{"x":..,"y":..,"z":..}, ...]]} or {"error":"..."}.
type remoteMessage struct {
	Faces []Landmarks `json:"faces"`
	Error string      `json:"error,omitempty"`
}

// RemoteDetector submits the frames as binary JPEG websocket messages to a
// landmark detection service emitting the face mesh layout. The service answers
// every frame with one text message, in submission order.
type RemoteDetector struct {
	opts RemoteOptions
	log  *logrus.Entry

	mu      sync.Mutex
	conn    *websocket.Conn
	pending []chan RemoteResult
	closed  bool
	done    chan struct{}
}

// DialRemoteDetector connects to the detection service.
func DialRemoteDetector(ctx context.Context, opts RemoteOptions, log *logrus.Entry) (*RemoteDetector, error) {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.Quality <= 0 {
		opts.Quality = DefaultQuality
	}
	if log == nil {
		log = utils.Discard()
	}

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.DialContext(ctx, opts.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", opts.URL, err)
	}

	d := &RemoteDetector{
		opts: opts,
		log:  log.WithField("component", "remote"),
		conn: conn,
		done: make(chan struct{}),
	}
	conn.SetPingHandler(func(appData string) error {
		d.mu.Lock()
		defer d.mu.Unlock()

		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(d.opts.WriteTimeout))
		if err != nil {
			d.log.Warnf("error sending pong: %v", err)
		}
		return nil
	})

	go d.readLoop()
	go d.keepAlive()

	d.log.Infof("connected to %s", opts.URL)
	return d, nil
}

// Topology returns the landmark layout of the detection service.
func (d *RemoteDetector) Topology() *Topology {
	return MeshTopology()
}

// Send submits the frame without waiting for its result. The returned channel
// receives the result once the service has answered all the frames submitted before.
func (d *RemoteDetector) Send(frame image.Image) (<-chan RemoteResult, error) {
	var buf bytes.Buffer
	if err := encodeImage(&buf, frame, ".jpg", d.opts.Quality); err != nil {
		return nil, fmt.Errorf("error encoding the frame: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrDetectorClosed
	}

	// The result can arrive as soon as the message is written, so it is queued first.
	ch := make(chan RemoteResult, 1)
	d.pending = append(d.pending, ch)

	d.conn.SetWriteDeadline(time.Now().Add(d.opts.WriteTimeout))
	if err := d.conn.WriteMessage(websocket.BinaryMessage, buf.Bytes()); err != nil {
		d.pending = d.pending[:len(d.pending)-1]
		return nil, fmt.Errorf("error sending frame: %w", err)
	}
	return ch, nil
}

// Detect submits the frame and waits for its result.
func (d *RemoteDetector) Detect(ctx context.Context, frame image.Image) (DetectionResult, error) {
	res := DetectionResult{Frame: frame}

	ch, err := d.Send(frame)
	if err != nil {
		return res, err
	}
	select {
	case <-ctx.Done():
		return res, ctx.Err()
	case r := <-ch:
		res.Faces = r.Faces
		return res, r.Err
	}
}

// Close closes the connection. The pending frames fail with ErrDetectorClosed.
func (d *RemoteDetector) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	werr := d.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(d.opts.WriteTimeout))
	d.mu.Unlock()

	err := d.conn.Close()
	<-d.done
	if errors.Is(werr, websocket.ErrCloseSent) {
		werr = nil
	}
	return errors.Join(werr, err)
}

func (d *RemoteDetector) readLoop() {
	defer close(d.done)

	for {
		_, message, err := d.conn.ReadMessage()
		if err != nil {
			d.fail(err)
			return
		}

		var msg remoteMessage
		result := RemoteResult{}
		if err := json.Unmarshal(message, &msg); err != nil {
			result.Err = fmt.Errorf("error unmarshaling detection result: %w", err)
		} else if msg.Error != "" {
			result.Err = fmt.Errorf("detection service: %s", msg.Error)
		} else {
			result.Faces = msg.Faces
		}

		d.mu.Lock()
		if len(d.pending) == 0 {
			d.mu.Unlock()
			d.log.Warn("dropping unsolicited detection result")
			continue
		}
		ch := d.pending[0]
		d.pending = d.pending[1:]
		d.mu.Unlock()

		ch <- result
	}
}

// fail resolves the pending frames once the connection is lost.
func (d *RemoteDetector) fail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		err = ErrDetectorClosed
	} else {
		d.log.Errorf("connection lost: %v", err)
		err = fmt.Errorf("connection lost: %w", err)
	}
	d.closed = true

	for _, ch := range d.pending {
		ch <- RemoteResult{Err: err}
	}
	d.pending = nil
}

func (d *RemoteDetector) keepAlive() {
	ticker := time.NewTicker(d.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.done:
			return
		case <-ticker.C:
		}

		d.mu.Lock()
		err := d.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(d.opts.WriteTimeout))
		d.mu.Unlock()

		if err != nil {
			d.log.Warnf("ping failed, closing the connection: %v", err)
			d.conn.Close()
			return
		}
	}
}
