package facefilter

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/esimov/facefilter/utils"
	pigo "github.com/esimov/pigo/core"
)

// Cascade file names expected in the cascade directory.
const (
	FaceCascade     = "facefinder"
	PupilCascade    = "puploc"
	LandmarkCascade = "lps"
)

// Landmark cascades of one eye, run flipped for the other eye, and of the mouth and nose.
var (
	eyeCascades = map[string][2]int{
		"lp46":  {pigoLeftBrowOuter, pigoRightBrowOuter},
		"lp44":  {pigoLeftBrowInner, pigoRightBrowInner},
		"lp42":  {pigoLeftEyeOuter, pigoRightEyeOuter},
		"lp38":  {pigoLeftEyeInner, pigoRightEyeInner},
		"lp312": {pigoLeftEyeLid, pigoRightEyeLid},
	}
	mouthCascades = map[string][2]int{
		"lp84": {pigoMouthLeft, pigoMouthRight},
	}
	centerCascades = map[string]int{
		"lp93": pigoNose,
		"lp82": pigoMouthTop,
		"lp81": pigoMouthBottom,
	}
)

// pigoOffsets positions every landmark relative to the detected face center,
// in face scale units (row, col). Used when a cascade is missing or finds nothing.
var pigoOffsets = [pigoPoints][2]float64{
	pigoLeftPupil:       {-0.075, -0.175},
	pigoRightPupil:      {-0.075, 0.185},
	pigoLeftEyeOuter:    {-0.075, -0.26},
	pigoLeftEyeInner:    {-0.075, -0.09},
	pigoLeftEyeLid:      {-0.11, -0.175},
	pigoLeftBrowOuter:   {-0.18, -0.28},
	pigoLeftBrowInner:   {-0.18, -0.07},
	pigoRightEyeOuter:   {-0.075, 0.27},
	pigoRightEyeInner:   {-0.075, 0.1},
	pigoRightEyeLid:     {-0.11, 0.185},
	pigoRightBrowOuter:  {-0.18, 0.29},
	pigoRightBrowInner:  {-0.18, 0.08},
	pigoNose:            {0.08, 0.005},
	pigoMouthLeft:       {0.25, -0.13},
	pigoMouthTop:        {0.2, 0.005},
	pigoMouthBottom:     {0.3, 0.005},
	pigoMouthRight:      {0.25, 0.14},
	pigoFaceTopLeft:     {-0.5, -0.5},
	pigoFaceTopRight:    {-0.5, 0.5},
	pigoFaceBottomRight: {0.5, 0.5},
	pigoFaceBottomLeft:  {0.5, -0.5},
}

// PigoOptions holds the face detector parameters.
type PigoOptions struct {
	MinSize     int
	MaxSize     int
	ShiftFactor float64
	ScaleFactor float64
	// IoU is the intersection over union threshold of the detection clustering.
	IoU float64
	// Threshold is the minimum detection score of a face.
	Threshold float32
	// Angle is the in-plane rotation of the faces, in turns (0.0 - 1.0).
	Angle float64
	// Perturbs is the number of perturbations of the pupil and landmark localization.
	Perturbs int
}

// DefaultPigoOptions returns the detector parameters suitable for a webcam feed.
func DefaultPigoOptions() PigoOptions {
	return PigoOptions{
		MinSize:     100,
		MaxSize:     1000,
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		IoU:         0.2,
		Threshold:   5.0,
		Perturbs:    63,
	}
}

// PigoDetector finds the faces, the pupils and the facial landmark points
// using the pigo pixel intensity comparison based cascades.
// It emits the landmark layout described by PigoTopology.
// The unpacked cascades are read-only, so the detector is safe for concurrent use.
type PigoDetector struct {
	opts  PigoOptions
	face  *pigo.Pigo
	pupil *pigo.PuplocCascade
	flpcs map[string][]*pigo.FlpCascade
}

// NewPigoDetector unpacks the cascade files of dir: the face finder, the pupil
// localization cascade and the directory of the facial landmark cascades.
// The landmark cascades are optional, the missing landmark points are estimated.
func NewPigoDetector(dir string, opts PigoOptions) (*PigoDetector, error) {
	faceCascade, err := os.ReadFile(filepath.Join(dir, FaceCascade))
	if err != nil {
		return nil, fmt.Errorf("error reading the face cascade file: %w", err)
	}
	face, err := pigo.NewPigo().Unpack(faceCascade)
	if err != nil {
		return nil, fmt.Errorf("error unpacking the face cascade file: %w", err)
	}

	pupilCascade, err := os.ReadFile(filepath.Join(dir, PupilCascade))
	if err != nil {
		return nil, fmt.Errorf("error reading the pupil cascade file: %w", err)
	}
	plc := pigo.NewPuplocCascade()
	pupil, err := plc.UnpackCascade(pupilCascade)
	if err != nil {
		return nil, fmt.Errorf("error unpacking the pupil cascade file: %w", err)
	}

	flpcs := make(map[string][]*pigo.FlpCascade)
	if fi, err := os.Stat(filepath.Join(dir, LandmarkCascade)); err == nil && fi.IsDir() {
		// ReadCascadeDir reports only the error of the last cascade, the others are checked below.
		flpcs, _ = plc.ReadCascadeDir(filepath.Join(dir, LandmarkCascade))
	}

	if opts.ShiftFactor == 0 || opts.ScaleFactor == 0 {
		opts = DefaultPigoOptions()
	}
	return &PigoDetector{
		opts:  opts,
		face:  face,
		pupil: pupil,
		flpcs: flpcs,
	}, nil
}

// Topology returns the landmark layout of the detector.
func (d *PigoDetector) Topology() *Topology {
	return PigoTopology()
}

// Detect returns the landmarks of every face scoring above the detection threshold.
func (d *PigoDetector) Detect(ctx context.Context, frame image.Image) (DetectionResult, error) {
	res := DetectionResult{Frame: frame}
	if frame == nil {
		return res, nil
	}

	src := imgToNRGBA(frame)
	cols, rows := src.Bounds().Dx(), src.Bounds().Dy()
	if cols == 0 || rows == 0 {
		return res, nil
	}

	imgParams := pigo.ImageParams{
		Pixels: rgbToGrayscale(src),
		Rows:   rows,
		Cols:   cols,
		Dim:    cols,
	}
	cParams := pigo.CascadeParams{
		MinSize:     d.opts.MinSize,
		MaxSize:     utils.Min(d.opts.MaxSize, utils.Max(cols, rows)),
		ShiftFactor: d.opts.ShiftFactor,
		ScaleFactor: d.opts.ScaleFactor,
		ImageParams: imgParams,
	}

	// Run the classifier over the obtained leaf nodes and return the detection results.
	// The result contains quadruplets representing the row, column, scale and detection score.
	dets := d.face.RunCascade(cParams, d.opts.Angle)

	// Calculate the intersection over union (IoU) of two clusters.
	dets = d.face.ClusterDetections(dets, d.opts.IoU)

	for _, det := range dets {
		if det.Q < d.opts.Threshold {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		points := d.localize(det, imgParams)
		res.Faces = append(res.Faces, pigoLandmarks(det, points, cols, rows))
	}
	return res, nil
}

// localize runs the pupil and landmark cascades of a face. The found
// points are returned in pixel space (X = column, Y = row), indexed by landmark.
func (d *PigoDetector) localize(det pigo.Detection, img pigo.ImageParams) map[int]Point {
	points := make(map[int]Point, pigoPoints)
	scale := float64(det.Scale)

	seed := func(dcol float64) pigo.Puploc {
		return pigo.Puploc{
			Row:      det.Row - int(0.075*scale),
			Col:      det.Col + int(dcol*scale),
			Scale:    float32(scale) * 0.25,
			Perturbs: d.opts.Perturbs,
		}
	}
	leftEye := d.pupil.RunDetector(seed(-0.175), img, d.opts.Angle, false)
	rightEye := d.pupil.RunDetector(seed(0.185), img, d.opts.Angle, false)

	if !found(leftEye) || !found(rightEye) {
		return points
	}
	points[pigoLeftPupil] = puplocPoint(leftEye)
	points[pigoRightPupil] = puplocPoint(rightEye)

	for name, idx := range eyeCascades {
		d.mirrored(points, name, idx, leftEye, rightEye, img)
	}
	for name, idx := range mouthCascades {
		d.mirrored(points, name, idx, leftEye, rightEye, img)
	}
	for name, idx := range centerCascades {
		if flpc := d.cascade(name); flpc != nil {
			if p := flpc.GetLandmarkPoint(leftEye, rightEye, img, d.opts.Perturbs, false); found(p) {
				points[idx] = puplocPoint(p)
			}
		}
	}
	return points
}

// mirrored runs a landmark cascade on the left side of the face then flipped on the right side.
func (d *PigoDetector) mirrored(points map[int]Point, name string, idx [2]int, left, right *pigo.Puploc, img pigo.ImageParams) {
	flpc := d.cascade(name)
	if flpc == nil {
		return
	}
	for i, flipV := range []bool{false, true} {
		if p := flpc.GetLandmarkPoint(left, right, img, d.opts.Perturbs, flipV); found(p) {
			points[idx[i]] = puplocPoint(p)
		}
	}
}

func (d *PigoDetector) cascade(name string) *pigo.PuplocCascade {
	for _, c := range d.flpcs[name] {
		if c != nil && c.PuplocCascade != nil {
			return c.PuplocCascade
		}
	}
	return nil
}

func found(p *pigo.Puploc) bool {
	return p != nil && p.Row > 0 && p.Col > 0
}

func puplocPoint(p *pigo.Puploc) Point {
	return Point{X: float64(p.Col), Y: float64(p.Row)}
}

// pigoLandmarks builds the normalized landmarks of a face from the points found by the cascades.
// The points not found are estimated from the face detection.
func pigoLandmarks(det pigo.Detection, points map[int]Point, cols, rows int) Landmarks {
	lm := make(Landmarks, pigoPoints)
	scale := float64(det.Scale)

	for idx := range lm {
		p, ok := points[idx]
		if !ok {
			p = Point{
				X: float64(det.Col) + pigoOffsets[idx][1]*scale,
				Y: float64(det.Row) + pigoOffsets[idx][0]*scale,
			}
		}
		lm[idx] = Point{
			X: p.X / float64(cols),
			Y: p.Y / float64(rows),
		}
	}
	return lm
}
