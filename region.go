package facefilter

import (
	"image/color"
)

// RegionName identifies an anatomical region of a face.
// Left and right are meant as seen in the frame, not from the subject's point of view.
type RegionName string

const (
	FaceOval     RegionName = "face-oval"
	LeftEye      RegionName = "left-eye"
	RightEye     RegionName = "right-eye"
	LeftEyebrow  RegionName = "left-eyebrow"
	RightEyebrow RegionName = "right-eyebrow"
	Lips         RegionName = "lips"
	InnerLips    RegionName = "inner-lips"
	Nose         RegionName = "nose"
)

// Region is a fixed, named list of landmark indices describing one anatomical feature.
// The indices are ordered along the contour, Closed marks contours whose
// last point connects back to the first one.
type Region struct {
	Name    RegionName
	Indices []int
	Closed  bool
	Color   color.NRGBA
}

// Topology is the immutable region table of one landmark layout.
// The placement regions name the two eyes and the face outline.
type Topology struct {
	Name    string
	Points  int
	regions []Region

	LeftEye  RegionName
	RightEye RegionName
	Outline  RegionName
}

// Region returns the region registered under name. The returned index slice is a copy.
func (t *Topology) Region(name RegionName) (Region, bool) {
	for _, r := range t.regions {
		if r.Name == name {
			r.Indices = append([]int(nil), r.Indices...)
			return r, true
		}
	}
	return Region{Name: name}, false
}

// Regions returns all the regions of the topology in drawing order.
func (t *Topology) Regions() []Region {
	regions := make([]Region, 0, len(t.regions))
	for _, r := range t.regions {
		r.Indices = append([]int(nil), r.Indices...)
		regions = append(regions, r)
	}
	return regions
}

var (
	ovalColor  = color.NRGBA{R: 224, G: 224, B: 224, A: 255}
	leftColor  = color.NRGBA{R: 48, G: 255, B: 48, A: 255}
	rightColor = color.NRGBA{R: 255, G: 48, B: 48, A: 255}
	lipsColor  = color.NRGBA{R: 224, G: 224, B: 224, A: 255}
	noseColor  = color.NRGBA{R: 48, G: 48, B: 255, A: 255}
)

var meshTopology = &Topology{
	Name:     "mesh",
	Points:   468,
	LeftEye:  LeftEye,
	RightEye: RightEye,
	Outline:  FaceOval,
	regions: []Region{
		{
			Name: FaceOval,
			Indices: []int{
				10, 338, 297, 332, 284, 251, 389, 356, 454, 323, 361, 288,
				397, 365, 379, 378, 400, 377, 152, 148, 176, 149, 150, 136,
				172, 58, 132, 93, 234, 127, 162, 21, 54, 103, 67, 109,
			},
			Closed: true,
			Color:  ovalColor,
		},
		{
			Name: LeftEye,
			Indices: []int{
				33, 7, 163, 144, 145, 153, 154, 155,
				133, 173, 157, 158, 159, 160, 161, 246,
			},
			Closed: true,
			Color:  rightColor,
		},
		{
			Name: RightEye,
			Indices: []int{
				263, 249, 390, 373, 374, 380, 381, 382,
				362, 398, 384, 385, 386, 387, 388, 466,
			},
			Closed: true,
			Color:  leftColor,
		},
		{
			Name:    LeftEyebrow,
			Indices: []int{70, 63, 105, 66, 107, 55, 65, 52, 53, 46},
			Closed:  true,
			Color:   rightColor,
		},
		{
			Name:    RightEyebrow,
			Indices: []int{300, 293, 334, 296, 336, 285, 295, 282, 283, 276},
			Closed:  true,
			Color:   leftColor,
		},
		{
			Name: Lips,
			Indices: []int{
				61, 146, 91, 181, 84, 17, 314, 405, 321, 375,
				291, 409, 270, 269, 267, 0, 37, 39, 40, 185,
			},
			Closed: true,
			Color:  lipsColor,
		},
		{
			Name: InnerLips,
			Indices: []int{
				78, 95, 88, 178, 87, 14, 317, 402, 318, 324,
				308, 415, 310, 311, 312, 13, 82, 81, 80, 191,
			},
			Closed: true,
			Color:  lipsColor,
		},
	},
}

// Landmark layout emitted by the pigo detector.
const (
	pigoLeftPupil = iota
	pigoRightPupil
	pigoLeftEyeOuter
	pigoLeftEyeInner
	pigoLeftEyeLid
	pigoLeftBrowOuter
	pigoLeftBrowInner
	pigoRightEyeOuter
	pigoRightEyeInner
	pigoRightEyeLid
	pigoRightBrowOuter
	pigoRightBrowInner
	pigoNose
	pigoMouthLeft
	pigoMouthTop
	pigoMouthBottom
	pigoMouthRight
	pigoFaceTopLeft
	pigoFaceTopRight
	pigoFaceBottomRight
	pigoFaceBottomLeft
	pigoPoints
)

var pigoTopology = &Topology{
	Name:     "pigo",
	Points:   pigoPoints,
	LeftEye:  LeftEye,
	RightEye: RightEye,
	Outline:  FaceOval,
	regions: []Region{
		{
			Name:    FaceOval,
			Indices: []int{pigoFaceTopLeft, pigoFaceTopRight, pigoFaceBottomRight, pigoFaceBottomLeft},
			Closed:  true,
			Color:   ovalColor,
		},
		{
			Name:    LeftEye,
			Indices: []int{pigoLeftEyeOuter, pigoLeftEyeLid, pigoLeftEyeInner, pigoLeftPupil},
			Closed:  true,
			Color:   rightColor,
		},
		{
			Name:    RightEye,
			Indices: []int{pigoRightEyeInner, pigoRightEyeLid, pigoRightEyeOuter, pigoRightPupil},
			Closed:  true,
			Color:   leftColor,
		},
		{
			Name:    LeftEyebrow,
			Indices: []int{pigoLeftBrowOuter, pigoLeftBrowInner},
			Color:   rightColor,
		},
		{
			Name:    RightEyebrow,
			Indices: []int{pigoRightBrowInner, pigoRightBrowOuter},
			Color:   leftColor,
		},
		{
			Name:    Nose,
			Indices: []int{pigoNose},
			Color:   noseColor,
		},
		{
			Name:    Lips,
			Indices: []int{pigoMouthLeft, pigoMouthTop, pigoMouthRight, pigoMouthBottom},
			Closed:  true,
			Color:   lipsColor,
		},
	},
}

// MeshTopology returns the region table of the 468 (or 478 with refined irises)
// point face mesh layout.
func MeshTopology() *Topology { return meshTopology }

// PigoTopology returns the region table of the landmark layout produced by PigoDetector.
func PigoTopology() *Topology { return pigoTopology }
