package stream

import (
	"encoding/json"
)

// Pose is the transform of one animated group at an instant.
type Pose struct {
	ID        string `json:"id"`
	Transform string `json:"transform"`
	Origin    string `json:"origin"`
}

// Frame represents the poses of every animated group of an icon.
type Frame struct {
	Running bool   `json:"running"`
	Poses   []Pose `json:"poses"`
}

// NewFrame creates a new Frame instance.
func NewFrame() *Frame {
	f := new(Frame)
	f.Poses = []Pose{}
	return f
}

// MarshalBinary converts a Frame into the JSON payload sent to renderers.
func (f *Frame) MarshalBinary() (data []byte, err error) {
	return json.Marshal(f)
}
