package onnx

import (
	"errors"
	"fmt"
)

// ImageTensor is a float32 tensor in NCHW layout, ready to feed a session.
type ImageTensor struct {
	Data  []float32
	Shape []int64
}

// NewImageTensor wraps data as a [1, C, H, W] tensor. data must hold exactly
// C*H*W values in channel-major order.
func NewImageTensor(data []float32, c, h, w int) (ImageTensor, error) {
	if data == nil {
		return ImageTensor{}, errors.New("nil tensor data")
	}
	if want := c * h * w; len(data) != want {
		return ImageTensor{}, fmt.Errorf("tensor data length %d, want %d", len(data), want)
	}
	return ImageTensor{
		Data:  data,
		Shape: []int64{1, int64(c), int64(h), int64(w)},
	}, nil
}

// Verify checks the data length against the NCHW shape.
func (t ImageTensor) Verify() error {
	if len(t.Shape) != 4 {
		return fmt.Errorf("tensor rank %d, want 4", len(t.Shape))
	}
	want := int64(1)
	for i, d := range t.Shape {
		if d <= 0 {
			return fmt.Errorf("tensor dimension %d is %d", i, d)
		}
		want *= d
	}
	if int64(len(t.Data)) != want {
		return fmt.Errorf("tensor data length %d, want %d for shape %v", len(t.Data), want, t.Shape)
	}
	return nil
}
