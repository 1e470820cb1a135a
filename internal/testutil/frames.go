package testutil

import "image"

// Frames returns n references to img, for driving playback sources.
func Frames(img image.Image, n int) []image.Image {
	out := make([]image.Image, n)
	for i := range out {
		out[i] = img
	}
	return out
}
