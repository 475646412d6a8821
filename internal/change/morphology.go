package change

import (
	"github.com/anthonynsimon/bild/effect"

	"github.com/terrawatch/scenediff/internal/imaging"
)

// CleanupParams controls post-threshold mask cleanup.
type CleanupParams struct {
	// MinArea drops connected components smaller than this many
	// pixels. Zero disables the area filter.
	MinArea int

	// FillHoles fills unchanged regions fully enclosed by changed
	// pixels.
	FillHoles bool

	// Radius is the structuring-element radius for the closing and
	// opening passes. Zero disables both.
	Radius int
}

// DefaultCleanupParams returns the cleanup settings used by Detect.
func DefaultCleanupParams() CleanupParams {
	return CleanupParams{
		MinArea:   9,
		FillHoles: true,
		Radius:    1,
	}
}

// CleanupMask removes speckle from a binary change mask. Passes run in
// a fixed order: small-component removal, hole filling, morphological
// closing, then opening. The input slice is not modified.
func CleanupMask(mask []bool, width, height int, p CleanupParams) []bool {
	out := make([]bool, len(mask))
	copy(out, mask)

	if p.MinArea > 0 {
		out = dropSmallComponents(out, width, height, p.MinArea)
	}
	if p.FillHoles {
		out = fillHoles(out, width, height)
	}
	if p.Radius > 0 {
		out = dilateMask(out, width, height, p.Radius)
		out = erodeMask(out, width, height, p.Radius)
		out = erodeMask(out, width, height, p.Radius)
		out = dilateMask(out, width, height, p.Radius)
	}
	return out
}

// dilateMask grows changed regions by radius pixels. The mask is
// rendered to an 8-bit image so the dilation can run on bild's
// grayscale kernel.
func dilateMask(mask []bool, width, height, radius int) []bool {
	if radius <= 0 {
		return mask
	}
	img := effect.Dilate(imaging.MaskToImage(mask, width, height), float64(radius))
	return imageToMask(img.Pix, img.Stride, width, height)
}

func erodeMask(mask []bool, width, height, radius int) []bool {
	if radius <= 0 {
		return mask
	}
	img := effect.Erode(imaging.MaskToImage(mask, width, height), float64(radius))
	return imageToMask(img.Pix, img.Stride, width, height)
}

// imageToMask reads an RGBA pixel buffer back into a boolean mask,
// treating any value above mid-gray on the red channel as set.
func imageToMask(pix []uint8, stride, width, height int) []bool {
	mask := make([]bool, width*height)
	for y := 0; y < height; y++ {
		row := y * stride
		for x := 0; x < width; x++ {
			mask[y*width+x] = pix[row+x*4] > 127
		}
	}
	return mask
}

// dropSmallComponents removes 4-connected components under minArea
// pixels.
func dropSmallComponents(mask []bool, width, height, minArea int) []bool {
	visited := make([]bool, len(mask))
	out := make([]bool, len(mask))
	stack := make([]int, 0, 256)
	component := make([]int, 0, 256)

	for start := range mask {
		if !mask[start] || visited[start] {
			continue
		}
		stack = append(stack[:0], start)
		component = component[:0]
		visited[start] = true

		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			component = append(component, idx)

			x, y := idx%width, idx/width
			if x > 0 {
				pushIfSet(mask, visited, &stack, idx-1)
			}
			if x < width-1 {
				pushIfSet(mask, visited, &stack, idx+1)
			}
			if y > 0 {
				pushIfSet(mask, visited, &stack, idx-width)
			}
			if y < height-1 {
				pushIfSet(mask, visited, &stack, idx+width)
			}
		}

		if len(component) >= minArea {
			for _, idx := range component {
				out[idx] = true
			}
		}
	}
	return out
}

func pushIfSet(mask, visited []bool, stack *[]int, idx int) {
	if mask[idx] && !visited[idx] {
		visited[idx] = true
		*stack = append(*stack, idx)
	}
}

// fillHoles sets unchanged pixels that are not reachable from the
// image border through unchanged pixels. A flood fill over the
// complement, seeded on every border cell, marks the outside region;
// whatever unchanged area remains is enclosed and gets filled.
func fillHoles(mask []bool, width, height int) []bool {
	outside := make([]bool, len(mask))
	stack := make([]int, 0, 2*(width+height))

	seed := func(idx int) {
		if !mask[idx] && !outside[idx] {
			outside[idx] = true
			stack = append(stack, idx)
		}
	}
	for x := 0; x < width; x++ {
		seed(x)
		seed((height-1)*width + x)
	}
	for y := 0; y < height; y++ {
		seed(y * width)
		seed(y*width + width - 1)
	}

	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		x, y := idx%width, idx/width
		if x > 0 {
			seed(idx - 1)
		}
		if x < width-1 {
			seed(idx + 1)
		}
		if y > 0 {
			seed(idx - width)
		}
		if y < height-1 {
			seed(idx + width)
		}
	}

	out := make([]bool, len(mask))
	for i := range mask {
		out[i] = mask[i] || !outside[i]
	}
	return out
}
