// trace-track extracts a closed centerline loop from a track bitmap and
// writes a track config JSON.
//
// The pipeline: load the image as grayscale, blur, threshold so the track
// surface reads as "driveable", then walk the surface with an arc of probe
// rays, always following the deepest free path until the walk closes the
// loop. A smoothing pass removes walker jitter before the points are
// resampled into the config.
package main

import (
	"encoding/json"
	"flag"
	"image"
	"log"
	"math"
	"os"

	"gocv.io/x/gocv"

	"topdown-racer/internal/config"
)

const (
	walkStep     = 20.0 // distance between raw walker samples
	probeMax     = 150.0
	probeStep    = 5.0
	maxWalkIters = 2000
)

func main() {
	in := flag.String("in", "track.png", "input track image (dark = driveable)")
	out := flag.String("out", "track.json", "output config path")
	startX := flag.Int("x", -1, "start pixel x (default: image center)")
	startY := flag.Int("y", -1, "start pixel y (default: image center)")
	invert := flag.Bool("invert", false, "treat bright pixels as driveable")
	sample := flag.Int("sample", 4, "keep every Nth walker point in the config")
	flag.Parse()

	img := gocv.IMRead(*in, gocv.IMReadGrayScale)
	if img.Empty() {
		log.Fatalf("cannot read image %s", *in)
	}
	defer img.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(img, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	mask := gocv.NewMat()
	defer mask.Close()
	mode := gocv.ThresholdBinaryInv
	if *invert {
		mode = gocv.ThresholdBinary
	}
	gocv.Threshold(blurred, &mask, 128, 255, mode)

	sx, sy := *startX, *startY
	if sx < 0 || sy < 0 {
		sx, sy = mask.Cols()/2, mask.Rows()/2
	}
	if !driveable(mask, float64(sx), float64(sy)) {
		log.Fatalf("start pixel (%d,%d) is not on the track surface", sx, sy)
	}

	raw := walkCenterline(mask, float64(sx), float64(sy))
	if len(raw) < 8 {
		log.Fatalf("walker found only %d points; no closed loop from (%d,%d)", len(raw), sx, sy)
	}
	smoothed := smooth(raw, 5, 2)

	var centerline [][2]float64
	for i := 0; i < len(smoothed); i += *sample {
		centerline = append(centerline, smoothed[i])
	}
	if len(centerline) < 3 {
		log.Fatal("too few centerline points after sampling")
	}

	cfg := config.Default()
	cfg.Track.CenterlinePoints = centerline
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		log.Fatal(err)
	}

	log.Printf("wrote %s (%d centerline points from %d walker samples)", *out, len(centerline), len(raw))
}

func driveable(mask gocv.Mat, x, y float64) bool {
	col, row := int(x), int(y)
	if col < 0 || col >= mask.Cols() || row < 0 || row >= mask.Rows() {
		return false
	}
	return mask.GetUCharAt(row, col) > 0
}

// walkCenterline follows the deepest free path through the mask until it
// returns near its starting point.
func walkCenterline(mask gocv.Mat, startX, startY float64) [][2]float64 {
	var points [][2]float64

	currX, currY := startX, startY
	dirX, dirY := 1.0, 0.0

	for i := 0; i < maxWalkIters; i++ {
		baseAngle := math.Atan2(dirY, dirX)

		// Probe an arc ahead and pick the direction with the deepest free
		// run. A wide arc handles hairpins.
		bestAngle := baseAngle
		maxDepth := 0.0
		for angle := -math.Pi / 2; angle <= math.Pi/2; angle += math.Pi / 32 {
			checkAngle := baseAngle + angle
			dx := math.Cos(checkAngle)
			dy := math.Sin(checkAngle)

			depth := 0.0
			for d := probeStep; d < probeMax; d += probeStep {
				if !driveable(mask, currX+dx*d, currY+dy*d) {
					break
				}
				depth = d
			}
			if depth > maxDepth {
				maxDepth = depth
				bestAngle = checkAngle
			}
		}

		newDirX := math.Cos(bestAngle)
		newDirY := math.Sin(bestAngle)

		currX += newDirX * walkStep
		currY += newDirY * walkStep

		// Exponential moving average keeps the direction from oscillating.
		dirX = dirX*0.2 + newDirX*0.8
		dirY = dirY*0.2 + newDirY*0.8

		points = append(points, [2]float64{currX, currY})

		// Loop closure, once far enough from the start to not trigger
		// immediately.
		if i > 50 && math.Hypot(currX-startX, currY-startY) < walkStep*2 {
			break
		}
	}

	return points
}

// smooth runs a cyclic moving average over the points.
func smooth(points [][2]float64, window, passes int) [][2]float64 {
	n := len(points)
	out := make([][2]float64, n)
	copy(out, points)

	for pass := 0; pass < passes; pass++ {
		tmp := make([][2]float64, n)
		copy(tmp, out)
		for i := 0; i < n; i++ {
			var sumX, sumY float64
			for j := -window / 2; j <= window/2; j++ {
				p := tmp[(i+j+n)%n]
				sumX += p[0]
				sumY += p[1]
			}
			out[i] = [2]float64{sumX / float64(window), sumY / float64(window)}
		}
	}
	return out
}
