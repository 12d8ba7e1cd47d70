// gen-track writes a ready-to-drive track config JSON: the default config
// with its centerline replaced by a generated oval.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"math"
	"os"

	"topdown-racer/internal/config"
)

func main() {
	out := flag.String("out", "track.json", "output config path")
	points := flag.Int("points", 24, "number of centerline points")
	radiusX := flag.Float64("rx", 1000, "oval x radius")
	radiusY := flag.Float64("ry", 600, "oval y radius")
	flag.Parse()

	if *points < 3 {
		log.Fatal("need at least 3 centerline points for a loop")
	}

	centerX := *radiusX + 200
	centerY := *radiusY + 200

	centerline := make([][2]float64, *points)
	for i := 0; i < *points; i++ {
		theta := 2 * math.Pi * float64(i) / float64(*points)
		centerline[i] = [2]float64{
			centerX + math.Cos(theta)**radiusX,
			centerY + math.Sin(theta)**radiusY,
		}
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

	log.Printf("wrote %s (%d centerline points)", *out, *points)
}
