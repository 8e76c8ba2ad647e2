// Stress harness for the movement simulator: builds an obstacle course,
// steps a crowd of characters deterministically and reports step timing
// percentiles plus a final state checksum.
package main

import (
	"flag"
	"math"
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/strideworks/stride/charsim"
	"github.com/strideworks/stride/config"
	"github.com/strideworks/stride/geo"
	"github.com/strideworks/stride/mesh"
	"github.com/strideworks/stride/vmath"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML config overriding the defaults")
		verbose    = flag.Bool("v", false, "enable simulator debug traces")
	)
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if lvl, err := logrus.ParseLevel(cfg.Stress.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	vol, err := cfg.CharacterVolume()
	if err != nil {
		log.Fatalf("character volume: %v", err)
	}

	world, platform := buildCourse(cfg.Stress.WorldExtent)
	sim := &charsim.Simulator{
		Config:     cfg.SimulatorConfig(),
		Transforms: world,
	}
	if *verbose {
		sim.Debugf = func(format string, args ...any) {
			log.Debugf(format, args...)
		}
	}

	n := cfg.Stress.Characters
	rng := rand.New(rand.NewSource(cfg.Stress.Seed))
	states := make([]*charsim.State, n)
	caches := make([]*geo.CachedSource, n)
	headings := make([]float64, n)
	for i := range n {
		states[i] = &charsim.State{Position: mgl64.Vec3{
			(rng.Float64()*2 - 1) * cfg.Stress.WorldExtent * 0.5,
			3 + rng.Float64()*2,
			(rng.Float64()*2 - 1) * cfg.Stress.WorldExtent * 0.5,
		}}
		caches[i] = geo.NewCachedSource(world, cfg.SimulatorConfig().CacheGrowth)
		headings[i] = rng.Float64() * 2 * math.Pi
	}

	dt := 1.0 / float64(cfg.Stress.TickRate)
	const speed, gravity = 4.0, 12.0
	durations := make([]float64, 0, cfg.Stress.Steps)

	log.WithFields(logrus.Fields{
		"characters": n,
		"steps":      cfg.Stress.Steps,
		"tick_rate":  cfg.Stress.TickRate,
		"seed":       cfg.Stress.Seed,
	}).Info("stress run starting")

	for step := range cfg.Stress.Steps {
		// The platform orbits; its riders must follow it exactly.
		t := float64(step) * dt
		world.SetOrigin(platform, mgl64.Vec3{
			6 * math.Cos(t*0.5),
			1.5 + 0.5*math.Sin(t*0.8),
			6 * math.Sin(t*0.5),
		})
		for i := range n {
			caches[i].Invalidate()
		}

		began := time.Now()
		for i := range n {
			if rng.Float64() < 0.02 {
				headings[i] = rng.Float64() * 2 * math.Pi
			}
			// Turn wanderers back toward the center before they grind
			// against the perimeter walls.
			if edge := cfg.Stress.WorldExtent * 0.85; vmath.HzDistSqr(states[i].Position) > edge*edge {
				headings[i] = math.Atan2(-states[i].Position.Z(), -states[i].Position.X())
			}
			disp := mgl64.Vec3{
				math.Cos(headings[i]) * speed * dt,
				-gravity * dt,
				math.Sin(headings[i]) * speed * dt,
			}
			sim.Geometry = caches[i]
			sim.Step(states[i], charsim.Input{
				Displacement: disp,
				Elapsed:      dt,
				Shape:        vol,
			})
			if states[i].StuckSteps > 3 {
				headings[i] += math.Pi / 2
			}
		}
		durations = append(durations, float64(time.Since(began).Microseconds()))
	}

	var checksum uint64
	refreshes := 0
	for i := range n {
		checksum ^= charsim.Checksum(states[i])
		refreshes += caches[i].Refreshes
	}

	sorted := append([]float64(nil), durations...)
	stat.SortWeighted(sorted, nil)
	log.WithFields(logrus.Fields{
		"mean_us":   stat.Mean(sorted, nil),
		"p50_us":    stat.Quantile(0.5, stat.Empirical, sorted, nil),
		"p99_us":    stat.Quantile(0.99, stat.Empirical, sorted, nil),
		"max_us":    floats.Max(sorted),
		"refreshes": refreshes,
		"checksum":  checksum,
	}).Info("stress run finished")
}

// buildCourse assembles the static obstacle course and one kinematic moving
// platform, returning the mesh and the platform handle.
func buildCourse(extent float64) (*mesh.Mesh, geo.Handle) {
	m := mesh.New()
	e := extent

	// Floor and perimeter walls.
	m.AddBox(geo.KindStatic, mgl64.Vec3{-e, -1, -e}, mgl64.Vec3{e, 0, e})
	m.AddBox(geo.KindStatic, mgl64.Vec3{-e, 0, -e - 1}, mgl64.Vec3{e, 6, -e})
	m.AddBox(geo.KindStatic, mgl64.Vec3{-e, 0, e}, mgl64.Vec3{e, 6, e + 1})
	m.AddBox(geo.KindStatic, mgl64.Vec3{-e - 1, 0, -e}, mgl64.Vec3{-e, 6, e})
	m.AddBox(geo.KindStatic, mgl64.Vec3{e, 0, -e}, mgl64.Vec3{e + 1, 6, e})

	// Scattered crates and low steps, deterministic layout.
	layout := rand.New(rand.NewSource(7))
	for range 24 {
		x := (layout.Float64()*2 - 1) * e * 0.8
		z := (layout.Float64()*2 - 1) * e * 0.8
		h := 0.3 + layout.Float64()*1.7
		s := 0.5 + layout.Float64()*1.5
		m.AddBox(geo.KindStatic, mgl64.Vec3{x - s, 0, z - s}, mgl64.Vec3{x + s, h, z + s})
	}

	// A walkable ramp and a forbidden steep slope.
	m.AddQuad(geo.KindStatic,
		mgl32.Vec3{4, 0, -10}, mgl32.Vec3{10, 3, -10},
		mgl32.Vec3{10, 3, -4}, mgl32.Vec3{4, 0, -4})
	m.AddQuad(geo.KindStatic,
		mgl32.Vec3{-10, 0, 4}, mgl32.Vec3{-6, 5, 4},
		mgl32.Vec3{-6, 5, 10}, mgl32.Vec3{-10, 0, 10})

	platform := m.AddBox(geo.KindKinematic, mgl64.Vec3{-1.5, -0.25, -1.5}, mgl64.Vec3{1.5, 0.25, 1.5})
	m.SetOrigin(platform, mgl64.Vec3{6, 1.5, 0})
	return m, platform
}
