// Command thumbnails renders thumbnail artifacts offline: a still for a
// model, a looping animation for a trajectory, or animations for every
// trajectory in a folder.
//
//	thumbnails model humanoid.xml
//	thumbnails trajectory -model humanoid.xml locomotion/walk.npy
//	thumbnails folder -model humanoid.xml locomotion
//
// Paths are category-relative under DATA_DIR. Camera framing comes from
// flags or from a named preset in a YAML presets file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/yungbote/motionlib-backend/internal/app"
	"github.com/yungbote/motionlib-backend/internal/pipeline"
	"github.com/yungbote/motionlib-backend/internal/platform/envutil"
	"github.com/yungbote/motionlib-backend/internal/platform/logger"
	"github.com/yungbote/motionlib-backend/internal/renderer"
	"github.com/yungbote/motionlib-backend/internal/renderer/softrender"
	"github.com/yungbote/motionlib-backend/internal/storage"
)

type cliFlags struct {
	model   string
	camera  string
	preset  string
	presets string
	lookAt  string

	distance  float64
	azimuth   float64
	elevation float64
	size      int
}

func main() {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	mode := os.Args[1]
	if mode != "model" && mode != "trajectory" && mode != "folder" {
		usage()
		os.Exit(2)
	}

	def := renderer.Default()
	fs := flag.NewFlagSet(mode, flag.ExitOnError)
	var cf cliFlags
	fs.StringVar(&cf.model, "model", "", "category-relative model entry document (required for trajectory/folder)")
	fs.StringVar(&cf.camera, "camera", "", "named camera declared in the model document")
	fs.StringVar(&cf.preset, "preset", "", "camera preset name from the presets file")
	fs.StringVar(&cf.presets, "presets", envutil.String("CAMERA_PRESETS", ""), "YAML camera presets file")
	fs.StringVar(&cf.lookAt, "lookat", "", "look-at point as x,y,z")
	fs.Float64Var(&cf.distance, "distance", def.Distance, "camera distance")
	fs.Float64Var(&cf.azimuth, "azimuth", def.Azimuth, "camera azimuth, degrees")
	fs.Float64Var(&cf.elevation, "elevation", def.Elevation, "camera elevation, degrees")
	fs.IntVar(&cf.size, "size", envutil.Int("THUMBNAIL_SIZE", 320), "square frame edge, pixels")
	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}
	if fs.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	target := fs.Arg(0)

	cam, err := resolveCamera(cf)
	if err != nil {
		log.Error("Bad camera configuration", "error", err)
		os.Exit(1)
	}

	cfg := app.LoadConfig(log)
	store, err := storage.New(storage.Config{DataDir: cfg.DataDir}, log)
	if err != nil {
		log.Error("Could not open data directory", "error", err)
		os.Exit(1)
	}
	eng, err := softrender.New(log)
	if err != nil {
		log.Error("Could not init renderer", "error", err)
		os.Exit(1)
	}
	gen := pipeline.New(store, eng, log, pipeline.Options{Size: cf.size})

	ctx := context.Background()
	switch mode {
	case "model":
		p, err := gen.RenderModel(ctx, target, cam)
		exitOn(log, err)
		fmt.Println(p)
	case "trajectory":
		requireModel(cf)
		p, err := gen.RenderTrajectory(ctx, target, cf.model, cam)
		exitOn(log, err)
		fmt.Println(p)
	case "folder":
		requireModel(cf)
		ok, total, err := gen.RenderTrajectoryFolder(ctx, target, cf.model, cam)
		exitOn(log, err)
		fmt.Printf("rendered %d/%d trajectories\n", ok, total)
		if ok < total {
			os.Exit(1)
		}
	}
}

func resolveCamera(cf cliFlags) (renderer.Camera, error) {
	if cf.preset != "" {
		if cf.presets == "" {
			return renderer.Camera{}, fmt.Errorf("-preset requires a presets file (-presets or CAMERA_PRESETS)")
		}
		presets, err := pipeline.LoadPresets(cf.presets)
		if err != nil {
			return renderer.Camera{}, err
		}
		cam, ok := presets[cf.preset]
		if !ok {
			return renderer.Camera{}, fmt.Errorf("preset %q not found in %s", cf.preset, cf.presets)
		}
		return cam, nil
	}

	cam := renderer.Default()
	cam.Name = cf.camera
	cam.Distance = cf.distance
	cam.Azimuth = cf.azimuth
	cam.Elevation = cf.elevation
	if cf.lookAt != "" {
		parts := strings.Split(cf.lookAt, ",")
		if len(parts) != 3 {
			return renderer.Camera{}, fmt.Errorf("-lookat wants x,y,z, got %q", cf.lookAt)
		}
		for i, part := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return renderer.Camera{}, fmt.Errorf("-lookat component %d: %w", i, err)
			}
			cam.LookAt[i] = v
		}
	}
	return cam, nil
}

func requireModel(cf cliFlags) {
	if cf.model == "" {
		fmt.Println("-model is required for this mode")
		os.Exit(2)
	}
}

func exitOn(log *logger.Logger, err error) {
	if err != nil {
		log.Error("Render failed", "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage: thumbnails <model|trajectory|folder> [flags] <path>")
}
