// Package trajfile decodes trajectory pose sequences from NumPy array
// containers: a bare .npy file holding one 2-D array (frames × pose
// dimensionality), or a .npz archive holding several named arrays of which
// one is the pose sequence.
package trajfile

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sbinet/npyio"
)

// poseMembers are the .npz member names recognized as the pose-vector
// sequence, in preference order. When none match, the first member in
// archive order is used.
var poseMembers = []string{"qpos_traj", "qpos"}

// Frames loads the pose-vector sequence from a .npy or .npz file.
func Frames(path string) ([][]float64, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".npy":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("trajfile: open %s: %w", path, err)
		}
		defer f.Close()
		return decodeNPY(f)
	case ".npz":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("trajfile: read %s: %w", path, err)
		}
		return decodeNPZ(data)
	default:
		return nil, fmt.Errorf("trajfile: unrecognized container %q", filepath.Ext(path))
	}
}

func decodeNPY(r io.Reader) ([][]float64, error) {
	rd, err := npyio.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("trajfile: parse npy header: %w", err)
	}
	shape := rd.Header.Descr.Shape
	if len(shape) != 2 {
		return nil, fmt.Errorf("trajfile: expected 2-D pose array, got shape %v", shape)
	}
	rows, cols := shape[0], shape[1]
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("trajfile: empty pose array, shape %v", shape)
	}

	dtype := rd.Header.Descr.Type
	var flat []float64
	switch {
	case strings.Contains(dtype, "f8"):
		if err := rd.Read(&flat); err != nil {
			return nil, fmt.Errorf("trajfile: read float64 data: %w", err)
		}
	case strings.Contains(dtype, "f4"):
		var f32 []float32
		if err := rd.Read(&f32); err != nil {
			return nil, fmt.Errorf("trajfile: read float32 data: %w", err)
		}
		flat = make([]float64, len(f32))
		for i, v := range f32 {
			flat[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("trajfile: unsupported dtype %q", dtype)
	}
	if len(flat) != rows*cols {
		return nil, fmt.Errorf("trajfile: data length %d does not match shape %v", len(flat), shape)
	}

	frames := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		frame := make([]float64, cols)
		for j := 0; j < cols; j++ {
			if rd.Header.Descr.Fortran {
				frame[j] = flat[j*rows+i]
			} else {
				frame[j] = flat[i*cols+j]
			}
		}
		frames[i] = frame
	}
	return frames, nil
}

func decodeNPZ(data []byte) ([][]float64, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("trajfile: open npz archive: %w", err)
	}
	if len(zr.File) == 0 {
		return nil, fmt.Errorf("trajfile: npz archive is empty")
	}

	pick := zr.File[0]
	for _, want := range poseMembers {
		for _, f := range zr.File {
			if strings.TrimSuffix(f.Name, ".npy") == want {
				pick = f
				break
			}
		}
		if strings.TrimSuffix(pick.Name, ".npy") == want {
			break
		}
	}

	rc, err := pick.Open()
	if err != nil {
		return nil, fmt.Errorf("trajfile: open npz member %s: %w", pick.Name, err)
	}
	defer rc.Close()
	frames, err := decodeNPY(rc)
	if err != nil {
		return nil, fmt.Errorf("trajfile: member %s: %w", pick.Name, err)
	}
	return frames, nil
}
