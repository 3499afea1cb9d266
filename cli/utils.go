package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.kartsim.dev/collision/kcl"
)

// printf prints a message with no prefix.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

func formatVector(v r3.Vector) string {
	return fmt.Sprintf("(%.4f, %.4f, %.4f)", v.X, v.Y, v.Z)
}

// vectorFlag reads a three component slice flag.
func vectorFlag(c *cli.Context, name string) (r3.Vector, error) {
	values := c.Float64Slice(name)
	if len(values) != 3 {
		return r3.Vector{}, errors.Errorf("--%s needs three values, got %d", name, len(values))
	}
	return r3.Vector{X: values[0], Y: values[1], Z: values[2]}, nil
}

// vectorArgs parses three positional arguments starting at first.
func vectorArgs(c *cli.Context, first int) (r3.Vector, error) {
	if c.Args().Len() < first+3 {
		return r3.Vector{}, errors.New("expected x, y and z arguments")
	}
	var coords [3]float64
	for i := range coords {
		arg := c.Args().Get(first + i)
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return r3.Vector{}, errors.Wrapf(err, "could not parse coordinate %q", arg)
		}
		coords[i] = v
	}
	return r3.Vector{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}

// loadGeometry loads the geometry file named by the first argument in the configured encoding.
func loadGeometry(c *cli.Context, tool *toolContext) (*kcl.Store, string, error) {
	path := c.Args().First()
	if path == "" {
		return nil, "", errors.New("a geometry file is required")
	}
	store, err := kcl.LoadFile(path, tool.conf.GeometryEncoding(), tool.sublogger("kcl"))
	if err != nil {
		return nil, "", err
	}
	return store, path, nil
}
