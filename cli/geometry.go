package cli

import (
	"fmt"
	"os"
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"go.kartsim.dev/collision/kcl"
)

// InfoAction prints the header, index and surface summary of a geometry file.
func InfoAction(c *cli.Context) error {
	tool, err := fromContext(c)
	if err != nil {
		return err
	}
	store, path, err := loadGeometry(c, tool)
	if err != nil {
		return err
	}
	printStoreSummary(c, path, store)

	categories := lo.CountValuesBy(store.Planes(), func(p kcl.Plane) string {
		return p.CollisionType().Category().String()
	})
	names := lo.Keys(categories)
	slices.Sort(names)
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Category", "Planes"})
	for _, name := range names {
		t.AppendRow(table.Row{name, categories[name]})
	}
	printf(c.App.Writer, "%s", t.Render())
	return nil
}

func printStoreSummary(c *cli.Context, path string, store *kcl.Store) {
	params := store.Params()
	low, high := store.Bounds()
	extent := params.Extent()
	printf(c.App.Writer, "%s", path)
	printf(c.App.Writer, "planes:     %d", store.NumPlanes())
	printf(c.App.Writer, "cells:      %d", store.NumCells())
	printf(c.App.Writer, "origin:     %s", formatVector(store.Origin()))
	printf(c.App.Writer, "extent:     %s", formatVector(extent))
	printf(c.App.Writer, "bounds:     %s to %s", formatVector(low), formatVector(high))
	printf(c.App.Writer, "cell shift: %d", params.CoordShift)
	printf(c.App.Writer, "thickness:  %.2f", store.Thickness())
}

// PlanesAtAction lists the planes stored in the leaf holding a point.
func PlanesAtAction(c *cli.Context) error {
	tool, err := fromContext(c)
	if err != nil {
		return err
	}
	store, _, err := loadGeometry(c, tool)
	if err != nil {
		return err
	}
	pt, err := vectorArgs(c, 1)
	if err != nil {
		return err
	}

	cell, ok := store.Locate(pt.X, pt.Y, pt.Z)
	if !ok {
		printf(c.App.Writer, "%s is outside the indexed volume", formatVector(pt))
		return nil
	}
	planes := store.PlanesAt(pt.X, pt.Y, pt.Z)
	printf(c.App.Writer, "cell %s size %.0f depth %d: %d planes", formatVector(cell.Min), cell.Size, cell.Depth, len(planes))
	if len(planes) == 0 {
		return nil
	}
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Index", "Type", "Normal", "Height"})
	for _, p := range planes {
		t.AppendRow(table.Row{p.Index(), p.CollisionType().String(), formatVector(p.Normal()), fmt.Sprintf("%.3f", p.Height())})
	}
	printf(c.App.Writer, "%s", t.Render())
	return nil
}

// ConvertAction re-encodes a geometry file, optionally rebuilding its octree.
func ConvertAction(c *cli.Context) error {
	tool, err := fromContext(c)
	if err != nil {
		return err
	}
	store, _, err := loadGeometry(c, tool)
	if err != nil {
		return err
	}
	out := c.Args().Get(1)
	if out == "" {
		return errors.New("an output file is required")
	}
	enc, err := kcl.ParseEncoding(c.String(convertFlagTo))
	if err != nil {
		return err
	}

	if c.Bool(convertFlagRebuild) {
		store, err = kcl.Build(store.Planes(), tool.conf.BuildOptions(), tool.sublogger("kcl"))
		if err != nil {
			return errors.Wrap(err, "could not rebuild octree")
		}
	}
	data, err := store.Encode(enc)
	if err != nil {
		return errors.Wrap(err, "could not encode geometry")
	}
	//nolint:gosec
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return errors.Wrapf(err, "could not write %q", out)
	}
	printf(c.App.Writer, "wrote %d planes to %s (%s, %d bytes)", store.NumPlanes(), out, enc, len(data))
	return nil
}
