// Package cli contains kcltool, a command line tool for inspecting and querying collision
// geometry files.
package cli

import (
	"io"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.kartsim.dev/collision/config"
	"go.kartsim.dev/collision/logging"
)

// CLI flags.
const (
	generalFlagConfig   = "config"
	generalFlagDebug    = "debug"
	generalFlagEncoding = "encoding"

	queryFlagOrigin = "origin"
	queryFlagDir    = "dir"
	queryFlagMargin = "margin"
	queryFlagRadii  = "radii"
	queryFlagSlide  = "slide"

	convertFlagTo      = "to"
	convertFlagRebuild = "rebuild"

	benchFlagQueries  = "queries"
	benchFlagSeed     = "seed"
	benchFlagRadius   = "radius"
	benchFlagPlatform = "platform"

	watchFlagMaxReloads = "max-reloads"
)

const toolContextKey = "kcltool"

var app = &cli.App{
	Name:            "kcltool",
	Usage:           "inspect and query collision geometry",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    generalFlagConfig,
			Aliases: []string{"c"},
			Usage:   "load configuration from `FILE`",
		},
		&cli.BoolFlag{
			Name:    generalFlagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
		&cli.StringFlag{
			Name:  generalFlagEncoding,
			Usage: "encoding of geometry files (fx32le or f32be), overrides the config",
		},
	},
	Before: beforeAction,
	After:  afterAction,
	Commands: []*cli.Command{
		{
			Name:      "info",
			Usage:     "print a summary of a geometry file",
			ArgsUsage: "<geometry>",
			Action:    InfoAction,
		},
		{
			Name:      "planes-at",
			Usage:     "list the planes of the octree cell holding a point",
			ArgsUsage: "<geometry> <x> <y> <z>",
			Action:    PlanesAtAction,
		},
		{
			Name:      "raycast",
			Usage:     "cast a segment against a geometry file",
			ArgsUsage: "<geometry>",
			Flags: []cli.Flag{
				&cli.Float64SliceFlag{Name: queryFlagOrigin, Required: true, Usage: "segment start as x,y,z"},
				&cli.Float64SliceFlag{Name: queryFlagDir, Required: true, Usage: "segment displacement as x,y,z"},
				&cli.Float64Flag{Name: queryFlagMargin, Usage: "barycentric error margin, defaults to the config"},
			},
			Action: RaycastAction,
		},
		{
			Name:      "sweep",
			Usage:     "sweep an ellipsoid against a geometry file",
			ArgsUsage: "<geometry>",
			Flags: []cli.Flag{
				&cli.Float64SliceFlag{Name: queryFlagOrigin, Required: true, Usage: "ellipsoid center as x,y,z"},
				&cli.Float64SliceFlag{Name: queryFlagDir, Required: true, Usage: "displacement as x,y,z"},
				&cli.Float64SliceFlag{Name: queryFlagRadii, Usage: "ellipsoid radii as x,y,z", Value: cli.NewFloat64Slice(1, 1, 1)},
				&cli.BoolFlag{Name: queryFlagSlide, Usage: "resolve the whole motion with move and slide"},
			},
			Action: SweepAction,
		},
		{
			Name:      "convert",
			Usage:     "re-encode a geometry file",
			ArgsUsage: "<input> <output>",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: convertFlagTo, Required: true, Usage: "output encoding"},
				&cli.BoolFlag{Name: convertFlagRebuild, Usage: "rebuild the octree with the configured options"},
			},
			Action: ConvertAction,
		},
		{
			Name:      "bench",
			Usage:     "time random sweeps against a geometry file",
			ArgsUsage: "<geometry>",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: benchFlagQueries, Value: 1000, Usage: "number of sweeps"},
				&cli.Int64Flag{Name: benchFlagSeed, Value: 1, Usage: "random seed"},
				&cli.Float64Flag{Name: benchFlagRadius, Value: 1, Usage: "sphere radius"},
				&cli.BoolFlag{Name: benchFlagPlatform, Usage: "add a moving platform to the scene"},
			},
			Action: BenchAction,
		},
		{
			Name:      "watch",
			Usage:     "reload a geometry file whenever it changes",
			ArgsUsage: "<geometry>",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: watchFlagMaxReloads, Usage: "stop after this many reloads, 0 runs until interrupted"},
			},
			Action: WatchAction,
		},
	},
}

// NewApp returns the kcltool app writing to the given writers.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}

// Rotation limits of the configured log file.
const (
	logFileMaxSizeMB  = 10
	logFileMaxBackups = 3
)

type toolContext struct {
	logger   logging.Logger
	registry *logging.Registry
	conf     *config.Config
	logFile  *logging.FileAppender
}

// sublogger returns the named child of the tool logger, leveled by the configured log patterns.
func (tool *toolContext) sublogger(name string) logging.Logger {
	return tool.registry.Register("kcltool."+name, tool.logger.Sublogger(name))
}

func beforeAction(c *cli.Context) error {
	delete(c.App.Metadata, toolContextKey)
	logger := logging.NewBlankLogger("kcltool")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	logger.SetLevel(logging.INFO)

	overrides := config.AttributeMap{}
	if c.IsSet(generalFlagEncoding) {
		overrides["encoding"] = c.String(generalFlagEncoding)
	}
	if c.Bool(generalFlagDebug) {
		overrides["debug"] = true
	}
	conf, err := config.Read(c.String(generalFlagConfig), overrides, logger)
	if err != nil {
		return err
	}
	fallback := logging.INFO
	if conf.Debug {
		fallback = logging.DEBUG
		logger.SetLevel(fallback)
	}
	tool := &toolContext{logger: logger, registry: logging.NewRegistry(fallback), conf: conf}
	if err := tool.registry.Update(conf.Log, logger); err != nil {
		return err
	}
	if conf.LogFile != "" {
		tool.logFile = logging.NewFileAppender(conf.LogFile, logFileMaxSizeMB, logFileMaxBackups)
		logger.AddAppender(tool.logFile)
	}

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]interface{}{}
	}
	c.App.Metadata[toolContextKey] = tool
	return nil
}

func afterAction(c *cli.Context) error {
	tool, err := fromContext(c)
	if err != nil || tool.logFile == nil {
		return nil
	}
	return tool.logFile.Close()
}

func fromContext(c *cli.Context) (*toolContext, error) {
	tool, ok := c.App.Metadata[toolContextKey].(*toolContext)
	if !ok {
		return nil, errors.New("kcltool was not initialized")
	}
	return tool, nil
}
