package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	appServices "github.com/yigit/internhub/internal/app/services"
	"github.com/yigit/internhub/internal/engine"
	"github.com/yigit/internhub/internal/pkg/logger"
	"github.com/yigit/internhub/internal/pkg/sheet"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "placement",
		Usage: "import internship spreadsheets and assign students to teachers and companies",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "configs/config.yaml",
				Usage:   "path to the YAML configuration file",
				EnvVars: []string{"INTERNHUB_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "migrate",
				Usage: "apply pending migrations before running the command",
			},
		},
		Commands: []*cli.Command{
			importCommand(),
			{
				Name:  "assign",
				Usage: "deduplicate, then assign unassigned students to teachers and companies",
				Action: withEngine(func(c *cli.Context, e *engine.Engine) (any, error) {
					return e.Assign(c.Context)
				}),
			},
			{
				Name:  "dedup",
				Usage: "collapse student rows sharing a code",
				Action: withEngine(func(c *cli.Context, e *engine.Engine) (any, error) {
					return e.Dedup(c.Context)
				}),
			},
			{
				Name:  "recount",
				Usage: "recompute teacher and company counters",
				Action: withEngine(func(c *cli.Context, e *engine.Engine) (any, error) {
					return e.Recount(c.Context)
				}),
			},
			{
				Name:  "readiness",
				Usage: "recompute student readiness flags",
				Action: withEngine(func(c *cli.Context, e *engine.Engine) (any, error) {
					n, err := e.RefreshReadiness(c.Context)
					return map[string]int64{"updated": n}, err
				}),
			},
			{
				Name:  "migrate",
				Usage: "apply pending database migrations",
				Action: withEngine(func(c *cli.Context, e *engine.Engine) (any, error) {
					return map[string]string{"status": "ok"}, e.Migrate(c.Context)
				}),
			},
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "import one spreadsheet",
		ArgsUsage: "<file.xlsx>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Required: true, Usage: "student_roster, teacher_roster, company_roster, guidance_mapping or registration_form"},
			&cli.StringFlag{Name: "sheet", Usage: "sheet name, defaults to the first sheet with recognizable headers"},
			&cli.StringFlag{Name: "mode", Usage: "merge mode: fill_empty or overwrite"},
			&cli.StringFlag{Name: "batch", Usage: "batch id, generated when empty"},
			&cli.BoolFlag{Name: "auto-assign", Usage: "run an assignment after the import"},
		},
		Action: withEngine(func(c *cli.Context, e *engine.Engine) (any, error) {
			if c.NArg() != 1 {
				return nil, fmt.Errorf("expected exactly one file argument, got %d", c.NArg())
			}
			kind, err := sheet.ParseKind(c.String("kind"))
			if err != nil {
				return nil, err
			}
			opts := appServices.ImportOptions{
				Kind:       kind,
				SheetName:  c.String("sheet"),
				AutoAssign: c.Bool("auto-assign") || e.Config().Import.AutoAssign,
			}
			if m := c.String("mode"); m != "" {
				if opts.MergeMode, err = appServices.ParseMergeMode(m); err != nil {
					return nil, err
				}
			}
			if b := c.String("batch"); b != "" {
				if opts.BatchID, err = uuid.Parse(b); err != nil {
					return nil, fmt.Errorf("invalid batch id %q: %w", b, err)
				}
			}
			return e.ImportFile(c.Context, c.Args().First(), opts)
		}),
	}
}

// withEngine opens an engine for the command, runs fn and prints its result
// as JSON on stdout.
func withEngine(fn func(*cli.Context, *engine.Engine) (any, error)) cli.ActionFunc {
	return func(c *cli.Context) error {
		e, err := engine.New(c.Context, engine.Options{ConfigPath: c.String("config"), Migrate: c.Bool("migrate")})
		if err != nil {
			return err
		}
		defer e.Close()

		out, err := fn(c, e)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
}
