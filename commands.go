package main

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"gregoryjjb/crabcups/cups"
)

type cli struct {
	fs     CrabFS
	getenv func(string) string
	flags  Flags
	config *Config
}

func newRootCommand(fs CrabFS, getenv func(string) string) *cobra.Command {
	c := &cli{fs: fs, getenv: getenv}

	root := &cobra.Command{
		Use:           "crabcups",
		Short:         "Simulates the crab cups game",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config, err := NewConfig(c.fs, c.flags, c.getenv)
			if err != nil {
				return fmt.Errorf("config initialization failed: %w", err)
			}
			c.config = config
			zerolog.SetGlobalLevel(config.LogLevel())
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.flags.ConfigPath, "config", "", "config file (default "+DefaultConfigPath+")")
	pf.StringVar(&c.flags.DataDir, "data-dir", "", "directory finished runs are stored in")
	pf.StringVar(&c.flags.Host, "host", "", "address to listen on")
	pf.IntVar(&c.flags.Port, "port", 0, "port to listen on")
	pf.StringVar(&c.flags.LogLevel, "log-level", "", "trace, debug, info, warn or error")

	root.AddCommand(
		c.solveCommand(),
		c.simulateCommand(),
		c.serveCommand(),
		c.systemdCommand(),
		c.versionCommand(),
	)

	return root
}

func (c *cli) solveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "solve [input file]",
		Short: "Solve both parts of the puzzle for the cup order in a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw []byte
			var err error
			if len(args) == 1 {
				raw, err = afero.ReadFile(c.fs, args[0])
			} else {
				raw, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}

			labels, err := ParseLabels(string(raw))
			if err != nil {
				return err
			}

			answer, err := Solve(cmd.Context(), labels, c.config.Puzzle())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Part 1: %s\n", answer.Order)
			fmt.Fprintf(cmd.OutOrStdout(), "Part 2: %d\n", answer.Product)
			return nil
		},
	}
}

func (c *cli) simulateCommand() *cobra.Command {
	var req RunRequest

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play a number of moves on one ring and print the readouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := req.Validate(); err != nil {
				return err
			}

			labels, err := ParseLabels(req.Input)
			if err != nil {
				return err
			}
			ring, err := cups.New(labels, req.Size)
			if err != nil {
				return err
			}

			start := time.Now()
			sim := cups.Simulator{
				Interval: c.config.Puzzle().ProgressInterval,
				Progress: func(p cups.Progress) {
					log.Debug().Int("done", p.Done).Int("total", p.Total).Msg("Simulating")
				},
			}
			if err := sim.Run(cmd.Context(), ring, req.Moves); err != nil {
				return err
			}
			movesTotal.Add(float64(req.Moves))

			log.Info().
				Int("cups", ring.Len()).
				Int("moves", req.Moves).
				Dur("took", time.Since(start)).
				Msg("Simulation finished")

			if ring.Len()-1 <= c.config.ReadoutLimit() {
				fmt.Fprintf(cmd.OutOrStdout(), "Order: %s\n", ring.OrderString())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Product: %d\n", ring.PairProduct())
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.Input, "input", "i", "", "initial cup order, e.g. 389125467")
	cmd.Flags().IntVarP(&req.Moves, "moves", "m", 100, "number of moves to play")
	cmd.Flags().IntVarP(&req.Size, "size", "n", 0, "total number of cups (0 keeps the input size)")
	cmd.MarkFlagRequired("input")

	return cmd
}

func (c *cli) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the simulation service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := buildInfo()
			log.Info().
				Str("version", info.Version).
				Str("build_timestamp", info.BuildTime.Format(time.RFC3339)).
				Str("commit_hash", info.Commit).
				Str("data_dir", c.config.DataDir()).
				Msg("Initializing crabcups")

			if err := c.fs.MkdirAll(c.config.DataDir(), 0755); err != nil {
				return fmt.Errorf("create data dir: %w", err)
			}

			ctx := cmd.Context()
			storage := NewStorage(c.fs, c.config)
			runner := NewRunner(ctx, c.config, storage)

			if err := StartServer(ctx, c.config, info, runner); err != nil {
				return err
			}

			<-runner.Stopped()
			return nil
		},
	}
}

func (c *cli) systemdCommand() *cobra.Command {
	var params CrabcupsServiceParams

	cmd := &cobra.Command{
		Use:   "systemd",
		Short: "Print a systemd service file for this binary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params.ConfigPath = c.flags.ConfigPath
			return SystemdServiceFile(cmd.OutOrStdout(), params)
		},
	}

	cmd.Flags().StringVar(&params.User, "user", "crabcups", "user the service runs as")
	cmd.Flags().StringVar(&params.BinaryPath, "binary", "", "path to the binary (default this executable)")

	return cmd
}

func (c *cli) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := buildInfo()
			fmt.Fprintln(cmd.OutOrStdout(), "Crabcups version:", info.Version)
			fmt.Fprintln(cmd.OutOrStdout(), "Built on:", info.BuildTime)
			fmt.Fprintln(cmd.OutOrStdout(), "Commit hash:", info.Commit)
			return nil
		},
	}
}
