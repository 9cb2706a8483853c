package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zephyrtronium/shunting"
	"github.com/zephyrtronium/shunting/internal/config"
	"github.com/zephyrtronium/shunting/internal/varfile"
)

// app is the state shared by the command's steps.
type app struct {
	cfg *config.Config
	log *logrus.Logger
	out io.Writer
}

func newRootCmd() *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:   "shunting [flags] [expression ...]",
		Short: "Evaluate arithmetic expressions",
		Long: `Evaluate arithmetic expressions given as arguments or read from input.

Variables come from --given definitions and from YAML variable files given
with --vars. When there are variable files, every expression is evaluated
once per file. Use -- before expressions that begin with a minus sign.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, configFile)
			if err != nil {
				return err
			}
			return a.run(cmd.Context(), args, cmd.InOrStdin())
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "config file path (default shunting.yaml if present)")
	pf.StringArray("given", nil, "name=value variable definition (any number of times)")
	pf.StringSlice("vars", nil, "YAML variable files")
	pf.String("log-level", config.DefaultLogLevel, "log level")
	pf.String("log-format", config.DefaultLogFormat, "log format, text or json")

	f := cmd.Flags()
	f.String("in", "", "input file (default stdin if no args given)")
	f.String("fmt", config.DefaultFormat, "result formatting string")
	f.Uint("prec", 0, "precision of calculations in bits (default float64)")
	f.BoolP("lines", "n", false, "parse separate input lines as separate expressions")
	f.Bool("echo", false, "print compiled expressions")
	f.Int("workers", 0, "variable files to evaluate at once (default GOMAXPROCS)")

	cmd.AddCommand(newVarsCmd(&configFile))
	return cmd
}

// setup loads the config and logger for a command.
func setup(cmd *cobra.Command, configFile string) (*app, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log, err := newLogger(cfg.Logger, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	if cfg.File != "" {
		log.WithField("file", cfg.File).Debug("loaded config")
	}
	return &app{cfg: cfg, log: log, out: cmd.OutOrStdout()}, nil
}

// run parses all input expressions and prints their results for each
// variable file.
func (a *app) run(ctx context.Context, args []string, stdin io.Reader) error {
	base, err := a.givens()
	if err != nil {
		return err
	}
	exprs, err := a.parse(args, stdin, base.Names())
	if err != nil {
		return err
	}
	a.log.WithField("count", len(exprs)).Debug("parsed expressions")

	files := a.cfg.VarFiles
	if len(files) == 0 {
		files = []string{""}
	}
	results := make([][]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Workers)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			vars := base
			if file != "" {
				var err error
				vars, err = varfile.Load(file, base)
				if err != nil {
					return fmt.Errorf("failed to load variables: %w", err)
				}
				a.log.WithFields(logrus.Fields{"file": file, "vars": vars.Len()}).Debug("loaded variables")
			}
			r := make([]string, 0, len(exprs))
			for _, e := range exprs {
				if err := gctx.Err(); err != nil {
					return err
				}
				r = append(r, a.result(e, vars, file))
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	w := bufio.NewWriter(a.out)
	for i, r := range results {
		if len(a.cfg.VarFiles) > 1 {
			if i > 0 {
				w.WriteByte('\n')
			}
			fmt.Fprintf(w, "# %s\n", files[i])
		}
		for _, s := range r {
			w.WriteString(s)
			w.WriteByte('\n')
		}
	}
	return w.Flush()
}

// result evaluates one expression and formats its result or error.
func (a *app) result(e *shunting.Expr, vars *shunting.Context, file string) string {
	var b strings.Builder
	if a.cfg.Echo {
		fmt.Fprintf(&b, "%v : ", e)
	}
	var r any
	var err error
	if a.cfg.Prec > 0 {
		r, err = e.EvalBig(vars, a.cfg.Prec)
	} else {
		r, err = e.Eval(vars)
	}
	if err != nil {
		entry := a.log.WithFields(logrus.Fields{"expr": e.String(), "file": file})
		var ne *shunting.NameError
		if errors.As(err, &ne) {
			entry = entry.WithField("missing", e.Missing(vars))
		}
		entry.WithError(err).Warn("evaluation failed")
		b.WriteString(err.Error())
		return b.String()
	}
	fmt.Fprintf(&b, a.cfg.Format, r)
	return b.String()
}

// parse compiles the expressions from the input file and args. Names in
// given are parsed as variables even where they name a default function.
func (a *app) parse(args []string, stdin io.Reader, given []string) ([]*shunting.Expr, error) {
	var ins []io.RuneScanner
	in, err := a.infile(len(args) == 0, stdin)
	if err != nil {
		return nil, err
	}
	if in != nil {
		defer in.Close()
		ins = append(ins, bufio.NewReader(in))
	}
	for _, arg := range args {
		ins = append(ins, strings.NewReader(arg))
	}

	opts := shadow(given)
	if a.cfg.Lines {
		opts = append(opts, shunting.StopOn('\n'))
	}
	var p []*shunting.Expr
	for _, in := range ins {
		for {
			// Check whether there is anything left but whitespace.
			if ok, err := skipSpace(in); err != nil {
				return nil, err
			} else if !ok {
				break
			}
			e, err := shunting.ParseFrom(in, opts...)
			if err != nil {
				return nil, fmt.Errorf("expression %d: %w", len(p)+1, err)
			}
			p = append(p, e)
		}
	}
	return p, nil
}

// infile opens the input file. If none is named and std is true, the input is
// stdin.
func (a *app) infile(std bool, stdin io.Reader) (io.ReadCloser, error) {
	switch name := a.cfg.Input; {
	case name != "" && name != "-":
		return os.Open(name)
	case name == "-", std:
		return io.NopCloser(stdin), nil
	}
	return nil, nil
}

// skipSpace consumes whitespace from in and reports whether any input remains.
func skipSpace(in io.RuneScanner) (bool, error) {
	for {
		r, _, err := in.ReadRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return false, nil
			}
			return false, err
		}
		if !unicode.IsSpace(r) {
			return true, in.UnreadRune()
		}
	}
}

// givens evaluates the --given definitions in order, so later definitions
// may use earlier ones.
func (a *app) givens() (*shunting.Context, error) {
	ctx := shunting.NewContext()
	for _, s := range a.cfg.Given {
		name, val, ok := strings.Cut(s, "=")
		name = strings.TrimSpace(name)
		if !ok || !validName(name) {
			return nil, fmt.Errorf(`variable definitions must be "name=value", not %q`, s)
		}
		e, err := shunting.Parse(val, shadow(ctx.Names())...)
		if err != nil {
			return nil, fmt.Errorf("setting %s: %w", name, err)
		}
		r, err := e.Eval(ctx)
		if err != nil {
			return nil, fmt.Errorf("setting %s: %w", name, err)
		}
		ctx.Set(name, r)
	}
	return ctx, nil
}

// shadow gives parse options that make each name a variable.
func shadow(names []string) []shunting.ParseOption {
	opts := make([]shunting.ParseOption, 0, len(names))
	for _, name := range names {
		opts = append(opts, shunting.ParseFunc(name, nil))
	}
	return opts
}

// validName reports whether name parses as a single variable.
func validName(name string) bool {
	e, err := shunting.Parse(name, shunting.DisableDefaultFuncs())
	if err != nil || e.Len() != 1 {
		return false
	}
	v := e.Vars()
	return len(v) == 1 && v[0] == name
}
