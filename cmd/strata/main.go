// Command strata slices model files into one G-code program.
//
//	strata -o out.gcode [-c settings.json] [-j cutouts.lisp]
//	       [-s key=value]... [-m a,b,c,d,e,f,g,h,i] [-v]... [-dump dir]
//	       model...
//
// A model is an STL path or a primitive spec such as box:20x20x10; several
// sources joined with '+' print as one multi-volume model. Settings apply
// in the order defaults, -c file, script params, -s, -m.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/chazu/strata/pkg/config"
	"github.com/chazu/strata/pkg/logx"
)

// countFlag counts repetitions of a boolean flag.
type countFlag int

func (c *countFlag) String() string   { return strconv.Itoa(int(*c)) }
func (c *countFlag) IsBoolFlag() bool { return true }

func (c *countFlag) Set(s string) error {
	if s == "true" {
		*c++
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid count %q", s)
	}
	*c = countFlag(n)
	return nil
}

// listFlag collects every occurrence of a repeatable flag.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, " ") }

func (l *listFlag) Set(s string) error {
	*l = append(*l, s)
	return nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// isArithmeticFault reports whether a recovered panic is an integer
// division fault.
func isArithmeticFault(r any) bool {
	var re runtime.Error
	err, ok := r.(error)
	return ok && errors.As(err, &re) && strings.Contains(re.Error(), "divide by zero")
}

func run(args []string) (code int) {
	fs := flag.NewFlagSet("strata", flag.ContinueOnError)
	output := fs.String("o", "", "G-code output file")
	configFile := fs.String("c", "", "JSON settings file")
	script := fs.String("j", "", "cutout script (zygomys Lisp)")
	matrix := fs.String("m", "", "model matrix, nine comma-separated values")
	dump := fs.String("dump", "", "directory for per-layer debug plots")
	var verbose countFlag
	fs.Var(&verbose, "v", "increase verbosity (repeatable)")
	var settings listFlag
	fs.Var(&settings, "s", "setting override key=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	lg := logx.Wrap(log.New(os.Stderr, "", log.LstdFlags), int(verbose))
	if *output == "" {
		lg.Errorf("No output file specified")
		return 1
	}

	cfg := config.Default()
	if *configFile != "" {
		if err := cfg.LoadFile(*configFile); err != nil {
			lg.Errorf("Failed to load settings: %v", err)
			return 1
		}
	}

	app := NewApp(cfg, lg)
	app.SetDumpDir(*dump)
	if *script != "" {
		source, err := os.ReadFile(*script)
		if err != nil {
			lg.Errorf("Failed to read script: %v", err)
			return 1
		}
		result := app.Evaluate(string(source))
		for _, w := range result.Warnings {
			lg.Infof("%s: warning: %s", *script, w.Message)
		}
		if len(result.Errors) > 0 {
			for _, e := range result.Errors {
				lg.Errorf("%s:%d:%d: %s", *script, e.Line, e.Col, e.Message)
			}
			return 1
		}
		lg.Debugf("Script: %d params, %d cutouts", len(result.Params), result.Cutouts)
	}

	for _, kv := range settings {
		if err := cfg.Set(kv); err != nil {
			lg.Errorf("Invalid setting %q: %v", kv, err)
		}
	}
	if *matrix != "" {
		if err := cfg.Set("matrix=" + *matrix); err != nil {
			lg.Errorf("Invalid matrix: %v", err)
			return 1
		}
	}

	out, err := os.Create(*output)
	if err != nil {
		lg.Errorf("Failed to open %s for output: %v", *output, err)
		return 1
	}
	defer func() {
		if r := recover(); r != nil {
			if !isArithmeticFault(r) {
				panic(r)
			}
			lg.Errorf("fatal arithmetic fault: %v", r)
			out.Close()
			os.Remove(*output)
			code = 1
		}
	}()

	sum, err := app.Run(context.Background(), out, fs.Args())
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		lg.Errorf("%v", err)
		return 1
	}
	lg.Infof("Job %s: %d printed, %d skipped", sum.JobID, sum.Printed, sum.Skipped)
	return 0
}
