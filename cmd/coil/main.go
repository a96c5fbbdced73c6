// Copyright (c) 2024 The Coil Contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Command coil is the driver CLI of spec.md §6: it reads a textual IR
// assembly unit, runs the optimizer pipeline at the requested level,
// selects and allocates one target's instructions per function, then
// emits an object or assembly-text file.
//
// Grounded on the teacher's main.go (a bare os.Args dispatcher calling
// straight into compile.CompileTheWorld), generalized into the
// documented flag surface using github.com/urfave/cli/v2 — the teacher
// carries no CLI library at all, so this is net-new wiring drawn from
// the rest of the example corpus (see SPEC_FULL.md §5).
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	_ "coil/internal/backend/x86"
	"coil/internal/coilerr"
	"coil/internal/config"
	"coil/internal/diag"
	"coil/internal/emit"
	"coil/internal/frontend"
	"coil/internal/ir"
	"coil/internal/isel"
	"coil/internal/logging"
	"coil/internal/optimize"
	"coil/internal/passmgr"
	"coil/internal/registry"
	"coil/internal/target"
	"coil/internal/typesys"
)

// Exit codes, per spec.md §6.
const (
	exitOK           = 0
	exitInputError   = 1
	exitInternal     = 2
	exitTargetError  = 3
)

func main() {
	app := &cli.App{
		Name:  "coil",
		Usage: "retargetable assembler/code-generator driver",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output file path"},
			&cli.StringFlag{Name: "opt", Aliases: []string{"O"}, Value: "0", Usage: "optimisation level: 0,1,2,3,s"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"g"}, Usage: "emit debug info (opaque passthrough flag)"},
			&cli.StringFlag{Name: "target", Value: "x86-64", Usage: "target descriptor name"},
			&cli.StringSliceFlag{Name: "feature", Usage: "enable/disable a target feature, e.g. +avx2 or -bmi2"},
			&cli.StringFlag{Name: "emit", Value: "obj", Usage: "output format: obj or asm"},
			&cli.StringFlag{Name: "config", Usage: "YAML config file; may override target/opt defaults"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		if code, ok := err.(exitError); ok {
			fmt.Fprintln(os.Stderr, code.msg)
			os.Exit(code.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitInternal)
	}
}

// exitError carries one of spec.md §6's documented exit codes out of
// run, so main can translate it into os.Exit without urfave/cli
// swallowing the distinction (cli.App.Run itself always reports a
// generic failure to its caller).
type exitError struct {
	code int
	msg  string
}

func (e exitError) Error() string { return e.msg }

func run(c *cli.Context) error {
	registry.Seal()
	log := logging.FromEnv("COIL_LOG_LEVEL")
	sink := diag.DefaultSink{}

	if c.NArg() != 1 {
		diag.Report(sink, diag.Error, diag.General, 1, "usage: coil [flags] <input.coil>")
		return exitError{exitInputError, "missing input file"}
	}
	inputPath := c.Args().Get(0)

	optStr, targetName := c.String("opt"), c.String("target")
	if path := c.String("config"); path != "" {
		cfg, err := loadConfig(path)
		if err != nil {
			diag.ReportErr(sink, diag.General, 15, err)
			return exitError{exitInputError, err.Error()}
		}
		if v, ok := cfg.Get("opt"); ok && v.Kind == config.KindString {
			optStr = v.String
		}
		if v, ok := cfg.Get("target"); ok && v.Kind == config.KindString {
			targetName = v.String
		}
	}

	level, err := parseOptLevel(optStr)
	if err != nil {
		diag.ReportErr(sink, diag.General, 2, err)
		return exitError{exitInputError, err.Error()}
	}
	descriptor, err := registry.ByName(targetName)
	if err != nil {
		diag.ReportErr(sink, diag.Target, 3, err)
		return exitError{exitTargetError, err.Error()}
	}
	ctx, err := registry.CreateContext(targetName)
	if err != nil {
		diag.ReportErr(sink, diag.Target, 4, err)
		return exitError{exitTargetError, err.Error()}
	}
	defer registry.DestroyContext(ctx)

	for _, toggle := range c.StringSlice("feature") {
		if len(toggle) < 2 {
			continue
		}
		name, enabled := toggle[1:], toggle[0] == '+'
		descriptor.SetFeature(target.Feature(name), enabled)
	}
	log.Debug("target %q initialized", targetName)

	src, err := os.Open(inputPath)
	if err != nil {
		diag.Report(sink, diag.Error, diag.General, 5, "%s", err)
		return exitError{exitInputError, err.Error()}
	}
	defer src.Close()

	sys := typesys.NewSystem(64, 1)
	prog, err := frontend.Read(src, inputPath, sys)
	if err != nil {
		diag.ReportErr(sink, diag.Parser, 6, err)
		return exitError{exitInputError, err.Error()}
	}

	mgr := passmgr.New()
	if err := optimize.RegisterAll(mgr); err != nil {
		diag.ReportErr(sink, diag.Optimizer, 7, err)
		return exitError{exitInternal, err.Error()}
	}
	if err := mgr.SetPipeline("default"); err != nil {
		diag.ReportErr(sink, diag.Optimizer, 8, err)
		return exitError{exitInternal, err.Error()}
	}
	mgr.SetOptLevel(level)

	emitFormat := c.String("emit")
	if emitFormat != "obj" && emitFormat != "asm" {
		diag.Report(sink, diag.Error, diag.General, 9, "unknown --emit value %q", emitFormat)
		return exitError{exitInputError, "unknown --emit value"}
	}

	var asmText strings.Builder
	emitter := emit.New()

	for _, fn := range prog.Functions {
		if err := mgr.Run(fn); err != nil {
			diag.ReportErr(sink, diag.Optimizer, 10, err)
			return exitError{exitInternal, err.Error()}
		}
		if err := ir.Verify(fn); err != nil {
			diag.ReportErr(sink, diag.Instruction, 11, err)
			return exitError{exitInternal, err.Error()}
		}

		lowered, intervals, err := descriptor.Backend.GenerateFunction(ctx, fn)
		if err != nil {
			diag.ReportErr(sink, diag.Generator, 12, err)
			return exitError{exitTargetError, err.Error()}
		}
		log.Info("function %q: %d lowered instructions, %d live intervals", fn.Name, len(lowered), len(intervals))

		if _, err := emitter.AddSymbol(fn.Name); err != nil {
			diag.ReportErr(sink, diag.Generator, 13, err)
			return exitError{exitInternal, err.Error()}
		}
		for _, lo := range lowered {
			line := renderLowered(lo)
			asmText.WriteString(line)
			asmText.WriteByte('\n')
			emitter.Write([]byte(line))
			emitter.Write([]byte{'\n'})
		}
	}

	var out []byte
	switch emitFormat {
	case "asm":
		out = []byte(asmText.String())
	case "obj":
		out = emitter.Finalize(uint64(time.Now().Unix()))
	}

	if path := c.String("output"); path != "" {
		if err := os.WriteFile(path, out, 0o644); err != nil {
			diag.Report(sink, diag.Error, diag.General, 14, "%s", err)
			return exitError{exitInputError, err.Error()}
		}
	} else {
		os.Stdout.Write(out)
	}
	return nil
}

// loadConfig reads and parses a YAML config file, per spec.md §3's
// "Config value". The driver only consults "opt" and "target" keys
// today, both expected as quoted strings (e.g. opt: "2") since the
// flags they override are themselves string-valued; the rest of the
// document is parsed but otherwise unused, leaving room for
// target-specific sections without a format change.
func loadConfig(path string) (config.Value, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return config.Value{}, err
	}
	return config.Parse(text)
}

func parseOptLevel(s string) (passmgr.OptLevel, error) {
	switch strings.ToLower(s) {
	case "0":
		return passmgr.O0, nil
	case "1":
		return passmgr.O1, nil
	case "2":
		return passmgr.O2, nil
	case "3":
		return passmgr.O3, nil
	case "s":
		return passmgr.OSize, nil
	default:
		return 0, coilerr.New(coilerr.BadArgument, "unknown optimisation level %q", s)
	}
}

// renderLowered formats one target-level instruction as a single line of
// assembly text: mnemonic followed by its comma-separated operands, in
// the teacher's emitted-listing style (compile/codegen's AT&T-ish output).
func renderLowered(lo isel.Lowered) string {
	if len(lo.Operands) == 0 {
		return lo.Mnemonic
	}
	parts := make([]string, len(lo.Operands))
	for i, op := range lo.Operands {
		parts[i] = op.String()
	}
	return lo.Mnemonic + " " + strings.Join(parts, ", ")
}
