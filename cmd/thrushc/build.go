package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thrushlang/thrushc-sub009/internal/buildpipeline"
	"github.com/thrushlang/thrushc-sub009/internal/diag"
	"github.com/thrushlang/thrushc-sub009/internal/layout"
	"github.com/thrushlang/thrushc-sub009/internal/trace"
)

const defaultOutDir = "build"

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [flags] [files...]",
		Short: "Lower .tast units to LLVM IR",
		Long: `Lower type-checked .tast units to LLVM IR, one .ll file per unit.
Without arguments the inputs come from [build].inputs in thrush.toml.`,
		RunE: buildExecution,
	}
	cmd.Flags().String("out-dir", "", "directory for .ll files (default: [build].out_dir or ./build)")
	cmd.Flags().Int("jobs", 0, "units lowered in parallel (0 = GOMAXPROCS)")
	cmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	cmd.Flags().Bool("emit-stdout", false, "print IR to stdout instead of writing files")
	return cmd
}

type buildFlags struct {
	outDir     string
	jobs       int
	jobsSet    bool
	ui         uiMode
	emitStdout bool
	quiet      bool
	timings    bool
}

func readBuildFlags(cmd *cobra.Command) (buildFlags, error) {
	var f buildFlags
	var err error
	if f.outDir, err = cmd.Flags().GetString("out-dir"); err != nil {
		return f, err
	}
	if f.jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
		return f, err
	}
	if f.jobs < 0 {
		return f, fmt.Errorf("--jobs must not be negative")
	}
	f.jobsSet = cmd.Flags().Changed("jobs")
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return f, err
	}
	if f.ui, err = readUIMode(uiValue); err != nil {
		return f, err
	}
	if f.emitStdout, err = cmd.Flags().GetBool("emit-stdout"); err != nil {
		return f, err
	}
	if f.quiet, err = cmd.Root().PersistentFlags().GetBool("quiet"); err != nil {
		return f, err
	}
	if f.timings, err = cmd.Root().PersistentFlags().GetBool("timings"); err != nil {
		return f, err
	}
	return f, nil
}

// planBuild merges command-line arguments with thrush.toml. Explicit
// arguments and flags win over the manifest.
func planBuild(args []string, flags buildFlags, manifest *projectManifest) (*buildpipeline.Request, error) {
	req := &buildpipeline.Request{Jobs: flags.jobs}

	var inputs []string
	switch {
	case len(args) > 0:
		for _, arg := range args {
			files, err := expandInput(arg)
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, files...)
		}
	case manifest != nil:
		files, err := manifest.inputs()
		if err != nil {
			return nil, err
		}
		inputs = files
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no input files\nplease pass .tast files or list them in [build].inputs of %s", manifestName)
	}
	req.Inputs = inputs

	triple := ""
	baseDir := ""
	if manifest != nil {
		triple = manifest.Config.Build.Target
		baseDir = manifest.Root
		if !flags.jobsSet && manifest.Config.Build.Jobs > 0 {
			req.Jobs = manifest.Config.Build.Jobs
		}
	}
	target, err := layout.TargetByTriple(triple)
	if err != nil {
		if manifest != nil {
			return nil, fmt.Errorf("%s: [build].target: %w", manifest.Path, err)
		}
		return nil, err
	}
	req.Target = target

	switch {
	case flags.outDir != "":
		req.OutDir = flags.outDir
	case manifest != nil && manifest.outDir() != "":
		req.OutDir = manifest.outDir()
	default:
		req.OutDir = defaultOutDir
	}
	if baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			baseDir = wd
		}
	}
	req.Names = buildpipeline.DisplayNames(inputs, baseDir)
	return req, nil
}

func buildExecution(cmd *cobra.Command, args []string) error {
	flags, err := readBuildFlags(cmd)
	if err != nil {
		return err
	}
	manifest, _, err := loadManifest(".")
	if err != nil {
		return err
	}
	req, err := planBuild(args, flags, manifest)
	if err != nil {
		return err
	}

	stopProfiles, err := startProfiles(cmd)
	if err != nil {
		return err
	}
	defer stopProfiles()

	tracer, cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	ctx := cmd.Context()

	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	if flags.emitStdout {
		req.Stdout = stdout
	}

	title := "thrushc build"
	if manifest != nil {
		title = "thrushc build " + manifest.Config.Package.Name
	}
	useTUI := !flags.quiet && !flags.emitStdout && shouldUseTUI(flags.ui, stdout == os.Stdout && isTerminal(os.Stdout))

	var res buildpipeline.Result
	if useTUI {
		res, err = runBuildWithUI(ctx, stdout, title, req)
	} else {
		res, err = buildpipeline.Build(ctx, req)
	}
	if err != nil {
		return reportBuildError(stderr, err, res, tracer)
	}

	if !flags.quiet && !flags.emitStdout && !useTUI {
		for _, u := range res.Units {
			fmt.Fprintf(stdout, "%s %s\n", color.GreenString("wrote"), relTo(u.Output))
		}
	}
	if flags.timings && res.Timer != nil {
		fmt.Fprint(stderr, res.Timer.Summary())
	}
	return nil
}

// reportBuildError prints a backend fault as its single line and returns
// errReported; other errors are returned for main to print.
func reportBuildError(w io.Writer, err error, res buildpipeline.Result, tracer trace.Tracer) error {
	f, ok := diag.AsFault(err)
	if !ok {
		return err
	}
	if rerr := diag.Render(w, f, res.Files, diag.RenderOpts{Color: !color.NoColor}); rerr != nil {
		return rerr
	}
	dumpRing(w, tracer)
	return errReported
}

func relTo(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	if rel, err := filepath.Rel(wd, path); err == nil && !filepath.IsAbs(rel) && len(rel) < len(path) {
		return rel
	}
	return path
}
