package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/andresmejia3/emojify/internal/assets"
	"github.com/andresmejia3/emojify/internal/compositor"
	"github.com/andresmejia3/emojify/internal/detector"
	"github.com/andresmejia3/emojify/internal/emoji"
	"github.com/andresmejia3/emojify/internal/emojifier"
	"github.com/andresmejia3/emojify/internal/logger"
	"github.com/andresmejia3/emojify/internal/store"
	"github.com/andresmejia3/emojify/internal/types"
	"github.com/andresmejia3/emojify/internal/utils"
	"github.com/andresmejia3/emojify/internal/worker"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Options holds the flags of the apply command.
type Options struct {
	Inputs         []string
	Output         string
	Detector       string
	FacesFile      string
	AssetsDir      string
	Placement      string
	SmileThreshold float64
	EyeThreshold   float64
	NumEngines     int
	WorkerTimeout  string
	SkipInvalid    bool
}

const (
	detectorPython      = "python"
	detectorRekognition = "rekognition"
	detectorFixture     = "fixture"
)

var applyOpts Options

var applyCmd = &cobra.Command{
	Use:         "apply [images...]",
	Short:       "Draw matching emoji over every face in one or more images",
	Long: `Draw matching emoji over every face in one or more images.

The default python detector runs python/detector.py (override with
EMOJIFY_WORKER_SCRIPT, interpreter with EMOJIFY_PYTHON_BIN). The shipped script
needs opencv-python and numpy; any script that reads [u32 len][JPEG] frames on
stdin and answers on fd 3 works. Use --detector rekognition for AWS, or
--detector fixture --faces faces.json to replay recorded observations.`,
	Annotations: map[string]string{dbAnnotation: dbOptional},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		opts := applyOpts
		opts.Inputs = append(opts.Inputs, args...)
		if !cmd.Flags().Changed("smile-threshold") {
			opts.SmileThreshold = Cfg.SmileThreshold
		}
		if !cmd.Flags().Changed("eye-threshold") {
			opts.EyeThreshold = Cfg.EyeThreshold
		}
		return runApply(cmd.Context(), opts)
	},
}

func init() {
	applyCmd.Flags().StringSliceVarP(&applyOpts.Inputs, "input", "i", nil, "Input image or directory (repeatable)")
	applyCmd.Flags().StringVarP(&applyOpts.Output, "output", "o", "", "Output file, or directory for several inputs (default: next to each input)")
	applyCmd.Flags().StringVar(&applyOpts.Detector, "detector", detectorPython, "Face detector: python, rekognition, fixture")
	applyCmd.Flags().StringVar(&applyOpts.FacesFile, "faces", "", "JSON file of face observations (fixture detector)")
	applyCmd.Flags().StringVar(&applyOpts.AssetsDir, "assets", "", "Directory of emoji images (default: built-in artwork)")
	applyCmd.Flags().StringVar(&applyOpts.Placement, "placement", "stretch", "Emoji placement: stretch, fit")
	applyCmd.Flags().Float64Var(&applyOpts.SmileThreshold, "smile-threshold", 0.5, "Smiling probability above which a face counts as smiling")
	applyCmd.Flags().Float64Var(&applyOpts.EyeThreshold, "eye-threshold", 0.4, "Eye-open probability above which an eye counts as open")
	applyCmd.Flags().IntVarP(&applyOpts.NumEngines, "engines", "e", 1, "Number of images processed in parallel")
	applyCmd.Flags().StringVar(&applyOpts.WorkerTimeout, "worker-timeout", "60s", "Timeout for the detector to answer for one image")
	applyCmd.Flags().BoolVar(&applyOpts.SkipInvalid, "skip-invalid", false, "Skip faces with unusable bounding boxes instead of failing the image")

	rootCmd.AddCommand(applyCmd)
}

// applyResult wraps the output of one engine for the collector.
type applyResult struct {
	Task   types.ImageTask
	Output string
	RunID  string
	Result *emojifier.Result
}

func runApply(ctx context.Context, opts Options) error {
	if err := validateApplyFlags(&opts); err != nil {
		utils.ShowError("Invalid arguments", err, nil)
		return err
	}

	files, err := utils.CollectImages(opts.Inputs)
	if err != nil {
		utils.ShowError("Unable to read inputs", err, nil)
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no images found in %s", strings.Join(opts.Inputs, ", "))
	}

	intoDir := len(files) > 1
	if info, err := os.Stat(opts.Output); err == nil && info.IsDir() {
		intoDir = true
	}
	outputs, err := planOutputs(files, opts.Output, intoDir)
	if err != nil {
		utils.ShowError("Invalid output", err, nil)
		return err
	}

	table := assets.Builtin(assets.DefaultSize)
	if opts.AssetsDir != "" {
		if table, err = assets.LoadDir(opts.AssetsDir); err != nil {
			utils.ShowError("Failed to load emoji assets", err, nil)
			return err
		}
	}

	placement, _ := compositor.ParsePlacement(opts.Placement)
	comp := compositor.New()
	comp.Placement = placement
	thresholds := emoji.Thresholds{Smile: opts.SmileThreshold, EyeOpen: opts.EyeThreshold}
	timeout, _ := time.ParseDuration(opts.WorkerTimeout)

	var fixture *detector.Fixture
	if opts.Detector == detectorFixture {
		if fixture, err = detector.LoadFixture(opts.FacesFile); err != nil {
			utils.ShowError("Failed to load face fixture", err, nil)
			return err
		}
	}

	engines := min(opts.NumEngines, len(files))
	Log.WithFields(logger.Fields{
		"images":   len(files),
		"engines":  engines,
		"detector": opts.Detector,
	}).Debug("starting apply")

	g, gctx := errgroup.WithContext(ctx)
	tasks := make(chan types.ImageTask, engines)
	results := make(chan applyResult, engines*2)

	g.Go(func() error {
		defer close(tasks)
		for i, f := range files {
			select {
			case tasks <- types.ImageTask{Index: i, Path: f}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < engines; i++ {
		id := i
		g.Go(func() error {
			det, err := newDetector(gctx, id, opts.Detector, fixture, timeout)
			if err != nil {
				utils.ShowError("Detector startup failed", err, nil)
				return err
			}
			if c, ok := det.(io.Closer); ok {
				defer c.Close()
			}

			e, err := emojifier.New(det, table,
				emojifier.WithThresholds(thresholds),
				emojifier.WithCompositor(comp),
				emojifier.WithLogger(Log),
				emojifier.WithSkipInvalid(opts.SkipInvalid),
			)
			if err != nil {
				utils.ShowError("Emoji assets incomplete", err, nil)
				return err
			}

			for task := range tasks {
				res, err := processImage(gctx, e, task, outputs[task.Index])
				if err != nil {
					utils.ShowError(fmt.Sprintf("Failed to emojify %s", task.Path), err, crashLogs(det))
					return err
				}
				select {
				case results <- res:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		g.Wait()
		close(results)
	}()

	var bar *progressbar.ProgressBar
	if len(files) > 1 {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription("😀 Emojifying"),
			progressbar.OptionSetWriter(os.Stderr), // Write bar to Stderr
			progressbar.OptionShowCount(),
		)
	}

	var done []applyResult
	for res := range results {
		done = append(done, res)
		recordRun(ctx, res)
		if bar != nil {
			bar.Add(1)
		}
	}
	if bar != nil {
		bar.Finish()
	}

	if err := g.Wait(); err != nil {
		return err
	}

	printApplySummary(done)
	return nil
}

// processImage runs one image through the emojifier and writes the result.
func processImage(ctx context.Context, e *emojifier.Emojifier, task types.ImageTask, output string) (applyResult, error) {
	img, err := utils.LoadImage(task.Path)
	if err != nil {
		return applyResult{}, err
	}
	runID, err := utils.GenerateImageID(task.Path)
	if err != nil {
		return applyResult{}, err
	}

	res, err := e.Emojify(ctx, img)
	if err != nil {
		return applyResult{}, err
	}
	if err := utils.SaveImage(output, res.Image); err != nil {
		return applyResult{}, err
	}

	return applyResult{Task: task, Output: output, RunID: runID, Result: res}, nil
}

func newDetector(ctx context.Context, id int, kind string, fixture *detector.Fixture, timeout time.Duration) (emojifier.Detector, error) {
	switch kind {
	case detectorRekognition:
		return detector.NewRekognition(Cfg.AWSRegion)
	case detectorFixture:
		return fixture, nil
	default:
		return worker.NewPythonDetector(ctx, id, worker.Config{
			Python:      Cfg.PythonBin,
			Script:      Cfg.WorkerScript,
			ReadTimeout: timeout,
		})
	}
}

// crashLogs exposes the captured stderr of a Python detector, if that is what det is.
func crashLogs(det emojifier.Detector) *utils.SafeCommand {
	if pd, ok := det.(*worker.PythonDetector); ok {
		return pd.Cmd
	}
	return nil
}

// recordRun stores the result when a database is configured. History is a
// side record, so failures are logged and the image still counts as done.
func recordRun(ctx context.Context, res applyResult) {
	if DB == nil {
		return
	}
	run := store.Run{
		ID:         res.RunID,
		InputPath:  res.Task.Path,
		OutputPath: res.Output,
		FaceCount:  len(res.Result.Faces),
	}
	for _, f := range res.Result.Faces {
		run.Faces = append(run.Faces, store.Classification{
			FaceIndex:   f.Index,
			Observation: f.Observation,
			Emoji:       f.Emoji,
			Skipped:     f.Skipped,
		})
	}
	if err := DB.RecordRun(ctx, run); err != nil {
		Log.WithError(err).WithField("input", res.Task.Path).Warn("failed to record run")
	}
}

// planOutputs maps every input to its output path and refuses to overwrite
// an input or write two results to the same file.
func planOutputs(files []string, out string, intoDir bool) ([]string, error) {
	outputs := make([]string, len(files))
	seen := make(map[string]string, len(files))
	inputs := make(map[string]bool, len(files))
	for _, f := range files {
		abs, _ := filepath.Abs(f)
		inputs[abs] = true
	}

	for i, f := range files {
		outputs[i] = utils.OutputPath(f, out, intoDir)
		abs, _ := filepath.Abs(outputs[i])
		if inputs[abs] {
			return nil, fmt.Errorf("output %s would overwrite an input image", outputs[i])
		}
		if prev, ok := seen[abs]; ok {
			return nil, fmt.Errorf("%s and %s would both be written to %s", prev, f, outputs[i])
		}
		seen[abs] = f
	}
	return outputs, nil
}

func printApplySummary(done []applyResult) {
	sort.Slice(done, func(i, j int) bool { return done[i].Task.Index < done[j].Task.Index })

	totals := make(map[emoji.Emoji]int)
	fmt.Fprintf(os.Stderr, "\n---------------------------------------------------------\n")
	fmt.Fprintf(os.Stderr, "📊 EMOJIFY SUMMARY\n")
	fmt.Fprintf(os.Stderr, "---------------------------------------------------------\n")
	for _, d := range done {
		if d.Result.NoFaces {
			fmt.Fprintf(os.Stderr, "🙈 %s: No faces detected (copied to %s)\n", d.Task.Path, d.Output)
			continue
		}
		counts := d.Result.Counts()
		for e, n := range counts {
			totals[e] += n
		}
		fmt.Fprintf(os.Stderr, "📸 %s -> %s: %s\n", d.Task.Path, d.Output, describeFaces(d.Result.Faces))
	}

	fmt.Fprintf(os.Stderr, "---------------------------------------------------------\n")
	fmt.Fprintf(os.Stderr, "🖼️  Images Processed: %d\n", len(done))
	for _, e := range emoji.All() {
		if totals[e] > 0 {
			fmt.Fprintf(os.Stderr, "   %-22s %d\n", e, totals[e])
		}
	}
	fmt.Fprintf(os.Stderr, "---------------------------------------------------------\n")
}

func describeFaces(faces []emojifier.FaceResult) string {
	parts := make([]string, 0, len(faces))
	for _, f := range faces {
		if f.Skipped {
			parts = append(parts, "skipped")
			continue
		}
		parts = append(parts, f.Emoji.String())
	}
	return fmt.Sprintf("%d face(s) [%s]", len(faces), strings.Join(parts, ", "))
}

// validateApplyFlags ensures all CLI arguments are valid before any detector is started.
func validateApplyFlags(opts *Options) error {
	if len(opts.Inputs) == 0 {
		return fmt.Errorf("at least one input image is required")
	}
	switch opts.Detector {
	case detectorPython, detectorRekognition:
	case detectorFixture:
		if opts.FacesFile == "" {
			return fmt.Errorf("the fixture detector needs --faces")
		}
	default:
		return fmt.Errorf("unknown detector %q (use python, rekognition or fixture)", opts.Detector)
	}
	if _, err := compositor.ParsePlacement(opts.Placement); err != nil {
		return err
	}
	if opts.SmileThreshold < 0 || opts.SmileThreshold > 1 {
		return fmt.Errorf("smile threshold must be between 0.0 and 1.0, got %f", opts.SmileThreshold)
	}
	if opts.EyeThreshold < 0 || opts.EyeThreshold > 1 {
		return fmt.Errorf("eye threshold must be between 0.0 and 1.0, got %f", opts.EyeThreshold)
	}
	if opts.NumEngines < 1 {
		opts.NumEngines = 1
	}
	if _, err := time.ParseDuration(opts.WorkerTimeout); err != nil {
		return fmt.Errorf("invalid worker-timeout %q (use '30s', '500ms'): %w", opts.WorkerTimeout, err)
	}
	return nil
}
