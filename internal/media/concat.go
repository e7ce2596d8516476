// Package media combines background clips and uploads finished assets.
package media

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const ffmpegCommand = "ffmpeg"

// commandRunner executes an external command. Extracted so tests can inject
// a fake instead of requiring ffmpeg on the machine.
type commandRunner func(ctx context.Context, name string, args ...string) error

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, lastLine(msg))
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func lastLine(s string) string {
	lines := strings.Split(s, "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

// CombineRequest describes one concatenation job.
type CombineRequest struct {
	InputPaths     []string // ordered local clip files
	SegmentSeconds float64  // trim applied to every clip (default 2s)
}

// Combiner trims and concatenates clips into a single background video by
// invoking ffmpeg. Cancelling the context kills the encoder process.
type Combiner struct {
	workDir string
	logger  *slog.Logger
	run     commandRunner
}

// NewCombiner constructs a combiner writing outputs under workDir.
func NewCombiner(workDir string, logger *slog.Logger) *Combiner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Combiner{
		workDir: workDir,
		logger:  logger,
		run:     defaultCommandRunner,
	}
}

// WithCommandRunner injects a custom command runner (tests).
func (c *Combiner) WithCommandRunner(r commandRunner) *Combiner {
	if r != nil {
		c.run = r
	}
	return c
}

// Combine produces one output file from the ordered inputs and returns its
// path. The output is written to a temp name and renamed on success so a
// failed or cancelled run never leaves a usable-looking partial file.
func (c *Combiner) Combine(ctx context.Context, req CombineRequest) (string, error) {
	if len(req.InputPaths) == 0 {
		return "", fmt.Errorf("at least one input clip is required")
	}
	for _, p := range req.InputPaths {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("input clip not found %q: %w", p, err)
		}
	}
	segment := req.SegmentSeconds
	if segment <= 0 {
		segment = 2
	}

	if err := os.MkdirAll(c.workDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create work dir: %w", err)
	}

	outPath := filepath.Join(c.workDir, "combined-"+uuid.New().String()+".mp4")
	tmpPath := outPath + ".tmp.mp4"

	args := buildConcatArgs(req.InputPaths, segment, tmpPath)

	c.logger.Debug("executing ffmpeg",
		"inputs", len(req.InputPaths),
		"segment_seconds", segment,
		"output", outPath,
	)

	if err := c.run(ctx, ffmpegCommand, args...); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("ffmpeg concat failed: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to finalize output: %w", err)
	}
	return outPath, nil
}

// buildConcatArgs assembles the ffmpeg invocation: trim each input to the
// segment duration, reset timestamps, concatenate video streams.
func buildConcatArgs(inputs []string, segmentSeconds float64, outPath string) []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	for _, in := range inputs {
		args = append(args, "-i", in)
	}

	var filter strings.Builder
	for i := range inputs {
		fmt.Fprintf(&filter, "[%d:v]trim=duration=%g,setpts=PTS-STARTPTS[v%d];", i, segmentSeconds, i)
	}
	for i := range inputs {
		fmt.Fprintf(&filter, "[v%d]", i)
	}
	fmt.Fprintf(&filter, "concat=n=%d:v=1:a=0[outv]", len(inputs))

	args = append(args,
		"-filter_complex", filter.String(),
		"-map", "[outv]",
		"-an",
		outPath,
	)
	return args
}
