// Package pipeline sequences script generation, footage resolution, video
// assembly and avatar rendering into one observable run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/remorses/leggiclip/internal/assemble"
	"github.com/remorses/leggiclip/internal/avatar"
	"github.com/remorses/leggiclip/internal/footage"
	"github.com/remorses/leggiclip/internal/media"
	"github.com/remorses/leggiclip/internal/metrics"
	"github.com/remorses/leggiclip/internal/prompts"
	"github.com/remorses/leggiclip/internal/providers"
)

// ErrRunInProgress is returned when a run is requested while another one is
// still active. Runs are never queued.
var ErrRunInProgress = errors.New("a generation run is already in progress")

// DefaultPollInterval is the wait between render status poll rounds.
const DefaultPollInterval = 5 * time.Second

// DefaultMaxPollRounds bounds how long a render is polled before the run
// abandons it.
const DefaultMaxPollRounds = 120

// Request describes one generation run.
type Request struct {
	LawText     string `json:"law_text"`
	Description string `json:"description"`
	NumItems    int    `json:"num_items"`
}

// Snapshot is one emitted view of the item sequence. Items only ever gain
// information between snapshots once the script phase has finished.
type Snapshot struct {
	Items []assemble.Item `json:"items"`
}

// FootageResolver turns one keyword into a local clip path.
type FootageResolver interface {
	Resolve(ctx context.Context, keyword string) (string, error)
}

// VideoCombiner concatenates local clips into one background video file.
type VideoCombiner interface {
	Combine(ctx context.Context, req media.CombineRequest) (string, error)
}

// AssetUploader publishes a local file and returns its durable URL.
type AssetUploader interface {
	UploadFile(ctx context.Context, path string) (string, error)
}

// Renderer submits avatar renders and reports their progress.
type Renderer interface {
	Submit(ctx context.Context, title, script, backgroundURL string) (*avatar.RenderJob, error)
	Status(ctx context.Context, id string) (*avatar.RenderStatus, error)
}

// Config wires an orchestrator's collaborators.
type Config struct {
	LLM       providers.LLMClient
	Assembler *assemble.Assembler
	Footage   FootageResolver
	Combiner  VideoCombiner
	Uploader  AssetUploader
	Renderer  Renderer
	Logger    *slog.Logger

	// Model overrides the LLM client's default model when set.
	Model string

	// SegmentSeconds is the per-clip trim applied during concatenation.
	SegmentSeconds float64

	PollInterval  time.Duration
	MaxPollRounds int
}

// Orchestrator runs the four-phase generation pipeline. A single orchestrator
// is shared process-wide and allows one run at a time.
type Orchestrator struct {
	cfg    Config
	logger *slog.Logger

	inProgress atomic.Bool
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewOrchestrator creates an orchestrator from cfg, filling in defaults.
func NewOrchestrator(cfg Config) *Orchestrator {
	if cfg.Assembler == nil {
		cfg.Assembler = assemble.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxPollRounds <= 0 {
		cfg.MaxPollRounds = DefaultMaxPollRounds
	}
	return &Orchestrator{
		cfg:    cfg,
		logger: cfg.Logger,
		sleep:  sleepCtx,
	}
}

// WithSleep overrides the inter-poll wait (tests).
func (o *Orchestrator) WithSleep(fn func(ctx context.Context, d time.Duration) error) *Orchestrator {
	if fn != nil {
		o.sleep = fn
	}
	return o
}

// Running reports whether a run is currently active.
func (o *Orchestrator) Running() bool {
	return o.inProgress.Load()
}

// Run executes one full generation run, calling emit with every snapshot.
// Emit is called synchronously from the run's goroutine; each snapshot's item
// slice is fresh and safe to retain. Returns ErrRunInProgress without
// emitting anything if another run is active. Cancellation is honored at
// phase and per-item boundaries and returns the context error.
func (o *Orchestrator) Run(ctx context.Context, req Request, emit func(Snapshot)) error {
	if !o.inProgress.CompareAndSwap(false, true) {
		return ErrRunInProgress
	}
	defer o.inProgress.Store(false)

	metrics.RunsStarted.Inc()
	start := time.Now()
	log := o.logger.With("component", "pipeline")
	log.Info("Starting generation run", "num_items", req.NumItems, "law_text_bytes", len(req.LawText))

	send := func(items []assemble.Item) {
		metrics.SnapshotsEmitted.Inc()
		emit(Snapshot{Items: items})
	}

	items, err := o.scriptPhase(ctx, req, send)
	if err != nil {
		metrics.RunsFailed.Inc()
		return err
	}

	if err := o.footagePhase(ctx, items, send); err != nil {
		metrics.RunsFailed.Inc()
		return err
	}

	if err := o.combinePhase(ctx, items, send); err != nil {
		metrics.RunsFailed.Inc()
		return err
	}

	if err := o.renderPhase(ctx, items, send); err != nil {
		metrics.RunsFailed.Inc()
		return err
	}

	metrics.RunsCompleted.Inc()
	log.Info("Generation run finished", "items", len(items), "duration", time.Since(start).Round(time.Millisecond))
	return nil
}

// scriptPhase streams the model output through the assembler and returns the
// final item slice with creation timestamps stamped.
func (o *Orchestrator) scriptPhase(ctx context.Context, req Request, send func([]assemble.Item)) ([]assemble.Item, error) {
	stream, err := o.cfg.LLM.StreamChat(ctx, &providers.ChatRequest{
		System: prompts.SystemPrompt(),
		Prompt: prompts.UserPrompt(prompts.UserPromptData{
			NumItems:    req.NumItems,
			Description: req.Description,
			LawText:     req.LawText,
		}),
		Model: o.cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start script generation: %w", err)
	}
	defer stream.Close()

	var items []assemble.Item
	err = o.cfg.Assembler.Run(ctx, stream, func(snapshot []assemble.Item) {
		items = snapshot
		send(snapshot)
	})
	if err != nil {
		return nil, fmt.Errorf("script generation failed: %w", err)
	}

	now := time.Now().UTC()
	for i := range items {
		items[i].CreatedAt = now
	}
	o.logger.Info("Script phase complete", "items", len(items))
	return items, nil
}

// footagePhase resolves clips for every item, fanning out across the item's
// keywords and re-emitting after each item. A keyword with no usable footage
// is skipped; a failing lookup costs only that item's clip, not the run.
func (o *Orchestrator) footagePhase(ctx context.Context, items []assemble.Item, send func([]assemble.Item)) error {
	for i := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		item := &items[i]

		paths := make([]string, len(item.Keywords))
		g, gctx := errgroup.WithContext(ctx)
		for k, keyword := range item.Keywords {
			g.Go(func() error {
				path, err := o.cfg.Footage.Resolve(gctx, keyword)
				if err != nil {
					if errors.Is(err, footage.ErrNoFootage) {
						o.logger.Warn("No footage for keyword", "keyword", keyword)
						return nil
					}
					return fmt.Errorf("footage lookup for %q failed: %w", keyword, err)
				}
				paths[k] = path
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			o.logger.Warn("Footage resolution failed for item", "title", item.Title, "error", err)
		}

		item.FootageFiles = item.FootageFiles[:0]
		for _, p := range paths {
			if p != "" {
				item.FootageFiles = append(item.FootageFiles, p)
			}
		}
		send(items)
	}
	return nil
}

// combinePhase builds and uploads one background video per item. An item
// whose encode or upload fails keeps an empty background URL and the run
// continues.
func (o *Orchestrator) combinePhase(ctx context.Context, items []assemble.Item, send func([]assemble.Item)) error {
	for i := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		item := &items[i]

		if len(item.FootageFiles) == 0 {
			o.logger.Warn("Skipping background video, no footage", "title", item.Title)
			send(items)
			continue
		}

		outPath, err := o.cfg.Combiner.Combine(ctx, media.CombineRequest{
			InputPaths:     item.FootageFiles,
			SegmentSeconds: o.cfg.SegmentSeconds,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			o.logger.Warn("Background video encode failed", "title", item.Title, "error", err)
			send(items)
			continue
		}

		url, err := o.cfg.Uploader.UploadFile(ctx, outPath)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			o.logger.Warn("Background video upload failed", "title", item.Title, "error", err)
			send(items)
			continue
		}

		item.BackgroundURL = url
		send(items)
	}
	return nil
}

// renderPhase submits every item to the avatar provider, then polls all
// pending jobs together until each reaches a terminal state. Submission is
// all-or-nothing: one failed submission fails the run.
func (o *Orchestrator) renderPhase(ctx context.Context, items []assemble.Item, send func([]assemble.Item)) error {
	if len(items) == 0 {
		return nil
	}

	for i := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		item := &items[i]

		job, err := o.cfg.Renderer.Submit(ctx, item.Title, item.Script, item.BackgroundURL)
		if err != nil {
			return fmt.Errorf("render submission for %q failed: %w", item.Title, err)
		}
		item.RenderID = job.ID
		item.RenderStatus = job.Status
		o.logger.Info("Render submitted", "title", item.Title, "render_id", job.ID)
		send(items)
	}

	for round := 0; round < o.cfg.MaxPollRounds; round++ {
		if !anyPending(items) {
			return nil
		}
		if err := o.sleep(ctx, o.cfg.PollInterval); err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := range items {
			item := &items[i]
			if terminal(item.RenderStatus) {
				continue
			}
			g.Go(func() error {
				status, err := o.cfg.Renderer.Status(gctx, item.RenderID)
				if err != nil {
					o.logger.Warn("Render status poll failed", "render_id", item.RenderID, "error", err)
					item.RenderStatus = avatar.StatusFailed
					metrics.RendersFailed.Inc()
					return nil
				}
				item.RenderStatus = status.Status
				switch status.Status {
				case avatar.StatusCompleted:
					item.VideoURL = status.VideoURL
					metrics.RendersCompleted.Inc()
				case avatar.StatusFailed:
					metrics.RendersFailed.Inc()
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		send(items)
	}

	// Abandon renders still pending after the poll budget.
	for i := range items {
		if !terminal(items[i].RenderStatus) {
			items[i].RenderStatus = avatar.StatusFailed
			metrics.RendersFailed.Inc()
		}
	}
	send(items)
	return nil
}

func anyPending(items []assemble.Item) bool {
	for i := range items {
		if !terminal(items[i].RenderStatus) {
			return true
		}
	}
	return false
}

func terminal(status string) bool {
	return status == avatar.StatusCompleted || status == avatar.StatusFailed
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
