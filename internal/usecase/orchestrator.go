package usecase

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/semmidev/custos/internal/domain"
)

// Logger is the logging collaborator shared by the use cases.
type Logger interface {
	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

// RunOptions tune one orchestrator instance.
type RunOptions struct {
	// Compress gzips each artifact after a successful dump.
	Compress bool
	// ExecTimeout bounds a single backend execution. Zero means no limit.
	ExecTimeout time.Duration
	// Workers caps how many targets are processed at once. Values below 1
	// mean sequential processing.
	Workers int
}

// Orchestrator drives one backup run. Per target it resolves a backend via
// the registry, executes it, prunes old artifacts and sends exactly one
// outcome notification. A failure in one target never aborts the rest of
// the batch; every contained error ends up in the run summary.
type Orchestrator struct {
	registry   *domain.Registry
	retention  *Retention
	dispatcher *Dispatcher
	compressor domain.Compressor
	logger     Logger
	opts       RunOptions
}

func NewOrchestrator(
	registry *domain.Registry,
	retention *Retention,
	dispatcher *Dispatcher,
	compressor domain.Compressor,
	logger Logger,
	opts RunOptions,
) *Orchestrator {
	return &Orchestrator{
		registry:   registry,
		retention:  retention,
		dispatcher: dispatcher,
		compressor: compressor,
		logger:     logger,
		opts:       opts,
	}
}

// Run processes every target and returns a summary with one result per
// input target, in input order regardless of completion order.
func (o *Orchestrator) Run(ctx context.Context, targets []domain.Target) *domain.RunSummary {
	summary := &domain.RunSummary{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Results:   make([]domain.TargetResult, len(targets)),
	}

	workers := o.opts.Workers
	if workers < 1 {
		workers = 1
	}
	o.logger.Infof("run %s: backing up %d target(s), %d worker(s)", summary.ID, len(targets), workers)

	var g errgroup.Group
	g.SetLimit(workers)
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			summary.Results[i] = domain.TargetResult{
				Target:  target,
				Outcome: o.processTarget(ctx, target),
			}
			return nil
		})
	}
	_ = g.Wait()

	summary.FinishedAt = time.Now()
	o.logger.Infof("run %s: finished in %s, %d succeeded, %d failed",
		summary.ID,
		summary.FinishedAt.Sub(summary.StartedAt).Round(time.Second),
		len(targets)-summary.Failed(),
		summary.Failed())
	return summary
}

func (o *Orchestrator) processTarget(ctx context.Context, target domain.Target) domain.Outcome {
	// A started backup runs to completion even if the host is asked to
	// stop: dump processes are not safely interruptible mid-write. The
	// run context only gates targets that have not begun, and the
	// detached context keeps notifications working during shutdown.
	detachedCtx := context.WithoutCancel(ctx)
	if err := ctx.Err(); err != nil {
		return o.fail(detachedCtx, target, domain.StageExecute, "run canceled before backup started", err)
	}

	o.logger.Debugf("[%s] resolving %s backend", target.Name, target.Engine)
	factory, err := o.registry.Resolve(target.Engine)
	if err != nil {
		return o.fail(detachedCtx, target, domain.StageResolve, "unknown engine kind", err)
	}
	backend := factory(target)

	execCtx := detachedCtx
	if o.opts.ExecTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(detachedCtx, o.opts.ExecTimeout)
		defer cancel()
	}

	o.logger.Infof("[%s] starting %s backup", target.Name, target.Engine)
	start := time.Now()
	artifact, err := backend.Execute(execCtx)
	if err != nil {
		return o.fail(detachedCtx, target, domain.StageExecute, "backup execution failed", err)
	}
	o.logger.Infof("[%s] backup created in %s: %s (%.2f MB)",
		target.Name,
		time.Since(start).Round(time.Second),
		artifact.FilePath,
		float64(artifact.SizeBytes)/(1024*1024))

	if o.opts.Compress {
		artifact = o.compressArtifact(target, artifact)
	}

	// Retention and notification are best-effort from here on: the data is
	// on disk, so neither may downgrade the outcome.
	if deleted, err := o.retention.Prune(target.BackupDir, target.Database, target.RetainCount, artifact); err != nil {
		o.logger.Errorf("[%s] %s stage: pruning failed: %v", target.Name, domain.StageRetain, err)
	} else if deleted > 0 {
		o.logger.Infof("[%s] pruned %d old backup(s)", target.Name, deleted)
	}

	if err := o.dispatcher.NotifySuccess(detachedCtx, target, artifact); err != nil {
		o.logger.Errorf("[%s] %s stage: success notification failed: %v", target.Name, domain.StageNotify, err)
	}

	return domain.SuccessOutcome(artifact)
}

// fail records the failure, sends the single failure notification for this
// target and builds the outcome.
func (o *Orchestrator) fail(ctx context.Context, target domain.Target, stage domain.Stage, message string, cause error) domain.Outcome {
	o.logger.Errorf("[%s] %s stage failed: %v", target.Name, stage, cause)

	failure := &domain.Failure{Stage: stage, Message: message, Cause: cause}
	if err := o.dispatcher.NotifyFailure(ctx, target, failure); err != nil {
		o.logger.Errorf("[%s] %s stage: failure notification failed: %v", target.Name, domain.StageNotify, err)
	}

	return domain.Outcome{Failure: failure}
}

func (o *Orchestrator) compressArtifact(target domain.Target, artifact *domain.Artifact) *domain.Artifact {
	if o.compressor == nil {
		return artifact
	}

	gzPath := artifact.FilePath + ".gz"
	if err := o.compressor.Compress(artifact.FilePath, gzPath); err != nil {
		// Keep the uncompressed dump; a usable artifact beats a compact one.
		o.logger.Warnf("[%s] compression failed, keeping uncompressed artifact: %v", target.Name, err)
		_ = os.Remove(gzPath)
		return artifact
	}

	info, err := os.Stat(gzPath)
	if err != nil {
		o.logger.Warnf("[%s] stat compressed artifact: %v", target.Name, err)
		_ = os.Remove(gzPath)
		return artifact
	}

	if err := os.Remove(artifact.FilePath); err != nil {
		o.logger.Warnf("[%s] failed to remove uncompressed artifact %s: %v", target.Name, artifact.FilePath, err)
	}

	o.logger.Infof("[%s] compressed artifact: %s (%.1f%% of original)",
		target.Name, gzPath, float64(info.Size())/float64(artifact.SizeBytes)*100)

	return &domain.Artifact{
		FilePath:  gzPath,
		SizeBytes: info.Size(),
		CreatedAt: artifact.CreatedAt,
		Engine:    artifact.Engine,
	}
}
