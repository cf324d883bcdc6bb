package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/trebuchet-org/govdeploy/internal/domain"
	"github.com/trebuchet-org/govdeploy/internal/domain/config"
)

// Orchestrator deploys every component of a plan on one network, strictly in
// dependency order and one at a time. It owns the run's DeploymentRecords.
type Orchestrator struct {
	cfg       config.RunConfig
	resolver  NetworkResolver
	executor  *DeploymentExecutor
	submitter *VerificationSubmitter
	bootstrap *BootstrapRunner
	store     RecordStore
	confirmer Confirmer
	progress  ProgressSink
	log       *slog.Logger

	result  *domain.RunResult
	profile *domain.NetworkProfile
}

// NewOrchestrator creates an orchestrator for a single run described by cfg
func NewOrchestrator(
	cfg config.RunConfig,
	resolver NetworkResolver,
	executor *DeploymentExecutor,
	submitter *VerificationSubmitter,
	bootstrap *BootstrapRunner,
	store RecordStore,
	progress ProgressSink,
	log *slog.Logger,
) *Orchestrator {
	if progress == nil {
		progress = NopProgress{}
	}
	return &Orchestrator{
		cfg:       cfg,
		resolver:  resolver,
		executor:  executor,
		submitter: submitter,
		bootstrap: bootstrap,
		store:     store,
		progress:  progress,
		log:       log.With("component", "orchestrator"),
	}
}

// RequireConfirmation makes Run ask the operator before touching a
// non-development network.
func (o *Orchestrator) RequireConfirmation(c Confirmer) {
	o.confirmer = c
}

// Run executes the plan. The returned result is never nil; on failure it holds
// the partial set of records and the error is also returned.
func (o *Orchestrator) Run(ctx context.Context) (*domain.RunResult, error) {
	o.result = &domain.RunResult{
		RunID:     uuid.NewString(),
		Deployer:  o.cfg.Deployer.Address,
		Records:   make([]*domain.DeploymentRecord, 0),
		StartedAt: time.Now(),
	}
	if o.cfg.Plan != nil {
		o.result.Group = o.cfg.Plan.Group
	}

	profile, err := o.resolveProfile(ctx)
	if err != nil {
		return o.halt(ctx, "", err)
	}
	o.profile = profile
	o.result.Network = profile

	if err := ValidatePlan(o.cfg.Plan); err != nil {
		return o.halt(ctx, "", err)
	}
	ordered, err := NewDependencyGraph(o.cfg.Plan).TopologicalSort()
	if err != nil {
		return o.halt(ctx, "", err)
	}

	previous, err := o.loadPrevious(ctx)
	if err != nil {
		return o.halt(ctx, "", err)
	}

	o.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StagePlanCreated,
		Total:    len(ordered),
		Metadata: &ExecutionPlan{Group: o.result.Group, Network: profile, Components: ordered},
	})

	if err := o.confirm(ctx, ordered); err != nil {
		return o.halt(ctx, "", err)
	}

	addresses := make(map[string]string, len(ordered))
	for i, tmpl := range ordered {
		o.progress.OnProgress(ctx, ProgressEvent{
			Stage:     StageComponentStart,
			Component: tmpl.Name,
			Current:   i + 1,
			Total:     len(ordered),
			Message:   fmt.Sprintf("[%d/%d] %s", i+1, len(ordered), tmpl.Name),
		})

		rec, err := o.runComponent(ctx, tmpl, previous[tmpl.Name], addresses)
		if err != nil {
			return o.halt(ctx, tmpl.Name, err)
		}
		addresses[tmpl.Name] = rec.Address
	}

	o.result.Status = domain.RunComplete
	o.result.FinishedAt = time.Now()
	o.save(ctx)

	o.progress.OnProgress(ctx, ProgressEvent{Stage: StageRunCompleted, Metadata: o.result})
	o.log.Info("run completed", "network", profile.NetworkID, "components", len(o.result.Records))
	return o.result, nil
}

// ExecutionPlan is the linearized plan emitted before the first deployment
type ExecutionPlan struct {
	Group      string
	Network    *domain.NetworkProfile
	Components []*domain.ComponentTemplate
}

func (o *Orchestrator) resolveProfile(ctx context.Context) (*domain.NetworkProfile, error) {
	if o.cfg.NetworkID == "" {
		return nil, &domain.ConfigurationError{Subject: "network", Reason: "network not specified"}
	}

	profile, err := o.resolver.ResolveNetwork(ctx, o.cfg.NetworkID)
	if err != nil {
		var cfgErr *domain.ConfigurationError
		if errors.As(err, &cfgErr) {
			return nil, err
		}
		return nil, &domain.ConfigurationError{Subject: o.cfg.NetworkID, Err: err}
	}

	// The capability flag is fixed here for the rest of the run.
	profile = withVerificationCapability(profile, o.cfg.VerificationCredential)
	if profile.RequiredConfirmations == 0 {
		profile.RequiredConfirmations = domain.DefaultConfirmations
	}

	o.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StageNetworkResolve,
		Message:  fmt.Sprintf("Network %s: %d confirmation(s), verification %s", profile.NetworkID, profile.RequiredConfirmations, onOff(profile.VerificationEnabled)),
		Metadata: profile,
	})
	return profile, nil
}

// loadPrevious returns reusable records of the last run when resuming
func (o *Orchestrator) loadPrevious(ctx context.Context) (map[string]*domain.DeploymentRecord, error) {
	reusable := make(map[string]*domain.DeploymentRecord)
	if !o.cfg.Resume {
		return reusable, nil
	}
	if o.store == nil {
		return nil, &domain.ConfigurationError{Subject: "resume", Reason: "no record store configured"}
	}

	prev, err := o.store.LoadRun(ctx, o.profile.NetworkID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.ConfigurationError{Subject: "resume", Reason: fmt.Sprintf("no previous run found for %s", o.profile.NetworkID)}
		}
		return nil, fmt.Errorf("failed to load previous run: %w", err)
	}
	if prev.Status == domain.RunComplete {
		return nil, &domain.ConfigurationError{Subject: "resume", Reason: "previous run already completed successfully"}
	}

	for _, rec := range prev.Records {
		switch {
		case rec.Address != "":
			reused := rec.Clone()
			reused.Error = ""
			if reused.State != domain.StateComplete {
				reused.State = domain.StateDeployed
			}
			reusable[rec.ComponentName] = reused
		case rec.AwaitingReceipt():
			// The creation tx may still be mined; it is awaited, never resubmitted.
			pending := rec.Clone()
			pending.Error = ""
			reusable[rec.ComponentName] = pending
		}
	}
	return reusable, nil
}

func (o *Orchestrator) confirm(ctx context.Context, ordered []*domain.ComponentTemplate) error {
	if o.confirmer == nil || o.profile.Development {
		return nil
	}
	ok, err := o.confirmer.Confirm(ctx, fmt.Sprintf("Deploy %d component(s) to %s", len(ordered), o.profile.NetworkID))
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrAborted
	}
	return nil
}

// runComponent drives one component from PENDING (or a reused state) to COMPLETE
func (o *Orchestrator) runComponent(ctx context.Context, tmpl *domain.ComponentTemplate, reused *domain.DeploymentRecord, addresses map[string]string) (*domain.DeploymentRecord, error) {
	for _, dep := range tmpl.Dependencies() {
		depRec := o.result.Record(dep)
		if depRec == nil || !depRec.State.AddressResolved() {
			return nil, &domain.DeploymentError{Component: tmpl.Name, Err: fmt.Errorf("dependency %s is not deployed", dep)}
		}
	}

	spec, err := tmpl.Resolve(o.cfg.Deployer, addresses)
	if err != nil {
		return nil, &domain.ConfigurationError{Subject: tmpl.Name, Err: err}
	}

	if reused != nil && !reused.AwaitingReceipt() {
		return o.resumeComponent(ctx, spec, reused)
	}

	rec := domain.NewPendingRecord(spec)
	o.result.Records = append(o.result.Records, rec)
	idx := len(o.result.Records) - 1

	if err := o.advance(ctx, idx, domain.StateDeploying); err != nil {
		return nil, err
	}

	deployed, err := o.deploy(ctx, idx, spec, reused)
	if err != nil {
		var depErr *domain.DeploymentError
		if errors.As(err, &depErr) {
			o.result.Records[idx].TxHash = depErr.TxHash
			if depErr.Pending() {
				o.result.Records[idx].PendingAddress = depErr.Address
			}
		}
		return nil, err
	}
	deployed.State = domain.StateDeploying
	o.result.Records[idx] = deployed
	if err := o.advance(ctx, idx, domain.StateDeployed); err != nil {
		return nil, err
	}

	return o.finishComponent(ctx, idx, spec)
}

// deploy submits spec, or waits for the creation tx of pending when an earlier
// run broadcast one. A pending tx that reverted created nothing and is replaced.
func (o *Orchestrator) deploy(ctx context.Context, idx int, spec *domain.ComponentSpec, pending *domain.DeploymentRecord) (*domain.DeploymentRecord, error) {
	if pending == nil {
		return o.executor.Deploy(ctx, spec, o.profile)
	}

	rec := o.result.Records[idx]
	rec.TxHash = pending.TxHash
	rec.PendingAddress = pending.PendingAddress
	o.progress.OnProgress(ctx, ProgressEvent{
		Stage:     StageComponentSkip,
		Component: spec.Name,
		Message:   fmt.Sprintf("Awaiting %s from previous run (tx %s)", spec.Name, pending.TxHash),
	})

	deployed, err := o.executor.Recover(ctx, spec, o.profile, pending)
	if err == nil || !errors.Is(err, domain.ErrTransactionReverted) {
		return deployed, err
	}

	o.log.Warn("previous deployment reverted, redeploying", "name", spec.Name, "tx_hash", pending.TxHash)
	o.progress.Warn(fmt.Sprintf("%s: previous deployment tx %s reverted, redeploying", spec.Name, pending.TxHash))
	rec.TxHash = ""
	rec.PendingAddress = ""
	return o.executor.Deploy(ctx, spec, o.profile)
}

// resumeComponent continues a component whose address is known from a previous run
func (o *Orchestrator) resumeComponent(ctx context.Context, spec *domain.ComponentSpec, reused *domain.DeploymentRecord) (*domain.DeploymentRecord, error) {
	reused.BootstrapRequired = spec.RequiresBootstrap()
	o.result.Records = append(o.result.Records, reused)
	idx := len(o.result.Records) - 1

	o.progress.OnProgress(ctx, ProgressEvent{
		Stage:     StageComponentSkip,
		Component: spec.Name,
		Message:   fmt.Sprintf("Reusing %s at %s (%s)", spec.Name, reused.Address, reused.State),
	})
	o.log.Info("reusing deployed component", "name", spec.Name, "address", reused.Address, "state", reused.State)

	if reused.State == domain.StateComplete {
		o.save(ctx)
		return reused, nil
	}
	return o.finishComponent(ctx, idx, spec)
}

// finishComponent runs the optional verification and bootstrap steps of a DEPLOYED record
func (o *Orchestrator) finishComponent(ctx context.Context, idx int, spec *domain.ComponentSpec) (*domain.DeploymentRecord, error) {
	if o.submitter != nil && o.submitter.Enabled(o.profile) && !o.result.Records[idx].Verified {
		if err := o.advance(ctx, idx, domain.StateVerifying); err != nil {
			return nil, err
		}
		o.result.Records[idx] = o.submitter.Verify(ctx, o.result.Records[idx], spec, o.profile)
		if err := o.advance(ctx, idx, domain.StateDeployed); err != nil {
			return nil, err
		}
	}

	if spec.RequiresBootstrap() && !o.result.Records[idx].BootstrapCompleted {
		if err := o.advance(ctx, idx, domain.StateBootstrapping); err != nil {
			return nil, err
		}
		updated, err := o.bootstrap.RunBootstrap(ctx, o.result.Records[idx], spec.Bootstrap, spec.Deployer, o.profile)
		if err != nil {
			var bootErr *domain.BootstrapError
			if errors.As(err, &bootErr) && bootErr.TxHash != "" {
				o.result.Records[idx].BootstrapTxHash = bootErr.TxHash
			}
			return nil, err
		}
		o.result.Records[idx] = updated
	}

	rec := o.result.Records[idx]
	if rec.BootstrapRequired && !rec.BootstrapCompleted {
		return nil, &domain.BootstrapError{
			Component: rec.ComponentName,
			Action:    spec.Bootstrap.Method,
			Address:   rec.Address,
			Err:       errors.New("bootstrap did not complete"),
		}
	}

	if err := o.advance(ctx, idx, domain.StateComplete); err != nil {
		return nil, err
	}
	return o.result.Records[idx], nil
}

// advance moves record idx to next, persisting the run output
func (o *Orchestrator) advance(ctx context.Context, idx int, next domain.ComponentState) error {
	rec := o.result.Records[idx]
	if !rec.State.CanTransitionTo(next) {
		return fmt.Errorf("illegal transition of %s from %s to %s", rec.ComponentName, rec.State, next)
	}

	o.log.Debug("state transition", "name", rec.ComponentName, "from", rec.State, "to", next)
	rec.State = next
	rec.UpdatedAt = time.Now()

	o.progress.OnProgress(ctx, ProgressEvent{
		Stage:     StageTransition,
		Component: rec.ComponentName,
		Message:   string(next),
		Metadata:  rec,
	})
	o.save(ctx)
	return nil
}

// halt marks the run FAILED at component (if any) and preserves every record
func (o *Orchestrator) halt(ctx context.Context, component string, err error) (*domain.RunResult, error) {
	o.result.Status = domain.RunFailed
	o.result.FailedComponent = component
	o.result.Err = err
	o.result.FinishedAt = time.Now()

	if rec := o.result.Record(component); rec != nil && !rec.State.IsTerminal() {
		rec.Error = err.Error()
		if rec.State.CanTransitionTo(domain.StateFailed) {
			rec.State = domain.StateFailed
			rec.UpdatedAt = time.Now()
		}
	}

	o.log.Error("run halted", "component", component, "error", err)
	o.progress.OnProgress(ctx, ProgressEvent{Stage: StageRunCompleted, Metadata: o.result})

	// A run that failed before its first component leaves the previous output intact.
	if len(o.result.Records) > 0 {
		o.save(context.WithoutCancel(ctx))
	}
	return o.result, err
}

func (o *Orchestrator) save(ctx context.Context) {
	if o.store == nil || o.profile == nil {
		return
	}
	if err := o.store.SaveRun(ctx, o.result); err != nil {
		o.log.Warn("failed to save run output", "error", err)
		o.progress.Warn(fmt.Sprintf("failed to save run output: %v", err))
	}
}

func onOff(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
