package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/trebuchet-org/govdeploy/internal/domain"
)

// VerificationSubmitter publishes deployed sources to the network's explorer.
// Verification is cosmetic: every failure is downgraded to a warning.
type VerificationSubmitter struct {
	verifier   SourceVerifier
	credential string
	progress   ProgressSink
	log        *slog.Logger
}

// NewVerificationSubmitter creates a new verification submitter. An empty
// credential disables submission.
func NewVerificationSubmitter(verifier SourceVerifier, credential string, progress ProgressSink, log *slog.Logger) *VerificationSubmitter {
	if progress == nil {
		progress = NopProgress{}
	}
	return &VerificationSubmitter{
		verifier:   verifier,
		credential: credential,
		progress:   progress,
		log:        log.With("component", "verifier"),
	}
}

// Enabled reports whether a submission would be attempted on profile
func (s *VerificationSubmitter) Enabled(profile *domain.NetworkProfile) bool {
	return profile.VerificationEnabled && s.credential != "" && s.verifier != nil
}

// Verify returns an updated copy of record. The record is returned unchanged when
// verification is disabled or the record was already verified.
func (s *VerificationSubmitter) Verify(ctx context.Context, record *domain.DeploymentRecord, spec *domain.ComponentSpec, profile *domain.NetworkProfile) *domain.DeploymentRecord {
	if !s.Enabled(profile) || record.Verified {
		return record
	}

	updated := record.Clone()

	s.progress.OnProgress(ctx, ProgressEvent{
		Stage:     StageVerification,
		Component: spec.Name,
		Message:   fmt.Sprintf("Verifying %s at %s", spec.Name, record.Address),
		Spinner:   true,
	})

	result, err := s.verifier.SubmitSource(ctx, VerificationRequest{
		Component:       spec.Name,
		Artifact:        spec.Artifact,
		Address:         record.Address,
		ConstructorArgs: spec.ConstructorArgs,
		Network:         profile,
		Credential:      s.credential,
	})
	switch {
	case err != nil:
	case result == nil:
		err = errors.New("verifier returned no result")
	case !result.Accepted:
		err = errors.New(result.Message)
	}
	if err != nil {
		failure := &domain.VerificationFailure{Component: spec.Name, Address: record.Address, Err: err}
		updated.VerificationNote = failure.Error()
		updated.UpdatedAt = time.Now()

		if errors.Is(err, domain.ErrAlreadyVerified) {
			s.log.Info("component already verified", "name", spec.Name, "address", record.Address)
		} else {
			s.log.Warn("verification failed", "name", spec.Name, "address", record.Address, "error", err)
		}
		s.progress.Warn(failure.Error())
		return updated
	}

	updated.Verified = true
	updated.VerificationNote = result.ExplorerURL
	updated.UpdatedAt = time.Now()

	s.log.Info("component verified", "name", spec.Name, "address", record.Address, "guid", result.GUID)
	return updated
}
