package scheduler

import (
	"context"
	"fmt"
)

const (
	TaskSecretRotation = "secret_rotation"
	TaskAuditPruning   = "audit_pruning"
)

// SecretRotator installs a new fairness secret
type SecretRotator interface {
	Rotate(secret []byte) (int, error)
}

// SecretSource produces the next fairness secret
type SecretSource func() ([]byte, error)

// AuditPruner drops expired wagers from the audit mirror
type AuditPruner interface {
	PruneExpired(ctx context.Context) (int64, error)
}

// ScheduleSecretRotation rotates the fairness secret on spec. onRotate, if
// set, is called with each new generation.
func (s *Scheduler) ScheduleSecretRotation(spec string, rotator SecretRotator, source SecretSource, onRotate func(generation int)) error {
	return s.AddTask(TaskSecretRotation, spec, func(ctx context.Context) error {
		secret, err := source()
		if err != nil {
			return fmt.Errorf("read next secret: %w", err)
		}

		generation, err := rotator.Rotate(secret)
		if err != nil {
			return fmt.Errorf("rotate secret: %w", err)
		}

		s.logger.Info("fairness secret rotated to generation %d", generation)
		if onRotate != nil {
			onRotate(generation)
		}
		return nil
	})
}

// ScheduleAuditPruning prunes the audit mirror on spec
func (s *Scheduler) ScheduleAuditPruning(spec string, pruner AuditPruner) error {
	return s.AddTask(TaskAuditPruning, spec, func(ctx context.Context) error {
		deleted, err := pruner.PruneExpired(ctx)
		if err != nil {
			return err
		}
		s.logger.Info("audit pruning removed %d wagers", deleted)
		return nil
	})
}
