// Package repository orchestrates a maintenance record submission: validate,
// encode the photo, append to the local table, persist locally, then mirror
// the full table remotely. The local write decides whether a submission
// succeeded; remote failures are reported as warnings.
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/maintlog/internal/cache"
	"github.com/mesh-intelligence/maintlog/internal/csvstore"
	"github.com/mesh-intelligence/maintlog/internal/mirror"
	"github.com/mesh-intelligence/maintlog/pkg/types"
)

// tableStore is the subset of csvstore.Store that Repository requires.
type tableStore interface {
	Load() *types.Table
	Save(t *types.Table) error
}

// photoEncoder is the subset of imagecodec.Codec that Repository requires.
type photoEncoder interface {
	Encode(data []byte) (string, error)
}

// Options are the submission policies taken from configuration.
type Options struct {
	RequireFields          bool
	InvalidImagePolicy     string
	Choices                types.OptionsConfig
	RemoteTimeout          time.Duration
	WarnWhenRemoteDisabled bool
}

// OptionsFromConfig extracts the repository policies from cfg.
func OptionsFromConfig(cfg types.Config) Options {
	return Options{
		RequireFields:          cfg.Validation.RequireFields,
		InvalidImagePolicy:     cfg.Validation.InvalidImagePolicy,
		Choices:                cfg.Options,
		RemoteTimeout:          cfg.Remote.Timeout,
		WarnWhenRemoteDisabled: cfg.Remote.WarnWhenDisabled,
	}
}

// Result reports the outcome of a stored submission.
type Result struct {
	SubmissionID string
	Record       types.Record
	Table        *types.Table
	LocalOK      bool
	RemoteOK     bool
	// Warnings holds non-fatal problems: a dropped photo or a failed or
	// skipped remote push.
	Warnings []error
}

// Repository is the add-record / list-records contract used by callers.
type Repository struct {
	opts   Options
	store  tableStore
	codec  photoEncoder
	mirror mirror.Mirror // nil when no credentials are configured.
	cache  *cache.TableCache
	logger *slog.Logger

	mu  sync.Mutex
	now func() time.Time
}

// New creates a Repository. m and c may be nil.
func New(
	opts Options,
	store tableStore,
	codec photoEncoder,
	m mirror.Mirror,
	c *cache.TableCache,
	logger *slog.Logger,
) *Repository {
	return &Repository{
		opts:   opts,
		store:  store,
		codec:  codec,
		mirror: m,
		cache:  c,
		logger: logger,
		now:    time.Now,
	}
}

// RemoteEnabled reports whether a remote mirror is configured.
func (r *Repository) RemoteEnabled() bool {
	return r.mirror != nil
}

// Submit stores a new record. A non-nil error means the record was not
// saved: it failed validation, its photo was rejected, or the local write
// failed. Remote problems never produce an error; they appear in
// Result.Warnings with RemoteOK false.
func (r *Repository) Submit(ctx context.Context, sub types.Submission) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate submission id: %w", err)
	}
	logger := r.logger.With("submission_id", id.String())

	sub = sub.Normalize()
	if err := r.validate(&sub); err != nil {
		submissionsTotal.WithLabelValues(resultRejected).Inc()
		logger.Info("submission rejected", "error", err)
		return nil, err
	}

	res := &Result{SubmissionID: id.String()}

	photo, err := r.codec.Encode(sub.Photo)
	if err != nil {
		if !errors.Is(err, types.ErrInvalidImage) || r.opts.InvalidImagePolicy == types.InvalidImageReject {
			submissionsTotal.WithLabelValues(resultRejected).Inc()
			logger.Info("submission rejected", "error", err)
			return nil, fmt.Errorf("encode photo: %w", err)
		}
		logger.Warn("photo dropped from submission", "error", err)
		res.Warnings = append(res.Warnings, err)
		photo = ""
	}

	tbl := r.store.Load()
	rec := types.Record{
		Timestamp:  r.timestamp(tbl),
		Equipment:  sub.Equipment,
		Technician: sub.Technician,
		Stage:      sub.Stage,
		Reference:  sub.Reference,
		Status:     sub.Status,
		Remarks:    sub.Remarks,
		Photo:      photo,
	}
	tbl.Append(rec)

	if err := r.store.Save(tbl); err != nil {
		submissionsTotal.WithLabelValues(resultFailed).Inc()
		logger.Error("local write failed, record not saved", "error", err)
		return nil, err
	}
	r.cache.Invalidate()
	submissionsTotal.WithLabelValues(resultStored).Inc()
	logger.Info("record stored",
		"equipment", rec.Equipment,
		"stage", rec.Stage,
		"status", rec.Status,
		"photo", rec.HasPhoto(),
		"rows", tbl.Len())

	res.Record = rec
	res.Table = tbl
	res.LocalOK = true

	if r.mirror == nil {
		remotePushTotal.WithLabelValues(pushDisabled).Inc()
		if r.opts.WarnWhenRemoteDisabled {
			res.Warnings = append(res.Warnings, types.ErrRemoteAuthMissing)
		}
		return res, nil
	}

	msg := fmt.Sprintf("Add maintenance record for %s (%s) [%s]", rec.Equipment, rec.Stage, id)
	if err := r.push(ctx, logger, tbl, msg); err != nil {
		res.Warnings = append(res.Warnings, err)
		return res, nil
	}
	res.RemoteOK = true
	return res, nil
}

// List returns the full table in insertion order. It never observes a
// submission half written.
func (r *Repository) List(ctx context.Context) *types.Table {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.cache.Get(); ok {
		return t
	}
	t := r.store.Load()
	r.cache.Set(t)
	return t
}

// Resync pushes the full local table over the remote copy, regardless of
// what the remote currently holds. It is the manual recovery path after a
// failed or conflicting push.
func (r *Repository) Resync(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.mirror == nil {
		return types.ErrRemoteAuthMissing
	}

	r.mirror.Forget()
	tbl := r.store.Load()
	msg := fmt.Sprintf("Resync %d maintenance records", tbl.Len())
	return r.push(ctx, r.logger, tbl, msg)
}

// Pull replaces the local table with the remote copy.
func (r *Repository) Pull(ctx context.Context) (*types.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.mirror == nil {
		return nil, types.ErrRemoteAuthMissing
	}

	ctx, cancel := r.remoteContext(ctx)
	defer cancel()

	data, err := r.mirror.Pull(ctx)
	if err != nil {
		return nil, err
	}
	tbl, err := csvstore.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: remote table unreadable: %w", types.ErrRemoteSyncFailed, err)
	}
	if err := r.store.Save(tbl); err != nil {
		return nil, err
	}
	r.cache.Invalidate()
	r.logger.Info("local table replaced from remote", "rows", tbl.Len())
	return tbl, nil
}

// push sends tbl to the mirror. Returned errors wrap
// types.ErrRemoteSyncFailed.
func (r *Repository) push(ctx context.Context, logger *slog.Logger, tbl *types.Table, msg string) error {
	data, err := csvstore.Encode(tbl)
	if err != nil {
		remotePushTotal.WithLabelValues(pushFailed).Inc()
		return fmt.Errorf("%w: %w", types.ErrRemoteSyncFailed, err)
	}

	ctx, cancel := r.remoteContext(ctx)
	defer cancel()

	if err := r.mirror.Push(ctx, data, msg); err != nil {
		if !errors.Is(err, types.ErrRemoteSyncFailed) {
			err = fmt.Errorf("%w: %w", types.ErrRemoteSyncFailed, err)
		}
		if errors.Is(err, types.ErrVersionConflict) {
			remotePushTotal.WithLabelValues(pushConflict).Inc()
		} else {
			remotePushTotal.WithLabelValues(pushFailed).Inc()
		}
		logger.Warn("remote sync failed, local copy remains authoritative", "error", err)
		return err
	}

	remotePushTotal.WithLabelValues(pushOK).Inc()
	logger.Info("remote table updated", "rows", tbl.Len(), "bytes", len(data))
	return nil
}

func (r *Repository) remoteContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opts.RemoteTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.opts.RemoteTimeout)
}

// timestamp returns the submission time, never earlier than the last stored
// record so timestamps stay non-decreasing if the clock steps back.
func (r *Repository) timestamp(tbl *types.Table) string {
	ts := types.FormatTimestamp(r.now())
	last, ok := tbl.Last()
	if !ok {
		return ts
	}
	if _, err := last.Time(); err == nil && last.Timestamp > ts {
		return last.Timestamp
	}
	return ts
}

// validate applies the required-field policy and canonicalizes enumerated
// fields to their configured spelling.
func (r *Repository) validate(sub *types.Submission) error {
	if r.opts.RequireFields {
		var missing []string
		if sub.Equipment == "" {
			missing = append(missing, types.ColumnEquipment)
		}
		if sub.Technician == "" {
			missing = append(missing, types.ColumnTechnician)
		}
		if sub.Reference == "" {
			missing = append(missing, types.ColumnReference)
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: %s", types.ErrMissingField, strings.Join(missing, ", "))
		}
	}

	if sub.Technician != "" {
		v, ok := types.Canonical(r.opts.Choices.Technicians, sub.Technician)
		if !ok {
			return fmt.Errorf("%w: technician %q", types.ErrInvalidOption, sub.Technician)
		}
		sub.Technician = v
	}

	stage, ok := types.Canonical(r.opts.Choices.Stages, sub.Stage)
	if !ok {
		return fmt.Errorf("%w: stage %q", types.ErrInvalidOption, sub.Stage)
	}
	sub.Stage = stage

	status, ok := types.Canonical(r.opts.Choices.Statuses, sub.Status)
	if !ok {
		return fmt.Errorf("%w: status %q", types.ErrInvalidOption, sub.Status)
	}
	sub.Status = status
	return nil
}
