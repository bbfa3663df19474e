package repository

import (
	"bytes"
	"context"
	"fmt"

	"github.com/Shivanand-hulikatti/event-seat-booking/internal/model"
	"github.com/Shivanand-hulikatti/event-seat-booking/internal/service"
)

// SaveState persists the whole booking state as a new snapshot.
func (r *SnapshotRepository) SaveState(ctx context.Context, svc *service.BookingService) (int64, error) {
	var buf bytes.Buffer
	if err := svc.Persist(&buf); err != nil {
		return 0, err
	}
	return r.Save(ctx, model.SnapshotVersion, buf.Bytes())
}

// LoadState restores the booking state from the latest snapshot. It returns
// ErrNotFound when nothing was saved yet.
func (r *SnapshotRepository) LoadState(ctx context.Context, opts ...service.Option) (*service.BookingService, error) {
	snap, err := r.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if snap.FormatVersion != model.SnapshotVersion {
		return nil, fmt.Errorf("snapshot %d: %w: format version %d", snap.ID, service.ErrCorruptState, snap.FormatVersion)
	}
	svc, err := service.Load(bytes.NewReader(snap.State), opts...)
	if err != nil {
		return nil, fmt.Errorf("snapshot %d: %w", snap.ID, err)
	}
	return svc, nil
}
