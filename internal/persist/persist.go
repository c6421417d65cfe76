package persist

import (
	"context"

	"restomanager/client/internal/state"
)

// Snapshots stores the last known-good application snapshot. It is a
// best-effort cache: callers log and swallow failures, and never treat
// it as a source of truth while the network is available.
type Snapshots interface {
	Save(ctx context.Context, snap state.Snapshot) error
	Load(ctx context.Context) (state.Snapshot, bool, error)
}

type NoopSnapshots struct{}

func (NoopSnapshots) Save(_ context.Context, _ state.Snapshot) error {
	return nil
}

func (NoopSnapshots) Load(_ context.Context) (state.Snapshot, bool, error) {
	return state.Snapshot{}, false, nil
}

// Keyring stores small named values (session token, cached profile)
// separately from the snapshot blob.
type Keyring interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
