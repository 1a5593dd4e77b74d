package bridge

import (
	"context"
	"sync"

	"moto-hail/internal/admin"
	"moto-hail/internal/logger"
)

// ViolationArchiver persists moderation records out of process.
type ViolationArchiver interface {
	SaveViolation(ctx context.Context, entity string, entityID int, v admin.Violation) error
}

// ViolationSync watches store snapshots and archives every violation it
// has not seen before. A failed save is logged and retried on the next
// snapshot.
type ViolationSync struct {
	arch ViolationArchiver
	log  *logger.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewViolationSync wires the archive sink for moderation records.
func NewViolationSync(arch ViolationArchiver, log *logger.Logger) *ViolationSync {
	return &ViolationSync{
		arch: arch,
		log:  log,
		seen: make(map[string]struct{}),
	}
}

// Sync archives the snapshot's unseen violations. It can be passed
// directly to Store.Subscribe.
func (s *ViolationSync) Sync(snap admin.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	for _, c := range snap.Customers {
		s.archiveLocked(ctx, "customer", c.ID, c.Violations)
	}
	for _, d := range snap.Drivers {
		s.archiveLocked(ctx, "driver", d.ID, d.Violations)
	}
	for _, sh := range snap.Shops {
		s.archiveLocked(ctx, "shop", sh.ID, sh.Violations)
	}
}

func (s *ViolationSync) archiveLocked(ctx context.Context, entity string, entityID int, vs []admin.Violation) {
	for _, v := range vs {
		if _, ok := s.seen[v.ID]; ok {
			continue
		}
		if err := s.arch.SaveViolation(ctx, entity, entityID, v); err != nil {
			s.log.Error(ctx, "archive_failed", "failed to archive violation", err, map[string]any{
				"violation_id": v.ID,
				"entity":       entity,
			})
			continue
		}
		s.seen[v.ID] = struct{}{}
	}
}
