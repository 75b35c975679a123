package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"pr-dashboard/core/storage"
	"pr-dashboard/feature/triage/models"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Snapshot is one exported copy of the triage store.
type Snapshot struct {
	TakenAt      time.Time            `json:"taken_at"`
	Pulls        []models.Pull        `json:"pulls"`
	Reservations []models.Reservation `json:"reservations"`
}

// SnapshotInfo describes one stored snapshot object.
type SnapshotInfo struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// RunReport summarizes one snapshot run.
type RunReport struct {
	Object       string `json:"object"`
	Pulls        int    `json:"pulls"`
	Reservations int    `json:"reservations"`
	Pruned       int    `json:"pruned"`
}

// Service exports store snapshots to object storage.
type Service struct {
	client storage.Client
	db     *gorm.DB
	bucket string
	prefix string
	keep   int
	logger *zap.Logger
}

// NewService creates a new backup service. keep bounds how many snapshots are
// retained; older ones are pruned after each run.
func NewService(client storage.Client, db *gorm.DB, bucket, prefix string, keep int, logger *zap.Logger) *Service {
	if keep <= 0 {
		keep = 10
	}
	return &Service{client: client, db: db, bucket: bucket, prefix: prefix, keep: keep, logger: logger}
}

// Run exports the current store content as one JSON object and prunes
// snapshots beyond the retention count. Reads happen inside one transaction
// so the snapshot is internally consistent.
func (s *Service) Run(ctx context.Context) (*RunReport, error) {
	snap := Snapshot{TakenAt: time.Now().UTC()}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Find(&snap.Pulls).Error; err != nil {
			return fmt.Errorf("failed to read pulls: %w", err)
		}
		if err := tx.Find(&snap.Reservations).Error; err != nil {
			return fmt.Errorf("failed to read reservations: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}

	object := fmt.Sprintf("%s/%s.json", s.prefix, snap.TakenAt.Format("20060102T150405Z"))
	_, err = s.client.PutObject(ctx, s.bucket, object, bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return nil, fmt.Errorf("failed to upload snapshot: %w", err)
	}

	pruned, err := s.prune(ctx)
	if err != nil {
		// The snapshot itself succeeded; report the prune failure but keep going.
		s.logger.Warn("Snapshot prune failed", zap.Error(err))
	}

	return &RunReport{
		Object:       object,
		Pulls:        len(snap.Pulls),
		Reservations: len(snap.Reservations),
		Pruned:       pruned,
	}, nil
}

// List returns the stored snapshots, newest first.
func (s *Service) List(ctx context.Context) ([]SnapshotInfo, error) {
	infos, err := s.listObjects(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name > infos[j].Name })
	return infos, nil
}

func (s *Service) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

func (s *Service) listObjects(ctx context.Context) ([]SnapshotInfo, error) {
	var infos []SnapshotInfo
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.prefix + "/",
		Recursive: true,
	})
	for obj := range objects {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list snapshots: %w", obj.Err)
		}
		infos = append(infos, SnapshotInfo{Name: obj.Key, Size: obj.Size, Modified: obj.LastModified})
	}
	return infos, nil
}

// prune removes the oldest snapshots beyond the retention count. Snapshot
// names embed a sortable timestamp, so lexicographic order is age order.
func (s *Service) prune(ctx context.Context) (int, error) {
	infos, err := s.listObjects(ctx)
	if err != nil {
		return 0, err
	}
	if len(infos) <= s.keep {
		return 0, nil
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	pruned := 0
	for _, info := range infos[:len(infos)-s.keep] {
		if err := s.client.RemoveObject(ctx, s.bucket, info.Name, minio.RemoveObjectOptions{}); err != nil {
			return pruned, fmt.Errorf("failed to remove snapshot %s: %w", info.Name, err)
		}
		pruned++
	}
	return pruned, nil
}
