package s3blob

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"turbopricer/internal/domain"
)

// ArchiveImpl implements domain.Archiver by serializing each portfolio
// snapshot to JSON and uploading it under a date-partitioned key. Snapshots
// are append-only; nothing here deletes or overwrites.
type ArchiveImpl struct {
	writer domain.BlobWriter
	now    func() time.Time
}

// NewArchiver creates an archiver that writes through the given blob writer.
func NewArchiver(writer domain.BlobWriter) *ArchiveImpl {
	return &ArchiveImpl{
		writer: writer,
		now:    time.Now,
	}
}

// archiveKey builds the object key for one snapshot:
//
//	portfolios/2026-08-30/<account>/<uuid>.json
//
// The trailing UUID keeps concurrent refreshes of the same account from
// clobbering each other.
func archiveKey(account string, at time.Time) string {
	return fmt.Sprintf("portfolios/%s/%s/%s.json", at.UTC().Format("2006-01-02"), account, uuid.New().String())
}

// ArchivePortfolio uploads one snapshot and returns the object key it was
// written under.
func (a *ArchiveImpl) ArchivePortfolio(ctx context.Context, snapshot *domain.UserBalances) (string, error) {
	body, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("s3blob: marshal portfolio %s: %w", snapshot.Account, err)
	}

	key := archiveKey(snapshot.Account, a.now())
	if err := a.writer.Write(ctx, key, body, "application/json"); err != nil {
		return "", fmt.Errorf("s3blob: archive portfolio %s: %w", snapshot.Account, err)
	}
	return key, nil
}

// Compile-time interface check.
var _ domain.Archiver = (*ArchiveImpl)(nil)
