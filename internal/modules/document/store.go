// README: Document store backed by PostgreSQL with an atomic download counter.
package document

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"medreview/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, d *Document) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO documents (
			id, order_id, file_name, original_name, file_size, file_type,
			file_path, uploaded_by, is_active, download_count, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		string(d.ID),
		string(d.OrderID),
		d.FileName,
		d.OriginalName,
		d.FileSize,
		d.FileType,
		d.FilePath,
		string(d.UploadedBy),
		d.IsActive,
		d.DownloadCount,
		d.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Document, error) {
	row := s.db.QueryRow(ctx, selectDocument+` WHERE id = $1`, string(id))
	return scanDocument(row)
}

func (s *Store) ListByOrder(ctx context.Context, orderID types.ID, activeOnly bool) ([]*Document, error) {
	q := selectDocument + ` WHERE order_id = $1`
	if activeOnly {
		q += ` AND is_active = TRUE`
	}
	q += ` ORDER BY created_at`

	rows, err := s.db.Query(ctx, q, string(orderID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// IncrementDownloads bumps the counter atomically; the database does the
// increment so concurrent downloads never lose a count.
func (s *Store) IncrementDownloads(ctx context.Context, id types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE documents
		SET download_count = download_count + 1
		WHERE id = $1 AND is_active = TRUE`,
		string(id),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) SetActive(ctx context.Context, id types.ID, active bool) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE documents SET is_active = $1 WHERE id = $2 AND is_active = $3`,
		active, string(id), !active,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

const selectDocument = `
	SELECT id, order_id, file_name, original_name, file_size, file_type,
	       file_path, uploaded_by, is_active, download_count, created_at
	FROM documents`

func scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	err := row.Scan(
		&d.ID, &d.OrderID, &d.FileName, &d.OriginalName, &d.FileSize, &d.FileType,
		&d.FilePath, &d.UploadedBy, &d.IsActive, &d.DownloadCount, &d.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}
