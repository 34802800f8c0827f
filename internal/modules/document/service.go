// README: Document registry; upload validation, authorized downloads, soft delete/restore.
package document

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"medreview/internal/modules/notification"
	"medreview/internal/modules/order"
	"medreview/internal/types"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrInvalidFile = errors.New("file exceeds the size limit or has a disallowed type")
	ErrForbidden   = errors.New("requester has no access to this document")
	ErrConflict    = errors.New("document state conflict")
	ErrBadRequest  = errors.New("bad request")
)

// Orders exposes order lookups for authorization and notification targets.
type Orders interface {
	Get(ctx context.Context, id types.ID) (*order.Order, error)
}

// Directory resolves uploader existence.
type Directory interface {
	Exists(ctx context.Context, id types.ID) (bool, error)
}

type Service struct {
	store   *Store
	orders  Orders
	users   Directory
	emitter notification.Emitter
}

func NewService(store *Store, orders Orders, users Directory, emitter notification.Emitter) *Service {
	return &Service{store: store, orders: orders, users: users, emitter: emitter}
}

type UploadCommand struct {
	OrderID      types.ID
	UploaderID   types.ID
	OriginalName string
	FileSize     int64
	FileType     string
}

func (s *Service) Upload(ctx context.Context, cmd UploadCommand) (*Document, error) {
	if cmd.OrderID == "" || cmd.UploaderID == "" || cmd.OriginalName == "" {
		return nil, ErrBadRequest
	}
	if err := ValidateFile(cmd.FileSize, cmd.FileType); err != nil {
		return nil, err
	}

	o, err := s.orders.Get(ctx, cmd.OrderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	exists, err := s.users.Exists(ctx, cmd.UploaderID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	fileName := uuid.NewString() + filepath.Ext(cmd.OriginalName)
	d := &Document{
		ID:           types.NewID(),
		OrderID:      cmd.OrderID,
		FileName:     fileName,
		OriginalName: cmd.OriginalName,
		FileSize:     cmd.FileSize,
		FileType:     cmd.FileType,
		FilePath:     fmt.Sprintf("documents/%s/%s", cmd.OrderID, fileName),
		UploadedBy:   cmd.UploaderID,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	if err := s.store.Create(ctx, d); err != nil {
		return nil, err
	}

	// Notify the order's other party.
	var recipient types.ID
	if cmd.UploaderID == o.CustomerID {
		if o.ReviewerID != nil {
			recipient = *o.ReviewerID
		}
	} else {
		recipient = o.CustomerID
	}
	if recipient != "" {
		_ = s.emitter.Emit(ctx, notification.Event{
			Recipients: []types.ID{recipient},
			OrderID:    &o.ID,
			Kind:       notification.KindDocumentUploaded,
			Title:      "Document Uploaded",
			Message:    fmt.Sprintf("A new document was uploaded to order %s.", o.OrderNumber),
		})
	}
	return d, nil
}

// Download authorizes the requester, bumps the counter, and returns the
// document with its content locator. The bytes live with the storage
// collaborator.
func (s *Service) Download(ctx context.Context, documentID, requesterID types.ID) (*Document, error) {
	d, err := s.store.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !d.IsActive {
		return nil, ErrNotFound
	}
	if err := s.authorizeParty(ctx, d.OrderID, requesterID); err != nil {
		return nil, err
	}

	ok, err := s.store.IncrementDownloads(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	d.DownloadCount++
	return d, nil
}

func (s *Service) SoftDelete(ctx context.Context, documentID, requesterID types.ID) error {
	return s.setActive(ctx, documentID, requesterID, false)
}

func (s *Service) Restore(ctx context.Context, documentID, requesterID types.ID) error {
	return s.setActive(ctx, documentID, requesterID, true)
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Document, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListByOrder(ctx context.Context, orderID types.ID) ([]*Document, error) {
	return s.store.ListByOrder(ctx, orderID, true)
}

func (s *Service) setActive(ctx context.Context, documentID, requesterID types.ID, active bool) error {
	d, err := s.store.Get(ctx, documentID)
	if err != nil {
		return err
	}
	if requesterID != d.UploadedBy {
		if err := s.authorizeParty(ctx, d.OrderID, requesterID); err != nil {
			return err
		}
	}
	ok, err := s.store.SetActive(ctx, d.ID, active)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}

// authorizeParty allows only the order's customer or its assigned reviewer.
func (s *Service) authorizeParty(ctx context.Context, orderID, requesterID types.ID) error {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if requesterID == o.CustomerID {
		return nil
	}
	if o.ReviewerID != nil && requesterID == *o.ReviewerID {
		return nil
	}
	return ErrForbidden
}
