package library

import (
	"context"
	"fmt"
	"net/http"
)

// AdminResource exposes the admin CRUD surface for one entity collection,
// e.g. /admin/books. The entity type only has to know its own identifier.
type AdminResource[T Record] struct {
	client *Client
	path   string
}

// AdminBooks returns the admin resource for the book collection.
func AdminBooks(c *Client) *AdminResource[Book] {
	return &AdminResource[Book]{client: c, path: "/admin/books"}
}

// AdminCategories returns the admin resource for the category collection.
func AdminCategories(c *Client) *AdminResource[Category] {
	return &AdminResource[Category]{client: c, path: "/admin/categories"}
}

// AdminAuthors returns the admin resource for the author collection.
func AdminAuthors(c *Client) *AdminResource[Author] {
	return &AdminResource[Author]{client: c, path: "/admin/authors"}
}

// AdminPublishers returns the admin resource for the publisher collection.
func AdminPublishers(c *Client) *AdminResource[Publisher] {
	return &AdminResource[Publisher]{client: c, path: "/admin/publishers"}
}

// List fetches every record in the collection.
func (r *AdminResource[T]) List(ctx context.Context, token string) ([]T, error) {
	var records []T
	if err := r.client.getJSON(ctx, r.path, token, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Create submits a new record. Server-side rejections surface as
// *ValidationError with the field map intact.
func (r *AdminResource[T]) Create(ctx context.Context, token string, record T) error {
	return r.client.postJSON(ctx, r.path, token, record, nil)
}

// Update replaces the record with the given identifier.
func (r *AdminResource[T]) Update(ctx context.Context, token string, record T) error {
	path := fmt.Sprintf("%s/%d", r.path, record.RecordID())
	return r.client.do(ctx, http.MethodPut, path, token, record, nil)
}

// Delete removes the record with the given identifier.
func (r *AdminResource[T]) Delete(ctx context.Context, token string, id int) error {
	path := fmt.Sprintf("%s/%d", r.path, id)
	return r.client.do(ctx, http.MethodDelete, path, token, nil, nil)
}

// Save creates the record when its identifier is zero and updates it
// otherwise, mirroring how the edit form round-trips records.
func (r *AdminResource[T]) Save(ctx context.Context, token string, record T) error {
	if record.RecordID() == 0 {
		return r.Create(ctx, token, record)
	}
	return r.Update(ctx, token, record)
}
