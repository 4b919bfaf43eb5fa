package directus

import (
	"context"

	"DeskPortal/internal/domain/models"
	drepo "DeskPortal/internal/domain/repository"
	xhttp "DeskPortal/pkg/http"
)

const termSheetPath = "/items/dcl"

// TermSheetRepository reads and decides term sheets in the dcl collection.
type TermSheetRepository struct {
	c *Client
}

var _ drepo.TermSheetRepository = (*TermSheetRepository)(nil)

func NewTermSheetRepository(c *Client) *TermSheetRepository {
	return &TermSheetRepository{c: c}
}

// ListNew returns undecided term sheets, newest first.
func (r *TermSheetRepository) ListNew(ctx context.Context, token string) ([]models.TermSheet, error) {
	q := NewQuery().
		Filter("term_sheet_status", "_eq", string(models.TermSheetNew)).
		Sort("-id").
		Fields(models.TermSheetFields())
	return get[[]models.TermSheet](ctx, r.c, "list_termsheets", termSheetPath, token, q)
}

func (r *TermSheetRepository) UpdateStatus(ctx context.Context, token string, id int, status models.TermSheetStatus) error {
	body := models.TermSheetStatusUpdate{TermSheetStatus: status}
	return r.c.do(ctx, call{op: "update_termsheet", method: xhttp.MethodPatch, path: models.TermSheetPath(id), token: token, body: body}, nil)
}
