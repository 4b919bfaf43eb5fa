package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"DeskPortal/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditHandlerStoresEvent(t *testing.T) {
	store := &fakeAuditStore{}
	m := newCountingMetrics()
	h := NewAuditHandler("desk.events", store, m)
	assert.Equal(t, "desk.events", h.Topic())

	e := models.NewDeskEvent(models.EventQuoteStatusChanged, "desk@example.com", "G1", riskNow)
	e.Status = "approved"
	b, err := json.Marshal(e)
	require.NoError(t, err)

	require.NoError(t, h.Handle(context.Background(), b))
	require.Len(t, store.stored, 1)
	assert.Equal(t, e.ID, store.stored[0].ID)
	assert.Equal(t, "approved", store.stored[0].Status)
	assert.Equal(t, 1, m.events["quote.status_changed/stored"])
}

func TestAuditHandlerRejectsBadMessages(t *testing.T) {
	m := newCountingMetrics()
	h := NewAuditHandler("desk.events", &fakeAuditStore{}, m)

	assert.Error(t, h.Handle(context.Background(), []byte("{")))
	assert.Error(t, h.Handle(context.Background(), []byte(`{"type":"auth.login"}`)))
	assert.Equal(t, 1, m.errors["audit_unmarshal"])
	assert.Equal(t, 1, m.errors["audit_invalid"])
}

func TestAuditHandlerReturnsStoreError(t *testing.T) {
	m := newCountingMetrics()
	h := NewAuditHandler("desk.events", &fakeAuditStore{err: errors.New("clickhouse down")}, m)

	b, _ := json.Marshal(models.NewDeskEvent(models.EventLogin, "a", "a", riskNow))
	assert.Error(t, h.Handle(context.Background(), b))
	assert.Equal(t, 1, m.errors["audit_store"])
}
