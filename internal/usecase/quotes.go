package usecase

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"time"

	"DeskPortal/internal/domain/models"
	domrepo "DeskPortal/internal/domain/repository"
	xhttp "DeskPortal/pkg/http"
	applogger "DeskPortal/pkg/logger"
	pkgmetrics "DeskPortal/pkg/metrics"
	"DeskPortal/pkg/table"
	"DeskPortal/pkg/util"

	"github.com/tidwall/btree"
)

// RecentWindow is how far back the recent quote view looks.
const RecentWindow = 24 * time.Hour

type QuoteUseCase struct {
	quotes  domrepo.QuoteRepository
	events  domrepo.EventSink
	metrics domrepo.Metrics
	log     *applogger.Logger
	loc     *time.Location
	ticker  string
	now     func() time.Time
}

func NewQuoteUseCase(
	quotes domrepo.QuoteRepository,
	events domrepo.EventSink,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	loc *time.Location,
	deskTicker string,
) *QuoteUseCase {
	if metrics == nil {
		metrics = pkgmetrics.Nop{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &QuoteUseCase{
		quotes:  quotes,
		events:  events,
		metrics: metrics,
		log:     l,
		loc:     loc,
		ticker:  deskTicker,
		now:     time.Now,
	}
}

// Grouped returns quotes in status grouped per counterparty, in key order.
func (uc *QuoteUseCase) Grouped(ctx context.Context, token string, status models.QuoteStatus) ([]models.QuoteGroup, error) {
	quotes, err := uc.quotes.ByStatus(ctx, token, status)
	if err != nil {
		return nil, err
	}
	return uc.group(quotes), nil
}

// Recent is Grouped restricted to quotes modified in the last RecentWindow.
func (uc *QuoteUseCase) Recent(ctx context.Context, token string, status models.QuoteStatus) ([]models.QuoteGroup, error) {
	now := uc.now()
	quotes, err := uc.quotes.ByStatusBetween(ctx, token, status, now.Add(-RecentWindow), now)
	if err != nil {
		return nil, err
	}
	return uc.group(quotes), nil
}

// group keys counterparty quotes by "{name}~{id}". A desk quote joins every
// group holding a counterparty quote with the same group_id; unmatched desk
// quotes are left out.
func (uc *QuoteUseCase) group(quotes []models.QuoteOption) []models.QuoteGroup {
	groups := btree.NewMap[string, *models.QuoteGroup](32)
	keysByGID := map[string][]string{}
	var desk []models.QuoteOption

	for _, q := range quotes {
		if q.CounterParty.Ticker == uc.ticker {
			desk = append(desk, q)
			continue
		}
		key := q.CounterParty.GroupKey()
		g, ok := groups.Get(key)
		if !ok {
			g = &models.QuoteGroup{Key: key, Counterparty: q.CounterParty.Name}
			groups.Set(key, g)
		}
		g.Quotes = append(g.Quotes, q)
		if !slices.Contains(keysByGID[q.GroupID], key) {
			keysByGID[q.GroupID] = append(keysByGID[q.GroupID], key)
		}
	}

	for _, q := range desk {
		for _, key := range keysByGID[q.GroupID] {
			g, _ := groups.Get(key)
			g.Quotes = append(g.Quotes, q)
		}
	}

	out := make([]models.QuoteGroup, 0, groups.Len())
	groups.Scan(func(_ string, g *models.QuoteGroup) bool {
		out = append(out, *g)
		return true
	})
	return out
}

// Table returns one page of the extracted quotes in status.
func (uc *QuoteUseCase) Table(ctx context.Context, token string, status models.QuoteStatus, q table.Query) (table.Page[models.ExtractedQuoteOption], error) {
	quotes, err := uc.quotes.ByStatus(ctx, token, status)
	if err != nil {
		return table.Page[models.ExtractedQuoteOption]{}, err
	}
	return table.View(models.ExtractQuotes(quotes, uc.loc), models.ExtractedQuoteSchema, q), nil
}

// CSV renders every quote in status as CSV rows under QuoteCSVHeader.
func (uc *QuoteUseCase) CSV(ctx context.Context, token string, status models.QuoteStatus) ([][]string, error) {
	quotes, err := uc.quotes.ByStatus(ctx, token, status)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(quotes))
	for _, e := range models.ExtractQuotes(quotes, uc.loc) {
		rows = append(rows, e.CSVRow())
	}
	return rows, nil
}

// StatusResult reports a group decision.
type StatusResult struct {
	Status   models.QuoteStatus `json:"status"`
	GroupIDs []string           `json:"group_ids"`
	Updated  int                `json:"updated"`
}

// ChangeStatus moves every quote of the given groups to status in a single
// write. The write is refused when any member is no longer active.
func (uc *QuoteUseCase) ChangeStatus(ctx context.Context, token, actor string, groupIDs []string, status models.QuoteStatus) (*StatusResult, error) {
	if !status.Terminal() {
		return nil, xhttp.BadRequestErrorf("invalid target status %q", status)
	}
	ids := dedupe(groupIDs)
	if len(ids) == 0 {
		return nil, xhttp.BadRequestError("group_ids is required")
	}

	members, err := uc.quotes.ByGroups(ctx, token, ids)
	if err != nil {
		return nil, err
	}
	byGroup := make(map[string][]models.QuoteOption, len(ids))
	for _, q := range members {
		byGroup[q.GroupID] = append(byGroup[q.GroupID], q)
	}

	for _, gid := range ids {
		if len(byGroup[gid]) == 0 {
			return nil, xhttp.NotFoundErrorf("quote group %s not found", gid)
		}
	}
	for _, q := range members {
		if !q.QuoteStatus.CanTransitionTo(status) {
			return nil, xhttp.ConflictError("Quote group already decided").
				WithParam("group_id", q.GroupID).
				WithParam("quote_status", string(q.QuoteStatus))
		}
	}

	now := uc.now()
	modified := util.FormatUTCMillis(now)
	changes := make([]models.StatusChange, 0, len(members))
	for _, q := range members {
		changes = append(changes, models.StatusChange{ID: q.ID, QuoteStatus: status, ModifiedDate: modified})
	}
	if err := uc.quotes.UpdateStatuses(ctx, token, changes); err != nil {
		return nil, err
	}
	uc.metrics.RecordQuoteDecision(string(status), len(changes))

	for _, gid := range ids {
		e := models.NewDeskEvent(models.EventQuoteStatusChanged, actor, gid, now)
		e.Status = string(status)
		e.Count = len(byGroup[gid])
		emit(ctx, uc.events, uc.log, e)
	}
	return &StatusResult{Status: status, GroupIDs: ids, Updated: len(changes)}, nil
}

// Modify applies edits to individual quotes in one write. Expiries entered
// without a zone are read in the display timezone and sent as UTC.
func (uc *QuoteUseCase) Modify(ctx context.Context, token, actor string, mods []models.Modification) error {
	if len(mods) == 0 {
		return xhttp.BadRequestError("quotes is required")
	}
	mods = slices.Clone(mods)
	for i := range mods {
		exp := strings.TrimSpace(mods[i].QuoteExpiry)
		if exp == "" {
			continue
		}
		if _, err := time.Parse(time.RFC3339, exp); err == nil {
			continue
		}
		utc := util.LocalToUTC(exp, uc.loc)
		if utc == "" {
			return xhttp.BadRequestErrorf("quote %d: invalid quote_expiry %q", mods[i].ID, exp)
		}
		mods[i].QuoteExpiry = utc
	}
	if err := uc.quotes.Modify(ctx, token, mods); err != nil {
		return err
	}

	ids := make([]string, 0, len(mods))
	for _, m := range mods {
		ids = append(ids, strconv.Itoa(m.ID))
	}
	e := models.NewDeskEvent(models.EventQuoteModified, actor, strings.Join(ids, ","), uc.now())
	e.Count = len(mods)
	emit(ctx, uc.events, uc.log, e.WithPayload(mods))
	return nil
}

// UpdateIV sets the implied volatility of every quote in groupIDs.
func (uc *QuoteUseCase) UpdateIV(ctx context.Context, token, actor string, groupIDs []string, iv float64) error {
	ids := dedupe(groupIDs)
	if len(ids) == 0 {
		return xhttp.BadRequestError("group_ids is required")
	}
	if iv <= 0 {
		return xhttp.BadRequestError("iv must be positive")
	}
	if err := uc.quotes.UpdateIV(ctx, token, ids, iv); err != nil {
		return err
	}

	e := models.NewDeskEvent(models.EventQuoteIVUpdated, actor, strings.Join(ids, ","), uc.now())
	e.Count = len(ids)
	emit(ctx, uc.events, uc.log, e.WithPayload(map[string]float64{"iv": iv}))
	return nil
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
