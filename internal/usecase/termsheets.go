package usecase

import (
	"context"
	"strconv"
	"strings"
	"time"

	"DeskPortal/internal/domain/models"
	domrepo "DeskPortal/internal/domain/repository"
	xhttp "DeskPortal/pkg/http"
	applogger "DeskPortal/pkg/logger"
	"DeskPortal/pkg/util"

	"github.com/microcosm-cc/bluemonday"
)

const (
	// defaultPaymentTemplate is sent when no settlement template applies.
	defaultPaymentTemplate = 20
	notApplicable          = "N/A"
)

// TermSheetUseCase covers the term sheet approval queue and new deal
// submission.
type TermSheetUseCase struct {
	sheets    domrepo.TermSheetRepository
	deals     domrepo.DealGateway
	events    domrepo.EventSink
	log       *applogger.Logger
	legalName string
	policy    *bluemonday.Policy
	now       func() time.Time
}

func NewTermSheetUseCase(
	sheets domrepo.TermSheetRepository,
	deals domrepo.DealGateway,
	events domrepo.EventSink,
	l *applogger.Logger,
	legalName string,
) *TermSheetUseCase {
	if l == nil {
		l = applogger.Nop()
	}
	return &TermSheetUseCase{
		sheets:    sheets,
		deals:     deals,
		events:    events,
		log:       l,
		legalName: legalName,
		policy:    bluemonday.StrictPolicy(),
		now:       time.Now,
	}
}

func (uc *TermSheetUseCase) ListNew(ctx context.Context, token string) ([]models.TermSheet, error) {
	return uc.sheets.ListNew(ctx, token)
}

// Decide approves or rejects a term sheet.
func (uc *TermSheetUseCase) Decide(ctx context.Context, token, actor string, id int, status models.TermSheetStatus) error {
	if !status.Decided() {
		return xhttp.BadRequestErrorf("invalid term sheet status %q", status)
	}
	if err := uc.sheets.UpdateStatus(ctx, token, id, status); err != nil {
		return err
	}
	e := models.NewDeskEvent(models.EventTermSheetDecided, actor, strconv.Itoa(id), uc.now())
	e.Status = string(status)
	emit(ctx, uc.events, uc.log, e)
	return nil
}

// DownloadLink returns the public URL of a generated term sheet.
func (uc *TermSheetUseCase) DownloadLink(fileID string) (*models.DownloadLink, error) {
	fileID = strings.TrimSpace(fileID)
	if fileID == "" || strings.ContainsAny(fileID, "/?#") {
		return nil, xhttp.BadRequestError("invalid file id")
	}
	return &models.DownloadLink{FileID: fileID, URL: uc.deals.DownloadURL(fileID)}, nil
}

func (uc *TermSheetUseCase) SettlementOptions(ctx context.Context, token string, req models.SettlementOptionRequest) ([]models.SettlementOption, error) {
	rows, err := uc.deals.SettlementOptions(ctx, token, req)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].DisplayValue = util.FormatNumberEn(rows[i].SettlementValue, 2)
	}
	return rows, nil
}

// Submit sends a new term sheet to the gateway after sanitizing its free text
// and filling the desk defaults.
func (uc *TermSheetUseCase) Submit(ctx context.Context, token, actor string, req models.SubmitTermSheetRequest) (*models.SubmitTermSheetResponse, error) {
	req = uc.prepare(req)

	out, err := uc.deals.SubmitTermSheet(ctx, token, req)
	if err != nil {
		return nil, err
	}

	subject := out.RefID
	if subject == "" {
		subject = req.GroupID
	}
	e := models.NewDeskEvent(models.EventTermSheetSubmitted, actor, subject, uc.now())
	emit(ctx, uc.events, uc.log, e.WithPayload(map[string]interface{}{
		"counterparty": req.CounterpartyName,
		"pair":         req.PairName,
		"group_id":     req.GroupID,
	}))
	return out, nil
}

func (uc *TermSheetUseCase) prepare(req models.SubmitTermSheetRequest) models.SubmitTermSheetRequest {
	req.CounterpartyName = uc.clean(req.CounterpartyName)
	req.TermSheet = uc.clean(req.TermSheet)
	req.ConditionalLossLimitEvent = uc.clean(req.ConditionalLossLimitEvent)
	req.CollateralSettingMethod = uc.clean(req.CollateralSettingMethod)
	req.ExchangeRateDeterminingAgent = uc.clean(req.ExchangeRateDeterminingAgent)

	if req.CollateralSettingMethod == "" {
		req.CollateralSettingMethod = uc.legalName
	}
	if req.ExchangeRateDeterminingAgent == "" {
		req.ExchangeRateDeterminingAgent = uc.legalName
	}

	if req.ConditionalLossLimitEvent == "" {
		req.ConditionalLossLimitEvent = notApplicable
		if req.StopLossLevel > 0 {
			kind := req.OptionKind
			if kind == "" {
				kind = req.InstrumentType
			}
			req.ConditionalLossLimitEvent = models.ConditionalLossClause(
				uc.legalName, kind, req.StopLossLevel, req.Ccy1Amount, req.Ccy2Premium,
				req.Strike, req.CounterpartyName, req.BaseCcy,
			)
		}
	}

	if len(req.DclPayment) == 0 {
		req.DclPayment = []models.DclPayment{{ID: defaultPaymentTemplate}}
	}
	if !strings.EqualFold(req.CollateralExchangeSettlement, "cash") {
		req.SettlementCcy = ""
	}

	req.OptionKind = ""
	req.Ccy1Amount = 0
	req.Ccy2Premium = 0
	return req
}

func (uc *TermSheetUseCase) clean(s string) string {
	return strings.TrimSpace(uc.policy.Sanitize(s))
}
