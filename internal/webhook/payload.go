package webhook

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/forteleaf/bill-and-pay-sub001/internal/models"
)

// appDtmLayout is the gateway's timestamp format, in Korea Standard Time.
const appDtmLayout = "20060102150405"

var kst = time.FixedZone("KST", 9*60*60)

// Payload is the gateway's notification body. Field names follow the
// gateway's wire contract.
type Payload struct {
	Tid          string `json:"tid"`
	Otid         string `json:"otid"`
	Mid          string `json:"mid"`
	OrderNo      string `json:"ordNo"`
	Amount       int64  `json:"amt"`
	RemainAmount int64  `json:"remainAmt"`
	PayMethod    string `json:"payMethod"`
	GoodsName    string `json:"goodsName"`
	Currency     string `json:"currency"`
	CancelYN     string `json:"cancelYN"`
	AppDtm       string `json:"appDtm"`
	CcDnt        string `json:"ccDnt"`
	ResultCd     string `json:"resultCd"`
}

// ParsePayload decodes a verified webhook body.
func ParsePayload(body []byte) (*Payload, error) {
	payload := &Payload{}
	if err := json.Unmarshal(body, payload); err != nil {
		return nil, fmt.Errorf("failed to decode webhook payload: %w", err)
	}
	return payload, nil
}

// EventType derives the event type from the cancel flag and remaining
// amount: a cancel with money still remaining on the original approval is
// a partial cancel.
func (p *Payload) EventType() models.EventType {
	if p.CancelYN != "Y" {
		return models.EventApproval
	}
	if p.RemainAmount > 0 {
		return models.EventPartialCancel
	}
	return models.EventCancel
}

// Event normalizes the payload into a transaction event. Cancel amounts
// come out negative; the merchant path is left for the caller to resolve
// from the merchant registry.
func (p *Payload) Event() (*models.TransactionEvent, error) {
	if p.Tid == "" || p.Otid == "" {
		return nil, fmt.Errorf("payload missing gateway transaction IDs (tid=%q, otid=%q)", p.Tid, p.Otid)
	}
	if p.Mid == "" {
		return nil, fmt.Errorf("payload missing merchant ID")
	}
	if p.OrderNo == "" {
		return nil, fmt.Errorf("payload missing order number")
	}
	if p.Amount <= 0 {
		return nil, fmt.Errorf("payload amount must be positive, got %d", p.Amount)
	}
	if p.PayMethod == "" {
		return nil, fmt.Errorf("payload missing payment method")
	}

	eventType := p.EventType()
	amount := p.Amount
	occurredStr := p.AppDtm
	if eventType != models.EventApproval {
		amount = -amount
		if p.CcDnt != "" {
			occurredStr = p.CcDnt
		}
	}

	occurredAt, err := time.ParseInLocation(appDtmLayout, occurredStr, kst)
	if err != nil {
		return nil, fmt.Errorf("failed to parse event timestamp %q: %w", occurredStr, err)
	}

	currency := p.Currency
	if currency == "" {
		currency = "KRW"
	}

	return &models.TransactionEvent{
		TransactionID: p.OrderNo,
		EventType:     eventType,
		MerchantID:    p.Mid,
		PaymentMethod: p.PayMethod,
		Amount:        amount,
		Currency:      currency,
		PgTID:         p.Tid,
		OTID:          p.Otid,
		OccurredAt:    occurredAt.Unix(),
	}, nil
}
