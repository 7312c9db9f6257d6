package billingapi

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/mmynk/billpay/internal/models"
)

// wireID accepts both numeric and string identifiers.
type wireID string

func (id *wireID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = wireID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid identifier %s", data)
	}
	*id = wireID(n.String())
	return nil
}

type wireRef struct {
	ID   wireID `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type wireBillItem struct {
	PatientServiceBillID wireID          `json:"patientServiceBillId" validate:"required"`
	Service              wireRef         `json:"service"`
	Quantity             int             `json:"quantity" validate:"gt=0"`
	UnitPrice            decimal.Decimal `json:"unitPrice"`
	PaidAmount           decimal.Decimal `json:"paidAmount"`
	PaidQuantity         int             `json:"paidQuantity" validate:"gte=0"`
	Paid                 bool            `json:"paid"`
}

type wireGlobalBill struct {
	GlobalBillID wireID `json:"globalBillId"`
}

type wireConsommation struct {
	ConsommationID wireID          `json:"consommationId" validate:"required"`
	GlobalBill     *wireGlobalBill `json:"globalBill"`
	Department     wireRef         `json:"department"`
	BillItems      []wireBillItem  `json:"billItems" validate:"dive"`
}

type wireResults[T any] struct {
	Results []T `json:"results"`
}

type wirePaidItem struct {
	BillItem wireBillItemRef `json:"billItem"`
	PaidQty  int             `json:"paidQty"`
}

type wireBillItemRef struct {
	PatientServiceBillID string `json:"patientServiceBillId"`
}

type wireCollector struct {
	UUID string `json:"uuid"`
}

type wireConsommationRef struct {
	ConsommationID string `json:"consommationId"`
}

type wirePaymentRequest struct {
	AmountPaid    decimal.Decimal     `json:"amountPaid"`
	PaymentMethod string              `json:"paymentMethod"`
	Collector     wireCollector       `json:"collector"`
	Consommation  wireConsommationRef `json:"consommation"`
	PaidItems     []wirePaidItem      `json:"paidItems"`
}

type wireReceipt struct {
	BillPaymentID wireID          `json:"billPaymentId" validate:"required"`
	AmountPaid    decimal.Decimal `json:"amountPaid"`
	Status        string          `json:"status"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func toWirePayment(s Submission) wirePaymentRequest {
	method := s.Method
	if method == "" {
		method = models.MethodCash
	}

	paid := make([]wirePaidItem, 0, len(s.Request.Items))
	for _, item := range s.Request.Items {
		paid = append(paid, wirePaidItem{
			BillItem: wireBillItemRef{PatientServiceBillID: item.ItemID},
			PaidQty:  item.PaidQuantity,
		})
	}

	return wirePaymentRequest{
		AmountPaid:    s.Request.Amount,
		PaymentMethod: string(method),
		Collector:     wireCollector{UUID: s.CollectorID},
		Consommation:  wireConsommationRef{ConsommationID: s.Request.ConsommationID},
		PaidItems:     paid,
	}
}

func (w wireReceipt) toModel() (models.PaymentReceipt, error) {
	if err := validate.Struct(w); err != nil {
		return models.PaymentReceipt{}, fmt.Errorf("invalid receipt: %w", err)
	}
	return models.PaymentReceipt{
		BillPaymentID: string(w.BillPaymentID),
		AmountPaid:    w.AmountPaid,
		Status:        w.Status,
	}, nil
}

func (w wireBillItem) toModel(consommationID string) (models.BillItem, error) {
	if err := validate.Struct(w); err != nil {
		return models.BillItem{}, fmt.Errorf("invalid bill item %q: %w", w.PatientServiceBillID, err)
	}
	if w.UnitPrice.IsNegative() {
		return models.BillItem{}, fmt.Errorf("invalid bill item %q: negative unit price %s", w.PatientServiceBillID, w.UnitPrice)
	}
	if w.PaidAmount.IsNegative() {
		return models.BillItem{}, fmt.Errorf("invalid bill item %q: negative paid amount %s", w.PatientServiceBillID, w.PaidAmount)
	}

	return models.BillItem{
		ID:             string(w.PatientServiceBillID),
		ConsommationID: consommationID,
		Description:    w.Service.Name,
		Quantity:       w.Quantity,
		UnitPrice:      w.UnitPrice,
		PaidAmount:     w.PaidAmount,
		PaidQuantity:   w.PaidQuantity,
		Paid:           w.Paid,
	}, nil
}

func (w wireConsommation) toModel() (models.Consommation, error) {
	if err := validate.Struct(w); err != nil {
		return models.Consommation{}, fmt.Errorf("invalid consommation %q: %w", w.ConsommationID, err)
	}

	c := models.Consommation{
		ID:         string(w.ConsommationID),
		Department: w.Department.Name,
		Items:      make([]models.BillItem, 0, len(w.BillItems)),
	}
	if w.GlobalBill != nil {
		c.GlobalBillID = string(w.GlobalBill.GlobalBillID)
	}

	for _, wi := range w.BillItems {
		item, err := wi.toModel(c.ID)
		if err != nil {
			return models.Consommation{}, err
		}
		c.Items = append(c.Items, item)
	}
	return c, nil
}
