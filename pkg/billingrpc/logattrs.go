package billingrpc

import "github.com/mmynk/billpay/internal/models"

func (r *AllocatePaymentRequest) LogAttrs() []any {
	return []any{"amount", r.Amount.String(), "consommation_ids", consommationIDs(r.Selections)}
}

func (r *SubmitPaymentRequest) LogAttrs() []any {
	return []any{
		"amount", r.Amount.String(),
		"method", string(r.Method),
		"consommation_ids", consommationIDs(r.Selections),
	}
}

func (r *SubmitPaymentResponse) LogAttrs() []any {
	failed := 0
	for _, res := range r.Results {
		if !res.Succeeded {
			failed++
		}
	}
	return []any{"outcome", string(r.Outcome), "requests", len(r.Results), "failed", failed}
}

func (r *ClassifyItemsRequest) LogAttrs() []any {
	return []any{"consommation_id", r.ConsommationID}
}

func (r *ReconcileConsommationRequest) LogAttrs() []any {
	return []any{"consommation_id", r.ConsommationID}
}

func (r *ReconcileConsommationResponse) LogAttrs() []any {
	return []any{"corrected", r.Corrected}
}

func (r *ReconcileGlobalBillRequest) LogAttrs() []any {
	return []any{"global_bill_id", r.GlobalBillID}
}

func (r *ReconcileGlobalBillResponse) LogAttrs() []any {
	return []any{"corrected", r.Corrected, "consommations", len(r.Consommations)}
}

func (r *PruneCacheResponse) LogAttrs() []any {
	return []any{"removed", r.Removed}
}

func (r *ListPaymentsRequest) LogAttrs() []any {
	return []any{"consommation_id", r.ConsommationID}
}

// consommationIDs lists the selected consommations in first-seen order.
func consommationIDs(selections []models.Selection) []string {
	seen := make(map[string]bool, len(selections))
	var ids []string
	for _, s := range selections {
		if !seen[s.ConsommationID] {
			seen[s.ConsommationID] = true
			ids = append(ids, s.ConsommationID)
		}
	}
	return ids
}
