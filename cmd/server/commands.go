package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/mmynk/billpay/internal/calculator"
	"github.com/mmynk/billpay/internal/models"
	"github.com/mmynk/billpay/pkg/billingrpc"
)

func pruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete payment cache entries older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			maxAge, _ := cmd.Flags().GetDuration("max-age")
			if maxAge <= 0 {
				maxAge = cfg.CacheRetention
			}

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			removed := a.cache.Prune(cmd.Context(), maxAge)
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d cache entries older than %s\n", removed, maxAge)
			return nil
		},
	}
	cmd.Flags().Duration("max-age", 0, "Override CACHE_RETENTION")
	return cmd
}

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Correct the payment cache from fresh billing API records",
		RunE: func(cmd *cobra.Command, args []string) error {
			consommationID, _ := cmd.Flags().GetString("consommation")
			globalBillID, _ := cmd.Flags().GetString("global-bill")
			if (consommationID == "") == (globalBillID == "") {
				return fmt.Errorf("exactly one of --consommation or --global-bill is required")
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			svc, err := a.paymentService()
			if err != nil {
				return err
			}

			if consommationID != "" {
				resp, err := svc.ReconcileConsommation(cmd.Context(), connect.NewRequest(&billingrpc.ReconcileConsommationRequest{
					ConsommationID: consommationID,
				}))
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), resp.Msg)
			}

			resp, err := svc.ReconcileGlobalBill(cmd.Context(), connect.NewRequest(&billingrpc.ReconcileGlobalBillRequest{
				GlobalBillID: globalBillID,
			}))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp.Msg)
		},
	}
	cmd.Flags().String("consommation", "", "Consommation to reconcile")
	cmd.Flags().String("global-bill", "", "Global bill whose consommations are reconciled")
	return cmd
}

// allocateCmd previews an allocation offline from a JSON file of
// consommations, without touching the billing API or the cache.
func allocateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Preview how an amount is split over bill items read from a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			billFile, _ := cmd.Flags().GetString("bill")
			amountFlag, _ := cmd.Flags().GetString("amount")
			selected, _ := cmd.Flags().GetStringSlice("select")

			amount, err := decimal.NewFromString(amountFlag)
			if err != nil {
				return fmt.Errorf("invalid --amount %q: %w", amountFlag, err)
			}

			consommations, err := readConsommations(billFile)
			if err != nil {
				return err
			}

			itemsByID := make(map[string]models.BillItem)
			var selection []models.Selection
			for _, c := range consommations {
				for _, item := range c.Items {
					item.ConsommationID = c.ID
					itemsByID[item.ID] = item
					if len(selected) == 0 {
						selection = append(selection, models.Selection{ConsommationID: c.ID, ItemID: item.ID})
					}
				}
			}
			for _, s := range selected {
				consommationID, itemID, ok := strings.Cut(s, ":")
				if !ok || consommationID == "" || itemID == "" {
					return fmt.Errorf("invalid --select %q: want <consommation>:<item>", s)
				}
				selection = append(selection, models.Selection{ConsommationID: consommationID, ItemID: itemID})
			}

			requests, err := calculator.Allocate(amount, selection, itemsByID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), billingrpc.AllocatePaymentResponse{
				Requests:       requests,
				TotalAllocated: calculator.SumAmounts(requests),
			})
		},
	}
	cmd.Flags().String("bill", "", "JSON file holding an array of consommations with their items")
	cmd.Flags().String("amount", "", "Amount entered by the cashier")
	cmd.Flags().StringSlice("select", nil, "Items to pay as <consommation>:<item>, in order (default: every item)")
	_ = cmd.MarkFlagRequired("bill")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func readConsommations(path string) ([]models.Consommation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bill file: %w", err)
	}

	var consommations []models.Consommation
	if err := json.Unmarshal(data, &consommations); err != nil {
		return nil, fmt.Errorf("failed to parse bill file: %w", err)
	}
	return consommations, nil
}
