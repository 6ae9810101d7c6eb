package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"pgstay/pkg/client"
	"pgstay/pkg/model"
	"pgstay/pkg/validation"

	"github.com/spf13/cobra"
)

const (
	EnvServerURL     = "PGSTAY_URL"
	EnvToken         = "PGSTAY_TOKEN"
	DefaultServerURL = "http://localhost:8080"
	listPageSize     = 100
)

type tenantLister interface {
	ListAll(ctx context.Context, status model.TenantStatus, pageSize int) ([]model.Tenant, error)
}

type billAPI interface {
	Create(ctx context.Context, input model.CreateBillInput) (*model.BillDetails, error)
	List(ctx context.Context, filter model.BillFilter, limit int, offset int64) ([]model.Bill, int64, error)
	MarkOverdue(ctx context.Context, id string) (*model.Bill, error)
}

func BillsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bills",
		Short: "Run monthly billing chores against a running service",
	}
	cmd.PersistentFlags().String("server", envOr(EnvServerURL, DefaultServerURL), "base URL of the service")
	cmd.PersistentFlags().String("token", os.Getenv(EnvToken), "admin bearer token")

	cmd.AddCommand(generateBillsCmd(), markOverdueCmd())
	return cmd
}

func generateBillsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Create the month's bill for every resident tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			month, _ := cmd.Flags().GetString("month")
			dueDay, _ := cmd.Flags().GetInt("due-day")
			if !validation.IsBillingMonth(month) {
				return fmt.Errorf("--month must be YYYY-MM, got %q", month)
			}
			due, err := dueDate(month, dueDay)
			if err != nil {
				return err
			}

			httpClient, err := apiClient(cmd)
			if err != nil {
				return err
			}
			return generateBills(cmd.Context(), cmd.OutOrStdout(), client.NewTenantClient(httpClient), client.NewBillClient(httpClient), month, due)
		},
	}
	cmd.Flags().String("month", time.Now().UTC().Format("2006-01"), "billing month, YYYY-MM")
	cmd.Flags().Int("due-day", 5, "day of the month the bill is due")
	return cmd
}

func markOverdueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overdue",
		Short: "Mark sent and partially paid bills past their due date as overdue",
		RunE: func(cmd *cobra.Command, args []string) error {
			month, _ := cmd.Flags().GetString("month")
			if month != "" && !validation.IsBillingMonth(month) {
				return fmt.Errorf("--month must be YYYY-MM, got %q", month)
			}

			httpClient, err := apiClient(cmd)
			if err != nil {
				return err
			}
			return markOverdue(cmd.Context(), cmd.OutOrStdout(), client.NewBillClient(httpClient), month, time.Now().UTC())
		},
	}
	cmd.Flags().String("month", "", "restrict to one billing month, YYYY-MM")
	return cmd
}

func generateBills(ctx context.Context, out io.Writer, tenants tenantLister, bills billAPI, month string, due time.Time) error {
	var residents []model.Tenant
	for _, status := range []model.TenantStatus{model.TenantActive, model.TenantNoticePeriod} {
		found, err := tenants.ListAll(ctx, status, listPageSize)
		if err != nil {
			return fmt.Errorf("failed to list %s tenants: %w", status, err)
		}
		residents = append(residents, found...)
	}

	var created, skipped, failed int
	for _, t := range residents {
		_, err := bills.Create(ctx, model.CreateBillInput{TenantID: t.ID, BillingMonth: month, DueDate: due})
		var apiErr *client.APIError
		switch {
		case err == nil:
			created++
		case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict:
			skipped++
			fmt.Fprintf(out, "skip %s (%s): %s\n", t.ID, t.Name, apiErr.Message)
		default:
			failed++
			fmt.Fprintf(out, "fail %s (%s): %v\n", t.ID, t.Name, err)
		}
	}

	fmt.Fprintf(out, "%s: %d created, %d skipped, %d failed\n", month, created, skipped, failed)
	if failed > 0 {
		return fmt.Errorf("%d bills could not be created", failed)
	}
	return nil
}

func markOverdue(ctx context.Context, out io.Writer, bills billAPI, month string, now time.Time) error {
	var marked, failed int
	for _, status := range []model.BillStatus{model.BillSent, model.BillPartial} {
		candidates, err := listAllBills(ctx, bills, model.BillFilter{BillingMonth: month, Status: status})
		if err != nil {
			return fmt.Errorf("failed to list %s bills: %w", status, err)
		}
		for _, b := range candidates {
			if !b.DueDate.Before(now) {
				continue
			}
			if _, err := bills.MarkOverdue(ctx, b.ID); err != nil {
				failed++
				fmt.Fprintf(out, "fail %s: %v\n", b.ID, err)
				continue
			}
			marked++
		}
	}

	fmt.Fprintf(out, "%d bills marked overdue, %d failed\n", marked, failed)
	if failed > 0 {
		return fmt.Errorf("%d bills could not be marked overdue", failed)
	}
	return nil
}

func listAllBills(ctx context.Context, bills billAPI, filter model.BillFilter) ([]model.Bill, error) {
	var all []model.Bill
	for offset := int64(0); ; {
		page, total, err := bills.List(ctx, filter, listPageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		offset += int64(len(page))
		if len(page) == 0 || offset >= total {
			return all, nil
		}
	}
}

func dueDate(month string, day int) (time.Time, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, err
	}
	if day < 1 || day > 28 {
		return time.Time{}, fmt.Errorf("--due-day must be between 1 and 28, got %d", day)
	}
	return start.AddDate(0, 0, day-1), nil
}

func apiClient(cmd *cobra.Command) (*client.HttpClient, error) {
	server, _ := cmd.Flags().GetString("server")
	token, _ := cmd.Flags().GetString("token")
	if token == "" {
		return nil, fmt.Errorf("an admin token is required, pass --token or set %s", EnvToken)
	}
	return client.NewHttpClient(server, token), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
