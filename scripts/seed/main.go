// Command seed populates a development backend with a demo account, a
// company and enough master data to exercise every portal screen.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/erp-portal/portal/internal/apiclient"
	"github.com/erp-portal/portal/internal/auth"
	"github.com/erp-portal/portal/internal/masters"
	"github.com/erp-portal/portal/internal/sales"
	"github.com/erp-portal/portal/internal/tokens"
)

type config struct {
	APIURL   string `envconfig:"API_URL" default:"http://localhost:8000/api/v1"`
	Email    string `envconfig:"SEED_EMAIL" default:"demo@portal.local"`
	Password string `envconfig:"SEED_PASSWORD" default:"demo-password"`
	Company  string `envconfig:"SEED_COMPANY" default:"Demo Trading Co"`
}

type created struct {
	ID string `json:"_id" validate:"required"`
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		logger.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client := apiclient.New(apiclient.Options{BaseURL: cfg.APIURL, Logger: logger})
	if err := run(ctx, client, cfg, logger); err != nil {
		logger.Error("seed failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("seed complete", slog.String("email", cfg.Email))
}

func run(ctx context.Context, client *apiclient.Client, cfg config, logger *slog.Logger) error {
	sess, err := signIn(ctx, client, auth.Credentials{Email: cfg.Email, Password: cfg.Password})
	if err != nil {
		return err
	}
	caller := client.With(sess)

	if !sess.Claims().HasCompany() {
		logger.Info("creating company", slog.String("name", cfg.Company))
		var company auth.Company
		if err := caller.Post(ctx, "companies/", nil, auth.CompanyInput{Name: cfg.Company}, &company); err != nil {
			return fmt.Errorf("create company: %w", err)
		}
		var pair tokens.Pair
		if err := caller.Post(ctx, "companies/select/"+company.ID, nil, nil, &pair); err != nil {
			return fmt.Errorf("select company: %w", err)
		}
		sess.Update(pair)
	}

	var tax created
	if err := caller.Post(ctx, "taxes/", nil, masters.TaxDraft{Name: "GST 18%", Rate: 18, TaxType: "IGST"}, &tax); err != nil {
		return fmt.Errorf("create tax: %w", err)
	}

	var item created
	if err := caller.Post(ctx, "items/", nil, masters.ItemDraft{
		Name:          "Steel bracket",
		ItemType:      "PRODUCT",
		Unit:          "PCS",
		SalePrice:     250,
		PurchasePrice: 180,
		TaxIDs:        []string{tax.ID},
	}, &item); err != nil {
		return fmt.Errorf("create item: %w", err)
	}

	customerIDs := make([]string, 0, 3)
	for _, name := range []string{"Northwind Traders", "Contoso Retail", "Fabrikam Works"} {
		var c created
		if err := caller.Post(ctx, "customers/", nil, masters.CustomerDraft{
			Name:           name,
			BillingAddress: masters.Address{Country: "India"},
		}, &c); err != nil {
			return fmt.Errorf("create customer %s: %w", name, err)
		}
		customerIDs = append(customerIDs, c.ID)
	}

	var quote created
	if err := caller.Post(ctx, sales.Quotations.Resource, nil, sales.Draft{
		CustomerID: customerIDs[0],
		Items:      []sales.LineInput{{ItemID: item.ID, Qty: 4, Price: 250, TaxIDs: []string{tax.ID}}},
		ValidUntil: time.Now().AddDate(0, 0, 30).Format(time.DateOnly),
	}, &quote); err != nil {
		return fmt.Errorf("create quotation: %w", err)
	}
	logger.Info("seeded", slog.Int("customers", len(customerIDs)), slog.String("quotation", quote.ID))
	return nil
}

// signIn registers the demo account, or logs in when it already exists.
func signIn(ctx context.Context, client *apiclient.Client, creds auth.Credentials) (*tokens.Session, error) {
	anon := client.With(tokens.NewSession("", ""))
	var pair tokens.Pair
	err := anon.Post(ctx, "auth/register", nil, creds, &pair)
	if apiclient.IsStatus(err, http.StatusBadRequest) || apiclient.IsStatus(err, http.StatusConflict) {
		err = anon.Post(ctx, "auth/login", nil, creds, &pair)
	}
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	return tokens.NewSession(pair.AccessToken, pair.RefreshToken), nil
}
