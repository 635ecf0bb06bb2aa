package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"time"

	"stash-premium-go/internal/api"
	"stash-premium-go/internal/auth"
	"stash-premium-go/internal/common"
	"stash-premium-go/internal/config"
	"stash-premium-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	modeSignature = "signature"
	modeBearer    = "bearer"
)

type options struct {
	userId        string
	nonprofitId   string
	nonprofitName string
	amount        string
	reference     string
	url           string
	mode          string
	repeat        int
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.userId, "user", "", "User id to create a donation intent for")
	flag.StringVar(&opts.nonprofitId, "nonprofit", "", "Nonprofit id for the donation")
	flag.StringVar(&opts.nonprofitName, "nonprofit-name", "Test Nonprofit", "Nonprofit name echoed by the processor")
	flag.StringVar(&opts.amount, "amount", "", "Donation amount in dollars, e.g. 25.00")
	flag.StringVar(&opts.reference, "reference", "", "Existing donation reference (skips intent creation)")
	flag.StringVar(&opts.url, "url", "http://localhost:8080/api/webhooks/donations", "Webhook endpoint")
	flag.StringVar(&opts.mode, "mode", modeSignature, "Authentication mode: signature or bearer")
	flag.IntVar(&opts.repeat, "repeat", 1, "Number of times to deliver the notification")
	flag.Parse()
	return opts
}

func validateOptions(opts options) error {
	if opts.amount == "" {
		return fmt.Errorf("-amount is required")
	}
	if opts.reference == "" && (opts.userId == "" || opts.nonprofitId == "") {
		return fmt.Errorf("either -reference or both -user and -nonprofit are required")
	}
	if opts.mode != modeSignature && opts.mode != modeBearer {
		return fmt.Errorf("unsupported -mode %q", opts.mode)
	}
	if opts.repeat < 1 {
		return fmt.Errorf("-repeat must be at least 1")
	}
	return nil
}

func createIntent(ctx context.Context, cfg *models.Config, opts options, amount decimal.Decimal) (string, error) {
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		return "", fmt.Errorf("failed to open database: %w", err)
	}
	defer dbService.Close()

	service := api.NewLedgerService(dbService, cfg.Rewards)
	created, err := service.CreateDonation(ctx, opts.userId, models.CreateDonationRequest{
		NonprofitId: opts.nonprofitId,
		Amount:      amount,
	})
	if err != nil {
		return "", err
	}
	return created.Reference, nil
}

func buildPayload(opts options, reference string, amount decimal.Decimal) ([]byte, error) {
	payload := models.DonationWebhook{
		Event: models.WebhookEventDonationCompleted,
		Data: models.DonationWebhookData{
			DonationId:    "dev-" + reference,
			Reference:     reference,
			Status:        models.WebhookStatusSucceeded,
			Amount:        amount.Shift(2).IntPart(),
			Currency:      "USD",
			NonprofitId:   opts.nonprofitId,
			NonprofitName: opts.nonprofitName,
			Metadata:      models.DonationWebhookMetadata{UserId: opts.userId},
		},
	}
	return json.Marshal(payload)
}

func deliver(ctx context.Context, client *http.Client, opts options, cfg *models.Config, body []byte) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.url, bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")

	switch opts.mode {
	case modeBearer:
		req.Header.Set(auth.AuthHeaderKey, auth.BearerPrefix+cfg.Webhook.Token)
	default:
		authenticator := auth.NewWebhookAuthenticator(cfg.Webhook.Secret, "", cfg.Webhook.SignatureHeader)
		req.Header.Set(authenticator.SignatureHeader(), authenticator.Sign(body))
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			zap.L().Warn("Failed to close response body", zap.Error(closeErr))
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", err
	}
	return resp.StatusCode, string(respBody), nil
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	opts := parseFlags()
	if err := validateOptions(opts); err != nil {
		logger.Fatal("Invalid arguments", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if opts.mode == modeSignature && cfg.Webhook.Secret == "" {
		logger.Fatal("WEBHOOK_SECRET must be set for signature mode")
	}
	if opts.mode == modeBearer && cfg.Webhook.Token == "" {
		logger.Fatal("WEBHOOK_TOKEN must be set for bearer mode")
	}

	amount, err := decimal.NewFromString(opts.amount)
	if err != nil {
		logger.Fatal("Invalid amount", zap.String("amount", opts.amount), zap.Error(err))
	}

	reference := opts.reference
	if reference == "" {
		reference, err = createIntent(ctx, cfg, opts, amount)
		if err != nil {
			logger.Fatal("Failed to create donation intent", zap.Error(err))
		}
		logger.Info("Created donation intent",
			zap.String("reference", reference),
			zap.String("user_id", opts.userId))
	}

	body, err := buildPayload(opts, reference, amount)
	if err != nil {
		logger.Fatal("Failed to encode payload", zap.Error(err))
	}

	client, err := auth.NewHttpClient(10 * time.Second)
	if err != nil {
		logger.Fatal("Failed to create HTTP client", zap.Error(err))
	}

	common.PrintHeader(fmt.Sprintf("DELIVERING %s (%s, x%d)", reference, opts.mode, opts.repeat), common.DefaultWidth)
	for i := 1; i <= opts.repeat; i++ {
		status, respBody, err := deliver(ctx, client, opts, cfg, body)
		isLast := i == opts.repeat
		if err != nil {
			fmt.Printf("%s #%d failed: %v\n", common.BoxPrefix(isLast), i, err)
			continue
		}
		fmt.Printf("%s #%d %d %s\n", common.BoxPrefix(isLast), i, status, respBody)
	}
	common.PrintFooter("Done", common.DefaultWidth)
}
