package store

import (
	"context"
	"errors"
	"time"

	"stash-premium-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrAlreadyPremium         = errors.New("premium already active")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrIntentNotFound         = errors.New("donation intent not found")
	ErrDuplicateReference     = errors.New("duplicate donation reference")
	ErrAlreadyCompleted       = errors.New("donation already completed")
)

// SpendParams describes an atomic coin-for-premium exchange.
type SpendParams struct {
	UserId        string
	Coins         int64
	PremiumDays   int
	AllowStacking bool
	Now           time.Time
}

// CreateIntentParams contains the parameters for recording a donation attempt.
type CreateIntentParams struct {
	UserId            string
	DonationReference string
	NonprofitId       string
	Amount            decimal.Decimal
	Now               time.Time
}

// CompleteDonationParams captures everything granted for a confirmed donation.
type CompleteDonationParams struct {
	DonationReference string
	NonprofitId       string
	NonprofitName     string
	Amount            decimal.Decimal
	TokensGranted     int64
	PremiumDays       int
	StackPremium      bool
	Now               time.Time
}

// CompleteDonationResult is the ledger state produced by a completion.
type CompleteDonationResult struct {
	Intent models.DonationIntent
	Record models.DonationRecord
	Ledger models.LedgerEntry
}

// AppendTransactionParams describes a transaction log entry.
type AppendTransactionParams struct {
	UserId          string
	Amount          int64
	TransactionType string
	Description     string
	Source          string
	ReferenceId     string
	Now             time.Time
}

// RecordViewParams identifies a view on a given calendar day. Unlimited skips
// the quota check; the view is still recorded.
type RecordViewParams struct {
	UserId         string
	ExperienceId   string
	ExperienceType string
	ViewDate       string
	DailyLimit     int
	Unlimited      bool
	Now            time.Time
}

// RecordViewResult is the raw quota state observed while recording a view.
type RecordViewResult struct {
	ViewedBefore   int
	AlreadyViewed  bool
	Recorded       bool
	CanView        bool
	IsLimitReached bool
	EffectiveCount int
	DistinctAfter  int
}

// EntitlementStore defines the contract that every backend must satisfy.
type EntitlementStore interface {
	// --- Ledger ---
	GetLedgerEntry(ctx context.Context, userId string) (*models.LedgerEntry, error)
	ListLedgerEntries(ctx context.Context) ([]models.LedgerEntry, error)
	SpendForPremium(ctx context.Context, params SpendParams) (*models.LedgerEntry, error)

	// --- Transaction log ---
	AppendTransaction(ctx context.Context, params AppendTransactionParams) (*models.TokenTransaction, error)
	ListTransactions(ctx context.Context, userId string, limit, offset int) ([]models.TokenTransaction, int64, error)
	ReconcileCoins(ctx context.Context, userId string) (ledgerCoins, loggedCoins int64, err error)

	// --- Donations ---
	CreateIntent(ctx context.Context, params CreateIntentParams) (*models.DonationIntent, error)
	GetIntentByReference(ctx context.Context, reference string) (*models.DonationIntent, error)
	CompleteDonation(ctx context.Context, params CompleteDonationParams) (*CompleteDonationResult, error)
	GetDonationRecord(ctx context.Context, reference string) (*models.DonationRecord, error)
	ListDonationRecords(ctx context.Context, userId string) ([]models.DonationRecord, error)
	ListStaleIntents(ctx context.Context, createdBefore time.Time) ([]models.DonationIntent, error)
	ExpireIntent(ctx context.Context, reference string, now time.Time) (bool, error)

	// --- Views ---
	RecordView(ctx context.Context, params RecordViewParams) (*RecordViewResult, error)
	CountViews(ctx context.Context, userId, viewDate string) (int, error)

	// --- Lifecycle ---
	Ping(ctx context.Context) error
	Close()
}
