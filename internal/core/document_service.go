package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Document number prefixes.
const (
	PrefixJob             = "JOB"
	PrefixInvoice         = "INV"
	PrefixPurchaseInvoice = "PI"
	PrefixReceipt         = "RCT"
	PrefixPaymentVoucher  = "PV"
)

// DocumentService assigns office-scoped sequential document numbers.
type DocumentService interface {
	// NextNumber assigns a number in its own transaction. Use for standalone calls.
	NextNumber(ctx context.Context, officeID int, prefix string, date time.Time) (string, error)
	// NextNumberTx assigns a number using the caller's transaction, so the number is only
	// consumed if the document that carries it is committed too.
	NextNumberTx(ctx context.Context, tx pgx.Tx, officeID int, prefix string, date time.Time) (string, error)
}

type documentService struct {
	pool *pgxpool.Pool
}

func NewDocumentService(pool *pgxpool.Pool) DocumentService {
	return &documentService{pool: pool}
}

func (s *documentService) NextNumber(ctx context.Context, officeID int, prefix string, date time.Time) (string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	num, err := nextNumberWithTx(ctx, tx, officeID, prefix, date)
	if err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}
	return num, nil
}

func (s *documentService) NextNumberTx(ctx context.Context, tx pgx.Tx, officeID int, prefix string, date time.Time) (string, error) {
	return nextNumberWithTx(ctx, tx, officeID, prefix, date)
}

func nextNumberWithTx(ctx context.Context, tx pgx.Tx, officeID int, prefix string, date time.Time) (string, error) {
	var officeCode string
	err := tx.QueryRow(ctx, "SELECT code FROM offices WHERE id = $1", officeID).Scan(&officeCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", NotFoundError("office", officeID)
		}
		return "", fmt.Errorf("failed to read office: %w", err)
	}

	// Concurrency-safe gapless sequence: the upsert row lock serialises callers.
	year := date.Year()
	var lastNumber int64
	querySeq := `
		INSERT INTO document_sequences (office_id, prefix, financial_year, last_number)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (office_id, prefix, financial_year)
		DO UPDATE SET last_number = document_sequences.last_number + 1
		RETURNING last_number
	`
	if err := tx.QueryRow(ctx, querySeq, officeID, prefix, year).Scan(&lastNumber); err != nil {
		return "", fmt.Errorf("failed to generate sequence number: %w", err)
	}

	return FormatDocumentNumber(prefix, officeCode, year, lastNumber), nil
}

// FormatDocumentNumber renders PREFIX-OFFICE-YYYY-00001.
func FormatDocumentNumber(prefix, officeCode string, year int, n int64) string {
	return fmt.Sprintf("%s-%s-%d-%05d", prefix, officeCode, year, n)
}
