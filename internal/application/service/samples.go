package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/ademirvarjao/conciliador-bancario/internal/application/ingest"
	"github.com/ademirvarjao/conciliador-bancario/internal/domain/record"
)

// LoadSamples seeds the session with a small demonstration data set: two
// bank transactions and their ledger counterparts, ready for a
// reconciliation run.
func (s *Service) LoadSamples() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := nowUTC()
	// Midday, matching the date normalization applied by the parsers.
	today := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, time.UTC)
	samples := []ingest.Raw{
		{Date: today, Description: "Recebimento PIX Cliente A", Amount: 1250.50},
		{Date: today, Description: "Pagamento Energia Elétrica", Amount: -320.75},
	}
	s.transactions, _ = s.normalizer.Append(s.transactions, samples)

	s.ledger = []*record.LedgerEntry{
		{
			ID:          uuid.NewString(),
			Date:        today,
			Description: "Recebimento PIX Cliente A",
			Value:       1250.50,
			Account:     "Receitas - Vendas",
			MatchType:   record.MatchNone,
		},
		{
			ID:          uuid.NewString(),
			Date:        today,
			Description: "Pagamento Energia Elétrica",
			Value:       -320.75,
			Account:     "Despesas - Energia",
			MatchType:   record.MatchNone,
		},
	}
	return s.persistLocked()
}
