package betService

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/STop211650/HyphynessTracker/models"
	"github.com/STop211650/HyphynessTracker/services/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the append-only ledger of bet records. Apart from creation, the
// only write it allows is the pending -> terminal settlement transition.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewStore(db *gorm.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, log: log}
}

// Create validates and inserts the record with its legs and participants in a
// single transaction. IDs are assigned here.
func (s *Store) Create(ctx context.Context, record *models.BetRecord) error {
	if err := validateRecord(record); err != nil {
		return err
	}

	record.ID = uuid.NewString()
	for i := range record.Legs {
		record.Legs[i].ID = uuid.NewString()
		record.Legs[i].BetID = record.ID
		record.Legs[i].Position = i
	}
	for i := range record.Participants {
		record.Participants[i].ID = uuid.NewString()
		record.Participants[i].BetID = record.ID
	}
	if len(record.RawExtraction) == 0 {
		record.RawExtraction = datatypes.JSON("{}")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkDuplicateTicket(tx, record); err != nil {
			return err
		}
		return tx.Create(record).Error
	})
	if errors.Is(err, common.ErrDuplicateTicket) {
		return err
	}
	if err != nil {
		return fmt.Errorf("creating bet record: %w", err)
	}

	s.log.Info("bet record created",
		zap.String("bet_id", record.ID),
		zap.String("owner_id", record.OwnerID),
		zap.String("ticket_number", record.TicketNumber),
		zap.String("status", string(record.Status)),
	)
	return nil
}

// checkDuplicateTicket locks the owner's rows for the ticket so two uploads of
// the same slip cannot both pass the check before either inserts.
func checkDuplicateTicket(tx *gorm.DB, record *models.BetRecord) error {
	if record.TicketNumber == "" {
		return nil
	}
	var existing []models.BetRecord
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "sportsbook").
		Where("owner_id = ? AND ticket_number = ?", record.OwnerID, record.TicketNumber).
		Find(&existing).Error
	if err != nil {
		return fmt.Errorf("checking duplicate ticket: %w", err)
	}
	for _, e := range existing {
		if strings.EqualFold(e.SportsbookName(), record.SportsbookName()) {
			return fmt.Errorf("ticket %s: %w", record.TicketNumber, common.ErrDuplicateTicket)
		}
	}
	return nil
}

func validateRecord(record *models.BetRecord) error {
	var problems []string
	if record.OwnerID == "" {
		problems = append(problems, "owner is required")
	}
	if !record.Risk.IsPositive() {
		problems = append(problems, "risk must be greater than zero")
	}
	if record.ToWin.IsNegative() {
		problems = append(problems, "to_win cannot be negative")
	}
	if !common.IsCanonicalOdds(record.Odds) {
		problems = append(problems, fmt.Sprintf("odds %q are not in American format", record.Odds))
	}
	if !record.Status.Valid() {
		problems = append(problems, fmt.Sprintf("unknown status %q", record.Status))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", common.ErrInvalidRecord, strings.Join(problems, "; "))
	}

	if len(record.Participants) == 0 {
		return &common.ValidationError{Errors: []string{"No valid participants found"}}
	}
	stakes := make([]decimal.Decimal, 0, len(record.Participants))
	for _, p := range record.Participants {
		stakes = append(stakes, p.Stake)
	}
	if !common.StakesMatchRisk(stakes, record.Risk) {
		return &common.ValidationError{Errors: []string{fmt.Sprintf("Stakes total %s but should equal %s",
			common.FormatMoney(common.SumStakes(stakes)), common.FormatMoney(record.Risk))}}
	}
	return nil
}

// Get loads a record with its legs in slip order and its participants.
func (s *Store) Get(ctx context.Context, id string) (*models.BetRecord, error) {
	var record models.BetRecord
	err := withChildren(s.db.WithContext(ctx)).First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading bet %s: %w", id, err)
	}
	return &record, nil
}

// PendingByTicket returns the owner's pending records carrying the ticket.
func (s *Store) PendingByTicket(ctx context.Context, ownerID, ticketNumber string) ([]models.BetRecord, error) {
	var records []models.BetRecord
	err := withChildren(s.db.WithContext(ctx)).
		Where("status = ? AND owner_id = ? AND ticket_number = ?", models.StatusPending, ownerID, ticketNumber).
		Order("created_at desc").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("finding pending bets by ticket: %w", err)
	}
	return records, nil
}

// PendingSince returns the owner's pending records created at or after since.
func (s *Store) PendingSince(ctx context.Context, ownerID string, since time.Time) ([]models.BetRecord, error) {
	var records []models.BetRecord
	err := withChildren(s.db.WithContext(ctx)).
		Where("status = ? AND owner_id = ? AND created_at >= ?", models.StatusPending, ownerID, since).
		Order("created_at desc").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("finding recent pending bets: %w", err)
	}
	return records, nil
}

// ActiveBets lists the owner's pending records. A non-empty participant
// narrows them to the ones where that participant holds a stake; another
// owner's bets are never returned.
func (s *Store) ActiveBets(ctx context.Context, ownerID, participant string) ([]models.BetRecord, error) {
	query := withChildren(s.db.WithContext(ctx)).
		Where("status = ? AND owner_id = ?", models.StatusPending, ownerID)
	if participant != "" {
		sub := s.db.Model(&models.ParticipantStake{}).Select("bet_id").Where("participant_name = ?", participant)
		query = query.Where("id IN (?)", sub)
	}

	var records []models.BetRecord
	if err := query.Order("created_at desc").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("listing active bets: %w", err)
	}
	return records, nil
}

// StalePending returns pending records created before the cutoff, oldest first.
func (s *Store) StalePending(ctx context.Context, before time.Time) ([]models.BetRecord, error) {
	var records []models.BetRecord
	err := s.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.StatusPending, before).
		Order("created_at asc").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("finding stale pending bets: %w", err)
	}
	return records, nil
}

// ApplySettlement moves a pending record to status and writes every
// participant payout in one transaction. The status update only applies while
// the record is still pending, so a concurrent second settlement affects no
// rows and comes back as an AlreadySettledError.
func (s *Store) ApplySettlement(ctx context.Context, id string, status models.BetStatus, settledAt time.Time, payouts []models.ParticipantStake) error {
	if !status.IsTerminal() {
		return common.ErrInvalidStatus
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.BetRecord{}).
			Where("id = ? AND status = ?", id, models.StatusPending).
			Updates(map[string]interface{}{"status": status, "settled_at": settledAt})
		if result.Error != nil {
			return fmt.Errorf("settling bet %s: %w", id, result.Error)
		}

		if result.RowsAffected == 0 {
			var current models.BetRecord
			err := tx.Select("id", "status").First(&current, "id = ?", id).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.ErrNotFound
			}
			if err != nil {
				return fmt.Errorf("loading bet %s: %w", id, err)
			}
			return &common.AlreadySettledError{BetID: id, Status: current.Status}
		}

		for _, p := range payouts {
			err := tx.Model(&models.ParticipantStake{}).
				Where("id = ? AND bet_id = ?", p.ID, id).
				Update("payout_due", p.PayoutDue).Error
			if err != nil {
				return fmt.Errorf("writing payout for %s: %w", p.ParticipantName, err)
			}
		}
		return nil
	})
}

func withChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Legs", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Preload("Participants")
}
