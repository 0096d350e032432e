package betService

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/STop211650/HyphynessTracker/models"
	"github.com/STop211650/HyphynessTracker/services/common"
	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMockDB() (*gorm.DB, sqlmock.Sqlmock, error) {
	db, mock, err := sqlmock.New()
	if err != nil {
		return nil, nil, err
	}
	mock.MatchExpectationsInOrder(false)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})

	return gormDB, mock, err
}

func closeDB(db *gorm.DB) {
	sqlDB, _ := db.DB()
	sqlDB.Close()
}

func assertEqual(t *testing.T, expected, actual interface{}, msg string) {
	t.Helper()
	if expected != actual {
		t.Errorf("%s: expected %v, got %v", msg, expected, actual)
	}
}

func strPtr(s string) *string { return &s }

func sampleRecord() *models.BetRecord {
	return &models.BetRecord{
		TicketNumber: "DK-1001",
		Sportsbook:   strPtr("DraftKings"),
		Type:         models.TypeParlay,
		Odds:         "+264",
		Risk:         decimal.NewFromInt(50),
		ToWin:        decimal.RequireFromString("132.00"),
		Status:       models.StatusPending,
		OwnerID:      "user-1",
		Legs: []models.BetLeg{
			{Event: "BOS @ NYK", Market: "moneyline", Selection: "Celtics", Odds: "-150"},
			{Event: "LAL @ DEN", Market: "spread", Selection: "Nuggets -3.5", Odds: "-110"},
		},
		Participants: []models.ParticipantStake{
			{ParticipantName: "Sam", Stake: decimal.NewFromInt(30)},
			{ParticipantName: "Alex", Stake: decimal.NewFromInt(20)},
		},
	}
}

func TestCreate(t *testing.T) {
	t.Run("Inserts record with children", func(t *testing.T) {
		db, mock, err := newMockDB()
		if err != nil {
			t.Fatalf("Failed to create mock DB: %v", err)
		}
		defer closeDB(db)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT `id`,`sportsbook` FROM `bet_records` .* FOR UPDATE").
			WillReturnRows(sqlmock.NewRows([]string{"id", "sportsbook"}))
		mock.ExpectExec("INSERT INTO `bet_records`").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO `bet_legs`").WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec("INSERT INTO `participant_stakes`").WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		record := sampleRecord()
		if err := NewStore(db, nil).Create(context.Background(), record); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		if record.ID == "" {
			t.Error("Expected an ID to be assigned")
		}
		for i, leg := range record.Legs {
			assertEqual(t, record.ID, leg.BetID, "leg bet id")
			assertEqual(t, i, leg.Position, "leg position")
		}
		for _, p := range record.Participants {
			assertEqual(t, record.ID, p.BetID, "participant bet id")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unfulfilled expectations: %v", err)
		}
	})

	t.Run("Same ticket at another book is allowed", func(t *testing.T) {
		db, mock, err := newMockDB()
		if err != nil {
			t.Fatalf("Failed to create mock DB: %v", err)
		}
		defer closeDB(db)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT `id`,`sportsbook` FROM `bet_records` .* FOR UPDATE").
			WillReturnRows(sqlmock.NewRows([]string{"id", "sportsbook"}).AddRow("other", "FanDuel"))
		mock.ExpectExec("INSERT INTO `bet_records`").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO `bet_legs`").WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec("INSERT INTO `participant_stakes`").WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		if err := NewStore(db, nil).Create(context.Background(), sampleRecord()); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	})

	t.Run("Duplicate ticket rejected", func(t *testing.T) {
		db, mock, err := newMockDB()
		if err != nil {
			t.Fatalf("Failed to create mock DB: %v", err)
		}
		defer closeDB(db)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT `id`,`sportsbook` FROM `bet_records` WHERE owner_id = \\? AND ticket_number = \\? FOR UPDATE").
			WithArgs("user-1", "DK-1001").
			WillReturnRows(sqlmock.NewRows([]string{"id", "sportsbook"}).AddRow("existing", "draftkings"))
		mock.ExpectRollback()

		err = NewStore(db, nil).Create(context.Background(), sampleRecord())
		if !errors.Is(err, common.ErrDuplicateTicket) {
			t.Fatalf("Expected ErrDuplicateTicket, got %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unfulfilled expectations: %v", err)
		}
	})

	t.Run("Stakes must sum to risk", func(t *testing.T) {
		db, mock, err := newMockDB()
		if err != nil {
			t.Fatalf("Failed to create mock DB: %v", err)
		}
		defer closeDB(db)

		record := sampleRecord()
		record.Participants[1].Stake = decimal.RequireFromString("19.98")

		err = NewStore(db, nil).Create(context.Background(), record)
		var validation *common.ValidationError
		if !errors.As(err, &validation) {
			t.Fatalf("Expected ValidationError, got %v", err)
		}
		assertEqual(t, "Stakes total $49.98 but should equal $50.00", validation.Errors[0], "validation message")
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unexpected database calls: %v", err)
		}
	})

	t.Run("Non canonical odds rejected", func(t *testing.T) {
		db, _, err := newMockDB()
		if err != nil {
			t.Fatalf("Failed to create mock DB: %v", err)
		}
		defer closeDB(db)

		record := sampleRecord()
		record.Odds = "$50/$132"

		err = NewStore(db, nil).Create(context.Background(), record)
		if !errors.Is(err, common.ErrInvalidRecord) {
			t.Fatalf("Expected ErrInvalidRecord, got %v", err)
		}
	})
}

func TestGet(t *testing.T) {
	t.Run("Loads children", func(t *testing.T) {
		db, mock, err := newMockDB()
		if err != nil {
			t.Fatalf("Failed to create mock DB: %v", err)
		}
		defer closeDB(db)

		created := time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)
		mock.ExpectQuery("SELECT \\* FROM `bet_records`").
			WillReturnRows(sqlmock.NewRows([]string{"id", "ticket_number", "type", "odds", "risk", "to_win", "status", "owner_id", "created_at"}).
				AddRow("bet-1", "DK-1001", "straight", "-110", "110.00", "100.00", "pending", "user-1", created))
		mock.ExpectQuery("SELECT \\* FROM `bet_legs`").
			WillReturnRows(sqlmock.NewRows([]string{"id", "bet_id", "position"}))
		mock.ExpectQuery("SELECT \\* FROM `participant_stakes`").
			WillReturnRows(sqlmock.NewRows([]string{"id", "bet_id", "participant_name", "stake", "payout_due"}).
				AddRow("p-1", "bet-1", "Sam", "110.0000", "0"))

		record, err := NewStore(db, nil).Get(context.Background(), "bet-1")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		assertEqual(t, "DK-1001", record.TicketNumber, "ticket")
		assertEqual(t, models.StatusPending, record.Status, "status")
		assertEqual(t, 1, len(record.Participants), "participants")
		if !record.Risk.Equal(decimal.NewFromInt(110)) {
			t.Errorf("Expected risk 110, got %s", record.Risk)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unfulfilled expectations: %v", err)
		}
	})

	t.Run("Missing record", func(t *testing.T) {
		db, mock, err := newMockDB()
		if err != nil {
			t.Fatalf("Failed to create mock DB: %v", err)
		}
		defer closeDB(db)

		mock.ExpectQuery("SELECT \\* FROM `bet_records`").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err = NewStore(db, nil).Get(context.Background(), "nope")
		if !errors.Is(err, common.ErrNotFound) {
			t.Fatalf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestApplySettlement(t *testing.T) {
	payouts := []models.ParticipantStake{
		{ID: "p-1", BetID: "bet-1", ParticipantName: "A", Stake: decimal.NewFromInt(60), PayoutDue: decimal.NewFromInt(90)},
		{ID: "p-2", BetID: "bet-1", ParticipantName: "B", Stake: decimal.NewFromInt(40), PayoutDue: decimal.NewFromInt(60)},
	}

	t.Run("Pending record transitions", func(t *testing.T) {
		db, mock, err := newMockDB()
		if err != nil {
			t.Fatalf("Failed to create mock DB: %v", err)
		}
		defer closeDB(db)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `bet_records` SET").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE `participant_stakes` SET").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE `participant_stakes` SET").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = NewStore(db, nil).ApplySettlement(context.Background(), "bet-1", models.StatusWon, time.Now(), payouts)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unfulfilled expectations: %v", err)
		}
	})

	t.Run("Settled record rolls back with current status", func(t *testing.T) {
		db, mock, err := newMockDB()
		if err != nil {
			t.Fatalf("Failed to create mock DB: %v", err)
		}
		defer closeDB(db)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `bet_records` SET").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT `id`,`status` FROM `bet_records`").
			WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow("bet-1", "lost"))
		mock.ExpectRollback()

		err = NewStore(db, nil).ApplySettlement(context.Background(), "bet-1", models.StatusWon, time.Now(), payouts)
		var settled *common.AlreadySettledError
		if !errors.As(err, &settled) {
			t.Fatalf("Expected AlreadySettledError, got %v", err)
		}
		assertEqual(t, models.StatusLost, settled.Status, "current status")
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unfulfilled expectations: %v", err)
		}
	})

	t.Run("Missing record", func(t *testing.T) {
		db, mock, err := newMockDB()
		if err != nil {
			t.Fatalf("Failed to create mock DB: %v", err)
		}
		defer closeDB(db)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `bet_records` SET").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT `id`,`status` FROM `bet_records`").
			WillReturnRows(sqlmock.NewRows([]string{"id", "status"}))
		mock.ExpectRollback()

		err = NewStore(db, nil).ApplySettlement(context.Background(), "bet-1", models.StatusWon, time.Now(), payouts)
		if !errors.Is(err, common.ErrNotFound) {
			t.Fatalf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Pending is not a settlement status", func(t *testing.T) {
		db, _, err := newMockDB()
		if err != nil {
			t.Fatalf("Failed to create mock DB: %v", err)
		}
		defer closeDB(db)

		err = NewStore(db, nil).ApplySettlement(context.Background(), "bet-1", models.StatusPending, time.Now(), payouts)
		if !errors.Is(err, common.ErrInvalidStatus) {
			t.Fatalf("Expected ErrInvalidStatus, got %v", err)
		}
	})
}

func TestPendingByTicket(t *testing.T) {
	db, mock, err := newMockDB()
	if err != nil {
		t.Fatalf("Failed to create mock DB: %v", err)
	}
	defer closeDB(db)

	mock.ExpectQuery("SELECT \\* FROM `bet_records` WHERE status = \\? AND owner_id = \\? AND ticket_number = \\?").
		WithArgs("pending", "user-1", "T-9").
		WillReturnRows(sqlmock.NewRows([]string{"id", "ticket_number", "status", "owner_id"}).
			AddRow("bet-1", "T-9", "pending", "user-1").
			AddRow("bet-2", "T-9", "pending", "user-1"))
	mock.ExpectQuery("SELECT \\* FROM `bet_legs`").WillReturnRows(sqlmock.NewRows([]string{"id", "bet_id"}))
	mock.ExpectQuery("SELECT \\* FROM `participant_stakes`").WillReturnRows(sqlmock.NewRows([]string{"id", "bet_id"}))

	records, err := NewStore(db, nil).PendingByTicket(context.Background(), "user-1", "T-9")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	assertEqual(t, 2, len(records), "records")
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

func TestActiveBets(t *testing.T) {
	t.Run("Owner only", func(t *testing.T) {
		db, mock, err := newMockDB()
		if err != nil {
			t.Fatalf("Failed to create mock DB: %v", err)
		}
		defer closeDB(db)

		mock.ExpectQuery("SELECT \\* FROM `bet_records` WHERE status = \\? AND owner_id = \\? ORDER BY created_at desc").
			WithArgs("pending", "user-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "status", "owner_id"}).AddRow("bet-1", "pending", "user-1"))
		mock.ExpectQuery("SELECT \\* FROM `bet_legs`").WillReturnRows(sqlmock.NewRows([]string{"id", "bet_id"}))
		mock.ExpectQuery("SELECT \\* FROM `participant_stakes`").WillReturnRows(sqlmock.NewRows([]string{"id", "bet_id"}))

		records, err := NewStore(db, nil).ActiveBets(context.Background(), "user-1", "")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		assertEqual(t, 1, len(records), "records")
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unfulfilled expectations: %v", err)
		}
	})

	t.Run("Participant narrows the owner's bets", func(t *testing.T) {
		db, mock, err := newMockDB()
		if err != nil {
			t.Fatalf("Failed to create mock DB: %v", err)
		}
		defer closeDB(db)

		// Sam also holds a stake on user-2's bet-9; only the owner scope may
		// decide which rows come back.
		mock.ExpectQuery("SELECT \\* FROM `bet_records` WHERE \\(status = \\? AND owner_id = \\?\\) AND id IN \\(SELECT `bet_id` FROM `participant_stakes` WHERE participant_name = \\?\\)").
			WithArgs("pending", "user-1", "Sam").
			WillReturnRows(sqlmock.NewRows([]string{"id", "status", "owner_id"}).AddRow("bet-1", "pending", "user-1"))
		mock.ExpectQuery("SELECT \\* FROM `bet_legs`").WillReturnRows(sqlmock.NewRows([]string{"id", "bet_id"}))
		mock.ExpectQuery("SELECT \\* FROM `participant_stakes`").WillReturnRows(sqlmock.NewRows([]string{"id", "bet_id"}))

		records, err := NewStore(db, nil).ActiveBets(context.Background(), "user-1", "Sam")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		assertEqual(t, 1, len(records), "records")
		for _, r := range records {
			assertEqual(t, "user-1", r.OwnerID, "owner")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unfulfilled expectations: %v", err)
		}
	})
}
