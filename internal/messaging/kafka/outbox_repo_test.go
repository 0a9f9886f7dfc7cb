package kafka_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/mingttam/employee-management/internal/messaging/kafka"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func validEvent() kafka.OutboxEvent {
	return kafka.OutboxEvent{
		ID:            "0b8f5a52-8d7e-4d0b-9d51-5d8b1b0c2f11",
		RequestID:     "REQ-1",
		AggregateType: "employee",
		AggregateID:   "42",
		EventType:     "employee.created",
		Topic:         "hr.employee.lifecycle.v1",
		Payload:       []byte(`{"employee_id":42}`),
		Status:        kafka.OutboxStatusPending,
	}
}

func TestValidateOutboxEvent(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(e *kafka.OutboxEvent)
		wantErr string
	}{
		{name: "valid", mutate: func(e *kafka.OutboxEvent) {}},
		{name: "missing id", mutate: func(e *kafka.OutboxEvent) { e.ID = "" }, wantErr: "outbox id is required"},
		{name: "missing aggregate id", mutate: func(e *kafka.OutboxEvent) { e.AggregateID = "" }, wantErr: "outbox aggregate id is required"},
		{name: "missing topic", mutate: func(e *kafka.OutboxEvent) { e.Topic = "" }, wantErr: "outbox topic is required"},
		{name: "missing payload", mutate: func(e *kafka.OutboxEvent) { e.Payload = nil }, wantErr: "outbox payload is required"},
		{name: "bad status", mutate: func(e *kafka.OutboxEvent) { e.Status = "queued" }, wantErr: "invalid outbox status: queued"},
		{name: "new rows must be pending", mutate: func(e *kafka.OutboxEvent) { e.Status = kafka.OutboxStatusSent }, wantErr: "invalid outbox status: sent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validEvent()
			tt.mutate(&e)

			err := kafka.ValidateOutboxEvent(e)

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestOutboxRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("inside transaction", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		e := validEvent()
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO outbox_events")).
			WithArgs(e.ID, e.RequestID, e.AggregateType, e.AggregateID, e.EventType, e.Topic, e.Payload, e.Status).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		tx, err := db.BeginTx(ctx, nil)
		assert.NoError(t, err)

		repo := kafka.NewOutboxRepository(db).WithTx(tx)
		assert.NoError(t, repo.Create(ctx, e))
		assert.NoError(t, tx.Commit())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid event never reaches the database", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		e := validEvent()
		e.Payload = nil

		err = kafka.NewOutboxRepository(db).Create(ctx, e)

		assert.EqualError(t, err, "outbox payload is required")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_ClaimPending(t *testing.T) {
	ctx := context.Background()
	columns := []string{
		"id", "request_id", "aggregate_type", "aggregate_id", "event_type",
		"topic", "payload", "retry_count", "created_at",
	}

	t.Run("claims due rows oldest first", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		newer := older.Add(time.Second)
		rows := sqlmock.NewRows(columns).
			AddRow("id-2", "", "employee", "43", "employee.updated",
				"hr.employee.lifecycle.v1", []byte(`{}`), 1, newer).
			AddRow("id-1", "REQ-1", "employee", "42", "employee.created",
				"hr.employee.lifecycle.v1", []byte(`{}`), 0, older)

		mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE SKIP LOCKED")).
			WithArgs(kafka.OutboxStatusProcessing, kafka.ClaimLease.Seconds(),
				kafka.OutboxStatusPending, kafka.OutboxStatusFailed, 50).
			WillReturnRows(rows)

		events, err := kafka.NewOutboxRepository(db).ClaimPending(ctx, 50)

		assert.NoError(t, err)
		assert.Len(t, events, 2)
		assert.Equal(t, "id-1", events[0].ID)
		assert.Equal(t, "REQ-1", events[0].RequestID)
		assert.Equal(t, "42", events[0].AggregateID)
		assert.Equal(t, kafka.OutboxStatusProcessing, events[0].Status)
		assert.Equal(t, "id-2", events[1].ID)
		assert.Equal(t, 1, events[1].RetryCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error is wrapped", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE SKIP LOCKED")).
			WillReturnError(errors.New("db gone"))

		_, err = kafka.NewOutboxRepository(db).ClaimPending(ctx, 10)

		assert.EqualError(t, err, "claim outbox events: db gone")
	})

	t.Run("zero limit claims nothing", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		events, err := kafka.NewOutboxRepository(db).ClaimPending(ctx, 0)

		assert.NoError(t, err)
		assert.Empty(t, events)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_Mark(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := kafka.NewOutboxRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE outbox_events")).
		WithArgs("id-1", kafka.OutboxStatusSent).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE outbox_events")).
		WithArgs("id-2", kafka.OutboxStatusFailed, "broker down").
		WillReturnError(errors.New("db gone"))

	assert.NoError(t, repo.MarkSent(ctx, "id-1"))
	assert.EqualError(t, repo.MarkFailed(ctx, "id-2", "broker down"), "db gone")
	assert.NoError(t, mock.ExpectationsWereMet())
}
