package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-room-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func requestRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "requester_type", "requester_ref", "purpose", "start_at", "end_at",
		"capacity_required", "room_type", "needs_projector", "needs_ac",
		"preferred_building", "status", "allocation_id", "classroom_id",
		"decision_reason", "conflict_id", "created_at", "updated_at",
	})
}

func TestRoomRequestRepositoryListFiltersByStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRoomRequestRepository(db)

	rows := requestRows().
		AddRow("req-1", "ADMIN", nil, "Exam", time.Now(), time.Now().Add(time.Hour),
			40, "ANY", false, false, "", "PENDING", nil, nil, "", nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM room_requests WHERE 1=1 AND status = $1 ORDER BY start_at ASC, id ASC LIMIT 20 OFFSET 0")).
		WithArgs(models.RequestStatusPending).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM room_requests WHERE 1=1 AND status = $1")).
		WithArgs(models.RequestStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.RoomRequestFilter{Status: models.RequestStatusPending})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRequestRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRoomRequestRepository(db)

	mock.ExpectExec("INSERT INTO room_requests").
		WillReturnResult(sqlmock.NewResult(1, 1))

	request := &models.RoomRequest{
		RequesterType:    models.RequesterExam,
		Purpose:          "Placement drive",
		StartAt:          time.Now(),
		EndAt:            time.Now().Add(2 * time.Hour),
		CapacityRequired: 120,
		RoomType:         models.RoomTypeAuditorium,
		Status:           models.RequestStatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), request))
	assert.NotEmpty(t, request.ID)
	assert.False(t, request.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRequestRepositoryMarkAllocatedClearsConflict(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRoomRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE room_requests SET status = $2, allocation_id = $3, classroom_id = $4, decision_reason = $5, conflict_id = NULL, updated_at = $6 WHERE id = $1")).
		WithArgs("req-1", models.RequestStatusAllocated, "al-1", "r-1", "reason", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.MarkAllocated(context.Background(), db, "req-1", "al-1", "r-1", "reason"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRequestRepositoryMarkFailedLinksConflict(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRoomRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE room_requests SET status = $2, allocation_id = NULL, classroom_id = NULL, decision_reason = $3, conflict_id = $4, updated_at = $5 WHERE id = $1")).
		WithArgs("req-1", models.RequestStatusFailed, "no fit", "cf-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.MarkFailed(context.Background(), db, "req-1", "cf-1", "no fit"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
