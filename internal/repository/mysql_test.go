package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optinet/optinet/pkg/model"
)

func TestMySQLJobRepository_SaveJob(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLJobRepository(db)

	t.Run("Success", func(t *testing.T) {
		job := model.NewJob(0, "uuid-1", "(\\x.x)", 1000)

		mock.ExpectExec("INSERT INTO reduction_job").
			WithArgs(job.JobUUID, job.Program, job.Status, job.StatusInfo, job.GasLimit, job.GasUsed, job.Priority, job.CreateTime).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.SaveJob(context.Background(), job)
		require.NoError(t, err)
		assert.Equal(t, int64(1), job.ID)
	})
}

func TestMySQLJobRepository_GetJobByUUID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLJobRepository(db)

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "uuid", "program", "status", "status_info", "gas_limit", "gas_used",
			"normal_form", "error_msg", "priority", "create_time", "begin_time", "end_time",
		}).AddRow(
			int64(1), "uuid-1", "(\\x.x)", model.JobStatusPending, "", uint64(1000), uint64(0),
			"", "", 0, time.Now(), nil, nil,
		)

		mock.ExpectQuery("SELECT id, uuid, program").WithArgs("uuid-1").WillReturnRows(rows)

		job, err := repo.GetJobByUUID(context.Background(), "uuid-1")
		require.NoError(t, err)
		assert.Equal(t, "uuid-1", job.JobUUID)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, uuid, program").WithArgs("nonexistent").WillReturnError(sql.ErrNoRows)

		job, err := repo.GetJobByUUID(context.Background(), "nonexistent")
		assert.Error(t, err)
		assert.Nil(t, job)
		assert.Contains(t, err.Error(), "job not found")
	})
}

func TestMySQLJobRepository_GetPendingJobs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLJobRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "uuid", "program", "status", "status_info", "gas_limit", "gas_used",
		"normal_form", "error_msg", "priority", "create_time", "begin_time", "end_time",
	}).AddRow(
		int64(1), "uuid-1", "x", model.JobStatusPending, "", uint64(1000), uint64(0),
		"", "", 0, time.Now(), nil, nil,
	)

	mock.ExpectQuery("SELECT id, uuid, program").WithArgs(model.JobStatusPending, 10).WillReturnRows(rows)

	jobs, err := repo.GetPendingJobs(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "uuid-1", jobs[0].JobUUID)
}

func TestMySQLJobRepository_UpdateJobStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLJobRepository(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("UPDATE reduction_job SET status").
			WithArgs(model.JobStatusRunning, "info", "uuid-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateJobStatus(context.Background(), "uuid-1", model.JobStatusRunning, "info")
		require.NoError(t, err)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectExec("UPDATE reduction_job SET status").
			WithArgs(model.JobStatusRunning, "", "nonexistent").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateJobStatus(context.Background(), "nonexistent", model.JobStatusRunning, "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "job not found")
	})
}

func TestMySQLJobRepository_CompleteJob(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLJobRepository(db)

	mock.ExpectExec("UPDATE reduction_job").
		WithArgs(model.JobStatusSucceeded, uint64(5), "\\x.x", "", sqlmock.AnyArg(), "uuid-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.CompleteJob(context.Background(), "uuid-1", model.JobStatusSucceeded, 5, "\\x.x", "")
	require.NoError(t, err)
}

func TestMySQLJobRepository_LockJobForExecution(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLJobRepository(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectBegin()

		rows := sqlmock.NewRows([]string{"status"}).AddRow(model.JobStatusPending)
		mock.ExpectQuery("SELECT status").
			WithArgs("uuid-1", model.JobStatusPending).
			WillReturnRows(rows)

		mock.ExpectExec("UPDATE reduction_job SET status").
			WithArgs(model.JobStatusRunning, sqlmock.AnyArg(), "uuid-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		mock.ExpectCommit()

		locked, err := repo.LockJobForExecution(context.Background(), "uuid-1")
		require.NoError(t, err)
		assert.True(t, locked)
	})

	t.Run("AlreadyLocked", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectQuery("SELECT status").
			WithArgs("uuid-1", model.JobStatusPending).
			WillReturnError(sql.ErrNoRows)

		mock.ExpectRollback()

		locked, err := repo.LockJobForExecution(context.Background(), "uuid-1")
		require.NoError(t, err)
		assert.False(t, locked)
	})
}
