package storage

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartsecurity/access-register/internal/models"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStoreFromDB(db), mock
}

var vehicleColumnNames = []string{
	"id", "created_at", "updated_at", "vehicle_number", "vehicle_type", "driver_name",
	"company", "purpose", "user_type", "tenant_id", "status", "created_by",
	"check_in_time", "check_out_time",
}

func TestMapErr(t *testing.T) {
	assert.Nil(t, mapErr(nil))
	assert.Equal(t, ErrDuplicateKey, mapErr(&pq.Error{Code: "23505"}))
	assert.Equal(t, ErrNotFound, mapErr(sql.ErrNoRows))
	assert.Equal(t, ErrNotFound, mapErr(fmt.Errorf("scan: %w", sql.ErrNoRows)))

	other := &pq.Error{Code: "23503"}
	assert.Equal(t, error(other), mapErr(other))
}

func TestCreateVehicleDuplicateOpenNumber(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO vehicles")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "vehicles_open_number_idx"})

	err := store.CreateVehicle(context.Background(), &models.Vehicle{VehicleNumber: "KA-01-1234", Status: models.StatusPending})
	assert.ErrorIs(t, err, ErrDuplicateKey)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetVehicleNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM vehicles WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(vehicleColumnNames))

	_, err := store.GetVehicle(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindOpenVehicleByNumber(t *testing.T) {
	store, mock := newMockStore(t)
	id, tenantID := uuid.New(), uuid.New()
	in := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE upper(vehicle_number) = upper($1) AND check_out_time IS NULL")).
		WithArgs("ka-01-1234").
		WillReturnRows(sqlmock.NewRows(vehicleColumnNames).AddRow(
			id.String(), in, in, "KA-01-1234", "CAR", "Ravi",
			"Acme", "Delivery", "VENDOR", tenantID.String(), "CHECKED_IN", nil,
			in, nil,
		))

	v, err := store.FindOpenVehicleByNumber(context.Background(), "ka-01-1234")
	require.NoError(t, err)
	assert.Equal(t, id, v.ID)
	assert.Equal(t, models.StatusCheckedIn, v.Status)
	require.NotNil(t, v.TenantID)
	assert.Equal(t, tenantID, *v.TenantID)
	assert.Nil(t, v.CreatedBy)
	require.NotNil(t, v.CheckInTime)
	assert.True(t, in.Equal(*v.CheckInTime))
	assert.Nil(t, v.CheckOutTime)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateVehicleMissingRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE vehicles SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateVehicle(context.Background(), &models.Vehicle{ID: uuid.New()})
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListVehicleHistoryPage(t *testing.T) {
	store, mock := newMockStore(t)
	vehicleID := uuid.New()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24*time.Hour - time.Nanosecond)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM vehicle_history WHERE vehicle_id = $1 AND check_in_time BETWEEN $2 AND $3")).
		WithArgs(vehicleID, start, end).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY check_in_time DESC LIMIT $4 OFFSET $5")).
		WithArgs(vehicleID, start, end, 10, 20).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "created_at", "updated_at", "vehicle_id", "vehicle_number", "vehicle_type",
			"driver_name", "company", "purpose", "user_type", "tenant_id", "status", "created_by",
			"check_in_time", "check_out_time",
		}).AddRow(
			uuid.NewString(), start, start, vehicleID.String(), "KA-01-1234", "CAR",
			"", "", "", "", nil, "CHECKED_OUT", nil,
			start.Add(time.Hour), start.Add(2*time.Hour),
		))

	entries, total, err := store.ListVehicleHistoryPage(context.Background(), HistoryFilter{
		SubjectID: &vehicleID,
		Start:     start,
		End:       end,
	}, 10, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 25, total)
	require.Len(t, entries, 1)
	assert.Equal(t, models.StatusCheckedOut, entries[0].Status)
	assert.Equal(t, vehicleID, entries[0].VehicleID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionUsesTx(t *testing.T) {
	store, mock := newMockStore(t)
	tenantID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM vehicles WHERE tenant_id = $1 AND check_out_time IS NULL")).
		WithArgs(tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tenants WHERE id = $1")).
		WithArgs(tenantID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	open, err := tx.CountOpenSessionsByTenant(ctx, tenantID)
	require.NoError(t, err)
	assert.Zero(t, open)
	require.NoError(t, tx.DeleteTenant(ctx, tenantID))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRollbackOutsideTxIsNoop(t *testing.T) {
	store, mock := newMockStore(t)
	assert.NoError(t, store.Rollback())
	assert.NoError(t, store.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateAppliesPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT version FROM schema_migrations WHERE version = $1")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations")).
		WithArgs(1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, Migrate(context.Background(), db))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateSkipsApplied(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT version FROM schema_migrations WHERE version = $1")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1))

	require.NoError(t, Migrate(context.Background(), db))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name    string
		want    int
		wantErr bool
	}{
		{"0001_init.sql", 1, false},
		{"0012_add_index.sql", 12, false},
		{"0000_empty.sql", 0, false},
		{"init.sql", 0, true},
	}
	for _, tt := range tests {
		got, err := parseVersion(tt.name)
		if tt.wantErr {
			assert.Error(t, err, tt.name)
			continue
		}
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestCreateVisitorRollsBackWhenAdminInsertFails(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO visitors (")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO visitor_admins")).
		WillReturnError(&pq.Error{Code: "23503"})
	mock.ExpectRollback()

	err := store.CreateVisitor(context.Background(), &models.Visitor{
		MobileNumber:   "9000000001",
		Status:         models.StatusPending,
		AssignedAdmins: []uuid.UUID{uuid.New()},
	})
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateVisitorRollsBackWhenAdminInsertFails(t *testing.T) {
	store, mock := newMockStore(t)
	id, kept, added := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE visitors SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT admin_id::text FROM visitor_admins WHERE visitor_id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"admin_id"}).AddRow(kept.String()))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM visitor_admins WHERE visitor_id = $1")).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO visitor_admins")).
		WillReturnError(&pq.Error{Code: "23503"})
	mock.ExpectRollback()

	err := store.UpdateVisitor(context.Background(), &models.Visitor{
		ID:             id,
		Status:         models.StatusApproved,
		AssignedAdmins: []uuid.UUID{kept, added},
	})
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateVisitorLeavesUnchangedAdmins(t *testing.T) {
	store, mock := newMockStore(t)
	id, admin := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE visitors SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT admin_id::text FROM visitor_admins WHERE visitor_id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"admin_id"}).AddRow(admin.String()))
	mock.ExpectCommit()

	err := store.UpdateVisitor(context.Background(), &models.Visitor{
		ID:             id,
		Status:         models.StatusCheckedIn,
		AssignedAdmins: []uuid.UUID{admin},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
