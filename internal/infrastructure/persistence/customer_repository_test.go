package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/custdash/backend/internal/domain/customer"
	"github.com/custdash/backend/internal/domain/shared"
)

// newMockCustomerRepository creates a GormCustomerRepository with a mocked SQL connection
func newMockCustomerRepository(t *testing.T) (*GormCustomerRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	return NewGormCustomerRepository(gormDB), mock, mockDB
}

func customerRows(id uuid.UUID, fullName, email string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "created_at", "updated_at", "full_name", "email", "phone_number", "national_id", "internal_notes", "deleted_at"}).
		AddRow(id, now, now, fullName, email, "+1 555 0100", nil, nil, nil)
}

func TestNewGormCustomerRepository(t *testing.T) {
	t.Run("creates repository with valid DB", func(t *testing.T) {
		repo, _, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		assert.NotNil(t, repo)
		assert.NotNil(t, repo.db)
	})
}

func TestGormCustomerRepository_FindByID(t *testing.T) {
	t.Run("finds existing customer", func(t *testing.T) {
		repo, mock, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		customerID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "customers" WHERE id = \$1 AND "customers"\."deleted_at" IS NULL ORDER BY .* LIMIT .*`).
			WithArgs(customerID, 1).
			WillReturnRows(customerRows(customerID, "Ada Lovelace", "ada@example.com"))

		c, err := repo.FindByID(context.Background(), customerID)

		assert.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, customerID, c.ID)
		assert.Equal(t, "Ada Lovelace", c.FullName)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for non-existent customer", func(t *testing.T) {
		repo, mock, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		customerID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "customers" WHERE id = \$1 AND "customers"\."deleted_at" IS NULL ORDER BY .* LIMIT .*`).
			WithArgs(customerID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		c, err := repo.FindByID(context.Background(), customerID)

		assert.Nil(t, c)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCustomerRepository_FindByEmail(t *testing.T) {
	t.Run("normalizes email to lowercase", func(t *testing.T) {
		repo, mock, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		customerID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "customers" WHERE email = \$1 AND "customers"\."deleted_at" IS NULL ORDER BY .* LIMIT .*`).
			WithArgs("ada@example.com", 1).
			WillReturnRows(customerRows(customerID, "Ada Lovelace", "ada@example.com"))

		c, err := repo.FindByEmail(context.Background(), "Ada@Example.com")

		assert.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, "ada@example.com", c.Email)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects empty email", func(t *testing.T) {
		repo, _, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		c, err := repo.FindByEmail(context.Background(), "")
		assert.Nil(t, c)
		assert.Error(t, err)
	})
}

func TestGormCustomerRepository_Search(t *testing.T) {
	t.Run("applies search pattern and pagination", func(t *testing.T) {
		repo, mock, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		customerID := uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "customers" WHERE \(full_name ILIKE \$1 OR email ILIKE \$2\) AND "customers"\."deleted_at" IS NULL`).
			WithArgs("%ada%", "%ada%").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		mock.ExpectQuery(`SELECT \* FROM "customers" WHERE \(full_name ILIKE \$1 OR email ILIKE \$2\) AND "customers"\."deleted_at" IS NULL ORDER BY created_at DESC LIMIT .*`).
			WithArgs("%ada%", "%ada%", 10).
			WillReturnRows(customerRows(customerID, "Ada Lovelace", "ada@example.com"))

		customers, total, err := repo.Search(context.Background(), customer.Filter{
			Query:    "ada",
			Page:     1,
			PageSize: 10,
		})

		assert.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, customers, 1)
		assert.Equal(t, "ada@example.com", customers[0].Email)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects unknown sort fields", func(t *testing.T) {
		repo, mock, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "customers" WHERE "customers"\."deleted_at" IS NULL`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		// The injected sort field must be replaced by the default.
		mock.ExpectQuery(`SELECT \* FROM "customers" WHERE "customers"\."deleted_at" IS NULL ORDER BY created_at DESC LIMIT .*`).
			WithArgs(10).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		customers, total, err := repo.Search(context.Background(), customer.Filter{
			SortBy:   "email; DROP TABLE customers",
			Page:     1,
			PageSize: 10,
		})

		assert.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, customers)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCustomerRepository_ExistsByEmail(t *testing.T) {
	t.Run("returns true when a live row matches", func(t *testing.T) {
		repo, mock, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "customers" WHERE email = \$1 AND "customers"\."deleted_at" IS NULL`).
			WithArgs("ada@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		exists, err := repo.ExistsByEmail(context.Background(), "ada@example.com")
		assert.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty email is never taken", func(t *testing.T) {
		repo, _, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		exists, err := repo.ExistsByEmail(context.Background(), "")
		assert.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestGormCustomerRepository_Insert(t *testing.T) {
	t.Run("maps duplicate key to email conflict", func(t *testing.T) {
		repo, mock, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		c, err := customer.NewCustomer("Ada Lovelace", "ada@example.com", "+1 555 0100")
		require.NoError(t, err)

		mock.ExpectExec(`INSERT INTO "customers" .*`).
			WillReturnError(gorm.ErrDuplicatedKey)

		err = repo.Insert(context.Background(), c)
		assert.Equal(t, shared.ErrEmailConflict, err)
	})
}

func TestGormCustomerRepository_Update(t *testing.T) {
	t.Run("returns ErrNotFound when no rows affected", func(t *testing.T) {
		repo, mock, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		c, err := customer.NewCustomer("Ada Lovelace", "ada@example.com", "+1 555 0100")
		require.NoError(t, err)

		mock.ExpectExec(`UPDATE "customers" SET .*`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = repo.Update(context.Background(), c)
		assert.Equal(t, shared.ErrNotFound, err)
	})
}

func TestGormCustomerRepository_SoftDelete(t *testing.T) {
	t.Run("soft deletes and reports affected rows", func(t *testing.T) {
		repo, mock, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		ids := []uuid.UUID{uuid.New(), uuid.New()}

		mock.ExpectExec(`UPDATE "customers" SET "deleted_at"=.* WHERE id IN \(\$2,\$3\) AND "customers"\."deleted_at" IS NULL`).
			WillReturnResult(sqlmock.NewResult(0, 2))

		affected, err := repo.SoftDelete(context.Background(), ids)
		assert.NoError(t, err)
		assert.Equal(t, int64(2), affected)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty id list is a no-op", func(t *testing.T) {
		repo, _, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		affected, err := repo.SoftDelete(context.Background(), nil)
		assert.NoError(t, err)
		assert.Zero(t, affected)
	})
}
