package customer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custdash/backend/internal/domain/customer"
)

func sampleCustomer(t *testing.T) *customer.Customer {
	t.Helper()
	c, err := customer.NewCustomer("Ada Lovelace", "ada@example.com", "+44 20 7946 0000")
	require.NoError(t, err)

	nationalID := "GB-1815-1210"
	notes := "VIP, verified in person"
	require.NoError(t, c.SetNationalID(&nationalID))
	c.SetInternalNotes(&notes)
	return c
}

func TestProject(t *testing.T) {
	t.Run("public projection omits sensitive keys entirely", func(t *testing.T) {
		c := sampleCustomer(t)

		view := Project(c, customer.VisibilityPublic)
		assert.Nil(t, view.SensitiveFields)

		data, err := json.Marshal(view)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "national_id")
		assert.NotContains(t, string(data), "internal_notes")
		assert.Contains(t, string(data), "ada@example.com")
	})

	t.Run("internal projection carries sensitive fields", func(t *testing.T) {
		c := sampleCustomer(t)

		view := Project(c, customer.VisibilityInternal)
		require.NotNil(t, view.SensitiveFields)
		require.NotNil(t, view.NationalID)
		assert.Equal(t, "GB-1815-1210", *view.NationalID)

		data, err := json.Marshal(view)
		require.NoError(t, err)
		assert.Contains(t, string(data), "national_id")
		assert.Contains(t, string(data), "internal_notes")
	})

	t.Run("internal projection of a customer without sensitive data emits nulls", func(t *testing.T) {
		c, err := customer.NewCustomer("Grace Hopper", "grace@example.com", "+1 555 0101")
		require.NoError(t, err)

		view := Project(c, customer.VisibilityInternal)
		require.NotNil(t, view.SensitiveFields)
		assert.Nil(t, view.NationalID)

		data, err := json.Marshal(view)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"national_id":null`)
	})

	t.Run("view survives a cache round trip", func(t *testing.T) {
		c := sampleCustomer(t)

		original := Project(c, customer.VisibilityInternal)
		data, err := json.Marshal(original)
		require.NoError(t, err)

		var restored View
		require.NoError(t, json.Unmarshal(data, &restored))
		require.NotNil(t, restored.SensitiveFields)
		assert.Equal(t, *original.NationalID, *restored.NationalID)
	})
}

func TestSanitize(t *testing.T) {
	t.Run("public create drops sensitive fields", func(t *testing.T) {
		nationalID := "X-123"
		req := CreateRequest{
			FullName:   "Ada Lovelace",
			Email:      "ada@example.com",
			NationalID: &nationalID,
		}
		req.Sanitize(customer.VisibilityPublic)
		assert.Nil(t, req.NationalID)
	})

	t.Run("internal create keeps sensitive fields", func(t *testing.T) {
		nationalID := "X-123"
		req := CreateRequest{NationalID: &nationalID}
		req.Sanitize(customer.VisibilityInternal)
		require.NotNil(t, req.NationalID)
		assert.Equal(t, "X-123", *req.NationalID)
	})

	t.Run("public update drops sensitive fields", func(t *testing.T) {
		notes := "should vanish"
		req := UpdateRequest{InternalNotes: &notes}
		req.Sanitize(customer.VisibilityPublic)
		assert.Nil(t, req.InternalNotes)
	})
}

func TestListQueryNormalize(t *testing.T) {
	t.Run("fills defaults", func(t *testing.T) {
		q := ListQuery{}
		q.Normalize()
		assert.Equal(t, 1, q.Page)
		assert.Equal(t, 10, q.PageSize)
		assert.Equal(t, "created_at", q.SortBy)
		assert.Equal(t, "desc", q.SortDir)
	})

	t.Run("clamps oversized pages", func(t *testing.T) {
		q := ListQuery{PageSize: 5000}
		q.Normalize()
		assert.Equal(t, 100, q.PageSize)
	})

	t.Run("negative page resets to first", func(t *testing.T) {
		q := ListQuery{Page: -3}
		q.Normalize()
		assert.Equal(t, 1, q.Page)
	})
}

func TestListQueryCacheParams(t *testing.T) {
	t.Run("date filters participate in the fingerprint", func(t *testing.T) {
		after := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		a := ListQuery{Page: 1, PageSize: 10}
		b := ListQuery{Page: 1, PageSize: 10, CreatedAfter: &after}

		assert.NotEqual(t, a.CacheParams(), b.CacheParams())
	})

	t.Run("identical queries produce identical params", func(t *testing.T) {
		a := ListQuery{Q: "ada", Page: 2, PageSize: 10}
		b := ListQuery{Q: "ada", Page: 2, PageSize: 10}
		assert.Equal(t, a.CacheParams(), b.CacheParams())
	})
}

func TestNewMeta(t *testing.T) {
	meta := NewMeta(2, 10, 35)
	assert.Equal(t, 2, meta.Page)
	assert.Equal(t, int64(35), meta.Total)
	assert.Equal(t, 4, meta.TotalPages)

	empty := NewMeta(1, 10, 0)
	assert.Zero(t, empty.TotalPages)
}
