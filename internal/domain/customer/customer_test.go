package customer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCustomer(t *testing.T) {
	t.Run("creates customer successfully", func(t *testing.T) {
		c, err := NewCustomer("Ada Lovelace", "ada@example.com", "+15551234567")

		require.NoError(t, err)
		assert.NotNil(t, c)
		assert.Equal(t, "Ada Lovelace", c.FullName)
		assert.Equal(t, "ada@example.com", c.Email)
		assert.Equal(t, "+15551234567", c.PhoneNumber)
		assert.Nil(t, c.NationalID)
		assert.Nil(t, c.InternalNotes)
		assert.Nil(t, c.DeletedAt)
		assert.NotEqual(t, c.ID.String(), "00000000-0000-0000-0000-000000000000")
	})

	t.Run("fails with empty name", func(t *testing.T) {
		c, err := NewCustomer("", "ada@example.com", "+15551234567")

		assert.Error(t, err)
		assert.Nil(t, c)
		assert.Contains(t, err.Error(), "cannot be empty")
	})

	t.Run("fails with digits in name", func(t *testing.T) {
		c, err := NewCustomer("Ada L0velace", "ada@example.com", "+15551234567")

		assert.Error(t, err)
		assert.Nil(t, c)
		assert.Contains(t, err.Error(), "can only contain")
	})

	t.Run("allows hyphens and apostrophes in name", func(t *testing.T) {
		c, err := NewCustomer("Mary-Jane O'Brien", "mj@example.com", "+15551234567")

		require.NoError(t, err)
		assert.Equal(t, "Mary-Jane O'Brien", c.FullName)
	})

	t.Run("fails with overlong name", func(t *testing.T) {
		_, err := NewCustomer(strings.Repeat("a", 256), "ada@example.com", "+15551234567")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed 255")
	})

	t.Run("fails with invalid email", func(t *testing.T) {
		c, err := NewCustomer("Ada Lovelace", "not-an-email", "+15551234567")

		assert.Error(t, err)
		assert.Nil(t, c)
		assert.Contains(t, err.Error(), "Invalid email")
	})

	t.Run("fails with short phone number", func(t *testing.T) {
		c, err := NewCustomer("Ada Lovelace", "ada@example.com", "123")

		assert.Error(t, err)
		assert.Nil(t, c)
	})

	t.Run("allows formatted phone numbers", func(t *testing.T) {
		c, err := NewCustomer("Ada Lovelace", "ada@example.com", "+1 (555) 123-4567")

		require.NoError(t, err)
		assert.Equal(t, "+1 (555) 123-4567", c.PhoneNumber)
	})
}

func TestCustomer_Setters(t *testing.T) {
	newCustomer := func(t *testing.T) *Customer {
		c, err := NewCustomer("Ada Lovelace", "ada@example.com", "+15551234567")
		require.NoError(t, err)
		return c
	}

	t.Run("SetFullName updates name and timestamp", func(t *testing.T) {
		c := newCustomer(t)
		before := c.UpdatedAt

		err := c.SetFullName("Augusta King")

		require.NoError(t, err)
		assert.Equal(t, "Augusta King", c.FullName)
		assert.False(t, c.UpdatedAt.Before(before))
	})

	t.Run("SetEmail rejects invalid email", func(t *testing.T) {
		c := newCustomer(t)

		err := c.SetEmail("bogus")

		assert.Error(t, err)
		assert.Equal(t, "ada@example.com", c.Email)
	})

	t.Run("SetNationalID rejects overlong value", func(t *testing.T) {
		c := newCustomer(t)
		long := strings.Repeat("x", 101)

		err := c.SetNationalID(&long)

		assert.Error(t, err)
		assert.Nil(t, c.NationalID)
	})

	t.Run("SetNationalID accepts nil", func(t *testing.T) {
		c := newCustomer(t)
		id := "X1"
		require.NoError(t, c.SetNationalID(&id))

		err := c.SetNationalID(nil)

		require.NoError(t, err)
		assert.Nil(t, c.NationalID)
	})
}

func TestCustomer_IsDeleted(t *testing.T) {
	c, err := NewCustomer("Ada Lovelace", "ada@example.com", "+15551234567")
	require.NoError(t, err)

	assert.False(t, c.IsDeleted())

	now := time.Now()
	c.DeletedAt = &now
	assert.True(t, c.IsDeleted())
}
