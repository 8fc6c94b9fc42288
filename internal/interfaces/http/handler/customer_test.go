package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcustomer "github.com/custdash/backend/internal/application/customer"
	"github.com/custdash/backend/internal/domain/customer"
	"github.com/custdash/backend/internal/domain/shared"
	"github.com/custdash/backend/internal/infrastructure/cache"
	"github.com/custdash/backend/internal/interfaces/http/dto"
	"github.com/custdash/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubRepository backs handler tests with function fields so each test
// controls exactly the calls it expects.
type stubRepository struct {
	findByID      func(ctx context.Context, id uuid.UUID) (*customer.Customer, error)
	findByEmail   func(ctx context.Context, email string) (*customer.Customer, error)
	findByIDs     func(ctx context.Context, ids []uuid.UUID) ([]customer.Customer, error)
	search        func(ctx context.Context, filter customer.Filter) ([]customer.Customer, int64, error)
	existsByEmail func(ctx context.Context, email string) (bool, error)
	insert        func(ctx context.Context, c *customer.Customer) error
	update        func(ctx context.Context, c *customer.Customer) error
	softDelete    func(ctx context.Context, ids []uuid.UUID) (int64, error)
}

func (s *stubRepository) FindByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	return s.findByID(ctx, id)
}

func (s *stubRepository) FindByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	return s.findByEmail(ctx, email)
}

func (s *stubRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]customer.Customer, error) {
	return s.findByIDs(ctx, ids)
}

func (s *stubRepository) Search(ctx context.Context, filter customer.Filter) ([]customer.Customer, int64, error) {
	return s.search(ctx, filter)
}

func (s *stubRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.existsByEmail(ctx, email)
}

func (s *stubRepository) Insert(ctx context.Context, c *customer.Customer) error {
	return s.insert(ctx, c)
}

func (s *stubRepository) Update(ctx context.Context, c *customer.Customer) error {
	return s.update(ctx, c)
}

func (s *stubRepository) SoftDelete(ctx context.Context, ids []uuid.UUID) (int64, error) {
	return s.softDelete(ctx, ids)
}

func newTestRouter(repo customer.Repository) *gin.Engine {
	svc := appcustomer.NewService(repo, cache.NewCustomerCache(cache.NewMemoryStore()))
	h := NewCustomerHandler(svc)

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.InternalAccess())

	api := router.Group("/api/v1")
	api.POST("/customers", h.Create)
	api.GET("/customers", h.List)
	api.GET("/customers/:id", h.Get)
	api.PUT("/customers/:id", h.Update)
	api.DELETE("/customers/bulk", h.BulkDelete)
	api.DELETE("/customers/:id", h.Delete)
	return router
}

func mustCustomer(t *testing.T, name, email, phone string) *customer.Customer {
	t.Helper()
	c, err := customer.NewCustomer(name, email, phone)
	require.NoError(t, err)
	return c
}

func doJSON(router *gin.Engine, method, path string, body any, internal bool) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if internal {
		req.Header.Set("X-Internal", "true")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCustomerHandler_Create(t *testing.T) {
	t.Run("creates customer and returns 201", func(t *testing.T) {
		repo := &stubRepository{
			existsByEmail: func(ctx context.Context, email string) (bool, error) { return false, nil },
			insert:        func(ctx context.Context, c *customer.Customer) error { return nil },
		}
		router := newTestRouter(repo)

		w := doJSON(router, "POST", "/api/v1/customers", gin.H{
			"full_name":    "Ada Lovelace",
			"email":        "ada@example.com",
			"phone_number": "+4420123456",
		}, false)

		require.Equal(t, http.StatusCreated, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)

		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "Ada Lovelace", data["full_name"])
		assert.Equal(t, "ada@example.com", data["email"])
		assert.NotContains(t, data, "national_id")
		assert.NotContains(t, data, "internal_notes")
	})

	t.Run("internal caller sees sensitive fields in response", func(t *testing.T) {
		repo := &stubRepository{
			existsByEmail: func(ctx context.Context, email string) (bool, error) { return false, nil },
			insert:        func(ctx context.Context, c *customer.Customer) error { return nil },
		}
		router := newTestRouter(repo)

		w := doJSON(router, "POST", "/api/v1/customers", gin.H{
			"full_name":    "Ada Lovelace",
			"email":        "ada@example.com",
			"phone_number": "+4420123456",
			"national_id":  "AB123456",
		}, true)

		require.Equal(t, http.StatusCreated, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "AB123456", data["national_id"])
	})

	t.Run("duplicate email returns 409", func(t *testing.T) {
		repo := &stubRepository{
			existsByEmail: func(ctx context.Context, email string) (bool, error) { return true, nil },
		}
		router := newTestRouter(repo)

		w := doJSON(router, "POST", "/api/v1/customers", gin.H{
			"full_name":    "Ada Lovelace",
			"email":        "taken@example.com",
			"phone_number": "+4420123456",
		}, false)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeEmailConflict)
	})

	t.Run("missing required fields return 422 with details", func(t *testing.T) {
		router := newTestRouter(&stubRepository{})

		w := doJSON(router, "POST", "/api/v1/customers", gin.H{
			"email": "not-an-email",
		}, false)

		require.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.NotEmpty(t, resp.Error.Details)
		assert.NotEmpty(t, resp.Error.RequestID)
	})

	t.Run("malformed JSON returns 400", func(t *testing.T) {
		router := newTestRouter(&stubRepository{})

		req := httptest.NewRequest("POST", "/api/v1/customers", bytes.NewReader([]byte("{not json")))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCustomerHandler_List(t *testing.T) {
	t.Run("returns page with meta", func(t *testing.T) {
		customers := []customer.Customer{
			*mustCustomer(t, "Ada Lovelace", "ada@example.com", "+4420123456"),
			*mustCustomer(t, "Alan Turing", "alan@example.com", "+4420654321"),
		}
		repo := &stubRepository{
			search: func(ctx context.Context, filter customer.Filter) ([]customer.Customer, int64, error) {
				assert.Equal(t, 1, filter.Page)
				assert.Equal(t, 10, filter.PageSize)
				return customers, 12, nil
			},
		}
		router := newTestRouter(repo)

		w := doJSON(router, "GET", "/api/v1/customers", nil, false)

		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(12), resp.Meta.Total)
		assert.Equal(t, 2, resp.Meta.TotalPages)

		items := resp.Data.([]interface{})
		require.Len(t, items, 2)
		first := items[0].(map[string]interface{})
		assert.NotContains(t, first, "national_id")
	})

	t.Run("passes query filters through", func(t *testing.T) {
		var got customer.Filter
		repo := &stubRepository{
			search: func(ctx context.Context, filter customer.Filter) ([]customer.Customer, int64, error) {
				got = filter
				return nil, 0, nil
			},
		}
		router := newTestRouter(repo)

		w := doJSON(router, "GET", "/api/v1/customers?q=ada&sort_by=full_name&sort_dir=asc&page=3&page_size=5", nil, false)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ada", got.Query)
		assert.Equal(t, "full_name", got.SortBy)
		assert.Equal(t, "asc", got.SortDir)
		assert.Equal(t, 3, got.Page)
		assert.Equal(t, 5, got.PageSize)
	})

	t.Run("invalid date filter returns 400", func(t *testing.T) {
		router := newTestRouter(&stubRepository{})

		w := doJSON(router, "GET", "/api/v1/customers?created_after=yesterday", nil, false)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCustomerHandler_Get(t *testing.T) {
	t.Run("returns customer", func(t *testing.T) {
		c := mustCustomer(t, "Ada Lovelace", "ada@example.com", "+4420123456")
		repo := &stubRepository{
			findByID: func(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
				assert.Equal(t, c.ID, id)
				return c, nil
			},
		}
		router := newTestRouter(repo)

		w := doJSON(router, "GET", "/api/v1/customers/"+c.ID.String(), nil, false)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "ada@example.com")
	})

	t.Run("unknown id returns 404", func(t *testing.T) {
		repo := &stubRepository{
			findByID: func(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
				return nil, shared.ErrNotFound
			},
		}
		router := newTestRouter(repo)

		w := doJSON(router, "GET", "/api/v1/customers/"+uuid.NewString(), nil, false)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeNotFound)
	})

	t.Run("malformed id returns 400", func(t *testing.T) {
		router := newTestRouter(&stubRepository{})

		w := doJSON(router, "GET", "/api/v1/customers/not-a-uuid", nil, false)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCustomerHandler_Update(t *testing.T) {
	t.Run("updates and returns customer", func(t *testing.T) {
		c := mustCustomer(t, "Ada Lovelace", "ada@example.com", "+4420123456")
		repo := &stubRepository{
			findByID: func(ctx context.Context, id uuid.UUID) (*customer.Customer, error) { return c, nil },
			update:   func(ctx context.Context, upd *customer.Customer) error { return nil },
		}
		router := newTestRouter(repo)

		w := doJSON(router, "PUT", "/api/v1/customers/"+c.ID.String(), gin.H{
			"full_name": "Ada King",
		}, false)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Ada King")
	})

	t.Run("email conflict returns 409", func(t *testing.T) {
		c := mustCustomer(t, "Ada Lovelace", "ada@example.com", "+4420123456")
		repo := &stubRepository{
			findByID:      func(ctx context.Context, id uuid.UUID) (*customer.Customer, error) { return c, nil },
			existsByEmail: func(ctx context.Context, email string) (bool, error) { return true, nil },
		}
		router := newTestRouter(repo)

		w := doJSON(router, "PUT", "/api/v1/customers/"+c.ID.String(), gin.H{
			"email": "taken@example.com",
		}, false)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestCustomerHandler_Delete(t *testing.T) {
	t.Run("returns 204 on success", func(t *testing.T) {
		repo := &stubRepository{
			softDelete: func(ctx context.Context, ids []uuid.UUID) (int64, error) { return 1, nil },
		}
		router := newTestRouter(repo)

		w := doJSON(router, "DELETE", "/api/v1/customers/"+uuid.NewString(), nil, false)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("returns 404 when nothing deleted", func(t *testing.T) {
		repo := &stubRepository{
			softDelete: func(ctx context.Context, ids []uuid.UUID) (int64, error) { return 0, nil },
		}
		router := newTestRouter(repo)

		w := doJSON(router, "DELETE", "/api/v1/customers/"+uuid.NewString(), nil, false)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCustomerHandler_BulkDelete(t *testing.T) {
	t.Run("deletes full batch", func(t *testing.T) {
		a := mustCustomer(t, "Ada Lovelace", "ada@example.com", "+4420123456")
		b := mustCustomer(t, "Alan Turing", "alan@example.com", "+4420654321")
		repo := &stubRepository{
			findByIDs: func(ctx context.Context, ids []uuid.UUID) ([]customer.Customer, error) {
				return []customer.Customer{*a, *b}, nil
			},
			softDelete: func(ctx context.Context, ids []uuid.UUID) (int64, error) {
				return int64(len(ids)), nil
			},
		}
		router := newTestRouter(repo)

		w := doJSON(router, "DELETE", "/api/v1/customers/bulk", gin.H{
			"ids": []string{a.ID.String(), b.ID.String()},
		}, false)

		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, float64(2), data["deleted"])
	})

	t.Run("missing ids reject the whole batch with 404", func(t *testing.T) {
		a := mustCustomer(t, "Ada Lovelace", "ada@example.com", "+4420123456")
		missing := uuid.New()
		repo := &stubRepository{
			findByIDs: func(ctx context.Context, ids []uuid.UUID) ([]customer.Customer, error) {
				return []customer.Customer{*a}, nil
			},
		}
		router := newTestRouter(repo)

		w := doJSON(router, "DELETE", "/api/v1/customers/bulk", gin.H{
			"ids": []string{a.ID.String(), missing.String()},
		}, false)

		require.Equal(t, http.StatusNotFound, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)

		details := resp.Error.Details.(map[string]interface{})
		missingIDs := details["missing_ids"].([]interface{})
		require.Len(t, missingIDs, 1)
		assert.Equal(t, missing.String(), missingIDs[0])
	})

	t.Run("empty id list returns 422", func(t *testing.T) {
		router := newTestRouter(&stubRepository{})

		w := doJSON(router, "DELETE", "/api/v1/customers/bulk", gin.H{
			"ids": []string{},
		}, false)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestCustomerHandler_ResponseEnvelope(t *testing.T) {
	// Errors carry the request id stamped by the middleware.
	repo := &stubRepository{
		findByID: func(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
			return nil, fmt.Errorf("connection refused")
		},
	}
	router := newTestRouter(repo)

	w := doJSON(router, "GET", "/api/v1/customers/"+uuid.NewString(), nil, false)

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.RequestID)
	assert.Equal(t, w.Header().Get("X-Request-ID"), resp.Error.RequestID)
}
