package employee_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mingttam/employee-management/internal/employee"
	employeeerrors "github.com/mingttam/employee-management/internal/employee/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmployeeService struct {
	CreateFn  func(ctx context.Context, in employee.CreateEmployeeInput) (employee.EmployeeResponse, error)
	GetAllFn  func(ctx context.Context) ([]employee.EmployeeResponse, error)
	GetByIDFn func(ctx context.Context, id int64) (employee.EmployeeResponse, error)
	UpdateFn  func(ctx context.Context, id int64, in employee.UpdateEmployeeInput) (employee.EmployeeResponse, error)
	DeleteFn  func(ctx context.Context, id int64) error
}

func (f *fakeEmployeeService) Create(ctx context.Context, in employee.CreateEmployeeInput) (employee.EmployeeResponse, error) {
	return f.CreateFn(ctx, in)
}
func (f *fakeEmployeeService) GetAll(ctx context.Context) ([]employee.EmployeeResponse, error) {
	return f.GetAllFn(ctx)
}
func (f *fakeEmployeeService) GetByID(ctx context.Context, id int64) (employee.EmployeeResponse, error) {
	return f.GetByIDFn(ctx, id)
}
func (f *fakeEmployeeService) Update(ctx context.Context, id int64, in employee.UpdateEmployeeInput) (employee.EmployeeResponse, error) {
	return f.UpdateFn(ctx, id, in)
}
func (f *fakeEmployeeService) Delete(ctx context.Context, id int64) error {
	return f.DeleteFn(ctx, id)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *string         `json:"error"`
}

func setupRouter(svc employee.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	employee.RegisterRoutes(r.Group("/api"), employee.NewHandler(svc), nil, nil)
	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func errCode(env envelope) string {
	if env.Error == nil {
		return ""
	}
	return *env.Error
}

func fieldErrors(t *testing.T, env envelope) map[string]string {
	t.Helper()
	var fields map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &fields))
	return fields
}

const aliceBody = `{"fullName":"Alice Nguyen","email":"alice@example.com","dateOfBirth":"1990-05-01","gender":"FEMALE","phoneNumber":"0912345678","active":true,"password":"secret1"}`

func aliceResponse() employee.EmployeeResponse {
	return employee.EmployeeResponse{
		ID:          1,
		FullName:    "Alice Nguyen",
		Email:       "alice@example.com",
		DateOfBirth: "1990-05-01",
		Gender:      employee.GenderFemale,
		GenderLabel: "Nữ",
		PhoneNumber: "0912345678",
		Active:      true,
		CreatedAt:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestEmployeeHandler_Create(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &fakeEmployeeService{
			CreateFn: func(ctx context.Context, in employee.CreateEmployeeInput) (employee.EmployeeResponse, error) {
				assert.Equal(t, "Alice Nguyen", in.FullName)
				assert.Equal(t, employee.GenderFemale, in.Gender)
				assert.Equal(t, time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC), in.DateOfBirth)
				assert.Equal(t, "secret1", in.Password)
				return aliceResponse(), nil
			},
		}

		w, env := doRequest(t, setupRouter(svc), http.MethodPost, "/api/employees", aliceBody)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, env.Success)
		assert.Equal(t, "Employee created successfully", env.Message)
		assert.Nil(t, env.Error)

		var data map[string]any
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, "Nữ", data["genderLabel"])
		assert.Equal(t, "1990-05-01", data["dateOfBirth"])
		assert.Nil(t, data["updatedAt"])
		assert.NotContains(t, w.Body.String(), "password")
		assert.NotContains(t, w.Body.String(), "secret1")
	})

	t.Run("empty body lists every required field", func(t *testing.T) {
		w, env := doRequest(t, setupRouter(&fakeEmployeeService{}), http.MethodPost, "/api/employees", `{}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, env.Success)
		assert.Equal(t, "VALIDATION_ERROR", errCode(env))
		assert.Equal(t, "Validation failed", env.Message)

		fields := fieldErrors(t, env)
		assert.Equal(t, "Full name is required", fields["fullName"])
		assert.Equal(t, "Email is required", fields["email"])
		assert.Equal(t, "Date of birth is required", fields["dateOfBirth"])
		assert.Equal(t, "Gender is required", fields["gender"])
		assert.Equal(t, "Phone number is required", fields["phoneNumber"])
		assert.Equal(t, "Password is required", fields["password"])
	})

	t.Run("invalid fields", func(t *testing.T) {
		body := `{"fullName":"Al","email":"not-an-email","dateOfBirth":"2999-01-01","gender":"X","phoneNumber":"12345","password":"123"}`

		w, env := doRequest(t, setupRouter(&fakeEmployeeService{}), http.MethodPost, "/api/employees", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		fields := fieldErrors(t, env)
		assert.Equal(t, "Full name must be between 4 and 160 characters", fields["fullName"])
		assert.Equal(t, "Email should be valid", fields["email"])
		assert.Equal(t, "Date of birth must be in the past", fields["dateOfBirth"])
		assert.Equal(t, "Gender must be one of MALE, FEMALE, OTHER", fields["gender"])
		assert.Equal(t, "Phone number must be exactly 10 digits", fields["phoneNumber"])
		assert.Equal(t, "Password must be at least 6 characters long", fields["password"])
	})

	t.Run("malformed json", func(t *testing.T) {
		w, env := doRequest(t, setupRouter(&fakeEmployeeService{}), http.MethodPost, "/api/employees", `{"fullName":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", errCode(env))
		assert.Equal(t, "Malformed request body", env.Message)
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc := &fakeEmployeeService{
			CreateFn: func(ctx context.Context, in employee.CreateEmployeeInput) (employee.EmployeeResponse, error) {
				return employee.EmployeeResponse{}, employeeerrors.ErrEmailAlreadyExists
			},
		}

		w, env := doRequest(t, setupRouter(svc), http.MethodPost, "/api/employees", aliceBody)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "CONFLICT", errCode(env))
		assert.Equal(t, "Email already in use", env.Message)
	})

	t.Run("unexpected error hides detail", func(t *testing.T) {
		svc := &fakeEmployeeService{
			CreateFn: func(ctx context.Context, in employee.CreateEmployeeInput) (employee.EmployeeResponse, error) {
				return employee.EmployeeResponse{}, errors.New("database connection failed")
			},
		}

		w, env := doRequest(t, setupRouter(svc), http.MethodPost, "/api/employees", aliceBody)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "INTERNAL_SERVER_ERROR", errCode(env))
		assert.Equal(t, "Internal server error", env.Message)
		assert.NotContains(t, w.Body.String(), "database connection failed")
	})
}

func TestEmployeeHandler_GetAll(t *testing.T) {
	svc := &fakeEmployeeService{
		GetAllFn: func(ctx context.Context) ([]employee.EmployeeResponse, error) {
			return []employee.EmployeeResponse{aliceResponse()}, nil
		},
	}

	w, env := doRequest(t, setupRouter(svc), http.MethodGet, "/api/employees", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Employees retrieved successfully", env.Message)

	var data []employee.EmployeeResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data, 1)
	assert.Equal(t, "alice@example.com", data[0].Email)
}

func TestEmployeeHandler_GetById(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &fakeEmployeeService{
			GetByIDFn: func(ctx context.Context, id int64) (employee.EmployeeResponse, error) {
				assert.Equal(t, int64(1), id)
				return aliceResponse(), nil
			},
		}

		w, env := doRequest(t, setupRouter(svc), http.MethodGet, "/api/employees/1", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Employee retrieved successfully", env.Message)
	})

	t.Run("non numeric id", func(t *testing.T) {
		w, env := doRequest(t, setupRouter(&fakeEmployeeService{}), http.MethodGet, "/api/employees/abc", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_INPUT", errCode(env))
	})

	t.Run("not found", func(t *testing.T) {
		svc := &fakeEmployeeService{
			GetByIDFn: func(ctx context.Context, id int64) (employee.EmployeeResponse, error) {
				return employee.EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound
			},
		}

		w, env := doRequest(t, setupRouter(svc), http.MethodGet, "/api/employees/99", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NOT_FOUND", errCode(env))
		assert.Equal(t, "Employee not found", env.Message)
	})
}

func TestEmployeeHandler_Update(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &fakeEmployeeService{
			UpdateFn: func(ctx context.Context, id int64, in employee.UpdateEmployeeInput) (employee.EmployeeResponse, error) {
				assert.Equal(t, int64(1), id)
				require.NotNil(t, in.FullName)
				assert.Equal(t, "Alice Tran", *in.FullName)
				assert.Nil(t, in.Active)
				assert.Nil(t, in.DateOfBirth)
				resp := aliceResponse()
				resp.FullName = *in.FullName
				return resp, nil
			},
		}

		w, env := doRequest(t, setupRouter(svc), http.MethodPut, "/api/employees/1", `{"fullName":"Alice Tran"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Employee updated successfully", env.Message)
		assert.Contains(t, string(env.Data), "Alice Tran")
	})

	t.Run("blank optional fields pass validation", func(t *testing.T) {
		svc := &fakeEmployeeService{
			UpdateFn: func(ctx context.Context, id int64, in employee.UpdateEmployeeInput) (employee.EmployeeResponse, error) {
				assert.Nil(t, in.FullName)
				assert.Nil(t, in.Gender)
				assert.Nil(t, in.DateOfBirth)
				assert.Nil(t, in.PhoneNumber)
				assert.Nil(t, in.Password)
				return aliceResponse(), nil
			},
		}

		w, _ := doRequest(t, setupRouter(svc), http.MethodPut, "/api/employees/1",
			`{"fullName":"   ","gender":"","dateOfBirth":" ","phoneNumber":"","password":""}`)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("invalid phone", func(t *testing.T) {
		w, env := doRequest(t, setupRouter(&fakeEmployeeService{}), http.MethodPut, "/api/employees/1", `{"phoneNumber":"09123"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Phone number must be exactly 10 digits", fieldErrors(t, env)["phoneNumber"])
	})

	t.Run("not found", func(t *testing.T) {
		svc := &fakeEmployeeService{
			UpdateFn: func(ctx context.Context, id int64, in employee.UpdateEmployeeInput) (employee.EmployeeResponse, error) {
				return employee.EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound
			},
		}

		w, _ := doRequest(t, setupRouter(svc), http.MethodPut, "/api/employees/7", `{}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestEmployeeHandler_Delete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &fakeEmployeeService{
			DeleteFn: func(ctx context.Context, id int64) error {
				assert.Equal(t, int64(3), id)
				return nil
			},
		}

		w, env := doRequest(t, setupRouter(svc), http.MethodDelete, "/api/employees/3", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, env.Success)
		assert.Equal(t, "Employee deleted successfully", env.Message)
		assert.Equal(t, "null", string(env.Data))
	})

	t.Run("not found", func(t *testing.T) {
		svc := &fakeEmployeeService{
			DeleteFn: func(ctx context.Context, id int64) error {
				return employeeerrors.ErrEmployeeNotFound
			},
		}

		w, env := doRequest(t, setupRouter(svc), http.MethodDelete, "/api/employees/3", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.False(t, env.Success)
	})
}
