package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/schoolpay/apps/api/echo"
	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/account"
	"github.com/trezcool/schoolpay/core/school"
)

func Test_termApi(t *testing.T) {
	resetDB()

	admin := createAccount(t, "Admin", "admin@school.test", account.RoleAdmin)
	adminToken := getToken(t, admin)
	parent := createAccount(t, "Parent", "parent@school.test", account.RoleStudent)
	parentToken := getToken(t, parent)

	var term1 school.TermView
	t.Run("Create derives academic year", func(t *testing.T) {
		rec := serve(httpTest{
			method: http.MethodPost, path: "/api/term", token: adminToken,
			body: []byte(`{"name": "Term 1", "startDate": "2024-09-01", "endDate": "2024-12-20"}`),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var raw map[string]interface{}
		decode(t, rec, &raw)
		assert.Equal(t, "2024-09-01", raw["startDate"])
		assert.Equal(t, "2024-12-20", raw["endDate"])
		assert.Equal(t, []interface{}{}, raw["payments"])

		decode(t, rec, &term1)
		assert.Equal(t, "Term 1", term1.Name)
		assert.Equal(t, "2024/2025", term1.AcademicYear)
		assert.Regexp(t, trackingIDPattern, term1.TrackingID)
	})

	t.Run("Create keeps given academic year", func(t *testing.T) {
		rec := serve(httpTest{
			method: http.MethodPost, path: "/api/term", token: adminToken,
			body: []byte(`{"name": "Term 2", "academicYear": "2023/2024", "startDate": "2025-01-06", "endDate": "2025-04-04"}`),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var term2 school.TermView
		decode(t, rec, &term2)
		assert.Equal(t, "2023/2024", term2.AcademicYear)
	})

	tests := []httpTest{
		{
			name: "Admin required", method: http.MethodPost, path: "/api/term", token: parentToken,
			body:     []byte(`{"name": "Term 3", "startDate": "2025-04-28", "endDate": "2025-07-18"}`),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden),
		},
		{
			name: "Missing fields", method: http.MethodPost, path: "/api/term", token: adminToken,
			body:     []byte(`{"name": "Term 3"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpFieldsErr{Error: "Missing required fields", Fields: map[string]string{
				"startDate": "this field is required",
				"endDate":   "this field is required",
			}}),
		},
		{
			name: "End before start", method: http.MethodPost, path: "/api/term", token: adminToken,
			body:     []byte(`{"name": "Term 3", "startDate": "2025-07-18", "endDate": "2025-04-28"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpFieldsErr{
				Error:  "End date must be after start date",
				Fields: map[string]string{"endDate": "End date must be after start date"},
			}),
		},
		{
			name: "Bad academic year", method: http.MethodPost, path: "/api/term", token: adminToken,
			body:     []byte(`{"name": "Term 3", "academicYear": "2024/2026", "startDate": "2025-04-28", "endDate": "2025-07-18"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpFieldsErr{
				Error:  "invalid input",
				Fields: map[string]string{"academicYear": "academic year must be of form YYYY/YYYY with consecutive years"},
			}),
		},
		{
			name: "Unknown ordering", path: "/api/term?ordering=bogus", token: parentToken,
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpFieldsErr{
				Error:  `cannot order by "bogus"`,
				Fields: map[string]string{"ordering": `cannot order by "bogus"`},
			}),
		},
		{
			name: "Not found", path: "/api/term?id=unknown", token: parentToken,
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "Term not found"}),
		},
	}
	runHTTPTests(t, tests)

	t.Run("Ordering", func(t *testing.T) {
		rec := serve(httpTest{path: "/api/term?ordering=-name", token: parentToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var list []school.TermView
		decode(t, rec, &list)
		require.Len(t, list, 2)
		assert.Equal(t, "Term 2", list[0].Name)
		assert.Equal(t, "Term 1", list[1].Name)

		rec = serve(httpTest{path: "/api/term", token: parentToken})
		require.Equal(t, http.StatusOK, rec.Code)
		decode(t, rec, &list)
		require.Len(t, list, 2)
		assert.Equal(t, "Term 2", list[0].Name, "defaults to newest start date")
	})

	t.Run("Update", func(t *testing.T) {
		rec := serve(httpTest{
			method: http.MethodPut, path: "/api/term", token: adminToken,
			body: marshallObj(t, map[string]string{
				"id": term1.ID, "name": "First Term", "startDate": "2024-09-02", "endDate": "2024-12-19",
			}),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var updated school.TermView
		decode(t, rec, &updated)
		assert.Equal(t, term1.ID, updated.ID)
		assert.Equal(t, "First Term", updated.Name)
		assert.Equal(t, "2024/2025", updated.AcademicYear)
		assert.Equal(t, core.NewDate(2024, time.December, 19), updated.EndDate)
	})

	t.Run("Update with bad dates", func(t *testing.T) {
		rec := serve(httpTest{
			method: http.MethodPut, path: "/api/term", token: adminToken,
			body: marshallObj(t, map[string]string{
				"id": term1.ID, "name": "First Term", "startDate": "2024-12-19", "endDate": "2024-09-02",
			}),
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Read one lists its payments", func(t *testing.T) {
		createPayment(t, parent.ID, 150, &term1.ID)

		rec := serve(httpTest{path: "/api/term?id=" + term1.ID, token: parentToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got school.TermView
		decode(t, rec, &got)
		require.Len(t, got.Payments, 1)
		assert.Equal(t, parent.ID, got.Payments[0].UserID)
		require.NotNil(t, got.Payments[0].User)
		assert.Equal(t, "Parent", got.Payments[0].User.Name)
	})

	t.Run("Delete detaches payments", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodDelete, path: "/api/term", token: adminToken,
			body:     marshallObj(t, map[string]string{"id": term1.ID}),
			wantCode: http.StatusOK, wantData: marshallObj(t, MessageResponse{Message: "Term deleted"}),
		}
		checkCodeAndData(t, tt, serve(tt))

		_, err := termSvc.Get(context.Background(), term1.ID)
		assert.True(t, core.IsNotFound(err))

		payments, err := paymentSvc.Query(context.Background(), parent.ID, nil)
		require.NoError(t, err)
		require.Len(t, payments, 1)
		assert.Nil(t, payments[0].Payment.TermID)

		tt = httpTest{
			method: http.MethodDelete, path: "/api/term?id=" + term1.ID, token: adminToken,
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "Term not found"}),
		}
		checkCodeAndData(t, tt, serve(tt))
	})
}
