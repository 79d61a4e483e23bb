package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/schoolpay/apps/api/echo"
	"github.com/trezcool/schoolpay/core/account"
	"github.com/trezcool/schoolpay/core/school"
)

func Test_classApi(t *testing.T) {
	resetDB()

	admin := createAccount(t, "Admin", "admin@school.test", account.RoleAdmin)
	adminToken := getToken(t, admin)
	teacher := createTeacher(t, "Mr Smith", "smith@school.test")

	var jss1 school.ClassView
	t.Run("Create without teacher", func(t *testing.T) {
		rec := serve(httpTest{method: http.MethodPost, path: "/api/classes", token: adminToken, body: []byte(`{"name": "JSS1"}`)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var raw map[string]interface{}
		decode(t, rec, &raw)
		assert.NotContains(t, raw, "teacherId")
		assert.NotContains(t, raw, "teacher")
		assert.Equal(t, []interface{}{}, raw["students"])

		decode(t, rec, &jss1)
		assert.Equal(t, "JSS1", jss1.Name)
		assert.Regexp(t, trackingIDPattern, jss1.TrackingID)
	})

	t.Run("Read all lists it with no students", func(t *testing.T) {
		rec := serve(httpTest{path: "/api/classes", token: adminToken})
		require.Equal(t, http.StatusOK, rec.Code)

		var list []map[string]interface{}
		decode(t, rec, &list)
		require.Len(t, list, 1)
		assert.Equal(t, jss1.ID, list[0]["id"])
		assert.NotContains(t, list[0], "teacherId")
		assert.Equal(t, []interface{}{}, list[0]["students"])
	})

	tests := []httpTest{
		{
			name: "Admin required", method: http.MethodPost, path: "/api/classes", token: getToken(t, teacher.Account),
			body: []byte(`{"name": "JSS2"}`), wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden),
		},
		{
			name: "Name required", method: http.MethodPost, path: "/api/classes", token: adminToken, body: []byte(`{"name": "  "}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpFieldsErr{Error: "Missing required fields", Fields: map[string]string{"name": "this field is required"}}),
		},
		{
			name: "Unknown teacher", method: http.MethodPost, path: "/api/classes", token: adminToken,
			body:     []byte(`{"name": "JSS2", "teacherId": "nope"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpFieldsErr{Error: "Teacher not found", Fields: map[string]string{"teacherId": "Teacher not found"}}),
		},
		{
			name: "Not found", path: "/api/classes?id=nope", token: adminToken,
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "Class not found"}),
		},
	}
	runHTTPTests(t, tests)

	t.Run("Assign then clear the teacher", func(t *testing.T) {
		rec := serve(httpTest{
			method: http.MethodPut, path: "/api/classes", token: adminToken,
			body: []byte(`{"id": "` + jss1.ID + `", "name": "JSS 1", "teacherId": "` + teacher.Account.ID + `"}`),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var updated school.ClassView
		decode(t, rec, &updated)
		assert.Equal(t, "JSS 1", updated.Name)
		if assert.NotNil(t, updated.Teacher) {
			assert.Equal(t, "Mr Smith", updated.Teacher.Name)
		}

		rec = serve(httpTest{
			method: http.MethodPut, path: "/api/classes", token: adminToken,
			body: []byte(`{"id": "` + jss1.ID + `", "teacherId": ""}`),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		updated = school.ClassView{}
		decode(t, rec, &updated)
		assert.Equal(t, "JSS 1", updated.Name)
		assert.Nil(t, updated.TeacherID)
		assert.Nil(t, updated.Teacher)
	})
}

func Test_classApi_destroy(t *testing.T) {
	resetDB()

	admin := createAccount(t, "Admin", "admin@school.test", account.RoleAdmin)
	adminToken := getToken(t, admin)
	full := createClass(t, "JSS1")
	empty := createClass(t, "JSS2")
	jane := createStudent(t, "Jane", "jane@school.test", full.Class.ID)
	pmt, err := paymentSvc.Create(context.Background(), school.NewPayment{UserID: jane.Account.ID, Amount: 50, ClassID: &empty.Class.ID})
	require.NoError(t, err)

	tests := []httpTest{
		{
			name: "Enrolled students", method: http.MethodDelete, path: "/api/classes", token: adminToken,
			body:     []byte(`{"id": "` + full.Class.ID + `"}`),
			wantCode: http.StatusConflict, wantData: marshallObj(t, httpErr{Error: "Cannot delete a class with 1 enrolled student(s)"}),
		},
		{
			name: "Still there", path: "/api/students?id=" + jane.Account.ID, token: adminToken,
			wantCode: http.StatusOK, wantData: marshallObj(t, school.FlattenStudent(mustGetStudent(t, jane.Account.ID))),
		},
		{
			name: "Delete", method: http.MethodDelete, path: "/api/classes", token: adminToken,
			body:     []byte(`{"id": "` + empty.Class.ID + `"}`),
			wantCode: http.StatusOK, wantData: marshallObj(t, MessageResponse{Message: "Class deleted"}),
		},
		{
			name: "Nonexistent", method: http.MethodDelete, path: "/api/classes", token: adminToken,
			body:     []byte(`{"id": "` + empty.Class.ID + `"}`),
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "Class not found"}),
		},
	}
	runHTTPTests(t, tests)

	got, err := paymentSvc.Get(context.Background(), pmt.Payment.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Payment.ClassID, "payment is detached from the deleted class")
}

func mustGetStudent(t *testing.T, id string) school.Student {
	std, err := studentSvc.Get(context.Background(), id)
	require.NoError(t, err)
	return std
}
