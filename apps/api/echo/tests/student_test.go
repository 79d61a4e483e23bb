package tests

import (
	"context"
	"net/http"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/schoolpay/apps/api/echo"
	"github.com/trezcool/schoolpay/core/account"
	"github.com/trezcool/schoolpay/core/school"
)

var trackingIDPattern = regexp.MustCompile(`^[A-Z]{1,2}\d{2}\d{2}\d{4}$`)

func countAccounts(t *testing.T) int {
	accs, err := stores.Accounts.QueryAccounts(context.Background(), "")
	require.NoError(t, err)
	return len(accs)
}

func Test_studentApi_create(t *testing.T) {
	resetDB()

	admin := createAccount(t, "Admin", "admin@school.test", account.RoleAdmin)
	adminToken := getToken(t, admin)
	teacher := createTeacher(t, "Mr Smith", "smith@school.test")
	class := createClass(t, "JSS1", teacher.Account.ID)
	existing := createStudent(t, "Old Pupil", "old@school.test", class.Class.ID)

	tests := []httpTest{
		{
			name: "Admin required", method: http.MethodPost, path: "/api/students", token: getToken(t, existing.Account),
			body: []byte(`{"name": "Jane", "email": "jane@school.test", "classId": "` + class.Class.ID + `"}`),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden),
		},
		{
			name: "Missing required fields", method: http.MethodPost, path: "/api/students", token: adminToken, body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpFieldsErr{
				Error: "Missing required fields",
				Fields: map[string]string{
					"name":    "this field is required",
					"email":   "this field is required",
					"classId": "this field is required",
				},
			}),
		},
		{
			name: "Unknown class", method: http.MethodPost, path: "/api/students", token: adminToken,
			body:     []byte(`{"name": "Jane", "email": "jane@school.test", "classId": "nope"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpFieldsErr{Error: "Class not found", Fields: map[string]string{"classId": "Class not found"}}),
		},
		{
			name: "Email already exists", method: http.MethodPost, path: "/api/students", token: adminToken,
			body:     []byte(`{"name": "Jane", "email": " OLD@school.test ", "classId": "` + class.Class.ID + `"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpFieldsErr{Error: "Email already exists", Fields: map[string]string{"email": "Email already exists"}}),
		},
	}
	before := countAccounts(t)
	runHTTPTests(t, tests)
	assert.Equal(t, before, countAccounts(t), "rejected creations must not write any row")

	t.Run("Create then read back", func(t *testing.T) {
		rec := serve(httpTest{
			method: http.MethodPost, path: "/api/students", token: adminToken,
			body: []byte(`{"name": " Jane Pupil ", "email": "Jane@School.test", "parentPhone": "+243000", "classId": "` + class.Class.ID + `"}`),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var created school.StudentView
		decode(t, rec, &created)
		assert.NotEmpty(t, created.ID)
		assert.Regexp(t, trackingIDPattern, created.TrackingID)
		assert.Equal(t, "Jane Pupil", created.Name)
		assert.Equal(t, "jane@school.test", created.Email)
		assert.Equal(t, account.RoleStudent, created.Role)
		assert.Equal(t, "+243000", *created.ParentPhone)
		assert.False(t, created.IsRepeating)
		assert.Equal(t, class.Class.ID, created.ClassID)
		if assert.NotNil(t, created.Class) {
			assert.Equal(t, "JSS1", created.Class.Name)
			if assert.NotNil(t, created.Class.Teacher) {
				assert.Equal(t, teacher.Account.ID, created.Class.Teacher.ID)
			}
		}
		assert.Equal(t, []school.PaymentView{}, created.Payments)

		rec = serve(httpTest{path: "/api/students?id=" + created.ID, token: adminToken})
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marshallObj(t, created)}, rec)
	})
}

func Test_studentApi_retrieve(t *testing.T) {
	resetDB()

	admin := createAccount(t, "Admin", "admin@school.test", account.RoleAdmin)
	adminToken := getToken(t, admin)
	class := createClass(t, "JSS1")
	zoe := createStudent(t, "Zoe", "zoe@school.test", class.Class.ID)
	amy := createStudent(t, "Amy", "amy@school.test", class.Class.ID)
	teacher := createTeacher(t, "Mr Smith", "smith@school.test")

	tests := []httpTest{
		{name: "Auth required", path: "/api/students", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errNotAuthenticated)},
		{
			name: "Get all", path: "/api/students", token: adminToken, wantCode: http.StatusOK,
			wantData: marshallObj(t, school.FlattenStudents([]school.Student{amy, zoe})),
		},
		{
			name: "Any account can read", path: "/api/students?id=" + zoe.Account.ID, token: getToken(t, amy.Account),
			wantCode: http.StatusOK, wantData: marshallObj(t, school.FlattenStudent(zoe)),
		},
		{
			name: "Not found", path: "/api/students?id=nonexistent", token: adminToken,
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "Student not found"}),
		},
		{
			name: "Teacher id is not a student", path: "/api/students?id=" + teacher.Account.ID, token: adminToken,
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "Student not found"}),
		},
	}
	runHTTPTests(t, tests)
}

func Test_studentApi_update(t *testing.T) {
	resetDB()

	admin := createAccount(t, "Admin", "admin@school.test", account.RoleAdmin)
	adminToken := getToken(t, admin)
	jss1 := createClass(t, "JSS1")
	jss2 := createClass(t, "JSS2")
	jane := createStudent(t, "Jane", "jane@school.test", jss1.Class.ID)
	createStudent(t, "John", "john@school.test", jss1.Class.ID)

	tests := []httpTest{
		{
			name: "Missing id", method: http.MethodPut, path: "/api/students", token: adminToken, body: []byte(`{"name": "X"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpFieldsErr{Error: "Missing required fields", Fields: map[string]string{"id": "this field is required"}}),
		},
		{
			name: "Not found", method: http.MethodPut, path: "/api/students", token: adminToken, body: []byte(`{"id": "nope"}`),
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "Student not found"}),
		},
		{
			name: "Email taken", method: http.MethodPut, path: "/api/students", token: adminToken,
			body:     []byte(`{"id": "` + jane.Account.ID + `", "email": "john@school.test"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpFieldsErr{Error: "Email already exists", Fields: map[string]string{"email": "Email already exists"}}),
		},
		{
			name: "Unknown class", method: http.MethodPut, path: "/api/students", token: adminToken,
			body:     []byte(`{"id": "` + jane.Account.ID + `", "classId": "nope"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpFieldsErr{Error: "Class not found", Fields: map[string]string{"classId": "Class not found"}}),
		},
	}
	runHTTPTests(t, tests)

	t.Run("Partial update", func(t *testing.T) {
		rec := serve(httpTest{
			method: http.MethodPut, path: "/api/students", token: adminToken,
			body: []byte(`{"id": "` + jane.Account.ID + `", "isRepeating": true, "classId": "` + jss2.Class.ID + `"}`),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var updated school.StudentView
		decode(t, rec, &updated)
		assert.Equal(t, "Jane", updated.Name)
		assert.Equal(t, "jane@school.test", updated.Email)
		assert.True(t, updated.IsRepeating)
		assert.Equal(t, jss2.Class.ID, updated.ClassID)
		if assert.NotNil(t, updated.Class) {
			assert.Equal(t, "JSS2", updated.Class.Name)
		}
	})
}

func Test_studentApi_destroy(t *testing.T) {
	resetDB()

	admin := createAccount(t, "Admin", "admin@school.test", account.RoleAdmin)
	adminToken := getToken(t, admin)
	class := createClass(t, "JSS1")
	jane := createStudent(t, "Jane", "jane@school.test", class.Class.ID)
	payer := createStudent(t, "Payer", "payer@school.test", class.Class.ID)
	createPayment(t, payer.Account.ID, 100, nil)

	before := countAccounts(t)
	tests := []httpTest{
		{
			name: "Missing id", method: http.MethodDelete, path: "/api/students", token: adminToken, body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpFieldsErr{Error: "Missing required fields", Fields: map[string]string{"id": "this field is required"}}),
		},
		{
			name: "Nonexistent", method: http.MethodDelete, path: "/api/students", token: adminToken, body: []byte(`{"id": "nonexistent"}`),
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "Student not found"}),
		},
		{
			name: "Has payments", method: http.MethodDelete, path: "/api/students", token: adminToken,
			body:     []byte(`{"id": "` + payer.Account.ID + `"}`),
			wantCode: http.StatusConflict, wantData: marshallObj(t, httpErr{Error: "Cannot delete an account that has payments"}),
		},
	}
	runHTTPTests(t, tests)
	assert.Equal(t, before, countAccounts(t))

	tests = []httpTest{
		{
			name: "Delete", method: http.MethodDelete, path: "/api/students", token: adminToken,
			body:     []byte(`{"id": "` + jane.Account.ID + `"}`),
			wantCode: http.StatusOK, wantData: marshallObj(t, MessageResponse{Message: "Student deleted"}),
		},
		{
			name: "Deleted", path: "/api/students?id=" + jane.Account.ID, token: adminToken,
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "Student not found"}),
		},
		{
			name: "Delete again", method: http.MethodDelete, path: "/api/students?id=" + jane.Account.ID, token: adminToken,
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "Student not found"}),
		},
	}
	runHTTPTests(t, tests)
	assert.Equal(t, before-1, countAccounts(t))

	_, err := stores.Students.GetStudent(context.Background(), jane.Account.ID)
	assert.Error(t, err, "profile must be gone")
}
