package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/schoolpay/apps/api/echo"
	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/account"
	"github.com/trezcool/schoolpay/core/school"
	emailsvc "github.com/trezcool/schoolpay/services/email"
	identitysvc "github.com/trezcool/schoolpay/services/identity"
	logsvc "github.com/trezcool/schoolpay/services/logger"
	inmemdb "github.com/trezcool/schoolpay/storage/database/inmem"
)

var (
	conf    *core.Config
	app     *Server
	db      *inmemdb.DB
	stores  school.Stores
	mailSvc *emailsvc.ConsoleServiceMock

	accountSvc *account.Service
	studentSvc *school.StudentService
	teacherSvc *school.TeacherService
	classSvc   *school.ClassService
	termSvc    *school.TermService
	paymentSvc *school.PaymentService

	errNotAuthenticated = httpErr{Error: "Not authenticated"}
	errForbidden        = httpErr{Error: "permission denied"}
)

func TestMain(m *testing.M) {
	conf = &core.Config{
		AppName:          "SchoolPay",
		Env:              "TEST",
		TestMode:         true,
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: mail.Address{Name: "SchoolPay", Address: "noreply@localhost"},
		Server:           core.ServerConfig{DisableReqLogs: true},
		Identity:         core.IdentityConfig{SessionSecret: "test-session-secret", Issuer: "https://identity.test"},
	}
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)

	// set up DB & repos
	db = inmemdb.Open()
	stores = inmemdb.NewStores(db)

	// set up services
	mailSvc = emailsvc.NewConsoleServiceMock(conf, logger)
	accountSvc = account.NewService(stores.Accounts, nil, logger)
	studentSvc = school.NewStudentService(stores, accountSvc)
	teacherSvc = school.NewTeacherService(stores, accountSvc)
	classSvc = school.NewClassService(stores)
	termSvc = school.NewTermService(stores)
	paymentSvc = school.NewPaymentService(stores, mailSvc, logger)

	translator := core.NewTranslator()
	validate := validator.New()
	core.InitValidators(validate, translator)

	// set up server
	app = NewServer(ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Verifier:   identitysvc.NewSessionVerifier(conf),
		AccountSvc: accountSvc,
		StudentSvc: studentSvc,
		TeacherSvc: teacherSvc,
		ClassSvc:   classSvc,
		TermSvc:    termSvc,
		PaymentSvc: paymentSvc,
		Validate:   validate,
		Translator: translator,
	})

	os.Exit(m.Run())
}

func resetDB() {
	db.Reset()
	mailSvc.Reset()
}

type httpErr struct {
	Error string `json:"error"`
}

type httpFieldsErr struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func serve(tt httpTest) *httptest.ResponseRecorder {
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}
	req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
	app.ServeHTTP(rec, req)
	return rec
}

// createAccount stores an account linked to the identity subject "ext_<email>".
func createAccount(t *testing.T, name, email, role string) account.Account {
	acc, err := accountSvc.Create(context.Background(), account.NewAccount{
		Name:           name,
		Email:          email,
		Role:           role,
		ExternalAuthID: core.StringPtr("ext_" + email),
	})
	require.NoError(t, err)
	return acc
}

func getToken(t *testing.T, acc account.Account) string {
	token, err := identitysvc.NewSessionToken(conf, core.StringValue(acc.ExternalAuthID), acc.Role, time.Hour)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func createClass(t *testing.T, name string, teacherID ...string) school.ClassDetail {
	nc := school.NewClass{Name: name}
	if len(teacherID) > 0 {
		nc.TeacherID = &teacherID[0]
	}
	class, err := classSvc.Create(context.Background(), nc)
	require.NoError(t, err)
	return class
}

func createStudent(t *testing.T, name, email, classID string) school.Student {
	std, err := studentSvc.Create(context.Background(), school.NewStudent{
		Name:           name,
		Email:          email,
		ExternalAuthID: core.StringPtr("ext_" + email),
		ClassID:        classID,
	})
	require.NoError(t, err)
	return std
}

func createTeacher(t *testing.T, name, email string, classIDs ...string) school.Teacher {
	tch, err := teacherSvc.Create(context.Background(), school.NewTeacher{
		Name:           name,
		Email:          email,
		ExternalAuthID: core.StringPtr("ext_" + email),
		ClassIDs:       classIDs,
	})
	require.NoError(t, err)
	return tch
}

func createTerm(t *testing.T, name string, start, end core.Date) school.TermDetail {
	term, err := termSvc.Create(context.Background(), school.NewTerm{Name: name, StartDate: &start, EndDate: &end})
	require.NoError(t, err)
	return term
}

func createPayment(t *testing.T, userID string, amount float64, termID *string) school.PaymentDetail {
	pmt, err := paymentSvc.Create(context.Background(), school.NewPayment{UserID: userID, Amount: amount, TermID: termID})
	require.NoError(t, err)
	return pmt
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode() failed: %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, tests []httpTest) {
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			checkCodeAndData(t, tc, serve(tc))
		})
	}
}

func Test_home(t *testing.T) {
	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to SchoolPay API!", rec.Body.String())

	req, rec = newRequest(http.MethodGet, "/health")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
