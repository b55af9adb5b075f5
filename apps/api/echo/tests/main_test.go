package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	echoapi "github.com/shuleni/mahudhurio/apps/api/echo"
	"github.com/shuleni/mahudhurio/core"
	"github.com/shuleni/mahudhurio/core/attendance"
	"github.com/shuleni/mahudhurio/core/school"
	"github.com/shuleni/mahudhurio/core/user"
	logsvc "github.com/shuleni/mahudhurio/services/logger"
	inmemdb "github.com/shuleni/mahudhurio/storage/database/inmem"
)

var (
	app echoapi.Server

	store   attendance.Store
	usrRepo user.Repository
	schRepo school.Repository
)

func TestMain(m *testing.M) {
	conf := core.NewConfig()
	conf.Debug = false
	conf.TestMode = true

	db, err := inmemdb.Open()
	if err != nil {
		fmt.Printf("inmemdb.Open(): %v", err)
		os.Exit(1)
	}
	store = inmemdb.NewStore(db)
	usrRepo = inmemdb.NewUserRepository(db)
	schRepo = inmemdb.NewSchoolRepository(db)

	usrSvc := user.NewService(usrRepo)
	attSvc := attendance.NewService(store)

	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	school.InitValidators(validate, translator)
	attendance.InitValidators(validate, translator)

	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags), conf)
	logger.Enable(false)

	app = echoapi.NewServer(&echoapi.Options{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		UserSvc:        usrSvc,
		AttendanceSvc:  attSvc,
		DisableReqLogs: true,
	})

	os.Exit(m.Run())
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

func getToken(t *testing.T, usr user.User) string {
	t.Helper()

	token, err := echoapi.GenerateToken(echoapi.GetUserClaims(usr))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()

	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj(): %v", err)
	}
	return data
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decodeBody(): %v; body: %s", err, rec.Body.String())
	}
}

func checkCode(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()

	if rec.Code != want {
		t.Fatalf("code = %d; want %d; body: %s", rec.Code, want, rec.Body.String())
	}
}
