package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/account"
)

func TestSplitAccount(t *testing.T) {
	acc := account.Account{ID: "a1", Name: "Ada", Email: "ada@school.test"}
	other := account.Account{ID: "a2"}
	extras := map[string]interface{}{"payment": "P24091234"}
	err := errors.New("boom")

	got, values := splitAccount([]interface{}{err, acc, extras, &other})
	if assert.NotNil(t, got) {
		assert.Equal(t, "a1", got.ID)
	}
	assert.Equal(t, []interface{}{err, extras}, values)

	got, values = splitAccount([]interface{}{err})
	assert.Nil(t, got)
	assert.Equal(t, []interface{}{err}, values)
}

func TestRollbarLogger_print(t *testing.T) {
	out := new(bytes.Buffer)
	logger := NewRollbarLogger(log.New(out, "", 0), &core.Config{Env: "test", TestMode: true})

	logger.Error("sending email", errors.New("smtp down"), account.Account{ID: "a1", Email: "ada@school.test"})
	logger.Info("sending payment receipt", map[string]interface{}{"payment": "P24091234"})

	assert.Contains(t, out.String(), "[ERROR] sending email\n\tsmtp down\n")
	assert.Contains(t, out.String(), "[INFO] sending payment receipt\n\tmap[payment:P24091234]\n")
	assert.NotContains(t, out.String(), "ada@school.test")
}
