package tests

import (
	"log"
	"os"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/user"
)

var (
	validate   *validator.Validate
	translator ut.Translator
	logger     core.Logger
)

func TestMain(m *testing.M) {
	_ = os.Setenv("ENV", "TEST")
	_ = os.Setenv("TEST_DEBUG", "false")
	core.NewConfig()

	logger = stdLogger{log.New(os.Stdout, "TEST : ", log.LstdFlags)}

	validate = validator.New()
	translator = newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	core.ParseEmailTemplates(logger)
	user.LoadCommonPasswords(logger)

	os.Exit(m.Run())
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type stdLogger struct {
	std *log.Logger
}

func (l stdLogger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args...) }
func (l stdLogger) Info(msg string, args ...interface{})  { l.log("INFO", msg, args...) }
func (l stdLogger) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args...) }
func (l stdLogger) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args...) }
func (l stdLogger) Fatal(msg string, args ...interface{}) { l.std.Fatalf("FATAL: %s %v", msg, args) }

func (l stdLogger) log(lvl, msg string, args ...interface{}) {
	l.std.Printf("%s: %s %v", lvl, msg, args)
}
