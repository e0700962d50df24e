package handler

import (
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"
)

var (
	validatorsOnce sync.Once
	contentIDRe    = regexp.MustCompile(`^[A-Za-z0-9_.:-]+$`)
)

// registerValidators добавляет теги contentid и locale в валидатор gin.
func registerValidators() {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("contentid", func(fl validator.FieldLevel) bool {
			return contentIDRe.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("locale", func(fl validator.FieldLevel) bool {
			_, _, err := language.ParseAcceptLanguage(fl.Field().String())
			return err == nil
		})
	})
}
