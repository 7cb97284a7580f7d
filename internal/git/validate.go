package git

import (
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
)

const cacheNameTag = "cachename"

func registerValidations(v *validator.Validate) error {
	return v.RegisterValidation(cacheNameTag, func(fl validator.FieldLevel) bool {
		return IsValidCacheName(fl.Field().String())
	})
}

// IsValidCacheName reports whether name can be used as a single path
// segment below the cache root.
func IsValidCacheName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}

	if strings.ContainsAny(name, `/\`) {
		return false
	}

	return filepath.IsLocal(name)
}
