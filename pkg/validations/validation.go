// All global custom validations in Waitingway are defined here.
// These validations are allowed to be used anywhere in the application.

package validations

import (
	"strings"
	"sync"

	"github.com/asaskevich/govalidator"
)

// sync.Once singleton is used to make sure the tag map is only touched once.
var once sync.Once

func RegisterCustomValidations() {
	once.Do(func() {
		// This global validation doesn't allow whitespace-only input.
		govalidator.TagMap["nospaceonly"] = govalidator.Validator(func(str string) bool {
			return strings.TrimSpace(str) != ""
		})
		// Discord snowflakes are numeric strings.
		govalidator.TagMap["snowflake"] = govalidator.Validator(func(str string) bool {
			return govalidator.IsNumeric(str) && len(str) <= 20
		})
	})
}
