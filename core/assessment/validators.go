package assessment

import (
	"github.com/go-playground/validator/v10"

	"github.com/edusign/screener/core"
)

var (
	kindTag  = "kind"
	kindText = "invalid assessment kind"

	scoringRuleTag  = "scoringrule"
	scoringRuleText = "invalid scoring rule"
)

func init() {
	_ = core.Validate.RegisterValidation(kindTag, inListValidation(AllKinds))
	core.RegisterCustomTranslation(kindTag, kindText)

	_ = core.Validate.RegisterValidation(scoringRuleTag, inListValidation(AllRules))
	core.RegisterCustomTranslation(scoringRuleTag, scoringRuleText)
}

func inListValidation(list []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		val, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		for _, item := range list {
			if val == item {
				return true
			}
		}
		return false
	}
}
