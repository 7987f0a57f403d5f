package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

const actionTypeRegex = `^[a-z0-9][a-z0-9_.-]*$`

const ActionTypeTag = "action_type"

var valid = map[string]func(fl validator.FieldLevel) bool{
	ActionTypeTag: ValidateActionType,
}

func ValidateActionType(fl validator.FieldLevel) bool {
	actionType := fl.Field().String()
	return regexp.MustCompile(actionTypeRegex).MatchString(actionType)
}
