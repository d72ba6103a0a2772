package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ggonsajang/comcard/internal/core"
	"github.com/ggonsajang/comcard/internal/report"
)

type validationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// newValidator reports fields by their JSON names and knows the expense
// domains through the category, worktype and period tags.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return core.Category(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("worktype", func(fl validator.FieldLevel) bool {
		return core.WorkType(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("period", func(fl validator.FieldLevel) bool {
		_, err := report.ParsePeriod(fl.Field().String())
		return err == nil
	})
	return v
}

func validationDetails(err error) []validationDetail {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []validationDetail{{Message: err.Error()}}
	}
	details := make([]validationDetail, 0, len(verrs))
	for _, e := range verrs {
		details = append(details, validationDetail{Field: e.Field(), Message: validationMessage(e)})
	}
	return details
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "필수 항목입니다."
	case "category":
		return "사용 구분이 올바르지 않습니다."
	case "worktype":
		return "근무 구분이 올바르지 않습니다."
	case "period":
		return "기간은 all, current, previous 중 하나여야 합니다."
	case "max":
		return e.Param() + "자 이하로 입력해주세요."
	case "datauri":
		return "영수증 이미지 형식이 올바르지 않습니다."
	default:
		return "올바르지 않은 값입니다."
	}
}
