// Package validation はリクエスト入力の検証を提供する。
// go-playground/validator のシングルトンインスタンスを使い、
// 違反はすべて収集して model.FieldError のスライスとして返す。
package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/chargemap/internal/model"
)

// CoordinatesMessage は座標が不正な場合のメッセージ。
const CoordinatesMessage = "Invalid coordinates. Provide [longitude, latitude]"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator はシングルトンのvalidatorを返す。
// フィールド名にはjsonタグの名前を使う。
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})

		// lnglat: [経度, 緯度] の2要素で、それぞれ範囲内（両端を含む）
		if err := validate.RegisterValidation("lnglat", validateLngLat); err != nil {
			panic(fmt.Sprintf("failed to register lnglat validator: %v", err))
		}

		// finite: 有限の数値、または有限の数値として解釈できる文字列
		if err := validate.RegisterValidation("finite", validateFinite); err != nil {
			panic(fmt.Sprintf("failed to register finite validator: %v", err))
		}
	})

	return validate
}

// ValidateStruct は構造体を検証し、違反をすべて返す。
// 違反がない場合はnilを返す。
func ValidateStruct(s any) []model.FieldError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return []model.FieldError{{Msg: err.Error()}}
	}

	fields := make([]model.FieldError, 0, len(validationErrs))
	for _, fe := range validationErrs {
		fields = append(fields, model.FieldError{
			Param: paramName(fe.Namespace()),
			Msg:   translateError(fe),
		})
	}
	return fields
}

// toError はフィールドエラーをVALIDATION_ERRORに変換する。違反がない場合はnil。
func toError(fields []model.FieldError) error {
	if len(fields) == 0 {
		return nil
	}
	return model.NewValidationError(fields)
}

// paramName は "CreateStationRequest.location.coordinates" から
// 先頭の構造体名を除いた "location.coordinates" を返す。
func paramName(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func validateLngLat(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Slice && field.Kind() != reflect.Array {
		return false
	}
	if field.Len() != 2 {
		return false
	}

	lng, okLng := floatValue(field.Index(0))
	lat, okLat := floatValue(field.Index(1))
	if !okLng || !okLat {
		return false
	}
	return lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90
}

func validateFinite(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() == reflect.String {
		_, err := parseFinite(field.String())
		return err == nil
	}
	v, ok := floatValue(field)
	return ok && !math.IsNaN(v) && !math.IsInf(v, 0)
}

func floatValue(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	default:
		return 0, false
	}
}

// fieldMessages はフィールドとタグの組に固有のメッセージ。
// キーは構造体名付きの名前空間を優先し、次に構造体名なしの名前で引く。
var fieldMessages = map[string]string{
	"RegisterRequest.email.required":    "Please include a valid email",
	"RegisterRequest.email.email":       "Please include a valid email",
	"RegisterRequest.password.required": "Please enter a password with 6 or more characters",
	"RegisterRequest.password.min":      "Please enter a password with 6 or more characters",
	"LoginRequest.email.required":       "Please include a valid email",
	"LoginRequest.email.email":          "Please include a valid email",
	"LoginRequest.password.required":    "Password is required",
	"UpdateStationRequest.status.oneof": "Please include valid status",

	"name.required":          "Please add a name",
	"name.min":               "Please add a name",
	"name.max":               "Name cannot exceed 100 characters",
	"location.required":      "Please include latitude and longitude",
	"location.type.eq":       "location.type must be Point",
	"powerOutput.required":   "Please provide power output in kW",
	"powerOutput.gte":        "Power output must be at least 1 kW",
	"connectorType.required": "Please provide connector type",
}

var errorMessageTemplates = map[string]string{
	"required": "%s is required",
	"email":    "%s must be a valid email address",
	"finite":   "%s must be a number",
}

var errorMessageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
}

// translateError はvalidator.FieldErrorをクライアント向けのメッセージに変換する。
func translateError(fe validator.FieldError) string {
	if fe.Tag() == "lnglat" {
		return CoordinatesMessage
	}

	param := paramName(fe.Namespace())
	if msg, ok := fieldMessages[fe.Namespace()+"."+fe.Tag()]; ok {
		return msg
	}
	if msg, ok := fieldMessages[param+"."+fe.Tag()]; ok {
		return msg
	}

	if template, ok := errorMessageTemplates[fe.Tag()]; ok {
		return fmt.Sprintf(template, param)
	}
	if template, ok := errorMessageWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(template, param, fe.Param())
	}

	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", param, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", param, fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", param, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", param, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", param, fe.Tag())
	}
}
