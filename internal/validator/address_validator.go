package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"ecorder/internal/domain/model"
	"ecorder/internal/usecase"
)

var (
	// 必須項目が空
	ErrMissingField = errors.New("missing field")

	// 郵便番号の形式が国と合わない
	ErrInvalidPincode = errors.New("invalid pincode")
)

// 国コードごとの郵便番号
var pincodePatterns = map[string]*regexp.Regexp{
	"IN": regexp.MustCompile(`^[1-9][0-9]{5}$`),
	"US": regexp.MustCompile(`^[0-9]{5}(-[0-9]{4})?$`),
}

var defaultPincodePattern = regexp.MustCompile(`^[0-9]{4,10}$`)

// 表記ゆれを国コードに寄せる
var countryAliases = map[string]string{
	"IN":                       "IN",
	"IND":                      "IN",
	"INDIA":                    "IN",
	"US":                       "US",
	"USA":                      "US",
	"UNITED STATES":            "US",
	"UNITED STATES OF AMERICA": "US",
}

type addressValidator struct{}

// Usecaseは interface を依存注入
func NewAddressValidator() usecase.AddressValidator {
	return &addressValidator{}
}

func (v *addressValidator) ValidateShippingAddress(in usecase.AddressInput) (model.ShippingAddress, error) {
	addr := model.ShippingAddress{
		Street:  strings.TrimSpace(in.Street),
		City:    strings.TrimSpace(in.City),
		State:   strings.TrimSpace(in.State),
		Zip:     strings.TrimSpace(in.Pincode),
		Country: strings.TrimSpace(in.Country),
	}

	// 必須チェック
	for _, f := range []struct {
		name  string
		value string
	}{
		{"street", addr.Street},
		{"city", addr.City},
		{"state", addr.State},
		{"pincode", addr.Zip},
		{"country", addr.Country},
	} {
		if f.value == "" {
			return model.ShippingAddress{}, fmt.Errorf("shippingAddress.%s is required: %w", f.name, ErrMissingField)
		}
	}

	if !pincodePattern(addr.Country).MatchString(addr.Zip) {
		return model.ShippingAddress{}, fmt.Errorf("shippingAddress.pincode %q is not valid for %s: %w", addr.Zip, addr.Country, ErrInvalidPincode)
	}

	return addr, nil
}

func pincodePattern(country string) *regexp.Regexp {
	code, ok := countryAliases[strings.ToUpper(country)]
	if !ok {
		return defaultPincodePattern
	}
	if re, ok := pincodePatterns[code]; ok {
		return re
	}
	return defaultPincodePattern
}
