package domain

import (
	stdErrors "errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "property-listing/pkg/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 字段规则 + 跨字段约束，失败返回 CodeInvalidArgument
func (p *Property) Validate() error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if stdErrors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return apperrors.New(apperrors.CodeInvalidArgument,
				fmt.Sprintf("%s failed on %s", lowerFirst(fe.Field()), fe.Tag()))
		}
		return apperrors.Wrap(apperrors.CodeInvalidArgument, err, "invalid property")
	}
	if p.BuiltArea != nil && *p.BuiltArea > p.TotalArea {
		return apperrors.New(apperrors.CodeInvalidArgument, "builtArea must not exceed totalArea")
	}
	return nil
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// ParseTransactionKind 接受线上取值和英文别名，空串视为 todos
func ParseTransactionKind(s string) (TransactionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "todos", "all":
		return TransactionAll, nil
	case "venta", "sale":
		return TransactionSale, nil
	case "alquiler", "rent":
		return TransactionRent, nil
	case "alquiler-venta", "rent-to-own", "renttoown":
		return TransactionRentToOwn, nil
	}
	return "", apperrors.New(apperrors.CodeInvalidArgument, "unknown transaction kind: "+s)
}

func ParsePropertyType(s string) (PropertyType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "casa", "house":
		return PropertyHouse, nil
	case "apartamento", "apartment":
		return PropertyApartment, nil
	case "oficina", "office":
		return PropertyOffice, nil
	case "local", "retail":
		return PropertyRetail, nil
	case "terreno", "land":
		return PropertyLand, nil
	case "bodega", "warehouse":
		return PropertyWarehouse, nil
	case "finca", "farm":
		return PropertyFarm, nil
	}
	return "", apperrors.New(apperrors.CodeInvalidArgument, "unknown property type: "+s)
}
