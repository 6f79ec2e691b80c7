package enums

import "fmt"

// FormType tags the kind of production record a queued submission carries.
type FormType string

const (
	FormTypeProductionTarget FormType = "production_target"
	FormTypeProductionActual FormType = "production_actual"
	FormTypeDailyLog         FormType = "daily_log"
	FormTypeBinCardTxn       FormType = "bin_card_txn"
)

var validFormTypes = []FormType{
	FormTypeProductionTarget,
	FormTypeProductionActual,
	FormTypeDailyLog,
	FormTypeBinCardTxn,
}

// IsValid reports whether the value matches the canonical form type enum.
func (f FormType) IsValid() bool {
	for _, candidate := range validFormTypes {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFormType converts the raw string to FormType.
func ParseFormType(value string) (FormType, error) {
	for _, candidate := range validFormTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid form type %q", value)
}
