package shared

import "fmt"

// PayRunLockKey builds redis keys guarding pay-run processing.
func PayRunLockKey(payRunID int64) string {
	return fmt.Sprintf("payroll:payrun:%d:lock", payRunID)
}
