package service

import "errors"

var (
	ErrSettlementNotFound      = errors.New("settlement not found")
	ErrInvalidSettlementStatus = errors.New("settlement status does not allow this operation")
	ErrSettlementConfirmed     = errors.New("confirmed settlement cannot be canceled")
	ErrScheduleConfigNotFound  = errors.New("schedule config not found")
	ErrDuplicateScheduleName   = errors.New("schedule config name already exists")
	ErrInvalidCronExpr         = errors.New("invalid cron expression")
)
