package models

import "errors"

var (
	ErrInvalidDate   = errors.New("invalid week date")
	ErrInvalidRole   = errors.New("invalid role")
	ErrInvalidPart   = errors.New("invalid part")
	ErrInvalidSlot   = errors.New("invalid slot")
	ErrInvalidMember = errors.New("invalid member")
)
