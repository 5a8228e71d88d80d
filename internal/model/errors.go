package model

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateID  = errors.New("duplicate id")
	ErrInvalidInput = errors.New("invalid input")
	ErrNoUser       = errors.New("no user in context")
)
