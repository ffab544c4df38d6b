package models

import (
	"errors"
)

var (
	ErrGeneral              = errors.New("an error occurred on the server during your request")
	ErrResourceNotFound     = errors.New("there is no")
	ErrProjectNameNotUnique = errors.New("the project name is already in use")
)
