package store

import "errors"

var ErrRepositoryExists = errors.New("repository already registered")
var ErrProfileNotFound = errors.New("profile not found")
