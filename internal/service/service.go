// Package service implements the application's business logic on top of
// the store, search index, and metadata scraper. Services validate
// input, translate store sentinel errors into coded domain errors, and
// keep the search index in sync with bookmark writes.
package service

import (
	"github.com/readlaterapp/readlater-server/internal/validation"
)

// validate is the shared request validator for all services.
var validate = validation.New()
