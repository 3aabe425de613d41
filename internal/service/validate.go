package service

import (
	"github.com/recipebox/recipebox-server/internal/validation"
)

// validate is a shared validator instance for request validation.
var validate = validation.New()
