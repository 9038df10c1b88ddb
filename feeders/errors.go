package feeders

import "errors"

// Static error definitions for feeders
var (
	ErrUnsupportedFormat   = errors.New("unsupported config file format")
	ErrFileRead            = errors.New("failed to read config file")
	ErrEnvInvalidStructure = errors.New("env: expected pointer to struct")
	ErrEnvEmptyPrefix      = errors.New("env: prefix cannot be empty")
	ErrEnvFieldCannotBeSet = errors.New("env: field cannot be set")
	ErrEnvConversion       = errors.New("env: cannot convert value to field type")
)
