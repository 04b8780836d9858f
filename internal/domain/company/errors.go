package company

import "errors"

var ErrPolicyNotFound = errors.New("company attendance policy not found")
