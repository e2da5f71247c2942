package ldap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// ErrorCategory groups LDAP failures by what a caller can do about them.
type ErrorCategory string

const (
	ErrorCategoryConnection     ErrorCategory = "connection"
	ErrorCategoryAuthentication ErrorCategory = "authentication"
	ErrorCategoryPermission     ErrorCategory = "permission"
	ErrorCategoryNotFound       ErrorCategory = "not_found"
	ErrorCategoryValidation     ErrorCategory = "validation"
	ErrorCategoryServer         ErrorCategory = "server"
	ErrorCategoryUnknown        ErrorCategory = "unknown"
)

var resultCategories = map[uint16]ErrorCategory{
	ldap.LDAPResultInvalidCredentials:          ErrorCategoryAuthentication,
	ldap.LDAPResultInappropriateAuthentication: ErrorCategoryAuthentication,
	ldap.LDAPResultStrongAuthRequired:          ErrorCategoryAuthentication,
	ldap.LDAPResultConfidentialityRequired:     ErrorCategoryAuthentication,

	ldap.LDAPResultInsufficientAccessRights: ErrorCategoryPermission,
	ldap.LDAPResultUnwillingToPerform:       ErrorCategoryPermission,

	ldap.LDAPResultNoSuchObject:           ErrorCategoryNotFound,
	ldap.LDAPResultNoSuchAttribute:        ErrorCategoryNotFound,
	ldap.LDAPResultUndefinedAttributeType: ErrorCategoryNotFound,

	ldap.LDAPResultInvalidAttributeSyntax: ErrorCategoryValidation,
	ldap.LDAPResultInvalidDNSyntax:        ErrorCategoryValidation,
	ldap.LDAPResultFilterError:            ErrorCategoryValidation,
	ldap.ErrorFilterCompile:               ErrorCategoryValidation,
	ldap.ErrorEmptyPassword:               ErrorCategoryValidation,

	ldap.LDAPResultServerDown:         ErrorCategoryServer,
	ldap.LDAPResultUnavailable:        ErrorCategoryServer,
	ldap.LDAPResultBusy:               ErrorCategoryServer,
	ldap.LDAPResultTimeLimitExceeded:  ErrorCategoryServer,
	ldap.LDAPResultSizeLimitExceeded:  ErrorCategoryServer,
	ldap.LDAPResultAdminLimitExceeded: ErrorCategoryServer,
	ldap.LDAPResultOperationsError:    ErrorCategoryServer,
	ldap.LDAPResultOther:              ErrorCategoryServer,
	ldap.LDAPResultConnectError:       ErrorCategoryConnection,
	ldap.LDAPResultProtocolError:      ErrorCategoryConnection,
	ldap.ErrorNetwork:                 ErrorCategoryConnection,
}

// LDAPError is the error returned by every Conn and Client operation.
type LDAPError struct {
	Operation string
	Category  ErrorCategory
	LDAPCode  uint16 // zero when the failure happened below the protocol
	Message   string
	ServerMsg string // diagnostic message sent by the server
	DN        string
	Cause     error
}

func (e *LDAPError) Error() string {
	head := "LDAP " + e.Operation + " failed"
	if e.LDAPCode > 0 {
		head += fmt.Sprintf(" (code %d)", e.LDAPCode)
	}

	parts := []string{head}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.ServerMsg != "" && e.ServerMsg != e.Message {
		parts = append(parts, "server: "+e.ServerMsg)
	}
	if e.DN != "" {
		parts = append(parts, "DN: "+e.DN)
	}
	return strings.Join(parts, " - ")
}

func (e *LDAPError) Unwrap() error {
	return e.Cause
}

// NewLDAPError classifies err. It returns nil for a nil err.
func NewLDAPError(operation string, err error) *LDAPError {
	if err == nil {
		return nil
	}

	e := &LDAPError{Operation: operation, Cause: err}

	var resultErr *ldap.Error
	if errors.As(err, &resultErr) {
		e.LDAPCode = resultErr.ResultCode
		e.Category = categorizeError(resultErr.ResultCode)
		e.Message = getLDAPCodeMessage(resultErr.ResultCode)
		if resultErr.Err != nil {
			e.ServerMsg = resultErr.Err.Error()
		}
	} else {
		e.Category = categorizeGenericError(err)
		e.Message = err.Error()
	}

	// Running out of time is a connection failure whatever the server answered.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		e.Category = ErrorCategoryConnection
	}

	return e
}

func categorizeError(code uint16) ErrorCategory {
	if category, ok := resultCategories[code]; ok {
		return category
	}
	return ErrorCategoryUnknown
}

func categorizeGenericError(err error) ErrorCategory {
	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) {
		return ErrorCategoryConnection
	}

	msg := strings.ToLower(err.Error())
	for _, hint := range []string{"connection", "network", "timeout", "broken pipe", "eof"} {
		if strings.Contains(msg, hint) {
			return ErrorCategoryConnection
		}
	}
	return ErrorCategoryUnknown
}

func getLDAPCodeMessage(code uint16) string {
	switch code {
	case ldap.LDAPResultInvalidCredentials:
		return "Invalid credentials"
	case ldap.ErrorNetwork:
		return "Network error"
	}
	if text, ok := ldap.LDAPResultCodeMap[code]; ok {
		return text
	}
	return fmt.Sprintf("Unknown LDAP error (code %d)", code)
}

// WrapError classifies err for operation unless it already is an *LDAPError.
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}

	var ldapErr *LDAPError
	if errors.As(err, &ldapErr) {
		if ldapErr.Operation == "" {
			ldapErr.Operation = operation
		}
		return err
	}
	return NewLDAPError(operation, err)
}

// GetErrorCategory returns the category of err, classifying it if needed.
func GetErrorCategory(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryUnknown
	}

	var ldapErr *LDAPError
	if errors.As(err, &ldapErr) {
		return ldapErr.Category
	}
	return NewLDAPError("", err).Category
}

func IsAuthenticationError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryAuthentication
}

func IsPermissionError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryPermission
}

// IsBindRejected reports whether the server refused a bind because of the
// presented credentials: a wrong password, or a locked or disabled account.
// A bind refused for the mechanism, such as confidentiality or strong
// authentication being required, is a setup fault and does not count.
func IsBindRejected(err error) bool {
	if err == nil {
		return false
	}

	var ldapErr *LDAPError
	if !errors.As(err, &ldapErr) {
		ldapErr = NewLDAPError("", err)
	}

	switch ldapErr.Category {
	case ErrorCategoryPermission:
		return true
	case ErrorCategoryAuthentication:
		return ldapErr.LDAPCode == ldap.LDAPResultInvalidCredentials
	default:
		return false
	}
}
