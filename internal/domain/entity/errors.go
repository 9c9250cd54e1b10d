package entity

import (
	"fmt"
	"strings"
)

// ErrorKind enumerates the ways an oracle operation can be rejected
type ErrorKind string

const (
	KindInvalidDateFormat ErrorKind = "InvalidDateFormat"
	KindFlightNotFound    ErrorKind = "FlightNotFound"
	KindNoCarrierData     ErrorKind = "NoCarrierData"
	KindRangeTooOld       ErrorKind = "RangeTooOld"
	KindEmptyBatch        ErrorKind = "EmptyBatch"
	KindBatchTooLarge     ErrorKind = "BatchTooLarge"
	KindAlreadySubscribed ErrorKind = "AlreadySubscribed"
	KindLengthMismatch    ErrorKind = "LengthMismatch"
)

// Sentinels for errors.Is. Only the Kind is compared.
var (
	ErrInvalidDateFormat = &OracleError{Kind: KindInvalidDateFormat}
	ErrFlightNotFound    = &OracleError{Kind: KindFlightNotFound}
	ErrNoCarrierData     = &OracleError{Kind: KindNoCarrierData}
	ErrRangeTooOld       = &OracleError{Kind: KindRangeTooOld}
	ErrEmptyBatch        = &OracleError{Kind: KindEmptyBatch}
	ErrBatchTooLarge     = &OracleError{Kind: KindBatchTooLarge}
	ErrAlreadySubscribed = &OracleError{Kind: KindAlreadySubscribed}
	ErrLengthMismatch    = &OracleError{Kind: KindLengthMismatch}
)

// OracleError is a caller-input or precondition violation with the key it refers to
type OracleError struct {
	Kind         ErrorKind
	FlightNumber string
	Date         string
	Carrier      string
	Detail       string
}

func (e *OracleError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))

	var ctx []string
	if e.FlightNumber != "" {
		ctx = append(ctx, "flight="+e.FlightNumber)
	}
	if e.Date != "" {
		ctx = append(ctx, "date="+e.Date)
	}
	if e.Carrier != "" {
		ctx = append(ctx, "carrier="+e.Carrier)
	}
	if len(ctx) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(ctx, " "))
	}
	if e.Detail != "" {
		b.WriteString(": " + e.Detail)
	}
	return b.String()
}

// Is reports whether target is an OracleError of the same kind
func (e *OracleError) Is(target error) bool {
	t, ok := target.(*OracleError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NewFlightNotFound builds a FlightNotFound error for the given key parts
func NewFlightNotFound(flightNumber, date, carrier string) *OracleError {
	return &OracleError{Kind: KindFlightNotFound, FlightNumber: flightNumber, Date: date, Carrier: carrier}
}

// NewInvalidDateFormat builds an InvalidDateFormat error for the offending value
func NewInvalidDateFormat(value string) *OracleError {
	return &OracleError{Kind: KindInvalidDateFormat, Detail: fmt.Sprintf("%q does not match YYYY-MM-DD", value)}
}

// NewLengthMismatch builds a LengthMismatch error describing the offending lengths
func NewLengthMismatch(detail string) *OracleError {
	return &OracleError{Kind: KindLengthMismatch, Detail: detail}
}
