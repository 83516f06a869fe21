package resolve

import "fmt"

// UnknownServiceError reports an ARN addressing a service this pipeline does
// not resolve. Only Secrets Manager and Parameter Store ARNs are supported.
type UnknownServiceError struct {
	Service string
}

func (e *UnknownServiceError) Error() string {
	return fmt.Sprintf("unknown secret ARN service name: %s", e.Service)
}

// UnsupportedSelectorError reports a '#field' selector on a Parameter Store
// ARN. Field extraction is defined only for Secrets Manager JSON secrets.
type UnsupportedSelectorError struct {
	ARN string
}

func (e *UnsupportedSelectorError) Error() string {
	return fmt.Sprintf("field selectors are not supported for parameter store ARNs: %s", e.ARN)
}

// FieldExtractionError reports a field-selected ARN whose secret string is
// not a JSON object or does not contain the requested field.
type FieldExtractionError struct {
	ARN    string
	Reason string
}

func (e *FieldExtractionError) Error() string {
	return fmt.Sprintf("cannot extract field from %s: %s", e.ARN, e.Reason)
}
