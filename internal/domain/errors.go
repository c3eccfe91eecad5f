package domain

import "errors"

// Error taxonomy. Services wrap these with context via fmt.Errorf("%w")
// and never suppress them; the HTTP boundary maps each kind to a status
// code with errors.Is.
var (
	// ErrValidation marks a malformed or incomplete source payload,
	// typically a required identifier that could not be extracted.
	ErrValidation = errors.New("validation failed")

	// ErrAuthentication marks a webhook signature mismatch.
	ErrAuthentication = errors.New("authentication failed")

	// ErrUnknownTenant marks a shop with no credential on file.
	ErrUnknownTenant = errors.New("unknown shop")

	// ErrRepository marks a failed persistence call.
	ErrRepository = errors.New("repository failure")

	// ErrRemoteAPI marks a failed or error-bearing call to the Shopify
	// admin API.
	ErrRemoteAPI = errors.New("shopify api failure")
)
