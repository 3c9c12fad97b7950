// Package apperrors defines the sentinel error values shared by
// repositories, services and handlers. Higher layers match them with
// errors.Is and translate them into HTTP statuses, so a repository never
// needs to know about status codes and a handler never needs to parse
// error strings.
package apperrors

import "errors"

// ErrNotFound is returned when a requested entity, or a parent entity in a
// nested route, does not exist. Handlers translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation wraps malformed-field failures such as a title year in the
// future. Handlers translate it into HTTP 400.
var ErrValidation = errors.New("validation failed")

// ErrDuplicateReview is returned when an author already has a review for
// the title. The database unique index arbitrates races, so concurrent
// creates get exactly one winner and one ErrDuplicateReview.
var ErrDuplicateReview = errors.New("you have already reviewed this title")

// ErrInvalidScore is returned when a review score falls outside [1, 10].
var ErrInvalidScore = errors.New("score must be between 1 and 10")

// ErrIdentityConflict is returned when a signup's username is taken by a
// different email, or its email by a different username.
var ErrIdentityConflict = errors.New("username or email already belongs to another account")

// ErrReservedUsername is returned when a signup asks for the reserved
// username "me".
var ErrReservedUsername = errors.New("username 'me' is reserved")

// ErrInvalidConfirmationCode is returned on a token exchange whose code
// does not match the stored one. The stored code stays valid for retries.
var ErrInvalidConfirmationCode = errors.New("invalid confirmation code")

// ErrUnknownUser is returned on a token exchange for a username that was
// never signed up. Handlers translate it into HTTP 404.
var ErrUnknownUser = errors.New("no such user")

// ErrPolicyDenied is returned when the access policy forbids the request.
// Handlers translate it into HTTP 403.
var ErrPolicyDenied = errors.New("you do not have permission to perform this action")
