package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that the email or username is taken
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrCategoryNotFound indicates that category was not found
	ErrCategoryNotFound = errors.New("category not found")

	// ErrCategoryAlreadyExists indicates that the category name is taken
	ErrCategoryAlreadyExists = errors.New("category already exists")

	// ErrTopicNotFound indicates that topic was not found
	ErrTopicNotFound = errors.New("topic not found")

	// ErrReplyNotFound indicates that reply was not found
	ErrReplyNotFound = errors.New("reply not found")

	// ErrGrantNotFound indicates that no access grant exists for the
	// (user, category) pair
	ErrGrantNotFound = errors.New("access grant not found")

	// ErrVoteNotFound indicates that the user has not voted on the reply
	ErrVoteNotFound = errors.New("vote not found")

	// ErrNoStateChange indicates that a conditional update matched no rows
	// because the resource is already in the requested state
	ErrNoStateChange = errors.New("resource already in requested state")
)
