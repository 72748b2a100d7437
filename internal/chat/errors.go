package chat

import "errors"

var (
	ErrBlocked        = errors.New("messaging is blocked between these users")
	ErrForbidden      = errors.New("not allowed to perform this action")
	ErrNotFound       = errors.New("not found")
	ErrStateConflict  = errors.New("request already resolved")
	ErrRequestPending = errors.New("a pending message request already exists")
	ErrEmptyContent   = errors.New("content must not be empty")
	ErrSelfTarget     = errors.New("cannot target yourself")
	ErrNotMember      = errors.New("user is not a member of this room")
	ErrLastAdmin      = errors.New("room must keep at least one admin")
	ErrAlreadyBlocked = errors.New("user is already blocked")
	ErrNotBlocked     = errors.New("user is not blocked")
)
