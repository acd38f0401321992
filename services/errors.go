package services

import "errors"

var (
	ErrQuestNotFound     = errors.New("quest not found")
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidInput      = errors.New("invalid input")
)
