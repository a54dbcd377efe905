package service

import "errors"

var (
	// ErrValidation 用户可修正的请求内容问题，映射 400
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized 身份缺失或无效，映射 401
	ErrUnauthorized = errors.New("unauthorized")
	// ErrFollowSelf 不允许关注自己
	ErrFollowSelf = errors.New("cannot follow self")
	// ErrInvalidCredentials 登录失败
	ErrInvalidCredentials = errors.New("invalid username or password")
)
