package model

// 用户身份由校园统一认证（SSO）签发的 JWT 提供，本服务不维护用户表。
type UserRole string

const (
	Student UserRole = "student"
	Teacher UserRole = "teacher"
	Admin   UserRole = "admin"
)
