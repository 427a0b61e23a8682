package util

// 归档存储后端类型，对应配置项 storage.type
const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

// 无限重考时 attemptsRemaining 的返回值
const UnlimitedAttempts = "unlimited"

// 违规扣分默认值（百分比）
const (
	DefaultPenaltyPerViolation = 5.0
	DefaultPenaltyCap          = 30.0
)

// 剩余时间低于该阈值时提交答案会附带提醒
const DefaultTimeWarningMinutes = 5
