package errcode

// 错误码约定：
// - 0：无错误
// - 4xxx：业务可恢复/告警类错误（例如资源缺失但流程可继续）
// - 5xxx：系统错误（需要中断流程）
const (
	OK              = 0
	ResourceMissing = 4004
	SystemError     = 5000
)

// API error taxonomy. Every HTTP failure maps onto one of these.
const (
	Unauthenticated = "UNAUTHENTICATED"
	NotFound        = "NOT_FOUND"
	ValidationError = "VALIDATION_ERROR"
	Forbidden       = "FORBIDDEN"
	ServerError     = "SERVER_ERROR"
)

// Reason codes attached to a negative subscription check.
const (
	UserNotFound   = "USER_NOT_FOUND"
	NoSubscription = "NO_SUBSCRIPTION"
)
