package document

import "errors"

// Kind 区分简历与求职信，取值同时用作 URL 路径段。
type Kind string

const (
	KindCV          Kind = "cv"
	KindCoverLetter Kind = "cover-letter"
)

var (
	// ErrNotFound 表示文档不存在或不属于当前用户。
	ErrNotFound = errors.New("document not found")
	// ErrValidation 表示请求体未通过校验。
	ErrValidation = errors.New("document validation failed")
	// ErrUnknownKind 表示路径中的文档类型无法识别。
	ErrUnknownKind = errors.New("unknown document kind")
)

// ParseKind 解析路径参数中的文档类型。
func ParseKind(raw string) (Kind, error) {
	switch Kind(raw) {
	case KindCV, KindCoverLetter:
		return Kind(raw), nil
	default:
		return "", ErrUnknownKind
	}
}

func (k Kind) String() string { return string(k) }
