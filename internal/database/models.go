package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"cvforge/internal/document"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User 表示系统中的账号信息。
type User struct {
	gorm.Model
	Username           string     `gorm:"uniqueIndex;size:64"`
	Email              string     `gorm:"uniqueIndex;size:255"`
	PasswordHash       string     `gorm:"size:255"`
	Role               string     `gorm:"size:16;default:user"`
	MustChangePassword bool       `gorm:"default:false"`
	Documents          []Document `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
}

// 导出状态
const (
	ExportIdle       = ""
	ExportPending    = "pending"
	ExportProcessing = "processing"
	ExportCompleted  = "completed"
	ExportFailed     = "failed"
)

// Document 是一份简历或求职信。两种类型共用一张表，用 Kind 区分。
// OwnerID 创建后不可修改；下载统计字段只由下载跟踪路径写入。
type Document struct {
	ID      string `gorm:"primaryKey;size:36"`
	OwnerID uint   `gorm:"index:idx_documents_owner_kind;not null"`
	Kind    string `gorm:"index:idx_documents_owner_kind;size:16;not null"`
	Title   string `gorm:"size:255"`

	Template           string                                `gorm:"size:64"`
	AccentColor        string                                `gorm:"size:16"`
	FontFamily         string                                `gorm:"size:64"`
	SectionOrder       datatypes.JSONSlice[string]
	SectionPages       datatypes.JSONType[map[string]int]
	CustomSectionNames datatypes.JSONType[map[string]string]
	Data               datatypes.JSONType[document.Data]

	IsDownloaded     bool  `gorm:"default:false"`
	DownloadCount    int64 `gorm:"default:0"`
	LastDownloadedAt *time.Time

	ExportStatus string `gorm:"size:16"`
	PDFObjectKey string `gorm:"size:512"`
	ThumbnailKey string `gorm:"size:512"`
	ExportError  string `gorm:"size:512"`

	CreatedAt  time.Time
	LastEdited time.Time `gorm:"autoUpdateTime"`
}

// BeforeCreate 为新文档分配不可变的 UUID。
func (d *Document) BeforeCreate(_ *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// Layout 组装数据库列为 document.Layout。
func (d *Document) Layout() document.Layout {
	return document.Layout{
		Template:           d.Template,
		AccentColor:        d.AccentColor,
		FontFamily:         d.FontFamily,
		SectionOrder:       []string(d.SectionOrder),
		SectionPages:       d.SectionPages.Data(),
		CustomSectionNames: d.CustomSectionNames.Data(),
	}
}

// SetLayout 写回布局字段，调用方负责先 Normalize。
func (d *Document) SetLayout(l document.Layout) {
	d.Template = l.Template
	d.AccentColor = l.AccentColor
	d.FontFamily = l.FontFamily
	d.SectionOrder = datatypes.JSONSlice[string](l.SectionOrder)
	d.SectionPages = datatypes.NewJSONType(l.SectionPages)
	d.CustomSectionNames = datatypes.NewJSONType(l.CustomSectionNames)
}

// 订阅字段取值
const (
	PlanTrial     = "trial"
	PlanMonthly   = "monthly"
	PlanQuarterly = "quarterly"
	PlanYearly    = "yearly"

	ContentCV          = "cv"
	ContentCoverLetter = "cover-letter"
	ContentAll         = "all"

	StatusActive   = "active"
	StatusCanceled = "canceled"
	StatusExpired  = "expired"
)

// Subscription 是限时的下载权益。过期只在读取时按 EndDate 计算，从不回写 Status。
type Subscription struct {
	ID               string `gorm:"primaryKey;size:36"`
	UserID           uint   `gorm:"index"`
	Email            string `gorm:"index;size:255"`
	Plan             string `gorm:"size:16"`
	Type             string `gorm:"size:16"`
	Status           string `gorm:"size:16;index"`
	StartDate        time.Time
	EndDate          time.Time `gorm:"index"`
	Amount           int64
	Currency         string  `gorm:"size:3"`
	PaymentReference *string `gorm:"uniqueIndex;size:128"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (s *Subscription) BeforeCreate(_ *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Payment 记录一次已验证的支付，Amount 以最小货币单位存储。
type Payment struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    uint   `gorm:"index"`
	Email     string `gorm:"size:255"`
	Reference string `gorm:"uniqueIndex;size:128"`
	Plan      string `gorm:"size:16"`
	Type      string `gorm:"size:16"`
	Amount    int64
	Currency  string `gorm:"size:3"`
	CreatedAt time.Time
}

func (p *Payment) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// TemplatePreview 记录模板画廊缩略图在对象存储中的位置。
type TemplatePreview struct {
	Template  string `gorm:"primaryKey;size:64"`
	Kind      string `gorm:"primaryKey;size:16"`
	ObjectKey string `gorm:"size:512"`
	UpdatedAt time.Time
}
