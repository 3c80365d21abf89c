package document

// Data 是文档的内容部分，简历与求职信共用一个结构，按 Kind 取用对应字段。
type Data struct {
	PersonalInfo   PersonalInfo             `json:"personalInfo"`
	Profile        string                   `json:"profile,omitempty"`
	Education      []Education              `json:"education,omitempty"`
	Experience     []Experience             `json:"experience,omitempty"`
	Skills         []Skill                  `json:"skills,omitempty"`
	Languages      []Language               `json:"languages,omitempty"`
	Interests      []Interest               `json:"interests,omitempty"`
	References     []Reference              `json:"references,omitempty"`
	Socials        []Social                 `json:"socials,omitempty"`
	CustomSections map[string]CustomSection `json:"customSections,omitempty"`

	// 求职信字段
	Recipient        Recipient  `json:"recipient"`
	LetterMeta       LetterMeta `json:"dateAndSubject"`
	Introduction     string     `json:"introduction,omitempty"`
	CurrentSituation string     `json:"currentSituation,omitempty"`
	Motivation       string     `json:"motivation,omitempty"`
	Conclusion       string     `json:"conclusion,omitempty"`

	// BlankFields lists "<section>.<field>" paths ("personal-info.phone") or
	// whole list sections ("skills") the user cleared on purpose. Preview
	// rendering leaves them empty instead of showing an example.
	BlankFields []string `json:"blankFields,omitempty"`
}

type PersonalInfo struct {
	FirstName      string `json:"firstName,omitempty"`
	LastName       string `json:"lastName,omitempty"`
	JobTitle       string `json:"jobTitle,omitempty"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Address        string `json:"address,omitempty"`
	City           string `json:"city,omitempty"`
	PostalCode     string `json:"postalCode,omitempty"`
	Country        string `json:"country,omitempty"`
	BirthDate      string `json:"birthDate,omitempty"`
	Nationality    string `json:"nationality,omitempty"`
	DrivingLicense string `json:"drivingLicense,omitempty"`
	Website        string `json:"website,omitempty"`
	LinkedIn       string `json:"linkedin,omitempty"`
	// PhotoKey 是对象存储中的头像 key，渲染时换成预签名 URL。
	PhotoKey string `json:"photo,omitempty"`
}

// FullName 拼接姓名，任一部分为空时不留多余空格。
func (p PersonalInfo) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	default:
		return p.FirstName + " " + p.LastName
	}
}

type Education struct {
	Degree      string `json:"degree,omitempty"`
	School      string `json:"school,omitempty"`
	City        string `json:"city,omitempty"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
	Current     bool   `json:"current,omitempty"`
	Description string `json:"description,omitempty"`
}

type Experience struct {
	Position    string `json:"position,omitempty"`
	Company     string `json:"company,omitempty"`
	City        string `json:"city,omitempty"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
	Current     bool   `json:"current,omitempty"`
	Description string `json:"description,omitempty"`
}

// Skill.Level 取值 0-5，0 表示不显示刻度。
type Skill struct {
	Name  string `json:"name,omitempty"`
	Level int    `json:"level,omitempty"`
}

type Language struct {
	Name  string `json:"name,omitempty"`
	Level string `json:"level,omitempty"`
}

type Interest struct {
	Name string `json:"name,omitempty"`
}

type Reference struct {
	Name    string `json:"name,omitempty"`
	Company string `json:"company,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

type Social struct {
	Platform string `json:"platform,omitempty"`
	URL      string `json:"url,omitempty"`
}

// CustomSection 是用户自建的富文本段落。
type CustomSection struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
}

type Recipient struct {
	Company    string `json:"company,omitempty"`
	Name       string `json:"name,omitempty"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
}

type LetterMeta struct {
	Date     string `json:"date,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Location string `json:"location,omitempty"`
}

// IsBlank 判断某个字段路径是否被用户显式置空。
func (d Data) IsBlank(path string) bool {
	for _, f := range d.BlankFields {
		if f == path {
			return true
		}
	}
	return false
}
