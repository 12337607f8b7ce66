package model

type Category struct {
	ID             string
	Name           string
	Slug           string
	Description    string
	Image          string
	ParentID       string
	Parent         *Category
	Children       []Category
	IsActive       bool
	SortOrder      int
	SeoTitle       string
	SeoDescription string
}
