// Package pagination 列表分页参数
package pagination

const (
	DefaultLimit = 20
	MaxLimit     = 100
	// MaxPage 保证 (page-1)*limit 不溢出
	MaxPage = 100000
)

// Page 页码分页，从 1 开始
type Page struct {
	Page  int `form:"page" binding:"omitempty,min=1,max=100000"`
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

// Normalize 补默认值并截断；max <= 0 时取 MaxLimit
func (p Page) Normalize(max int) Page {
	if max <= 0 {
		max = MaxLimit
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > max {
		p.Limit = max
	}
	return p
}

func (p Page) Offset() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	return (min(p.Page, MaxPage) - 1) * min(p.Limit, MaxLimit)
}

// Window 偏移分页
type Window struct {
	Offset int `form:"offset" binding:"omitempty,min=0"`
	Limit  int `form:"limit" binding:"omitempty,min=1"`
}

// Normalize 补默认 limit 并截断到 max
func (w Window) Normalize(def, max int) Window {
	if w.Offset < 0 {
		w.Offset = 0
	}
	if w.Limit < 1 {
		w.Limit = def
	}
	if w.Limit > max {
		w.Limit = max
	}
	return w
}
