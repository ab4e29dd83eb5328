package dto

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PageQuery 列表接口的分页参数，keyword 按名称模糊匹配
type PageQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1"`
	Keyword  string `form:"keyword" binding:"omitempty,max=128"`
}

// GetPage 页码从 1 开始
func (p *PageQuery) GetPage() int {
	return max(p.Page, 1)
}

// GetPageSize 未指定时为 20，最大 100
func (p *PageQuery) GetPageSize() int {
	if p.PageSize < 1 {
		return defaultPageSize
	}
	return min(p.PageSize, maxPageSize)
}

// IDParam 路径中的记录 ID
type IDParam struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

// PageResponse 一页 robot 凭据及总数
type PageResponse struct {
	Items    any   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

func NewPageResponse(items any, total int64, page, pageSize int) *PageResponse {
	return &PageResponse{Items: items, Total: total, Page: page, PageSize: pageSize}
}
