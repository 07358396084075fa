package service

// Pagination 聚合手动分页的结果。页码从 1 开始。
type Pagination[T any] struct {
	Items      []T
	Total      int64
	TotalPages int
	Page       int
	PerPage    int
}

// TotalPages 计算总页数（向上取整）。
func TotalPages(total int64, perPage int) int {
	if perPage <= 0 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// Paginate 对已排序的切片做分页。
// 超出范围的页码返回空列表与正确的 TotalPages，不报错；
// 所有分页路径统一走这一策略。
func Paginate[T any](items []T, page, perPage int) Pagination[T] {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 10
	}

	result := Pagination[T]{
		Items:      []T{},
		Total:      int64(len(items)),
		TotalPages: TotalPages(int64(len(items)), perPage),
		Page:       page,
		PerPage:    perPage,
	}

	start := (page - 1) * perPage
	if start >= len(items) {
		return result
	}

	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	result.Items = items[start:end]
	return result
}
