package service

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// pageOffset 规范化分页参数，page 从 1 开始
func pageOffset(page, size int) (offset, limit int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}
	return (page - 1) * size, size
}
