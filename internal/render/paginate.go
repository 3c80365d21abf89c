package render

// Paginate 把区块顺序切分到两页：仅当 pages[id] 恰好为 2 时进入第二页，
// 其余（包括 map 中不存在的）都在第一页。两页内部保持 order 中的相对顺序。
// pages 中不在 order 里的 key 会被忽略。
func Paginate(order []string, pages map[string]int) (page1, page2 []string) {
	page1 = make([]string, 0, len(order))
	for _, id := range order {
		if pages[id] == 2 {
			page2 = append(page2, id)
			continue
		}
		page1 = append(page1, id)
	}
	return page1, page2
}
