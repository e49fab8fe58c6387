package etprimitive

// Payload 任意结构化数据（对核心逻辑不透明）
type Payload map[string]interface{}

// Clone 深拷贝，嵌套的 map 与 slice 也不与调用方共享
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue 复制 JSON 解码可能产生的容器类型，标量原样返回
func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case Payload:
		return val.Clone()
	case map[string]interface{}:
		return map[string]interface{}(Payload(val).Clone())
	case []interface{}:
		if val == nil {
			return val
		}
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// Pagination 分页参数
type Pagination struct {
	Page  int
	Limit int
	Total int64
}

// Offset 计算偏移量，page 从 1 开始
func (p Pagination) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}
