package service

// ValidationError 携带字段级的校验信息，由处理层映射为 422 响应。
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// fieldErrors 在服务内部累积字段错误，最终通过 toError 收敛。
type fieldErrors map[string]string

func (f fieldErrors) add(field, message string) {
	if _, ok := f[field]; !ok {
		f[field] = message
	}
}

func (f fieldErrors) toError() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}
