package service

import "context"

type operatorKey struct{}

// WithOperator 把后台操作人写入 ctx，供审核日志使用
func WithOperator(ctx context.Context, userID uint64) context.Context {
	return context.WithValue(ctx, operatorKey{}, userID)
}

func OperatorFromContext(ctx context.Context) uint64 {
	id, _ := ctx.Value(operatorKey{}).(uint64)
	return id
}

func normalizePage(page, pageSize, maxSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > maxSize {
		pageSize = maxSize
	}
	return page, pageSize
}
