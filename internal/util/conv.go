package util

import (
	"fmt"
	"strconv"
)

// ParseID 解析路径参数里的数据库主键，拒绝负数和非数字
func ParseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint(id), nil
}
