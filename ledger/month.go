package ledger

import (
	"strings"
	"time"
)

const monthLayout = "2006-01"

// MonthOf 将任意时间归一化为当月第一天（UTC 零点）
func MonthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// DateOf 将时间截断为 UTC 日期
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseMonth 解析 YYYY-MM 或 YYYY-MM-DD
func ParseMonth(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(monthLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, invalid("month", "格式应为 YYYY-MM")
	}
	return MonthOf(t), nil
}

// FormatMonth 输出 YYYY-MM
func FormatMonth(m time.Time) string {
	return m.Format(monthLayout)
}

// NextMonth 返回下一个月的第一天
func NextMonth(m time.Time) time.Time {
	return MonthOf(m).AddDate(0, 1, 0)
}
