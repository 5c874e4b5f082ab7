package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmount 单笔金额（交易、分配额、初始余额）的绝对值上限，按最小货币单位计。
// 余额与可用额在存储端做加法，上限保证累加不会越出 int64
const MaxAmount int64 = 1_000_000_000_000_000

var (
	maxAmount = decimal.NewFromInt(MaxAmount)
	minAmount = decimal.NewFromInt(-MaxAmount)
)

// checkAmountRange 校验金额绝对值不超过 MaxAmount
func checkAmountRange(field string, v int64) error {
	if v > MaxAmount || v < -MaxAmount {
		return invalid(field, fmt.Sprintf("绝对值不能超过 %d", MaxAmount))
	}
	return nil
}

// ParseAmount 将十进制金额字符串转换为最小货币单位
//
// exponent 为最小单位的小数位数，例如 USD 为 2："-12.34" -> -1234。
// 超出精度的小数、NaN/Inf 等非有限值和溢出都返回 ValidationError。
func ParseAmount(s string, exponent int32) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, invalid("amount", "不能为空")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, invalid("amount", "不是有效的数字")
	}
	minor := d.Shift(exponent)
	if !minor.IsInteger() {
		return 0, invalid("amount", "精度超过最小货币单位")
	}
	if minor.GreaterThan(maxAmount) || minor.LessThan(minAmount) {
		return 0, invalid("amount", "超出范围")
	}
	return minor.IntPart(), nil
}

// FormatAmount 将最小货币单位格式化为十进制字符串
func FormatAmount(minor int64, exponent int32) string {
	return decimal.New(minor, -exponent).StringFixed(exponent)
}

// AmountDecimal 返回最小货币单位对应的十进制值，用于导出
func AmountDecimal(minor int64, exponent int32) decimal.Decimal {
	return decimal.New(minor, -exponent)
}
