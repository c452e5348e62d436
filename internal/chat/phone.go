package chat

import (
	"errors"
	"strings"
)

// 巴西国家码；本地号码（DDD + 号码，10-11 位）补齐国家码后做精确匹配
const brazilCountryCode = "55"

var (
	ErrPhoneEmpty    = errors.New("phone: empty after normalization")
	ErrPhoneTooShort = errors.New("phone: too short")
)

// CanonicalPhone 将电话号码归一化为规范形式
//
// 规则：去掉所有非数字字符；10-11 位的本地号码补齐巴西国家码；
// 已带国家码或其他国家的号码保持数字原样。匹配一律用规范形式做
// 精确比较，不做子串包含的模糊匹配。
func CanonicalPhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if digits == "" {
		return "", ErrPhoneEmpty
	}
	if len(digits) < 8 {
		return "", ErrPhoneTooShort
	}

	if len(digits) == 10 || len(digits) == 11 {
		if !strings.HasPrefix(digits, brazilCountryCode) {
			return brazilCountryCode + digits, nil
		}
	}
	return digits, nil
}
