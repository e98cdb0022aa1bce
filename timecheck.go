package signauth

// TimeCheckerFunc 用于校验签名信息中携带的时间戳的有效性。
// now 和 timestamp 均为 UNIX 时间戳，单位为秒。
// 校验通过时返回 [ReasonNone] ，否则返回拒绝的原因。
type TimeCheckerFunc func(now, timestamp int64) DenyReason

// NoTimeChecker 是不校验时间戳的 [TimeCheckerFunc] 。
var NoTimeChecker TimeCheckerFunc = func(now, timestamp int64) DenyReason {
	return ReasonNone
}

// MaxAgeTimeChecker 返回一个 [TimeCheckerFunc] ，其要求 now-timestamp 小于等于 maxAge 。
//
// 超前当前时间的时间戳（ now-timestamp 为负数）默认视为有效。
// 若 maxSkew 大于 0 ，则要求 timestamp-now 小于等于 maxSkew 。
func MaxAgeTimeChecker(maxAge, maxSkew float64) TimeCheckerFunc {
	return func(now, timestamp int64) DenyReason {
		// 先转为浮点数再相减，避免极端的时间戳使整数减法溢出。
		age := float64(now) - float64(timestamp)
		if age > maxAge {
			return ReasonExpired
		}

		if maxSkew > 0 && -age > maxSkew {
			return ReasonFutureTimestamp
		}

		return ReasonNone
	}
}
