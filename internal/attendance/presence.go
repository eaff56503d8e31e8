package attendance

// Decision: 次の打刻の向きと、打刻漏れ補完が必要な場合はその日付
type Decision struct {
	Presence     bool
	BackfillDate string
}

func (d Decision) NeedsBackfill() bool { return d.BackfillDate != "" }

// Resolve: 直前の記録から IN/OUT を決める。履歴なしは IN
func Resolve(last *Attendance, today string) Decision {
	if last == nil {
		return Decision{Presence: true}
	}
	next := !last.Presence
	d := Decision{Presence: next}
	if backfillRequired(next, last, today) {
		d.BackfillDate = last.Date
	}
	return d
}

// backfillRequired: 「次が IN かつ直前も IN」で日付が変わっていれば前日分の OUT を補う。
// 厳密な交互打刻ではこの条件は成立しないが、既存データの挙動に合わせて判定はこのまま残す
func backfillRequired(next bool, last *Attendance, today string) bool {
	return next && last.Presence && last.Date != today
}
